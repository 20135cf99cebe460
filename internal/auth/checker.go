package auth

import "context"

var _ Checker = (*LoginChecker)(nil)
var _ Checker = (*LoginTestChecker)(nil)

// Checker resolves a session token to a user ID. An empty user ID with
// a nil error means "no such session" (expired or never logged in).
type Checker interface {
	IsLogged(ctx context.Context, token string) (userID string, err error)
}
