package auth

import "context"

type LoginTestChecker struct {
	// token -> user id
	LoggedSessions map[string]string
}

func NewLoginTestChecker() *LoginTestChecker {
	return &LoginTestChecker{
		LoggedSessions: map[string]string{},
	}
}

func (c *LoginTestChecker) IsLogged(_ context.Context, token string) (string, error) {
	return c.LoggedSessions[token], nil
}
