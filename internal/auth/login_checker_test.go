package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginChecker_IsLogged(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	loginChecker := NewLoginChecker(time.Hour, db)
	require.NotNil(t, loginChecker)

	ctx := context.Background()

	mock.ExpectGet(sessionKeyPrefix + "invalid token").SetErr(redis.Nil)
	userID, err := loginChecker.IsLogged(ctx, "invalid token")
	require.Equal(t, "redis: nil", err.Error())
	assert.Empty(t, userID)

	mock.ExpectGet(sessionKeyPrefix + "invalid token").SetErr(redis.Nil)
	userID, err = loginChecker.IsLogged(ctx, "invalid token")
	require.Equal(t, "redis: nil", err.Error())
	assert.Empty(t, userID) // idempotent

	testToken := "test-token"
	sessionKey := sessionKeyPrefix + testToken
	sessionJson, err := json.Marshal(LoginSession{
		UserID:    "u1",
		CreatedAt: time.Now().Unix(),
	})
	require.NoError(t, err)

	mock.ExpectGet(sessionKey).SetVal(string(sessionJson))
	userID, err = loginChecker.IsLogged(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	mock.ExpectGet(sessionKey).SetVal(string(sessionJson))
	userID, err = loginChecker.IsLogged(ctx, testToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID) // idempotent

	// expired session: no error, but no user either
	expiredSessionJson, err := json.Marshal(LoginSession{
		UserID:    "u1",
		CreatedAt: time.Now().Add(-2 * time.Hour).Unix(),
	})
	require.NoError(t, err)
	mock.ExpectGet(sessionKey).SetVal(string(expiredSessionJson))
	userID, err = loginChecker.IsLogged(ctx, testToken)
	require.NoError(t, err)
	assert.Empty(t, userID)
}
