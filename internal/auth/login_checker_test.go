package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginChecker_IsLogged(t *testing.T) {
	db, mock := redismock.NewClientMock()
	checker := NewLoginChecker(time.Hour, db)

	sessionKey := sessionKeyPrefix + "fresh-token"
	createdAt := time.Now().Add(-10 * time.Minute)
	mock.ExpectGet(sessionKey).SetVal(fmt.Sprintf("%d", createdAt.Unix()))

	logged, err := checker.IsLogged(context.Background(), "fresh-token")
	require.NoError(t, err)
	assert.True(t, logged)
}

func TestLoginChecker_IsLogged_Expired(t *testing.T) {
	db, mock := redismock.NewClientMock()
	checker := NewLoginChecker(time.Hour, db)

	sessionKey := sessionKeyPrefix + "stale-token"
	createdAt := time.Now().Add(-2 * time.Hour)
	mock.ExpectGet(sessionKey).SetVal(fmt.Sprintf("%d", createdAt.Unix()))

	logged, err := checker.IsLogged(context.Background(), "stale-token")
	require.NoError(t, err)
	assert.False(t, logged)
}

func TestLoginChecker_IsLogged_NotFound(t *testing.T) {
	db, mock := redismock.NewClientMock()
	checker := NewLoginChecker(time.Hour, db)

	mock.ExpectGet(sessionKeyPrefix + "missing").RedisNil()

	_, err := checker.IsLogged(context.Background(), "missing")
	assert.Error(t, err)
}
