package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain will run goleak after all tests have been run in the package
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

func TestService_Login(t *testing.T) {
	db, mock := redismock.NewClientMock()
	service := NewService(time.Hour, db)
	service.RandStringFunc = func(s int) (string, error) {
		return "test-token", nil
	}

	createdAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	sessionKey := sessionKeyPrefix + "test-token"
	mock.ExpectSet(sessionKey, createdAt.Unix(), 0).SetVal("OK")
	mock.ExpectSAdd(tokensSetKey, "test-token").SetVal(1)

	token, err := service.Login(context.Background(), createdAt)
	require.NoError(t, err)
	assert.Equal(t, "test-token", token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Login_RandStringError(t *testing.T) {
	db, _ := redismock.NewClientMock()
	service := NewService(time.Hour, db)
	service.RandStringFunc = func(s int) (string, error) {
		return "", fmt.Errorf("entropy exhausted")
	}

	_, err := service.Login(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestService_Logout(t *testing.T) {
	db, mock := redismock.NewClientMock()
	service := NewService(time.Hour, db)

	sessionKey := sessionKeyPrefix + "test-token"
	createdAt := time.Now().Add(-time.Minute)
	mock.ExpectGet(sessionKey).SetVal(fmt.Sprintf("%d", createdAt.Unix()))
	mock.ExpectSet(sessionKey, 0, 0).SetVal("OK")
	mock.ExpectSRem(tokensSetKey, "test-token").SetVal(1)

	loggedOut, err := service.Logout(context.Background(), "test-token")
	require.NoError(t, err)
	assert.True(t, loggedOut)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Logout_UnknownToken(t *testing.T) {
	db, mock := redismock.NewClientMock()
	service := NewService(time.Hour, db)

	mock.ExpectGet(sessionKeyPrefix + "nope").RedisNil()

	_, err := service.Logout(context.Background(), "nope")
	assert.Error(t, err)
}
