package advice

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetAndGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(db, time.Hour)

	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	cache.NowFunc = func() time.Time { return now }

	resp := &Response{Advice: "more protein"}
	expectedJson, err := json.Marshal(&Response{
		Advice:      "more protein",
		CachedUntil: now.Add(time.Hour),
	})
	require.NoError(t, err)

	key := cacheKeyPrefix + "c1||meals"
	mock.ExpectSet(key, expectedJson, time.Hour).SetVal("OK")

	require.NoError(t, cache.Set(context.Background(), "c1", "meals", resp))
	assert.Equal(t, now.Add(time.Hour), resp.CachedUntil)

	mock.ExpectGet(key).SetVal(string(expectedJson))
	cached, err := cache.Get(context.Background(), "c1", "meals")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "more protein", cached.Advice)
	assert.True(t, cached.IsCached)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_Get_Miss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(db, time.Hour)

	mock.ExpectGet(cacheKeyPrefix + "c1||training").RedisNil()

	cached, err := cache.Get(context.Background(), "c1", "training")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestCache_Get_BadPayload(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(db, time.Hour)

	mock.ExpectGet(cacheKeyPrefix + "c1||training").SetVal("{not json")

	_, err := cache.Get(context.Background(), "c1", "training")
	assert.Error(t, err)
}
