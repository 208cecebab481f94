package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const draftKeyPrefix = "miifit-draft||"

var ErrDraftNotFound = errors.New("draft not found")

// Store keeps work-in-progress client payloads under explicit keys.
// Drafts are opaque to the server and expire on their own; saving and
// clearing are always deliberate, a draft is never touched as a side
// effect of other operations.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{
		rdb: rdb,
		ttl: ttl,
	}
}

func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	if err := s.rdb.Set(ctx, draftKeyPrefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	value, err := s.rdb.Get(ctx, draftKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("load draft: %w", err)
	}
	return value, nil
}

func (s *Store) Clear(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, draftKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}
