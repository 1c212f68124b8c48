// Package revocation keeps spent refresh-token ids in Redis until the
// tokens would have expired anyway.
package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked_refresh:"

// New creates a Redis client and checks it answers.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("revocation: ping: %w", err)
	}
	return client, nil
}

type Store struct {
	Client redis.Cmdable
	Now    func() time.Time
}

func NewStore(client redis.Cmdable) *Store {
	return &Store{Client: client, Now: time.Now}
}

func key(tokenID string) string {
	return keyPrefix + tokenID
}

// Revoke marks tokenID as spent until the given instant. It returns true
// only for the first caller; later calls see false.
func (s *Store) Revoke(ctx context.Context, tokenID string, until time.Time) (bool, error) {
	ttl := until.Sub(s.Now())
	if ttl < time.Second {
		ttl = time.Second
	}

	ok, err := s.Client.SetNX(ctx, key(tokenID), until.Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("revocation: setnx: %w", err)
	}
	return ok, nil
}
