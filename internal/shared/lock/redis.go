package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisLockPrefix = "dealdocs:lock:"

// Redis is a Locker backed by SET NX PX. Each acquisition stores a unique
// token so a holder whose TTL lapsed cannot release someone else's lock.
type Redis struct {
	client       *redis.Client
	ownerID      string
	ttl          time.Duration
	pollInterval time.Duration
}

// NewRedis constructs a Redis-backed Locker with the given lock TTL.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Redis{
		client:       client,
		ownerID:      generateOwnerID(),
		ttl:          ttl,
		pollInterval: 25 * time.Millisecond,
	}
}

// Format: hostname:pid:random
func generateOwnerID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), randomHex(8))
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// OwnerID identifies this process in lock values.
func (l *Redis) OwnerID() string {
	return l.ownerID
}

// Lock polls SET NX until the lock is taken or ctx is done.
func (l *Redis) Lock(ctx context.Context, name string) (func(), error) {
	key := redisLockPrefix + name
	token := l.ownerID + ":" + randomHex(8)

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", name, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}

	return func() {
		// Release must run even if the caller's context is already cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}, nil
}

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Ping checks if the Redis backend is healthy.
func (l *Redis) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
