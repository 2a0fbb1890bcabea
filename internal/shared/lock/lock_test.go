package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestKeyedSerializesSameName(t *testing.T) {
	k := NewKeyed()
	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := With(context.Background(), k, "doc-1", func(ctx context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					cur := atomic.LoadInt32(&maxInside)
					if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			if err != nil {
				t.Errorf("With: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxInside)
	}
	if k.Len() != 0 {
		t.Fatalf("expected idle names to be dropped, got %d", k.Len())
	}
}

func TestKeyedDifferentNamesDoNotBlock(t *testing.T) {
	k := NewKeyed()
	release, err := k.Lock(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Lock doc-1: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	other, err := k.Lock(ctx, "doc-2")
	if err != nil {
		t.Fatalf("expected doc-2 to be free: %v", err)
	}
	other()
}

func TestKeyedHonorsCancellation(t *testing.T) {
	k := NewKeyed()
	release, err := k.Lock(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := k.Lock(ctx, "doc-1"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}
}

func TestWithReleasesOnError(t *testing.T) {
	k := NewKeyed()
	boom := errors.New("boom")
	if err := With(context.Background(), k, "doc-1", func(ctx context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if k.Len() != 0 {
		t.Fatalf("expected lock to be released after error")
	}
}

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client
}

func TestRedisLockExcludesSecondHolder(t *testing.T) {
	client := setupTestRedis(t)
	l1 := NewRedis(client, 5*time.Second)
	l2 := NewRedis(client, 5*time.Second)

	release, err := l1.Lock(context.Background(), "extraction:doc-1")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	if _, err := l2.Lock(ctx, "extraction:doc-1"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected second holder to time out, got %v", err)
	}

	release()

	release2, err := l2.Lock(context.Background(), "extraction:doc-1")
	if err != nil {
		t.Fatalf("expected lock after release: %v", err)
	}
	release2()
}

func TestRedisReleaseOnlyDeletesOwnToken(t *testing.T) {
	client := setupTestRedis(t)
	l := NewRedis(client, 5*time.Second)

	release, err := l.Lock(context.Background(), "extraction:doc-1")
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	// Simulate TTL expiry followed by another holder.
	client.Set(context.Background(), redisLockPrefix+"extraction:doc-1", "someone-else", time.Minute)

	release()

	val, err := client.Get(context.Background(), redisLockPrefix+"extraction:doc-1").Result()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "someone-else" {
		t.Fatalf("expected foreign lock to survive release, got %q", val)
	}
}

func TestRedisOwnerIDUnique(t *testing.T) {
	client := setupTestRedis(t)
	if NewRedis(client, 0).OwnerID() == NewRedis(client, 0).OwnerID() {
		t.Fatalf("expected unique owner IDs")
	}
}
