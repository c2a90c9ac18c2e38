package guard_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"shelfpos/internal/guard"
	"shelfpos/internal/port"
)

func exerciseGuard(t *testing.T, g port.Guard) {
	t.Helper()
	ctx := context.Background()
	key := "checkout:" + uuid.NewString()

	var acquired atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := g.Acquire(ctx, key)
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			if ok {
				acquired.Add(1)
			}
		}()
	}
	wg.Wait()
	if acquired.Load() != 1 {
		t.Fatalf("expected exactly one holder, got %d", acquired.Load())
	}

	if err := g.Release(ctx, key); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err := g.Acquire(ctx, key)
	if err != nil || !ok {
		t.Fatalf("re-acquire after release: %v %v", ok, err)
	}
	_ = g.Release(ctx, key)
}

func TestMemoryGuard(t *testing.T) {
	exerciseGuard(t, guard.NewMemory())
}

func TestRedisGuard(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	exerciseGuard(t, guard.NewRedis(client))
}
