package guard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "shelfpos:guard:"
	lockTTL   = 30 * time.Second
)

// only delete the key if it still carries our token
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// Redis is a guard shared by every process using the same Redis. Keys expire after
// lockTTL so a crashed holder cannot block a cart forever.
type Redis struct {
	client *redis.Client
	mu     sync.Mutex
	tokens map[string]string
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, tokens: map[string]string{}}
}

func (r *Redis) Acquire(ctx context.Context, key string) (bool, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, keyPrefix+key, token, lockTTL).Result()
	if err != nil || !ok {
		return false, err
	}
	r.mu.Lock()
	r.tokens[key] = token
	r.mu.Unlock()
	return true, nil
}

func (r *Redis) Release(ctx context.Context, key string) error {
	r.mu.Lock()
	token, ok := r.tokens[key]
	delete(r.tokens, key)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return releaseScript.Run(ctx, r.client, []string{keyPrefix + key}, token).Err()
}
