package cache

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock is a Redis mutex held by one instance at a time. It expires after its TTL
// so a crashed holder never blocks other instances for good.
type Lock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	owner  string
}

// NewLock creates a lock on key. The owner id is unique per process.
func NewLock(client *redis.Client, key string, ttl time.Duration) *Lock {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "monitor"
	}
	return &Lock{
		client: client,
		key:    key,
		ttl:    ttl,
		owner:  fmt.Sprintf("%s-%d", hostname, time.Now().UnixNano()),
	}
}

// Owner identifies this instance in the lock value
func (l *Lock) Owner() string {
	return l.owner
}

// TryAcquire takes the lock if nobody holds it
func (l *Lock) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", l.key, err)
	}
	return ok, nil
}

// only the owner may extend or delete the key
var renewScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// Renew extends the TTL. It reports false when the lock is no longer ours.
func (l *Lock) Renew(ctx context.Context) (bool, error) {
	n, err := renewScript.Run(ctx, l.client, []string{l.key}, l.owner, l.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("renew lock %s: %w", l.key, err)
	}
	return n == 1, nil
}

// Release deletes the lock if this instance still holds it
func (l *Lock) Release(ctx context.Context) error {
	if _, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Int(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	return nil
}
