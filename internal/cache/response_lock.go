package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only when the caller still owns it, so a
// slow holder cannot free a lock that has already expired and been retaken.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// ResponseLock serializes answer submissions per response id with a Redis
// SET-NX lock. Submissions for different responses never contend.
type ResponseLock struct {
	client     *redis.Client
	ttl        time.Duration
	retryDelay time.Duration
}

func NewResponseLock(client *redis.Client) *ResponseLock {
	return &ResponseLock{
		client:     client,
		ttl:        15 * time.Second,
		retryDelay: 25 * time.Millisecond,
	}
}

// Lock blocks until the per-response lock is acquired or ctx is done, and
// returns the release function.
func (l *ResponseLock) Lock(ctx context.Context, responseID string) (func(), error) {
	key := "flowlock:" + responseID
	token := uuid.New().String()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire response lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire response lock: %w", ctx.Err())
		case <-time.After(l.retryDelay):
		}
	}

	release := func() {
		// Best effort: if Redis is unreachable the TTL still reaps the lock.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}
	return release, nil
}
