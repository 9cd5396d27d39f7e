package businessflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	retentionRunMutex sync.Mutex
)

func tryLockRetentionRun() bool {
	return retentionRunMutex.TryLock()
}

func unlockRetentionRun() {
	retentionRunMutex.Unlock()
}

// Deletes the key only while it still holds our token
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// acquireRedisLock takes a best-effort cross-replica lock. A nil client always succeeds.
func acquireRedisLock(ctx context.Context, rc redis.UniversalClient, key string, ttl time.Duration) (release func(), acquired bool, err error) {
	if rc == nil {
		return func() {}, true, nil
	}

	token := uuid.NewString()
	ok, err := rc.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return func() {}, false, err
	}
	if !ok {
		return func() {}, false, nil
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseLockScript.Run(ctx, rc, []string{key}, token).Err()
	}, true, nil
}
