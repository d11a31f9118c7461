package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var ErrLockTimeout = errors.New("lock: timed out waiting for key")

// Locker 按 key 串行化临界区，unlock 必须调用且只调用一次
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// New 有 Redis 客户端时使用分布式锁，否则退回进程内锁
func New(rdb *redis.Client) Locker {
	if rdb == nil {
		return NewLocalLocker()
	}
	return NewRedisLocker(rdb, 10*time.Second, 25*time.Millisecond)
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// LocalLocker 进程内按 key 的互斥锁，空闲 key 会被回收
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*entry)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		e.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-ctx.Done():
		// 放弃等待，但锁最终仍会被那个 goroutine 拿到，需要归还
		go func() {
			<-acquired
			l.release(key, e)
		}()
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(key, e) }) }, nil
}

func (l *LocalLocker) release(key string, e *entry) {
	e.mu.Unlock()
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

// 只删除自己持有的锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker SET NX PX 实现的跨实例锁，ttl 防止持有者崩溃后死锁
type RedisLocker struct {
	rdb   *redis.Client
	ttl   time.Duration
	retry time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl, retry time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: ttl, retry: retry}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	key = "lock:" + key

	deadline := time.Now().Add(l.ttl)
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			unlockScript.Run(context.Background(), l.rdb, []string{key}, token)
		})
	}, nil
}
