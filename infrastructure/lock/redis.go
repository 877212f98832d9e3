// Package lock fornece o lock distribuído que garante uma única réplica executando a varredura por vez
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	KeyPrefix  = "sales-performance:lock:"
	DefaultTTL = 10 * time.Minute
)

// releaseScript só remove a chave se ela ainda pertence ao dono que a adquiriu
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker adquire um lock nomeado; acquired=false indica que outra instância já o detém
type Locker interface {
	Acquire(ctx context.Context, name string) (release func(), acquired bool, err error)
}

type RedisLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisLocker{
		rdb: rdb,
		ttl: ttl,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, name string) (func(), bool, error) {
	key := KeyPrefix + name
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// contexto próprio para liberar mesmo após o cancelamento da execução
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.rdb, []string{key}, token).Err()
	}

	return release, true, nil
}

// LocalLocker é usado quando o Redis está desabilitado; sempre concede o lock
type LocalLocker struct{}

func (LocalLocker) Acquire(context.Context, string) (func(), bool, error) {
	return func() {}, true, nil
}
