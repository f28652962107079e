package store

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

var ErrMiss = errors.New("cache miss")

// KV 合规记录的 Redis 存储抽象（单测中可替换）
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	// CreateIndexed 原子写入：claimKey 与 valueKey 均不存在时写入二者，
	// 并把 member 加入每个 indexKeys 集合；任一 key 已存在则什么都不写，返回 false
	CreateIndexed(ctx context.Context, claimKey, claimValue, valueKey, value, member string, indexKeys ...string) (bool, error)
	SMembers(ctx context.Context, key string) ([]string, error)
}

type RedisKV struct {
	c *redis.Client
}

func NewRedisKV(c *redis.Client) *RedisKV { return &RedisKV{c: c} }

// KEYS: claim, value, index...；ARGV: claimValue, value, member
var createIndexedScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 or redis.call('EXISTS', KEYS[2]) == 1 then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('SET', KEYS[2], ARGV[2])
for i = 3, #KEYS do
	redis.call('SADD', KEYS[i], ARGV[3])
end
return 1
`)

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKV) CreateIndexed(ctx context.Context, claimKey, claimValue, valueKey, value, member string, indexKeys ...string) (bool, error) {
	keys := append([]string{claimKey, valueKey}, indexKeys...)
	n, err := createIndexedScript.Run(ctx, r.c, keys, claimValue, value, member).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *RedisKV) SMembers(ctx context.Context, key string) ([]string, error) {
	return r.c.SMembers(ctx, key).Result()
}
