package geocode

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vistahr/stayhub/internal/cache"
)

// Store is the response cache behind the geocode client. Both backends are
// best effort: a failed read is a miss, a failed write is dropped.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
}

// MemoryStore keeps cached responses in process memory.
type MemoryStore struct {
	c *cache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{c: cache.New(ttl)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := s.c.Get(key)

	if !ok {
		return nil, false
	}

	b, ok := v.([]byte)

	return b, ok
}

func (s *MemoryStore) Set(_ context.Context, key string, val []byte) {
	s.c.Set(key, val)
}

// RedisStore shares the cache across replicas so the whole deployment
// stays inside the upstream rate budget.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisStore(cfg RedisConfig, ttl time.Duration, log *slog.Logger) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &RedisStore{rdb: rdb, ttl: ttl, log: log}
}

// Ping checks redis connectivity at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

const redisKeyPrefix = "geocode:"

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := s.rdb.Get(ctx, redisKeyPrefix+key).Bytes()

	if err != nil {
		if err != redis.Nil && s.log != nil {
			s.log.Warn("geocode cache read failed", "err", err)
		}
		return nil, false
	}

	return b, true
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte) {
	err := s.rdb.Set(ctx, redisKeyPrefix+key, val, s.ttl).Err()

	if err != nil && s.log != nil {
		s.log.Warn("geocode cache write failed", "err", err)
	}
}
