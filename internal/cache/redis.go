// Package cache содержит обёртку над redis, используемую как распределённая отметка
// «задача уже выполнялась сегодня».
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/dealer-users/internal/config"
)

// Cache держит клиент redis.
type Cache struct {
	Db *redis.Client
}

// InitServer создаёт клиент и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// Close закрывает клиент.
func (c *Cache) Close() error {
	return c.Db.Close()
}

// DailyGuard не даёт выполнить одну и ту же задачу дважды за календарный день,
// даже если процесс перезапустился около полуночи.
type DailyGuard struct {
	cache  *Cache
	prefix string
	loc    *time.Location
}

// NewDailyGuard создаёт отметку с ключами вида "<prefix>:YYYY-MM-DD" в часовом поясе loc.
func NewDailyGuard(c *Cache, prefix string, loc *time.Location) *DailyGuard {
	if loc == nil {
		loc = time.UTC
	}
	return &DailyGuard{cache: c, prefix: prefix, loc: loc}
}

// Key возвращает ключ отметки для момента now.
func (g *DailyGuard) Key(now time.Time) string {
	return g.prefix + ":" + now.In(g.loc).Format(time.DateOnly)
}

// Acquire атомарно ставит отметку на день now. false означает, что отметка уже стоит.
// Ключ живёт чуть больше суток, чтобы не копить мусор.
func (g *DailyGuard) Acquire(ctx context.Context, now time.Time) (bool, error) {
	const op = "cache.DailyGuard.Acquire"
	ok, err := g.cache.Db.SetNX(ctx, g.Key(now), now.UTC().Format(time.RFC3339), 25*time.Hour).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// Release снимает отметку, чтобы сорвавшийся запуск можно было повторить в тот же день.
func (g *DailyGuard) Release(ctx context.Context, now time.Time) error {
	const op = "cache.DailyGuard.Release"
	if err := g.cache.Db.Del(ctx, g.Key(now)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
