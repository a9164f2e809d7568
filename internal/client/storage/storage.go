package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/metadata"
	"github.com/redis/go-redis/v9"
)

// Store is an opened metadata repository plus the function that releases it.
type Store struct {
	Repo  metadata.Repository
	close func() error
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open returns the repository selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.StoreDriver {
	case "", config.StoreDriverSQLite:
		db, err := InitDatabase(ctx, cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		return &Store{Repo: metadata.NewSQLiteRepository(db), close: db.Close}, nil

	case config.StoreDriverRedis:
		rdb, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		return &Store{Repo: metadata.NewRedisRepository(rdb, ""), close: rdb.Close}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
