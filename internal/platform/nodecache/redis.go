package nodecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

type redisCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis(log *logger.Logger, cfg RedisConfig) (Cache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = "pcmm:node"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisCache{
		log:    log.With("service", "RedisNodeCache"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

func (c *redisCache) key(id uuid.UUID) string {
	return c.prefix + ":" + id.String()
}

func (c *redisCache) Get(ctx context.Context, elementID uuid.UUID) (*Node, error) {
	raw, err := c.rdb.Get(ctx, c.key(elementID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var n Node
	if err := json.Unmarshal(raw, &n); err != nil {
		c.log.Warn("bad cached node, dropping", "element_id", elementID, "error", err)
		_ = c.rdb.Del(ctx, c.key(elementID)).Err()
		return nil, nil
	}
	return &n, nil
}

func (c *redisCache) Set(ctx context.Context, n *Node) error {
	if n == nil || n.Element.ID == uuid.Nil {
		return nil
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(n.Element.ID), raw, c.ttl).Err()
}

func (c *redisCache) Invalidate(ctx context.Context, elementIDs ...uuid.UUID) error {
	if len(elementIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(elementIDs))
	for _, id := range elementIDs {
		keys = append(keys, c.key(id))
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *redisCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
