package cache

import (
	"cmp"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/procurement-risk/internal/config"
	"github.com/andresuchdata/procurement-risk/internal/domain"
)

// keyspace is a namespace of cache entries that is invalidated as a whole.
type keyspace string

const (
	riskKeyspace     keyspace = "procurement:risks"
	supplierKeyspace keyspace = "procurement:supplier_performance"

	defaultRiskTTL = time.Minute
	scanBatchSize  = 100
	dialTimeout    = 5 * time.Second
)

func (k keyspace) key(id string) string {
	return string(k) + ":" + id
}

func (k keyspace) pattern() string {
	return string(k) + ":*"
}

// ProcurementCache stores computed risk reports and supplier statistics.
// Risk reports are keyed by the calendar day they were computed for.
type ProcurementCache interface {
	GetRiskReport(ctx context.Context, day string) (*domain.RiskReport, bool, error)
	SetRiskReport(ctx context.Context, day string, report *domain.RiskReport) error
	InvalidateRiskReports(ctx context.Context) error

	GetSupplierPerformance(ctx context.Context, supplier string) ([]domain.SupplierPerformance, bool, error)
	SetSupplierPerformance(ctx context.Context, supplier string, perf []domain.SupplierPerformance) error
	InvalidateSupplierPerformance(ctx context.Context) error

	InvalidateAll(ctx context.Context) error
}

type redisProcurementCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopProcurementCache struct{}

func NewProcurementCache(cfg config.CacheConfig) (ProcurementCache, error) {
	if !cfg.Enabled {
		return &noopProcurementCache{}, nil
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("procurement cache: ping %s: %w", opts.Addr, err)
	}

	// risk reports and supplier statistics share one freshness window
	return NewRedisProcurementCache(client, time.Duration(cfg.RiskTTLSeconds)*time.Second), nil
}

// redisOptions prefers REDIS_URL and falls back to host, port and db.
func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("procurement cache: parse REDIS_URL: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(cmp.Or(cfg.RedisHost, "127.0.0.1"), cmp.Or(cfg.RedisPort, "6379")),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

// NewRedisProcurementCache wraps an existing client.
func NewRedisProcurementCache(client *redis.Client, ttl time.Duration) ProcurementCache {
	if ttl <= 0 {
		ttl = defaultRiskTTL
	}
	return &redisProcurementCache{client: client, ttl: ttl}
}

func NewNoopProcurementCache() ProcurementCache {
	return &noopProcurementCache{}
}

func (c *redisProcurementCache) GetRiskReport(ctx context.Context, day string) (*domain.RiskReport, bool, error) {
	var report domain.RiskReport
	ok, err := c.getJSON(ctx, riskReportKey(day), &report)
	if err != nil || !ok {
		return nil, false, err
	}
	return &report, true, nil
}

func (c *redisProcurementCache) SetRiskReport(ctx context.Context, day string, report *domain.RiskReport) error {
	return c.setJSON(ctx, riskReportKey(day), report)
}

func (c *redisProcurementCache) InvalidateRiskReports(ctx context.Context) error {
	return c.purge(ctx, riskKeyspace)
}

func (c *redisProcurementCache) GetSupplierPerformance(ctx context.Context, supplier string) ([]domain.SupplierPerformance, bool, error) {
	var perf []domain.SupplierPerformance
	ok, err := c.getJSON(ctx, supplierPerformanceKey(supplier), &perf)
	if err != nil || !ok {
		return nil, false, err
	}
	return perf, true, nil
}

func (c *redisProcurementCache) SetSupplierPerformance(ctx context.Context, supplier string, perf []domain.SupplierPerformance) error {
	return c.setJSON(ctx, supplierPerformanceKey(supplier), perf)
}

func (c *redisProcurementCache) InvalidateSupplierPerformance(ctx context.Context) error {
	return c.purge(ctx, supplierKeyspace)
}

func (c *redisProcurementCache) InvalidateAll(ctx context.Context) error {
	return c.purge(ctx, riskKeyspace, supplierKeyspace)
}

// purge deletes every entry of the given keyspaces, one SCAN page at a time.
func (c *redisProcurementCache) purge(ctx context.Context, spaces ...keyspace) error {
	for _, space := range spaces {
		iter := c.client.Scan(ctx, 0, space.pattern(), scanBatchSize).Iterator()
		batch := make([]string, 0, scanBatchSize)
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) == scanBatchSize {
				if err := c.client.Del(ctx, batch...).Err(); err != nil {
					return fmt.Errorf("procurement cache: purge %s: %w", space, err)
				}
				batch = batch[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("procurement cache: scan %s: %w", space, err)
		}
		if len(batch) > 0 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("procurement cache: purge %s: %w", space, err)
			}
		}
	}
	return nil
}

func (c *redisProcurementCache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("decode %s cache: %w", key, err)
	}
	return true, nil
}

func (c *redisProcurementCache) setJSON(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s cache: %w", key, err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopProcurementCache) GetRiskReport(ctx context.Context, day string) (*domain.RiskReport, bool, error) {
	return nil, false, nil
}

func (n *noopProcurementCache) SetRiskReport(ctx context.Context, day string, report *domain.RiskReport) error {
	return nil
}

func (n *noopProcurementCache) InvalidateRiskReports(ctx context.Context) error {
	return nil
}

func (n *noopProcurementCache) GetSupplierPerformance(ctx context.Context, supplier string) ([]domain.SupplierPerformance, bool, error) {
	return nil, false, nil
}

func (n *noopProcurementCache) SetSupplierPerformance(ctx context.Context, supplier string, perf []domain.SupplierPerformance) error {
	return nil
}

func (n *noopProcurementCache) InvalidateSupplierPerformance(ctx context.Context) error {
	return nil
}

func (n *noopProcurementCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func riskReportKey(day string) string {
	return riskKeyspace.key(day)
}

func supplierPerformanceKey(supplier string) string {
	return supplierKeyspace.key(supplierHash(supplier))
}

func supplierHash(supplier string) string {
	supplier = strings.ToLower(strings.TrimSpace(supplier))
	if supplier == "" {
		return "all"
	}
	sum := sha1.Sum([]byte(supplier))
	return hex.EncodeToString(sum[:])
}
