package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/procurement-risk/internal/config"
	"github.com/andresuchdata/procurement-risk/internal/domain"
)

func newTestCache(t *testing.T) (ProcurementCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisProcurementCache(client, time.Minute), mr
}

func TestRiskReportRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.GetRiskReport(ctx, "2024-03-15")
	require.NoError(t, err)
	assert.False(t, ok)

	days := 12
	report := &domain.RiskReport{
		GeneratedAt: time.Date(2024, time.March, 15, 8, 0, 0, 0, time.UTC),
		Risks: []domain.StockoutRisk{{
			ArtisCodes:        []string{"HPL-001"},
			RiskLevel:         domain.RiskHigh,
			DaysUntilStockout: &days,
		}},
		Summary: domain.RiskSummary{Total: 1, High: 1},
	}
	require.NoError(t, c.SetRiskReport(ctx, "2024-03-15", report))
	assert.True(t, mr.Exists("procurement:risks:2024-03-15"))
	assert.Equal(t, time.Minute, mr.TTL("procurement:risks:2024-03-15"))

	got, ok, err := c.GetRiskReport(ctx, "2024-03-15")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, report.Summary, got.Summary)
	require.Len(t, got.Risks, 1)
	assert.Equal(t, 12, *got.Risks[0].DaysUntilStockout)
}

func TestInvalidateAll(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetRiskReport(ctx, "2024-03-15", &domain.RiskReport{}))
	require.NoError(t, c.SetSupplierPerformance(ctx, "", []domain.SupplierPerformance{{Supplier: "Acme"}}))
	require.NoError(t, c.SetSupplierPerformance(ctx, "Acme", []domain.SupplierPerformance{{Supplier: "Acme"}}))
	require.NoError(t, mr.Set("unrelated", "keep"))

	require.NoError(t, c.InvalidateAll(ctx))

	assert.Equal(t, []string{"unrelated"}, mr.Keys())
}

func TestSupplierKeyNormalizesName(t *testing.T) {
	assert.Equal(t, supplierPerformanceKey("Acme"), supplierPerformanceKey("  acme "))
	assert.Equal(t, "procurement:supplier_performance:all", supplierPerformanceKey(""))
}

func TestCorruptEntryIsAnError(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("procurement:risks:2024-03-15", "{not json"))

	_, ok, err := c.GetRiskReport(context.Background(), "2024-03-15")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDisabledCacheIsNoop(t *testing.T) {
	c, err := NewProcurementCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	require.NoError(t, c.SetRiskReport(context.Background(), "2024-03-15", &domain.RiskReport{}))
	_, ok, err := c.GetRiskReport(context.Background(), "2024-03-15")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = redisOptions(config.CacheConfig{RedisURL: "redis://:pw@redis.local:6379/1"})
	require.NoError(t, err)
	assert.Equal(t, "redis.local:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 1, opts.DB)

	_, err = redisOptions(config.CacheConfig{RedisURL: "://bad"})
	assert.Error(t, err)
}

func TestInvalidateKeepsOtherKeyspace(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for i := 1; i <= scanBatchSize+20; i++ {
		require.NoError(t, c.SetRiskReport(ctx, fmt.Sprintf("2024-01-%03d", i), &domain.RiskReport{}))
	}
	require.NoError(t, c.SetSupplierPerformance(ctx, "Acme", []domain.SupplierPerformance{{Supplier: "Acme"}}))

	require.NoError(t, c.InvalidateRiskReports(ctx))
	assert.Equal(t, []string{supplierPerformanceKey("Acme")}, mr.Keys())

	require.NoError(t, c.InvalidateSupplierPerformance(ctx))
	assert.Empty(t, mr.Keys())
}

func TestNewProcurementCacheUnreachable(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	addr := mr.Addr()
	mr.Close()

	_, err := NewProcurementCache(config.CacheConfig{Enabled: true, RedisURL: "redis://" + addr})
	assert.ErrorContains(t, err, "procurement cache: ping")
}

func TestNewProcurementCacheAppliesTTL(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewProcurementCache(config.CacheConfig{Enabled: true, RedisURL: "redis://" + mr.Addr(), RiskTTLSeconds: 90})
	require.NoError(t, err)
	require.NoError(t, c.SetRiskReport(context.Background(), "2024-03-15", &domain.RiskReport{}))
	assert.Equal(t, 90*time.Second, mr.TTL(riskReportKey("2024-03-15")))
}
