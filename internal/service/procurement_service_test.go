package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/procurement-risk/internal/cache"
	"github.com/andresuchdata/procurement-risk/internal/domain"
	"github.com/andresuchdata/procurement-risk/internal/procurement"
	"github.com/andresuchdata/procurement-risk/internal/repository/memory"
)

var fixedNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	repo    *memory.Repository
	svc     *ProcurementService
	empty   domain.Product
	healthy domain.Product
}

func newFixture(t *testing.T, c cache.ProcurementCache) *fixture {
	t.Helper()
	repo := memory.NewRepository()

	empty := repo.AddProduct(domain.Product{Codes: []string{"A-1"}, Supplier: "Acme", Active: true, IsImported: true})
	healthy := repo.AddProduct(domain.Product{Codes: []string{"B-1"}, Supplier: "Borealis", CurrentStock: 500, Active: true})
	repo.AddProduct(domain.Product{Codes: []string{"C-1"}, Supplier: "Acme", CurrentStock: -5, Active: true})
	repo.AddProduct(domain.Product{Codes: []string{"D-1"}, Supplier: "Acme", Active: false})

	repo.AddTransaction(domain.Transaction{ProductID: empty.ID, Type: domain.TransactionOut, Quantity: 100, Date: fixedNow.AddDate(0, 0, -5), IncludeInAvg: true})
	repo.AddTransaction(domain.Transaction{ProductID: healthy.ID, Type: domain.TransactionIn, Quantity: 550, Date: fixedNow.AddDate(0, -1, -10), IncludeInAvg: true})
	repo.AddTransaction(domain.Transaction{ProductID: healthy.ID, Type: domain.TransactionOut, Quantity: 50, Date: fixedNow.AddDate(0, -1, 0), IncludeInAvg: true})

	svc := NewProcurementService(repo, c, procurement.NewCalculator(procurement.DefaultPolicy()),
		WithClock(func() time.Time { return fixedNow }), WithForecastWorkers(2))

	return &fixture{repo: repo, svc: svc, empty: empty, healthy: healthy}
}

func TestGetStockoutRisks(t *testing.T) {
	f := newFixture(t, nil)

	report, err := f.svc.GetStockoutRisks(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Risks, 2)

	first := report.Risks[0]
	assert.Equal(t, f.empty.ID, first.ProductID)
	assert.Equal(t, domain.RiskStockout, first.RiskLevel)
	require.NotNil(t, first.DaysUntilStockout)
	assert.Equal(t, 0, *first.DaysUntilStockout)
	assert.Equal(t, 60, first.LeadTimeDays)

	second := report.Risks[1]
	assert.Equal(t, domain.RiskSafe, second.RiskLevel)
	require.NotNil(t, second.DaysUntilStockout)
	assert.Equal(t, 300, *second.DaysUntilStockout)

	assert.Equal(t, domain.RiskSummary{Total: 2, Stockout: 1, Safe: 1}, report.Summary)
	assert.Len(t, report.RiskGroups["stockout"], 1)
	assert.Equal(t, fixedNow, report.GeneratedAt)
}

func TestGetStockoutRisksUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	f := newFixture(t, cache.NewRedisProcurementCache(client, time.Minute))
	ctx := context.Background()

	_, err := f.svc.GetStockoutRisks(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists("procurement:risks:2024-03-15"))

	f.repo.AddProduct(domain.Product{Codes: []string{"E-1"}, Supplier: "Acme", CurrentStock: 10, Active: true})

	cached, err := f.svc.GetStockoutRisks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, cached.Summary.Total)

	_, err = f.svc.RefreshReorderPoints(ctx)
	require.NoError(t, err)

	fresh, err := f.svc.GetStockoutRisks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.Summary.Total)
}

func TestGetAlerts(t *testing.T) {
	f := newFixture(t, nil)

	alerts, err := f.svc.GetAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts.Critical, 1)
	assert.Equal(t, f.empty.ID, alerts.Critical[0].ProductID)
	assert.Empty(t, alerts.Upcoming)
	require.Len(t, alerts.Overstock, 1)
	assert.Equal(t, f.healthy.ID, alerts.Overstock[0].ProductID)
	require.NotNil(t, alerts.Overstock[0].MonthsOfStock)
	assert.Equal(t, 10.0, *alerts.Overstock[0].MonthsOfStock)
	assert.Equal(t, 2, alerts.Summary.Total)
}

func TestCreatePurchaseOrder(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	price := decimal.RequireFromString("12.50")

	po, err := f.svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderRequest{
		ProductID: f.empty.ID,
		Quantity:  4,
		UnitPrice: &price,
	})
	require.NoError(t, err)

	assert.Regexp(t, `^PO-\d+-[0-9A-F]{5}$`, po.OrderNumber)
	assert.Equal(t, domain.POStatusPending, po.Status)
	assert.Equal(t, "Acme", po.Supplier)
	assert.Equal(t, 60, po.LeadTimeDays)
	assert.Equal(t, fixedNow, po.OrderDate)
	assert.Equal(t, fixedNow.AddDate(0, 0, 60), po.ExpectedDeliveryDate)
	require.True(t, po.TotalAmount.Valid)
	assert.True(t, po.TotalAmount.Decimal.Equal(decimal.RequireFromString("50")))

	product, err := f.repo.GetProduct(ctx, f.empty.ID)
	require.NoError(t, err)
	require.NotNil(t, product.LastOrderDate)
	assert.Equal(t, fixedNow, *product.LastOrderDate)
}

func TestCreatePurchaseOrderRejectsBadInput(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderRequest{ProductID: f.empty.ID})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderRequest{Quantity: 5})
	assert.ErrorIs(t, err, domain.ErrValidation)

	negative := decimal.NewFromInt(-1)
	_, err = f.svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderRequest{ProductID: f.empty.ID, Quantity: 5, UnitPrice: &negative})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderRequest{ProductID: uuid.New(), Quantity: 5})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdatePurchaseOrderStatus(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	po, err := f.svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderRequest{ProductID: f.healthy.ID, Quantity: 100})
	require.NoError(t, err)

	tracking := "TRK-1"
	shipped, err := f.svc.UpdatePurchaseOrderStatus(ctx, po.ID, UpdatePurchaseOrderStatusRequest{Status: "shipped", TrackingNumber: &tracking})
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusShipped, shipped.Status)
	assert.Equal(t, &tracking, shipped.TrackingNumber)

	_, err = f.svc.UpdatePurchaseOrderStatus(ctx, po.ID, UpdatePurchaseOrderStatusRequest{Status: "confirmed"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	early := po.OrderDate.AddDate(0, 0, -1)
	_, err = f.svc.UpdatePurchaseOrderStatus(ctx, po.ID, UpdatePurchaseOrderStatusRequest{Status: "delivered", ActualDeliveryDate: &early})
	assert.ErrorIs(t, err, domain.ErrValidation)

	arrived := po.OrderDate.Add(12*24*time.Hour + time.Hour)
	delivered, err := f.svc.UpdatePurchaseOrderStatus(ctx, po.ID, UpdatePurchaseOrderStatusRequest{Status: "Delivered", ActualDeliveryDate: &arrived})
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusDelivered, delivered.Status)
	require.NotNil(t, delivered.ActualLeadTimeDays)
	assert.Equal(t, 13, *delivered.ActualLeadTimeDays)

	again, err := f.svc.UpdatePurchaseOrderStatus(ctx, po.ID, UpdatePurchaseOrderStatusRequest{Status: "delivered"})
	require.NoError(t, err)
	assert.Equal(t, 13, *again.ActualLeadTimeDays)

	_, err = f.svc.UpdatePurchaseOrderStatus(ctx, po.ID, UpdatePurchaseOrderStatusRequest{Status: "cancelled"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.UpdatePurchaseOrderStatus(ctx, po.ID, UpdatePurchaseOrderStatusRequest{Status: "lost"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.UpdatePurchaseOrderStatus(ctx, uuid.New(), UpdatePurchaseOrderStatusRequest{Status: "shipped"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetSupplierPerformance(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	late, onTime := 12, 9
	for _, actual := range []*int{&late, &onTime, &onTime, nil} {
		status := domain.POStatusDelivered
		if actual == nil {
			status = domain.POStatusPending
		}
		f.repo.AddPurchaseOrder(domain.PurchaseOrder{Supplier: "Acme", Status: status, LeadTimeDays: 10, ActualLeadTimeDays: actual})
	}
	f.repo.AddPurchaseOrder(domain.PurchaseOrder{Supplier: "Borealis", Status: domain.POStatusPending, LeadTimeDays: 60})

	all, err := f.svc.GetSupplierPerformance(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	acme, err := f.svc.GetSupplierPerformance(ctx, " Acme ")
	require.NoError(t, err)
	require.Len(t, acme, 1)
	assert.Equal(t, 4, acme[0].TotalOrders)
	assert.Equal(t, 3, acme[0].DeliveredOrders)
	require.NotNil(t, acme[0].LateDeliveryPercentage)
	assert.InDelta(t, 33.3, *acme[0].LateDeliveryPercentage, 0.05)
}

func TestListPurchaseOrders(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderRequest{ProductID: f.healthy.ID, Quantity: 10})
		require.NoError(t, err)
	}

	page, err := f.svc.ListPurchaseOrders(ctx, domain.PurchaseOrderFilter{Status: "PENDING", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Orders, 2)

	_, err = f.svc.ListPurchaseOrders(ctx, domain.PurchaseOrderFilter{Status: "lost"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListPurchaseOrdersPageSize(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	for i := 0; i < domain.MaxPurchaseOrderLimit+5; i++ {
		f.repo.AddPurchaseOrder(domain.PurchaseOrder{ProductID: f.healthy.ID, Supplier: "Borealis", Status: domain.POStatusPending, OrderDate: fixedNow.Add(-time.Duration(i) * time.Hour)})
	}

	page, err := f.svc.ListPurchaseOrders(ctx, domain.PurchaseOrderFilter{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, domain.MaxPurchaseOrderLimit, page.Limit)
	assert.Len(t, page.Orders, domain.MaxPurchaseOrderLimit)
	assert.Equal(t, domain.MaxPurchaseOrderLimit+5, page.Total)

	page, err = f.svc.ListPurchaseOrders(ctx, domain.PurchaseOrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPurchaseOrderLimit, page.Limit)
	assert.Len(t, page.Orders, domain.DefaultPurchaseOrderLimit)

	_, err = f.svc.ListPurchaseOrders(ctx, domain.PurchaseOrderFilter{Limit: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateProcurementSettings(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	imported := true

	product, err := f.svc.UpdateProcurementSettings(ctx, f.healthy.ID, domain.ProcurementSettings{IsImported: &imported})
	require.NoError(t, err)
	require.NotNil(t, product.LeadTimeDays)
	assert.Equal(t, 60, *product.LeadTimeDays)
	// 50 kg a month over 60 lead days plus 15 safety days
	assert.InDelta(t, 125, product.ReorderPoint, 1e-9)

	negative := -3
	_, err = f.svc.UpdateProcurementSettings(ctx, f.healthy.ID, domain.ProcurementSettings{SafetyStockDays: &negative})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.UpdateProcurementSettings(ctx, uuid.New(), domain.ProcurementSettings{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConsumptionHistoryAndLedger(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	history, err := f.svc.GetConsumptionHistory(ctx, f.healthy.ID, 0)
	require.NoError(t, err)
	require.Len(t, history.Buckets, 1)
	assert.Equal(t, "Feb 2024", history.Buckets[0].Month)
	assert.Equal(t, 50.0, history.Average)

	_, err = f.svc.GetConsumptionHistory(ctx, f.healthy.ID, -1)
	assert.ErrorIs(t, err, domain.ErrValidation)

	ledger, err := f.svc.GetStockLedger(ctx, f.healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, ledger.RecordedStock)
	assert.Equal(t, 500.0, ledger.LedgerStock)
	assert.Len(t, ledger.Movements, 2)

	_, err = f.svc.GetStockLedger(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerateAllForecasts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	batch, err := f.svc.GenerateAllForecasts(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, batch.Total)
	assert.Equal(t, 3, batch.Successful)
	assert.Zero(t, batch.Failed)

	stored := f.repo.Forecasts(f.empty.ID)
	require.Len(t, stored, 3)
	assert.Equal(t, "2024-04", stored[0].ForecastMonth)
	assert.InDelta(t, 100, stored[0].PredictedConsumption, 1e-9)

	_, err = f.svc.GenerateAllForecasts(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.GenerateForecast(ctx, uuid.New(), 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
