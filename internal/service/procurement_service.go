package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/procurement-risk/internal/cache"
	"github.com/andresuchdata/procurement-risk/internal/domain"
	"github.com/andresuchdata/procurement-risk/internal/procurement"
	"github.com/andresuchdata/procurement-risk/internal/repository"
)

const (
	defaultForecastMonths  = 3
	defaultForecastWorkers = 4
)

type ProcurementService struct {
	repo    repository.ProcurementRepository
	cache   cache.ProcurementCache
	calc    *procurement.Calculator
	now     func() time.Time
	workers int
}

type Option func(*ProcurementService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *ProcurementService) { s.now = now }
}

// WithForecastWorkers bounds concurrent forecasts in batch runs.
func WithForecastWorkers(n int) Option {
	return func(s *ProcurementService) {
		if n > 0 {
			s.workers = n
		}
	}
}

func NewProcurementService(repo repository.ProcurementRepository, cacheImpl cache.ProcurementCache, calc *procurement.Calculator, opts ...Option) *ProcurementService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopProcurementCache()
	}
	if calc == nil {
		calc = procurement.NewCalculator(procurement.DefaultPolicy())
	}
	s := &ProcurementService{
		repo:    repo,
		cache:   cacheImpl,
		calc:    calc,
		now:     time.Now,
		workers: defaultForecastWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetStockoutRisks assesses every active product. Reports are cached per day.
func (s *ProcurementService) GetStockoutRisks(ctx context.Context) (*domain.RiskReport, error) {
	now := s.now()
	day := now.Format(time.DateOnly)

	if report, ok, err := s.cache.GetRiskReport(ctx, day); err == nil && ok {
		return report, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("procurement: cache get risk report failed")
	}

	risks, err := s.assessAll(ctx, now)
	if err != nil {
		return nil, err
	}

	report := &domain.RiskReport{
		GeneratedAt: now,
		Risks:       risks,
		Summary:     procurement.Summarize(risks),
		RiskGroups:  procurement.GroupRisks(risks),
	}

	if err := s.cache.SetRiskReport(ctx, day, report); err != nil {
		log.Warn().Err(err).Msg("procurement: cache set risk report failed")
	}

	return report, nil
}

// GetAlerts partitions the current risk list.
func (s *ProcurementService) GetAlerts(ctx context.Context) (*domain.ProcurementAlerts, error) {
	report, err := s.GetStockoutRisks(ctx)
	if err != nil {
		return nil, err
	}
	alerts := procurement.PartitionAlerts(report.Risks)
	return &alerts, nil
}

func (s *ProcurementService) assessAll(ctx context.Context, now time.Time) ([]domain.StockoutRisk, error) {
	products, err := s.repo.ListActiveProducts(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListConsumption(ctx, s.lookbackStart(now))
	if err != nil {
		return nil, err
	}

	today := procurement.StartOfDay(now)
	risks := make([]domain.StockoutRisk, 0, len(products))
	for _, p := range products {
		risk, err := s.calc.Assess(p, history[p.ID], today)
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				log.Warn().Err(err).Str("product_id", p.ID.String()).Msg("procurement: skipping product with invalid stock data")
				continue
			}
			return nil, err
		}
		risks = append(risks, risk)
	}

	procurement.SortRisks(risks)
	return risks, nil
}

// lookbackStart is the first instant of the consumption window; zero means all time.
func (s *ProcurementService) lookbackStart(now time.Time) time.Time {
	months := s.calc.Policy().LookbackMonths
	if months <= 0 {
		return time.Time{}
	}
	y, m, _ := now.Date()
	return time.Date(y, m-time.Month(months-1), 1, 0, 0, 0, 0, now.Location())
}

// GetSupplierPerformance aggregates purchase orders per supplier, optionally
// narrowed to one supplier.
func (s *ProcurementService) GetSupplierPerformance(ctx context.Context, supplier string) ([]domain.SupplierPerformance, error) {
	supplier = strings.TrimSpace(supplier)

	if perf, ok, err := s.cache.GetSupplierPerformance(ctx, supplier); err == nil && ok {
		return perf, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("procurement: cache get supplier performance failed")
	}

	orders, err := s.repo.ListPurchaseOrdersForPerformance(ctx, supplier)
	if err != nil {
		return nil, err
	}
	perf := procurement.AggregateSupplierPerformance(orders)

	if err := s.cache.SetSupplierPerformance(ctx, supplier, perf); err != nil {
		log.Warn().Err(err).Msg("procurement: cache set supplier performance failed")
	}
	return perf, nil
}

// CreatePurchaseOrder opens a pending order for a product.
func (s *ProcurementService) CreatePurchaseOrder(ctx context.Context, req CreatePurchaseOrderRequest) (*domain.PurchaseOrder, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("%w: unitPrice must be >= 0", domain.ErrValidation)
	}

	product, err := s.repo.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	orderDate := now
	if req.OrderDate != nil {
		orderDate = *req.OrderDate
	}

	leadTime := s.calc.LeadTimeFor(*product)
	if req.LeadTimeDays != nil {
		leadTime = *req.LeadTimeDays
	}

	expected := orderDate.AddDate(0, 0, leadTime)
	if req.ExpectedDeliveryDate != nil {
		if req.ExpectedDeliveryDate.Before(orderDate) {
			return nil, fmt.Errorf("%w: expectedDeliveryDate is before orderDate", domain.ErrValidation)
		}
		expected = *req.ExpectedDeliveryDate
	}

	supplier := strings.TrimSpace(req.Supplier)
	if supplier == "" {
		supplier = product.Supplier
	}

	po := &domain.PurchaseOrder{
		ID:                   uuid.New(),
		OrderNumber:          newOrderNumber(now),
		ProductID:            product.ID,
		Supplier:             supplier,
		Quantity:             req.Quantity,
		OrderDate:            orderDate,
		ExpectedDeliveryDate: expected,
		Status:               domain.POStatusPending,
		LeadTimeDays:         leadTime,
		Notes:                req.Notes,
	}
	if req.UnitPrice != nil {
		po.UnitPrice = decimal.NewNullDecimal(*req.UnitPrice)
		po.TotalAmount = decimal.NewNullDecimal(decimal.NewFromFloat(req.Quantity).Mul(*req.UnitPrice))
	}

	if err := s.repo.CreatePurchaseOrder(ctx, po); err != nil {
		return nil, err
	}

	s.invalidateSupplierPerformance(ctx)
	log.Info().Str("order_number", po.OrderNumber).Str("product_id", po.ProductID.String()).Msg("procurement: purchase order created")
	return po, nil
}

// UpdatePurchaseOrderStatus moves an order along its lifecycle. Delivery
// records the actual lead time.
func (s *ProcurementService) UpdatePurchaseOrderStatus(ctx context.Context, id uuid.UUID, req UpdatePurchaseOrderStatusRequest) (*domain.PurchaseOrder, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	next, ok := domain.ParsePOStatus(req.Status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, req.Status)
	}

	now := s.now()
	po, err := s.repo.UpdatePurchaseOrderStatus(ctx, id, func(po *domain.PurchaseOrder) error {
		if err := po.Status.CheckTransition(next); err != nil {
			return err
		}

		if next == domain.POStatusDelivered && po.Status != domain.POStatusDelivered {
			delivered := now
			if req.ActualDeliveryDate != nil {
				delivered = *req.ActualDeliveryDate
			}
			if delivered.Before(po.OrderDate) {
				return fmt.Errorf("%w: actualDeliveryDate is before orderDate", domain.ErrValidation)
			}
			days := actualLeadTimeDays(po.OrderDate, delivered)
			po.ActualDeliveryDate = &delivered
			po.ActualLeadTimeDays = &days
		}

		po.Status = next
		if req.TrackingNumber != nil {
			po.TrackingNumber = req.TrackingNumber
		}
		if req.InvoiceNumber != nil {
			po.InvoiceNumber = req.InvoiceNumber
		}
		if req.Notes != nil {
			po.Notes = req.Notes
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSupplierPerformance(ctx)
	return po, nil
}

// GetPurchaseOrder returns one order by id.
func (s *ProcurementService) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	return s.repo.GetPurchaseOrder(ctx, id)
}

// ListPurchaseOrders returns a filtered page of orders.
func (s *ProcurementService) ListPurchaseOrders(ctx context.Context, filter domain.PurchaseOrderFilter) (*domain.PurchaseOrderList, error) {
	if filter.Status != "" {
		status, ok := domain.ParsePOStatus(string(filter.Status))
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, filter.Status)
		}
		filter.Status = status
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must be >= 0", domain.ErrValidation)
	}
	return s.repo.ListPurchaseOrders(ctx, filter.WithPageDefaults())
}

// UpdateProcurementSettings applies a partial policy update and refreshes
// the product's reorder point.
func (s *ProcurementService) UpdateProcurementSettings(ctx context.Context, id uuid.UUID, settings domain.ProcurementSettings) (*domain.Product, error) {
	if err := validateStruct(settings); err != nil {
		return nil, err
	}
	if settings.IsImported != nil && *settings.IsImported && settings.LeadTimeDays == nil {
		lead := s.calc.Policy().ImportedLeadTimeDays
		settings.LeadTimeDays = &lead
	}

	product, err := s.repo.UpdateProcurementSettings(ctx, id, settings)
	if err != nil {
		return nil, err
	}

	now := s.now()
	history, err := s.repo.ListProductConsumption(ctx, id, s.lookbackStart(now))
	if err != nil {
		return nil, err
	}
	_, avg := procurement.AggregateConsumption(history, s.calc.Policy().LookbackMonths, now)
	point := s.calc.ReorderPoint(avg, s.calc.LeadTimeFor(*product), s.calc.SafetyStockFor(*product))

	if err := s.repo.UpdateReorderPoints(ctx, map[uuid.UUID]float64{id: point}); err != nil {
		return nil, err
	}
	product.ReorderPoint = point

	s.invalidateRiskReports(ctx)
	return product, nil
}

// RefreshReorderPoints recomputes the reorder point of every active product
// and returns how many were updated.
func (s *ProcurementService) RefreshReorderPoints(ctx context.Context) (int, error) {
	products, err := s.repo.ListActiveProducts(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	history, err := s.repo.ListConsumption(ctx, s.lookbackStart(now))
	if err != nil {
		return 0, err
	}

	lookback := s.calc.Policy().LookbackMonths
	points := make(map[uuid.UUID]float64, len(products))
	for _, p := range products {
		_, avg := procurement.AggregateConsumption(history[p.ID], lookback, now)
		points[p.ID] = s.calc.ReorderPoint(avg, s.calc.LeadTimeFor(p), s.calc.SafetyStockFor(p))
	}

	if err := s.repo.UpdateReorderPoints(ctx, points); err != nil {
		return 0, err
	}

	s.invalidateRiskReports(ctx)
	log.Info().Int("products", len(points)).Msg("procurement: reorder points refreshed")
	return len(points), nil
}

// GetConsumptionHistory returns monthly OUT totals of a product. months == 0
// covers all history.
func (s *ProcurementService) GetConsumptionHistory(ctx context.Context, id uuid.UUID, months int) (*domain.ConsumptionHistory, error) {
	if months < 0 {
		return nil, fmt.Errorf("%w: months must be >= 0", domain.ErrValidation)
	}
	if _, err := s.repo.GetProduct(ctx, id); err != nil {
		return nil, err
	}

	txns, err := s.repo.ListTransactions(ctx, id)
	if err != nil {
		return nil, err
	}

	buckets, avg := procurement.AggregateConsumption(txns, months, s.now())
	return &domain.ConsumptionHistory{
		ProductID: id,
		Months:    months,
		Buckets:   buckets,
		Average:   avg,
	}, nil
}

// GetStockLedger replays a product's transactions.
func (s *ProcurementService) GetStockLedger(ctx context.Context, id uuid.UUID) (*domain.StockLedger, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	txns, err := s.repo.ListTransactions(ctx, id)
	if err != nil {
		return nil, err
	}

	movements, balance := procurement.BuildLedger(txns)
	return &domain.StockLedger{
		ProductID:     id,
		RecordedStock: product.CurrentStock,
		LedgerStock:   balance,
		Movements:     movements,
	}, nil
}

// GenerateForecast forecasts and stores a product's consumption. months == 0
// uses the default horizon.
func (s *ProcurementService) GenerateForecast(ctx context.Context, id uuid.UUID, months int) ([]domain.ConsumptionForecast, error) {
	if months == 0 {
		months = defaultForecastMonths
	}

	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListProductConsumption(ctx, id, time.Time{})
	if err != nil {
		return nil, err
	}

	forecasts, err := s.calc.Forecast(*product, history, months, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpsertForecasts(ctx, forecasts); err != nil {
		return nil, err
	}
	return forecasts, nil
}

// GenerateAllForecasts forecasts every active product concurrently. A failure
// for one product is reported in its result and does not stop the batch.
func (s *ProcurementService) GenerateAllForecasts(ctx context.Context, months int) (*domain.ForecastBatch, error) {
	if months == 0 {
		months = defaultForecastMonths
	}
	if months < 1 || months > procurement.MaxForecastMonths {
		return nil, fmt.Errorf("%w: months must be between 1 and %d", domain.ErrValidation, procurement.MaxForecastMonths)
	}

	products, err := s.repo.ListActiveProducts(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]domain.ForecastResult, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, p := range products {
		g.Go(func() error {
			forecasts, err := s.GenerateForecast(gctx, p.ID, months)
			if err != nil {
				log.Warn().Err(err).Str("product_id", p.ID.String()).Msg("procurement: forecast failed")
				results[i] = domain.ForecastResult{ProductID: p.ID, Error: err.Error()}
				return nil
			}
			results[i] = domain.ForecastResult{ProductID: p.ID, Success: true, Forecasts: forecasts}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &domain.ForecastBatch{Total: len(results), Results: results}
	for _, r := range results {
		if r.Success {
			batch.Successful++
		} else {
			batch.Failed++
		}
	}
	return batch, nil
}

func (s *ProcurementService) invalidateRiskReports(ctx context.Context) {
	if err := s.cache.InvalidateRiskReports(ctx); err != nil {
		log.Warn().Err(err).Msg("procurement: cache invalidate risk reports failed")
	}
}

func (s *ProcurementService) invalidateSupplierPerformance(ctx context.Context) {
	if err := s.cache.InvalidateSupplierPerformance(ctx); err != nil {
		log.Warn().Err(err).Msg("procurement: cache invalidate supplier performance failed")
	}
}

// actualLeadTimeDays rounds the elapsed time up to whole days.
func actualLeadTimeDays(orderDate, delivered time.Time) int {
	return int(math.Ceil(delivered.Sub(orderDate).Hours() / 24))
}

// newOrderNumber returns PO-<unix millis>-<5 upper-case characters>.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:5]
	return fmt.Sprintf("PO-%d-%s", now.UnixMilli(), suffix)
}
