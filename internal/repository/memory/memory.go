// Package memory is an in-process ProcurementRepository used by tests and
// local demos.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andresuchdata/procurement-risk/internal/domain"
	"github.com/andresuchdata/procurement-risk/internal/repository"
)

type Repository struct {
	mu           sync.RWMutex
	products     map[uuid.UUID]domain.Product
	transactions []domain.Transaction
	orders       map[uuid.UUID]domain.PurchaseOrder
	forecasts    map[string]domain.ConsumptionForecast
}

var _ repository.ProcurementRepository = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{
		products:  make(map[uuid.UUID]domain.Product),
		orders:    make(map[uuid.UUID]domain.PurchaseOrder),
		forecasts: make(map[string]domain.ConsumptionForecast),
	}
}

// AddProduct stores p, assigning an id when it has none.
func (r *Repository) AddProduct(p domain.Product) domain.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Codes == nil {
		p.Codes = []string{}
	}
	r.products[p.ID] = p
	return p
}

// AddTransaction records t, assigning an id when it has none.
func (r *Repository) AddTransaction(t domain.Transaction) domain.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.transactions = append(r.transactions, t)
	return t
}

// AddPurchaseOrder stores po as is.
func (r *Repository) AddPurchaseOrder(po domain.PurchaseOrder) domain.PurchaseOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	if po.ID == uuid.Nil {
		po.ID = uuid.New()
	}
	r.orders[po.ID] = po
	return po
}

// Forecasts returns the stored forecasts of a product ordered by month.
func (r *Repository) Forecasts(productID uuid.UUID) []domain.ConsumptionForecast {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.ConsumptionForecast
	for _, f := range r.forecasts {
		if f.ProductID == productID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ForecastMonth < out[j].ForecastMonth })
	return out
}

func (r *Repository) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	products := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if p.Active {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Supplier != products[j].Supplier {
			return products[i].Supplier < products[j].Supplier
		}
		return firstCode(products[i]) < firstCode(products[j])
	})
	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (r *Repository) UpdateProcurementSettings(ctx context.Context, id uuid.UUID, s domain.ProcurementSettings) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	if s.LeadTimeDays != nil {
		v := *s.LeadTimeDays
		p.LeadTimeDays = &v
	}
	if s.SafetyStockDays != nil {
		v := *s.SafetyStockDays
		p.SafetyStockDays = &v
	}
	if s.OrderQuantity != nil {
		p.OrderQuantity = *s.OrderQuantity
	}
	if s.IsImported != nil {
		p.IsImported = *s.IsImported
	}
	if s.MinStockLevel != nil {
		p.MinStockLevel = *s.MinStockLevel
	}
	p.UpdatedAt = time.Now()
	r.products[id] = p
	return &p, nil
}

func (r *Repository) UpdateReorderPoints(ctx context.Context, points map[uuid.UUID]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range points {
		if _, ok := r.products[id]; !ok {
			return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
		}
	}
	for id, point := range points {
		p := r.products[id]
		p.ReorderPoint = point
		r.products[id] = p
	}
	return nil
}

func (r *Repository) ListTransactions(ctx context.Context, productID uuid.UUID) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	txns := []domain.Transaction{}
	for _, t := range r.transactions {
		if t.ProductID == productID {
			txns = append(txns, t)
		}
	}
	sort.SliceStable(txns, func(i, j int) bool { return txns[i].Date.Before(txns[j].Date) })
	return txns, nil
}

func (r *Repository) ListConsumption(ctx context.Context, since time.Time) (map[uuid.UUID][]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byProduct := make(map[uuid.UUID][]domain.Transaction)
	for _, t := range r.transactions {
		if isConsumption(t, since) {
			byProduct[t.ProductID] = append(byProduct[t.ProductID], t)
		}
	}
	return byProduct, nil
}

func (r *Repository) ListProductConsumption(ctx context.Context, productID uuid.UUID, since time.Time) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var txns []domain.Transaction
	for _, t := range r.transactions {
		if t.ProductID == productID && isConsumption(t, since) {
			txns = append(txns, t)
		}
	}
	return txns, nil
}

func (r *Repository) CreatePurchaseOrder(ctx context.Context, po *domain.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[po.ProductID]
	if !ok {
		return fmt.Errorf("product %s: %w", po.ProductID, domain.ErrNotFound)
	}
	now := time.Now()
	po.CreatedAt = now
	po.UpdatedAt = now
	r.orders[po.ID] = *po

	orderDate := po.OrderDate
	p.LastOrderDate = &orderDate
	r.products[p.ID] = p
	return nil
}

func (r *Repository) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	po, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("purchase order %s: %w", id, domain.ErrNotFound)
	}
	return &po, nil
}

func (r *Repository) UpdatePurchaseOrderStatus(ctx context.Context, id uuid.UUID, fn func(po *domain.PurchaseOrder) error) (*domain.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	po, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("purchase order %s: %w", id, domain.ErrNotFound)
	}
	if err := fn(&po); err != nil {
		return nil, err
	}
	po.UpdatedAt = time.Now()
	r.orders[id] = po
	return &po, nil
}

func (r *Repository) ListPurchaseOrders(ctx context.Context, filter domain.PurchaseOrderFilter) (*domain.PurchaseOrderList, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	filter = filter.WithPageDefaults()

	var matched []domain.PurchaseOrder
	for _, po := range r.orders {
		if filter.Status != "" && po.Status != filter.Status {
			continue
		}
		if filter.Supplier != "" && !strings.Contains(strings.ToLower(po.Supplier), strings.ToLower(filter.Supplier)) {
			continue
		}
		if filter.ProductID != nil && po.ProductID != *filter.ProductID {
			continue
		}
		matched = append(matched, po)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].OrderDate.Equal(matched[j].OrderDate) {
			return matched[i].OrderDate.After(matched[j].OrderDate)
		}
		return matched[i].OrderNumber > matched[j].OrderNumber
	})

	start := min(filter.Offset, len(matched))
	end := min(start+filter.Limit, len(matched))
	page := append([]domain.PurchaseOrder{}, matched[start:end]...)

	return &domain.PurchaseOrderList{
		Orders: page,
		Total:  len(matched),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

func (r *Repository) ListPurchaseOrdersForPerformance(ctx context.Context, supplier string) ([]domain.PurchaseOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var orders []domain.PurchaseOrder
	for _, po := range r.orders {
		if supplier == "" || po.Supplier == supplier {
			orders = append(orders, po)
		}
	}
	return orders, nil
}

func (r *Repository) UpsertForecasts(ctx context.Context, forecasts []domain.ConsumptionForecast) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range forecasts {
		r.forecasts[f.ProductID.String()+"/"+f.ForecastMonth] = f
	}
	return nil
}

func isConsumption(t domain.Transaction, since time.Time) bool {
	return t.Type == domain.TransactionOut && t.IncludeInAvg && !t.Date.Before(since)
}

func firstCode(p domain.Product) string {
	if len(p.Codes) == 0 {
		return ""
	}
	return p.Codes[0]
}
