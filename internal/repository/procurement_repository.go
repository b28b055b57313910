package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/andresuchdata/procurement-risk/internal/domain"
)

// ProcurementRepository is the persistence boundary of the procurement service.
// Lookups of missing records return domain.ErrNotFound.
type ProcurementRepository interface {
	// Products
	ListActiveProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	UpdateProcurementSettings(ctx context.Context, id uuid.UUID, settings domain.ProcurementSettings) (*domain.Product, error)
	UpdateReorderPoints(ctx context.Context, points map[uuid.UUID]float64) error

	// Transactions
	ListTransactions(ctx context.Context, productID uuid.UUID) ([]domain.Transaction, error)
	// ListConsumption returns include-in-average OUT transactions on or after
	// since, grouped by product. A zero since means all time.
	ListConsumption(ctx context.Context, since time.Time) (map[uuid.UUID][]domain.Transaction, error)
	ListProductConsumption(ctx context.Context, productID uuid.UUID, since time.Time) ([]domain.Transaction, error)

	// Purchase orders
	CreatePurchaseOrder(ctx context.Context, po *domain.PurchaseOrder) error
	GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error)
	// UpdatePurchaseOrderStatus loads the order under a row lock, lets fn
	// mutate it and persists the result atomically. An error from fn aborts
	// the update.
	UpdatePurchaseOrderStatus(ctx context.Context, id uuid.UUID, fn func(po *domain.PurchaseOrder) error) (*domain.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, filter domain.PurchaseOrderFilter) (*domain.PurchaseOrderList, error)
	// ListPurchaseOrdersForPerformance returns every order, or only the given
	// supplier's when supplier is not empty.
	ListPurchaseOrdersForPerformance(ctx context.Context, supplier string) ([]domain.PurchaseOrder, error)

	// Forecasts
	UpsertForecasts(ctx context.Context, forecasts []domain.ConsumptionForecast) error
}
