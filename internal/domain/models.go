// internal/domain/models.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a stocked laminate item with its procurement policy.
type Product struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Codes           []string   `json:"artisCodes" db:"-"`
	Name            string     `json:"name" db:"name"`
	Supplier        string     `json:"supplier" db:"supplier"`
	Category        string     `json:"category" db:"category"`
	CurrentStock    float64    `json:"currentStock" db:"current_stock"`
	AvgConsumption  float64    `json:"avgConsumption" db:"avg_consumption"`
	LeadTimeDays    *int       `json:"leadTimeDays" db:"lead_time_days"`
	SafetyStockDays *int       `json:"safetyStockDays" db:"safety_stock_days"`
	MinStockLevel   float64    `json:"minStockLevel" db:"min_stock_level"`
	OrderQuantity   float64    `json:"orderQuantity" db:"order_quantity"`
	IsImported      bool       `json:"isImported" db:"is_imported"`
	ReorderPoint    float64    `json:"reorderPoint" db:"reorder_point"`
	LastOrderDate   *time.Time `json:"lastOrderDate" db:"last_order_date"`
	Active          bool       `json:"active" db:"active"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
}

// ProcurementSettings is a partial update of a product's procurement policy.
// Nil fields are left untouched.
type ProcurementSettings struct {
	LeadTimeDays    *int     `json:"leadTimeDays" validate:"omitempty,gte=0"`
	SafetyStockDays *int     `json:"safetyStockDays" validate:"omitempty,gte=0"`
	OrderQuantity   *float64 `json:"orderQuantity" validate:"omitempty,gte=0"`
	IsImported      *bool    `json:"isImported"`
	MinStockLevel   *float64 `json:"minStockLevel" validate:"omitempty,gte=0"`
}

// TransactionType distinguishes stock movements.
type TransactionType string

const (
	TransactionIn         TransactionType = "IN"
	TransactionOut        TransactionType = "OUT"
	TransactionCorrection TransactionType = "CORRECTION"
)

// Transaction is an immutable stock movement. Corrections are new records.
type Transaction struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	ProductID    uuid.UUID       `json:"productId" db:"product_id"`
	Type         TransactionType `json:"type" db:"type"`
	Quantity     float64         `json:"quantity" db:"quantity"`
	Date         time.Time       `json:"date" db:"date"`
	Notes        *string         `json:"notes" db:"notes"`
	IncludeInAvg bool            `json:"includeInAvg" db:"include_in_avg"`
}

// SignedQuantity returns the effect of the transaction on stock.
func (t Transaction) SignedQuantity() float64 {
	switch t.Type {
	case TransactionIn:
		return t.Quantity
	case TransactionOut:
		return -t.Quantity
	default:
		// corrections carry their own sign
		return t.Quantity
	}
}

// PurchaseOrder tracks a replenishment order for one product.
type PurchaseOrder struct {
	ID                   uuid.UUID           `json:"id" db:"id"`
	OrderNumber          string              `json:"orderNumber" db:"order_number"`
	ProductID            uuid.UUID           `json:"productId" db:"product_id"`
	Supplier             string              `json:"supplier" db:"supplier"`
	Quantity             float64             `json:"quantity" db:"quantity"`
	UnitPrice            decimal.NullDecimal `json:"unitPrice" db:"unit_price"`
	TotalAmount          decimal.NullDecimal `json:"totalAmount" db:"total_amount"`
	OrderDate            time.Time           `json:"orderDate" db:"order_date"`
	ExpectedDeliveryDate time.Time           `json:"expectedDeliveryDate" db:"expected_delivery_date"`
	ActualDeliveryDate   *time.Time          `json:"actualDeliveryDate" db:"actual_delivery_date"`
	Status               POStatus            `json:"status" db:"status"`
	LeadTimeDays         int                 `json:"leadTimeDays" db:"lead_time_days"`
	ActualLeadTimeDays   *int                `json:"actualLeadTimeDays" db:"actual_lead_time_days"`
	Notes                *string             `json:"notes" db:"notes"`
	TrackingNumber       *string             `json:"trackingNumber" db:"tracking_number"`
	InvoiceNumber        *string             `json:"invoiceNumber" db:"invoice_number"`
	CreatedAt            time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time           `json:"updatedAt" db:"updated_at"`
}

// PurchaseOrderFilter narrows purchase order listings.
type PurchaseOrderFilter struct {
	Status    POStatus
	Supplier  string
	ProductID *uuid.UUID
	Limit     int
	Offset    int
}

const (
	DefaultPurchaseOrderLimit = 50
	MaxPurchaseOrderLimit     = 200
)

// WithPageDefaults fills an unset limit with the default and clamps it to
// the maximum page size. Negative offsets become 0.
func (f PurchaseOrderFilter) WithPageDefaults() PurchaseOrderFilter {
	switch {
	case f.Limit < 1:
		f.Limit = DefaultPurchaseOrderLimit
	case f.Limit > MaxPurchaseOrderLimit:
		f.Limit = MaxPurchaseOrderLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// PurchaseOrderList is a page of purchase orders.
type PurchaseOrderList struct {
	Orders []PurchaseOrder `json:"orders"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// ConsumptionForecast is a persisted monthly consumption prediction.
type ConsumptionForecast struct {
	ProductID            uuid.UUID `json:"productId" db:"product_id"`
	ForecastMonth        string    `json:"forecastMonth" db:"forecast_month"`
	ForecastDate         time.Time `json:"forecastDate" db:"forecast_date"`
	PredictedConsumption float64   `json:"predictedConsumption" db:"predicted_consumption"`
	Method               string    `json:"method" db:"forecast_method"`
	Confidence           float64   `json:"confidence" db:"confidence"`
	SeasonalFactor       float64   `json:"seasonalFactor" db:"seasonal_factor"`
	TrendFactor          float64   `json:"trendFactor" db:"trend_factor"`
	IsBaseline           bool      `json:"isBaseline" db:"is_baseline"`
}
