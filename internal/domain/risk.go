package domain

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel classifies how close a product is to running out.
type RiskLevel string

const (
	RiskStockout RiskLevel = "STOCKOUT"
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskLow      RiskLevel = "LOW"
	RiskSafe     RiskLevel = "SAFE"
)

// RiskLevels lists every level from most to least severe.
var RiskLevels = []RiskLevel{RiskStockout, RiskCritical, RiskHigh, RiskMedium, RiskLow, RiskSafe}

var riskSeverity = map[RiskLevel]int{
	RiskStockout: 5,
	RiskCritical: 4,
	RiskHigh:     3,
	RiskMedium:   2,
	RiskLow:      1,
	RiskSafe:     0,
}

// Severity orders levels; higher is worse.
func (l RiskLevel) Severity() int {
	return riskSeverity[l]
}

// StockoutRisk is the derived, never persisted risk record of one product.
type StockoutRisk struct {
	ProductID             uuid.UUID  `json:"productId"`
	ArtisCodes            []string   `json:"artisCodes"`
	Name                  string     `json:"name,omitempty"`
	Supplier              string     `json:"supplier"`
	Category              string     `json:"category,omitempty"`
	IsImported            bool       `json:"isImported"`
	CurrentStock          float64    `json:"currentStock"`
	AvgConsumption        float64    `json:"avgConsumption"`
	DailyConsumption      float64    `json:"dailyConsumption"`
	DaysUntilStockout     *int       `json:"daysUntilStockout"`
	LeadTimeDays          int        `json:"leadTimeDays"`
	SafetyStockDays       int        `json:"safetyStockDays"`
	RiskLevel             RiskLevel  `json:"riskLevel"`
	ReorderPoint          float64    `json:"reorderPoint"`
	RecommendedOrderQty   float64    `json:"recommendedOrderQty"`
	RecommendedOrderDate  *time.Time `json:"recommendedOrderDate"`
	EstimatedStockoutDate *time.Time `json:"estimatedStockoutDate"`
}

// RiskSummary counts products per risk level.
type RiskSummary struct {
	Total    int `json:"total"`
	Stockout int `json:"stockout"`
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Safe     int `json:"safe"`
}

// RiskReport is the full stockout risk response.
type RiskReport struct {
	GeneratedAt time.Time                 `json:"generatedAt"`
	Risks       []StockoutRisk            `json:"risks"`
	Summary     RiskSummary               `json:"summary"`
	RiskGroups  map[string][]StockoutRisk `json:"riskGroups"`
}

// OverstockItem is a product holding more than six months of consumption.
type OverstockItem struct {
	ProductID      uuid.UUID `json:"productId"`
	ArtisCodes     []string  `json:"artisCodes"`
	Name           string    `json:"name,omitempty"`
	Supplier       string    `json:"supplier"`
	CurrentStock   float64   `json:"currentStock"`
	AvgConsumption float64   `json:"avgConsumption"`
	MonthsOfStock  *float64  `json:"monthsOfStock"`
}

// ProcurementAlerts partitions the risk list for the alert panel.
type ProcurementAlerts struct {
	Critical  []StockoutRisk  `json:"critical"`
	Upcoming  []StockoutRisk  `json:"upcoming"`
	Overstock []OverstockItem `json:"overstock"`
	Summary   RiskSummary     `json:"summary"`
}

// SupplierPerformance is the delivery record of one supplier.
type SupplierPerformance struct {
	Supplier               string   `json:"supplier"`
	TotalOrders            int      `json:"total_orders"`
	DeliveredOrders        int      `json:"delivered_orders"`
	AvgExpectedLeadTime    float64  `json:"avg_expected_lead_time"`
	AvgActualLeadTime      *float64 `json:"avg_actual_lead_time"`
	AvgLeadTimeVariance    *float64 `json:"avg_lead_time_variance"`
	LateDeliveryPercentage *float64 `json:"late_delivery_percentage"`
}

// ConsumptionBucket is the OUT total of one calendar month.
type ConsumptionBucket struct {
	Month    string  `json:"month"`
	TotalOut float64 `json:"totalOut"`
}

// ConsumptionHistory is the monthly consumption of one product.
type ConsumptionHistory struct {
	ProductID uuid.UUID           `json:"productId"`
	Months    int                 `json:"months"`
	Buckets   []ConsumptionBucket `json:"buckets"`
	Average   float64             `json:"average"`
}

// StockMovement is one transaction with the running stock balance after it.
type StockMovement struct {
	Date     time.Time       `json:"date"`
	Type     TransactionType `json:"type"`
	Quantity float64         `json:"quantity"`
	Balance  float64         `json:"balance"`
	Notes    *string         `json:"notes,omitempty"`
}

// StockLedger reconstructs a product's stock from its transactions.
type StockLedger struct {
	ProductID     uuid.UUID       `json:"productId"`
	RecordedStock float64         `json:"recordedStock"`
	LedgerStock   float64         `json:"ledgerStock"`
	Movements     []StockMovement `json:"movements"`
}

// ForecastResult is the outcome of forecasting one product.
type ForecastResult struct {
	ProductID uuid.UUID             `json:"productId"`
	Success   bool                  `json:"success"`
	Forecasts []ConsumptionForecast `json:"forecast,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// ForecastBatch summarizes forecasting across all products.
type ForecastBatch struct {
	Total      int              `json:"total"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Results    []ForecastResult `json:"results"`
}
