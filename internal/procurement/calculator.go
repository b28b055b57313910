package procurement

import (
	"time"

	"github.com/andresuchdata/procurement-risk/internal/config"
	"github.com/andresuchdata/procurement-risk/internal/domain"
)

const (
	daysPerMonth = 30

	defaultDomesticLeadTime = 10
	defaultImportedLeadTime = 60
	defaultSafetyStockDays  = 15
	defaultLookbackMonths   = 3
	defaultOrderRoundingKg  = 50
)

// Policy holds the defaults applied when a product has no explicit
// procurement settings.
type Policy struct {
	DomesticLeadTimeDays int
	ImportedLeadTimeDays int
	SafetyStockDays      int
	LookbackMonths       int
	OrderRoundingKg      float64
}

// DefaultPolicy returns the policy used by the laminate business.
func DefaultPolicy() Policy {
	return Policy{
		DomesticLeadTimeDays: defaultDomesticLeadTime,
		ImportedLeadTimeDays: defaultImportedLeadTime,
		SafetyStockDays:      defaultSafetyStockDays,
		LookbackMonths:       defaultLookbackMonths,
		OrderRoundingKg:      defaultOrderRoundingKg,
	}
}

// PolicyFromConfig maps the procurement config section onto a Policy.
func PolicyFromConfig(cfg config.ProcurementConfig) Policy {
	return Policy{
		DomesticLeadTimeDays: cfg.DomesticLeadTimeDays,
		ImportedLeadTimeDays: cfg.ImportedLeadTimeDays,
		SafetyStockDays:      cfg.DefaultSafetyStockDays,
		LookbackMonths:       cfg.LookbackMonths,
		OrderRoundingKg:      cfg.OrderRoundingKg,
	}
}

// Calculator computes consumption, risk, reorder and forecast figures.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	policy Policy
}

// NewCalculator creates a calculator, filling unset policy fields with defaults.
func NewCalculator(policy Policy) *Calculator {
	def := DefaultPolicy()
	if policy.DomesticLeadTimeDays <= 0 {
		policy.DomesticLeadTimeDays = def.DomesticLeadTimeDays
	}
	if policy.ImportedLeadTimeDays <= 0 {
		policy.ImportedLeadTimeDays = def.ImportedLeadTimeDays
	}
	if policy.SafetyStockDays <= 0 {
		policy.SafetyStockDays = def.SafetyStockDays
	}
	if policy.LookbackMonths < 0 {
		policy.LookbackMonths = 0
	}
	if policy.OrderRoundingKg <= 0 {
		policy.OrderRoundingKg = def.OrderRoundingKg
	}
	return &Calculator{policy: policy}
}

// Policy returns the effective policy.
func (c *Calculator) Policy() Policy {
	return c.policy
}

// LeadTimeFor resolves a product's lead time; unset or zero falls back to
// the domestic or imported default.
func (c *Calculator) LeadTimeFor(p domain.Product) int {
	return c.ResolveLeadTime(p.LeadTimeDays, p.IsImported)
}

// ResolveLeadTime picks the explicit lead time or the policy default.
func (c *Calculator) ResolveLeadTime(leadTimeDays *int, imported bool) int {
	if leadTimeDays != nil && *leadTimeDays > 0 {
		return *leadTimeDays
	}
	if imported {
		return c.policy.ImportedLeadTimeDays
	}
	return c.policy.DomesticLeadTimeDays
}

// SafetyStockFor resolves a product's safety stock days.
func (c *Calculator) SafetyStockFor(p domain.Product) int {
	if p.SafetyStockDays != nil && *p.SafetyStockDays > 0 {
		return *p.SafetyStockDays
	}
	return c.policy.SafetyStockDays
}

// Assess builds the stockout risk record of one product from its
// include-in-average consumption history.
func (c *Calculator) Assess(p domain.Product, history []domain.Transaction, today time.Time) (domain.StockoutRisk, error) {
	_, avg := AggregateConsumption(history, c.policy.LookbackMonths, today)

	leadTime := c.LeadTimeFor(p)
	safetyStock := c.SafetyStockFor(p)

	risk, err := ClassifyRisk(p.CurrentStock, avg, leadTime, today)
	if err != nil {
		return domain.StockoutRisk{}, err
	}

	rec, err := c.Recommend(ReorderInput{
		CurrentStock:    p.CurrentStock,
		AvgConsumption:  avg,
		LeadTimeDays:    leadTime,
		SafetyStockDays: safetyStock,
		OrderQuantity:   p.OrderQuantity,
	}, today)
	if err != nil {
		return domain.StockoutRisk{}, err
	}

	return domain.StockoutRisk{
		ProductID:             p.ID,
		ArtisCodes:            p.Codes,
		Name:                  p.Name,
		Supplier:              p.Supplier,
		Category:              p.Category,
		IsImported:            p.IsImported,
		CurrentStock:          p.CurrentStock,
		AvgConsumption:        avg,
		DailyConsumption:      risk.DailyConsumption,
		DaysUntilStockout:     risk.DaysUntilStockout,
		LeadTimeDays:          leadTime,
		SafetyStockDays:       safetyStock,
		RiskLevel:             risk.Level,
		ReorderPoint:          rec.ReorderPoint,
		RecommendedOrderQty:   rec.RecommendedOrderQty,
		RecommendedOrderDate:  rec.RecommendedOrderDate,
		EstimatedStockoutDate: risk.EstimatedStockoutDate,
	}, nil
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
