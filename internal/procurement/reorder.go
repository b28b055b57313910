package procurement

import (
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/procurement-risk/internal/domain"
)

// ReorderInput carries the resolved figures for one recommendation.
type ReorderInput struct {
	CurrentStock    float64
	AvgConsumption  float64
	LeadTimeDays    int
	SafetyStockDays int
	OrderQuantity   float64
}

// Recommendation is the reorder point, order quantity and order date for a product.
type Recommendation struct {
	ReorderPoint         float64
	RecommendedOrderQty  float64
	RecommendedOrderDate *time.Time
}

// Recommend computes when and how much to reorder.
//
// The reorder point covers lead time plus safety stock at the daily rate.
// A configured order quantity wins; otherwise a month of consumption is
// rounded up to the policy's rounding unit. At or below the reorder point
// the order date is today, else it is the projected stockout date minus
// lead time. Zero consumption with stock above the reorder point yields no
// order date.
func (c *Calculator) Recommend(in ReorderInput, today time.Time) (Recommendation, error) {
	if err := in.validate(); err != nil {
		return Recommendation{}, err
	}

	today = StartOfDay(today)
	daily := in.AvgConsumption / daysPerMonth
	reorderPoint := c.ReorderPoint(in.AvgConsumption, in.LeadTimeDays, in.SafetyStockDays)

	qty := in.OrderQuantity
	if qty <= 0 {
		qty = roundUpTo(daily*daysPerMonth, c.policy.OrderRoundingKg)
	}

	rec := Recommendation{
		ReorderPoint:        reorderPoint,
		RecommendedOrderQty: qty,
	}

	switch {
	case in.CurrentStock <= reorderPoint:
		rec.RecommendedOrderDate = &today
	case in.AvgConsumption > 0:
		days := daysUntilStockout(in.CurrentStock, in.AvgConsumption)
		orderDate := today.AddDate(0, 0, days-in.LeadTimeDays)
		rec.RecommendedOrderDate = &orderDate
	}

	return rec, nil
}

// ReorderPoint returns the reorder point alone, for bulk refreshes.
func (c *Calculator) ReorderPoint(avgConsumption float64, leadTimeDays, safetyStockDays int) float64 {
	daily := avgConsumption / daysPerMonth
	return daily*float64(leadTimeDays) + daily*float64(safetyStockDays)
}

func (in ReorderInput) validate() error {
	if err := checkNonNegative("currentStock", in.CurrentStock); err != nil {
		return err
	}
	if err := checkNonNegative("avgConsumption", in.AvgConsumption); err != nil {
		return err
	}
	if err := checkNonNegative("orderQuantity", in.OrderQuantity); err != nil {
		return err
	}
	if in.LeadTimeDays < 0 || in.SafetyStockDays < 0 {
		return fmt.Errorf("%w: lead time and safety stock days must be >= 0", domain.ErrValidation)
	}
	return nil
}

// roundUpTo rounds v up to the next multiple of unit.
func roundUpTo(v, unit float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Ceil(v/unit) * unit
}
