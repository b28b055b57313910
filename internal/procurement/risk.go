package procurement

import (
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/procurement-risk/internal/domain"
)

// maxDaysUntilStockout caps the projection so tiny consumption rates cannot
// overflow the day count.
const maxDaysUntilStockout = 36500

// RiskAssessment is the classifier output for one product.
type RiskAssessment struct {
	Level                 domain.RiskLevel
	DailyConsumption      float64
	DaysUntilStockout     *int
	EstimatedStockoutDate *time.Time
}

// ClassifyRisk assigns a risk level from stock on hand, monthly consumption
// and lead time. A zero consumption rate has no stockout horizon and is
// SAFE, or LOW when nothing is in stock.
func ClassifyRisk(currentStock, avgConsumption float64, leadTimeDays int, today time.Time) (RiskAssessment, error) {
	if err := checkNonNegative("currentStock", currentStock); err != nil {
		return RiskAssessment{}, err
	}
	if err := checkNonNegative("avgConsumption", avgConsumption); err != nil {
		return RiskAssessment{}, err
	}
	if leadTimeDays < 0 {
		return RiskAssessment{}, fmt.Errorf("%w: leadTimeDays must be >= 0, got %d", domain.ErrValidation, leadTimeDays)
	}

	daily := avgConsumption / daysPerMonth
	if avgConsumption == 0 {
		level := domain.RiskSafe
		if currentStock == 0 {
			level = domain.RiskLow
		}
		return RiskAssessment{Level: level, DailyConsumption: daily}, nil
	}

	days := daysUntilStockout(currentStock, avgConsumption)
	est := StartOfDay(today).AddDate(0, 0, days)

	return RiskAssessment{
		Level:                 levelFor(currentStock, days, leadTimeDays),
		DailyConsumption:      daily,
		DaysUntilStockout:     &days,
		EstimatedStockoutDate: &est,
	}, nil
}

func levelFor(currentStock float64, days, leadTimeDays int) domain.RiskLevel {
	d := float64(days)
	lead := float64(leadTimeDays)

	switch {
	case currentStock <= 0:
		return domain.RiskStockout
	case d <= lead:
		return domain.RiskCritical
	case d <= lead*1.5:
		return domain.RiskHigh
	case d <= lead*3:
		return domain.RiskMedium
	case d <= lead*6:
		return domain.RiskLow
	default:
		return domain.RiskSafe
	}
}

// daysUntilStockout floors stock*30/avg; avg must be positive.
func daysUntilStockout(currentStock, avgConsumption float64) int {
	days := math.Floor(currentStock * daysPerMonth / avgConsumption)
	if days > maxDaysUntilStockout {
		return maxDaysUntilStockout
	}
	return int(days)
}

func checkNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be a finite number", domain.ErrValidation, name)
	}
	if v < 0 {
		return fmt.Errorf("%w: %s must be >= 0, got %g", domain.ErrValidation, name, v)
	}
	return nil
}
