package procurement

import (
	"math"
	"sort"
	"strings"

	"github.com/andresuchdata/procurement-risk/internal/domain"
)

// overstockMonths is the stock cover above which a product is overstocked.
const overstockMonths = 6

// SortRisks orders risks by severity, then by days until stockout
// (unknown last), then by first display code.
func SortRisks(risks []domain.StockoutRisk) {
	sort.SliceStable(risks, func(i, j int) bool {
		a, b := risks[i], risks[j]
		if sa, sb := a.RiskLevel.Severity(), b.RiskLevel.Severity(); sa != sb {
			return sa > sb
		}
		switch {
		case a.DaysUntilStockout != nil && b.DaysUntilStockout != nil:
			if *a.DaysUntilStockout != *b.DaysUntilStockout {
				return *a.DaysUntilStockout < *b.DaysUntilStockout
			}
		case a.DaysUntilStockout != nil:
			return true
		case b.DaysUntilStockout != nil:
			return false
		}
		return firstCode(a) < firstCode(b)
	})
}

// Summarize counts risks per level.
func Summarize(risks []domain.StockoutRisk) domain.RiskSummary {
	summary := domain.RiskSummary{Total: len(risks)}
	for _, r := range risks {
		switch r.RiskLevel {
		case domain.RiskStockout:
			summary.Stockout++
		case domain.RiskCritical:
			summary.Critical++
		case domain.RiskHigh:
			summary.High++
		case domain.RiskMedium:
			summary.Medium++
		case domain.RiskLow:
			summary.Low++
		case domain.RiskSafe:
			summary.Safe++
		}
	}
	return summary
}

// GroupRisks buckets risks by lower-case level name. Every level is present.
func GroupRisks(risks []domain.StockoutRisk) map[string][]domain.StockoutRisk {
	groups := make(map[string][]domain.StockoutRisk, len(domain.RiskLevels))
	for _, level := range domain.RiskLevels {
		groups[groupKey(level)] = []domain.StockoutRisk{}
	}
	for _, r := range risks {
		key := groupKey(r.RiskLevel)
		groups[key] = append(groups[key], r)
	}
	return groups
}

// PartitionAlerts splits risks into actionable and upcoming alerts, lists
// overstocked products and counts every level.
func PartitionAlerts(risks []domain.StockoutRisk) domain.ProcurementAlerts {
	alerts := domain.ProcurementAlerts{
		Critical:  []domain.StockoutRisk{},
		Upcoming:  []domain.StockoutRisk{},
		Overstock: []domain.OverstockItem{},
		Summary:   Summarize(risks),
	}
	for _, r := range risks {
		switch r.RiskLevel {
		case domain.RiskStockout, domain.RiskCritical, domain.RiskHigh:
			alerts.Critical = append(alerts.Critical, r)
		case domain.RiskMedium:
			alerts.Upcoming = append(alerts.Upcoming, r)
		}

		if r.CurrentStock > r.AvgConsumption*overstockMonths {
			item := domain.OverstockItem{
				ProductID:      r.ProductID,
				ArtisCodes:     r.ArtisCodes,
				Name:           r.Name,
				Supplier:       r.Supplier,
				CurrentStock:   r.CurrentStock,
				AvgConsumption: r.AvgConsumption,
			}
			if r.AvgConsumption > 0 {
				months := math.Round(r.CurrentStock/r.AvgConsumption*10) / 10
				item.MonthsOfStock = &months
			}
			alerts.Overstock = append(alerts.Overstock, item)
		}
	}
	return alerts
}

func groupKey(level domain.RiskLevel) string {
	return strings.ToLower(string(level))
}

func firstCode(r domain.StockoutRisk) string {
	if len(r.ArtisCodes) == 0 {
		return ""
	}
	return r.ArtisCodes[0]
}
