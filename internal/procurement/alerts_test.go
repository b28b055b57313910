package procurement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/procurement-risk/internal/domain"
)

func riskOf(code string, level domain.RiskLevel, days *int, stock, avg float64) domain.StockoutRisk {
	return domain.StockoutRisk{
		ArtisCodes:        []string{code},
		RiskLevel:         level,
		DaysUntilStockout: days,
		CurrentStock:      stock,
		AvgConsumption:    avg,
	}
}

func TestSortRisks(t *testing.T) {
	risks := []domain.StockoutRisk{
		riskOf("safe", domain.RiskSafe, nil, 10, 0),
		riskOf("crit-late", domain.RiskCritical, intPtr(9), 30, 100),
		riskOf("out", domain.RiskStockout, intPtr(0), 0, 100),
		riskOf("crit-soon", domain.RiskCritical, intPtr(2), 5, 100),
		riskOf("safe-dated", domain.RiskSafe, intPtr(400), 1000, 75),
	}
	SortRisks(risks)

	var codes []string
	for _, r := range risks {
		codes = append(codes, r.ArtisCodes[0])
	}
	assert.Equal(t, []string{"out", "crit-soon", "crit-late", "safe-dated", "safe"}, codes)
}

func TestSummarizeAndGroup(t *testing.T) {
	risks := []domain.StockoutRisk{
		riskOf("a", domain.RiskCritical, intPtr(1), 1, 30),
		riskOf("b", domain.RiskCritical, intPtr(2), 2, 30),
		riskOf("c", domain.RiskMedium, intPtr(25), 25, 30),
	}

	summary := Summarize(risks)
	assert.Equal(t, domain.RiskSummary{Total: 3, Critical: 2, Medium: 1}, summary)

	groups := GroupRisks(risks)
	assert.Len(t, groups, len(domain.RiskLevels))
	assert.Len(t, groups["critical"], 2)
	assert.Len(t, groups["medium"], 1)
	assert.NotNil(t, groups["stockout"])
	assert.Empty(t, groups["stockout"])
}

func TestPartitionAlerts(t *testing.T) {
	risks := []domain.StockoutRisk{
		riskOf("out", domain.RiskStockout, intPtr(0), 0, 10),
		riskOf("high", domain.RiskHigh, intPtr(12), 40, 100),
		riskOf("medium", domain.RiskMedium, intPtr(24), 80, 100),
		riskOf("heap", domain.RiskSafe, intPtr(900), 3000, 100),
		riskOf("idle", domain.RiskSafe, nil, 50, 0),
	}

	alerts := PartitionAlerts(risks)
	assert.Len(t, alerts.Critical, 2)
	require.Len(t, alerts.Upcoming, 1)
	assert.Equal(t, "medium", alerts.Upcoming[0].ArtisCodes[0])

	require.Len(t, alerts.Overstock, 2)
	assert.Equal(t, []string{"heap"}, alerts.Overstock[0].ArtisCodes)
	require.NotNil(t, alerts.Overstock[0].MonthsOfStock)
	assert.Equal(t, 30.0, *alerts.Overstock[0].MonthsOfStock)
	assert.Nil(t, alerts.Overstock[1].MonthsOfStock)
	assert.Equal(t, 5, alerts.Summary.Total)
	assert.Equal(t, 2, alerts.Summary.Safe)
}
