package procurement

import (
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/procurement-risk/internal/domain"
)

const (
	// ForecastMethod labels forecasts produced by Forecast.
	ForecastMethod = "seasonal_trend"

	// MaxForecastMonths bounds the forecast horizon.
	MaxForecastMonths = 24

	movingAveragePeriods = 3
	minSeasonalMonths    = 6
	minTrendMonths       = 3
	trendThreshold       = 0.01
)

// Forecast projects monthly consumption for the next months calendar months.
//
// The base is the average of the last three active months. A linear trend
// over all monthly totals is added when it is significant, and the result is
// scaled by the month-of-year seasonal factor observed over the past year.
// history should hold the product's include-in-average OUT transactions.
func (c *Calculator) Forecast(p domain.Product, history []domain.Transaction, months int, now time.Time) ([]domain.ConsumptionForecast, error) {
	if months < 1 || months > MaxForecastMonths {
		return nil, fmt.Errorf("%w: months must be between 1 and %d, got %d", domain.ErrValidation, MaxForecastMonths, months)
	}

	_, movingAvg := AggregateConsumption(history, movingAveragePeriods, now)
	_, yearAvg := AggregateConsumption(history, 12, now)
	seasonal := seasonalFactors(history, now)
	trend := monthlyTrend(history, now)
	confidence := forecastConfidence(yearAvg, movingAvg, trend)

	y, m, _ := now.Date()
	firstOfMonth := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())

	forecasts := make([]domain.ConsumptionForecast, 0, months)
	for i := 1; i <= months; i++ {
		target := firstOfMonth.AddDate(0, i, 0)
		factor := seasonal[target.Month()-1]

		value := movingAvg
		if math.Abs(trend) > trendThreshold {
			value += trend * float64(i)
		}
		value *= factor

		forecasts = append(forecasts, domain.ConsumptionForecast{
			ProductID:            p.ID,
			ForecastMonth:        target.Format("2006-01"),
			ForecastDate:         now,
			PredictedConsumption: math.Max(0, value),
			Method:               ForecastMethod,
			Confidence:           confidence,
			SeasonalFactor:       factor,
			TrendFactor:          trend,
			IsBaseline:           true,
		})
	}

	return forecasts, nil
}

// seasonalFactors returns one multiplier per calendar month, derived from
// the mean OUT quantity per month-of-year over the past year. Fewer than six
// observed months leave every factor at 1.
func seasonalFactors(history []domain.Transaction, now time.Time) [12]float64 {
	var factors [12]float64
	for i := range factors {
		factors[i] = 1
	}

	since := now.AddDate(-1, 0, 0)
	var sums [12]float64
	var counts [12]int
	for _, t := range history {
		if t.Type != domain.TransactionOut || t.Date.Before(since) {
			continue
		}
		idx := t.Date.In(now.Location()).Month() - 1
		sums[idx] += t.Quantity
		counts[idx]++
	}

	var observed int
	var meanSum float64
	var means [12]float64
	for i := range sums {
		if counts[i] == 0 {
			continue
		}
		means[i] = sums[i] / float64(counts[i])
		meanSum += means[i]
		observed++
	}
	if observed < minSeasonalMonths {
		return factors
	}

	yearAvg := meanSum / float64(observed)
	if yearAvg == 0 {
		return factors
	}
	for i := range means {
		if counts[i] > 0 {
			factors[i] = means[i] / yearAvg
		}
	}
	return factors
}

// monthlyTrend is the least-squares slope of monthly OUT totals, in kg per
// month. It is zero with fewer than three active months.
func monthlyTrend(history []domain.Transaction, now time.Time) float64 {
	buckets, _ := AggregateConsumption(history, 0, now)
	n := len(buckets)
	if n < minTrendMonths {
		return 0
	}

	var sumX, sumY, sumXY, sumX2 float64
	for i, b := range buckets {
		x := float64(i)
		sumX += x
		sumY += b.TotalOut
		sumXY += x * b.TotalOut
		sumX2 += x * x
	}
	fn := float64(n)
	return (fn*sumXY - sumX*sumY) / (fn*sumX2 - sumX*sumX)
}

// forecastConfidence scores data quality from 50 up to 100.
func forecastConfidence(yearAvg, movingAvg, trend float64) float64 {
	confidence := 50.0
	if yearAvg > 0 {
		confidence += 20
		if math.Abs(yearAvg-movingAvg)/yearAvg < 0.2 {
			confidence += 20
		}
	}
	if math.Abs(trend) < 0.1 {
		confidence += 10
	}
	return math.Min(100, confidence)
}
