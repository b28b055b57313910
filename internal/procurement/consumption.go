package procurement

import (
	"sort"
	"time"

	"github.com/andresuchdata/procurement-risk/internal/domain"
)

// MonthLabelLayout formats bucket labels such as "Mar 2024".
const MonthLabelLayout = "Jan 2006"

type monthKey struct {
	year  int
	month time.Month
}

func (k monthKey) before(o monthKey) bool {
	if k.year != o.year {
		return k.year < o.year
	}
	return k.month < o.month
}

func (k monthKey) start(loc *time.Location) time.Time {
	return time.Date(k.year, k.month, 1, 0, 0, 0, 0, loc)
}

// AggregateConsumption totals OUT transactions per calendar month and
// averages over the months that had activity. months > 0 limits the window
// to the months calendar months ending with asOf's month; 0 means all time.
// Transactions after asOf's month are never counted.
func AggregateConsumption(txns []domain.Transaction, months int, asOf time.Time) ([]domain.ConsumptionBucket, float64) {
	y, m, _ := asOf.Date()
	end := time.Date(y, m+1, 1, 0, 0, 0, 0, asOf.Location())

	var cutoff time.Time
	if months > 0 {
		cutoff = time.Date(y, m-time.Month(months-1), 1, 0, 0, 0, 0, asOf.Location())
	}

	totals := make(map[monthKey]float64)
	for _, t := range txns {
		if t.Type != domain.TransactionOut {
			continue
		}
		if months > 0 && t.Date.Before(cutoff) {
			continue
		}
		if !t.Date.Before(end) {
			continue
		}
		y, m, _ := t.Date.In(asOf.Location()).Date()
		totals[monthKey{year: y, month: m}] += t.Quantity
	}

	if len(totals) == 0 {
		return []domain.ConsumptionBucket{}, 0
	}

	keys := make([]monthKey, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].before(keys[j]) })

	// summed in chronological order so repeated calls are bit-identical
	buckets := make([]domain.ConsumptionBucket, 0, len(keys))
	var sum float64
	for _, k := range keys {
		total := totals[k]
		sum += total
		buckets = append(buckets, domain.ConsumptionBucket{
			Month:    k.start(asOf.Location()).Format(MonthLabelLayout),
			TotalOut: total,
		})
	}

	return buckets, sum / float64(len(buckets))
}
