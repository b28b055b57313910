package procurement

import (
	"sort"

	"github.com/andresuchdata/procurement-risk/internal/domain"
)

type supplierTally struct {
	total         int
	delivered     int
	expectedSum   float64
	actualCount   int
	actualSum     float64
	varianceSum   float64
	lateDelivered int
}

// AggregateSupplierPerformance groups purchase orders by supplier and
// computes delivery statistics. Averages over delivered orders are nil when
// a supplier has no delivered order with a recorded actual lead time.
// Results are ordered by order count, then supplier name.
func AggregateSupplierPerformance(orders []domain.PurchaseOrder) []domain.SupplierPerformance {
	tallies := make(map[string]*supplierTally)
	for _, o := range orders {
		t, ok := tallies[o.Supplier]
		if !ok {
			t = &supplierTally{}
			tallies[o.Supplier] = t
		}

		t.total++
		t.expectedSum += float64(o.LeadTimeDays)

		if o.Status != domain.POStatusDelivered {
			continue
		}
		t.delivered++
		if o.ActualLeadTimeDays == nil {
			continue
		}
		actual := *o.ActualLeadTimeDays
		t.actualCount++
		t.actualSum += float64(actual)
		t.varianceSum += float64(actual - o.LeadTimeDays)
		if actual > o.LeadTimeDays {
			t.lateDelivered++
		}
	}

	result := make([]domain.SupplierPerformance, 0, len(tallies))
	for supplier, t := range tallies {
		perf := domain.SupplierPerformance{
			Supplier:            supplier,
			TotalOrders:         t.total,
			DeliveredOrders:     t.delivered,
			AvgExpectedLeadTime: t.expectedSum / float64(t.total),
		}
		if t.actualCount > 0 {
			perf.AvgActualLeadTime = float64Ptr(t.actualSum / float64(t.actualCount))
			perf.AvgLeadTimeVariance = float64Ptr(t.varianceSum / float64(t.actualCount))
		}
		if t.delivered > 0 {
			perf.LateDeliveryPercentage = float64Ptr(float64(t.lateDelivered) / float64(t.delivered) * 100)
		}
		result = append(result, perf)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalOrders != result[j].TotalOrders {
			return result[i].TotalOrders > result[j].TotalOrders
		}
		return result[i].Supplier < result[j].Supplier
	})

	return result
}

func float64Ptr(v float64) *float64 {
	return &v
}
