package procurement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/procurement-risk/internal/domain"
)

func order(supplier string, status domain.POStatus, lead int, actual *int) domain.PurchaseOrder {
	return domain.PurchaseOrder{Supplier: supplier, Status: status, LeadTimeDays: lead, ActualLeadTimeDays: actual}
}

func TestAggregateSupplierPerformance(t *testing.T) {
	orders := []domain.PurchaseOrder{
		order("Acme", domain.POStatusDelivered, 10, intPtr(8)),
		order("Acme", domain.POStatusDelivered, 10, intPtr(10)),
		order("Acme", domain.POStatusDelivered, 10, intPtr(15)),
		order("Acme", domain.POStatusPending, 20, nil),
		order("Borealis", domain.POStatusShipped, 60, nil),
	}

	perf := AggregateSupplierPerformance(orders)
	require.Len(t, perf, 2)

	acme := perf[0]
	assert.Equal(t, "Acme", acme.Supplier)
	assert.Equal(t, 4, acme.TotalOrders)
	assert.Equal(t, 3, acme.DeliveredOrders)
	assert.InDelta(t, 12.5, acme.AvgExpectedLeadTime, 1e-9)
	require.NotNil(t, acme.AvgActualLeadTime)
	assert.InDelta(t, 11, *acme.AvgActualLeadTime, 1e-9)
	require.NotNil(t, acme.AvgLeadTimeVariance)
	assert.InDelta(t, 1, *acme.AvgLeadTimeVariance, 1e-9)
	require.NotNil(t, acme.LateDeliveryPercentage)
	assert.InDelta(t, 33.333, *acme.LateDeliveryPercentage, 0.001)

	borealis := perf[1]
	assert.Equal(t, 0, borealis.DeliveredOrders)
	assert.Nil(t, borealis.AvgActualLeadTime)
	assert.Nil(t, borealis.AvgLeadTimeVariance)
	assert.Nil(t, borealis.LateDeliveryPercentage)
}

func TestLateDeliveryPercentageBounded(t *testing.T) {
	orders := []domain.PurchaseOrder{
		order("A", domain.POStatusDelivered, 5, intPtr(50)),
		order("A", domain.POStatusDelivered, 5, intPtr(6)),
		order("B", domain.POStatusDelivered, 5, nil),
		order("C", domain.POStatusCancelled, 5, nil),
	}
	for _, p := range AggregateSupplierPerformance(orders) {
		if p.LateDeliveryPercentage == nil {
			assert.Zero(t, p.DeliveredOrders)
			continue
		}
		assert.GreaterOrEqual(t, *p.LateDeliveryPercentage, 0.0)
		assert.LessOrEqual(t, *p.LateDeliveryPercentage, 100.0)
	}
}

func TestAggregateSupplierPerformanceEmpty(t *testing.T) {
	assert.Empty(t, AggregateSupplierPerformance(nil))
}
