package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/procurement-risk/internal/domain"
)

func TestUpdatePurchaseOrderStatusAbortsOnError(t *testing.T) {
	repo := NewRepository()
	po := repo.AddPurchaseOrder(domain.PurchaseOrder{Status: domain.POStatusPending})

	boom := errors.New("boom")
	_, err := repo.UpdatePurchaseOrderStatus(context.Background(), po.ID, func(p *domain.PurchaseOrder) error {
		p.Status = domain.POStatusShipped
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := repo.GetPurchaseOrder(context.Background(), po.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.POStatusPending, stored.Status)
}

func TestListConsumptionFiltersTransactions(t *testing.T) {
	repo := NewRepository()
	p := repo.AddProduct(domain.Product{Active: true})
	since := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	repo.AddTransaction(domain.Transaction{ProductID: p.ID, Type: domain.TransactionOut, Quantity: 1, Date: since, IncludeInAvg: true})
	repo.AddTransaction(domain.Transaction{ProductID: p.ID, Type: domain.TransactionOut, Quantity: 2, Date: since, IncludeInAvg: false})
	repo.AddTransaction(domain.Transaction{ProductID: p.ID, Type: domain.TransactionIn, Quantity: 3, Date: since, IncludeInAvg: true})
	repo.AddTransaction(domain.Transaction{ProductID: p.ID, Type: domain.TransactionOut, Quantity: 4, Date: since.AddDate(0, 0, -1), IncludeInAvg: true})

	byProduct, err := repo.ListConsumption(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, byProduct[p.ID], 1)
	assert.Equal(t, 1.0, byProduct[p.ID][0].Quantity)
}

func TestUpdateProcurementSettingsNotFound(t *testing.T) {
	repo := NewRepository()
	_, err := repo.UpdateProcurementSettings(context.Background(), uuid.New(), domain.ProcurementSettings{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
