package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/procurement-risk/internal/domain"
	"github.com/andresuchdata/procurement-risk/internal/storage"
)

func TestSnapshotUploadListGet(t *testing.T) {
	f := newFixture(t, nil)
	store := storage.NewMemoryStorage()
	snapshots := NewSnapshotService(f.svc, store, "/archive/")
	ctx := context.Background()

	key, err := snapshots.Upload(ctx)
	require.NoError(t, err)
	assert.Equal(t, "archive/stockout-risks/2024-03-15.json", key)

	objs, err := snapshots.List(ctx)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, key, objs[0].Key)

	report, err := snapshots.Get(ctx, "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.Total)
	assert.Equal(t, domain.RiskStockout, report.Risks[0].RiskLevel)

	_, err = snapshots.Get(ctx, "15/03/2024")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = snapshots.Get(ctx, "2020-01-01")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}
