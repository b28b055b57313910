package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/procurement-risk/internal/domain"
	"github.com/andresuchdata/procurement-risk/internal/storage"
)

const snapshotFolder = "stockout-risks"

// RiskReporter produces the current risk report.
type RiskReporter interface {
	GetStockoutRisks(ctx context.Context) (*domain.RiskReport, error)
}

// SnapshotService archives risk reports to object storage.
type SnapshotService struct {
	risks  RiskReporter
	store  storage.ObjectStorage
	prefix string
}

func NewSnapshotService(risks RiskReporter, store storage.ObjectStorage, prefix string) *SnapshotService {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "snapshots"
	}
	return &SnapshotService{risks: risks, store: store, prefix: prefix}
}

// Upload stores the current risk report as JSON and returns its key.
func (s *SnapshotService) Upload(ctx context.Context) (string, error) {
	report, err := s.risks.GetStockoutRisks(ctx)
	if err != nil {
		return "", err
	}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode risk snapshot: %w", err)
	}

	key := s.keyFor(report.GeneratedAt)
	if err := s.store.UploadObject(ctx, key, payload, "application/json"); err != nil {
		return "", err
	}

	log.Info().Str("key", key).Int("products", report.Summary.Total).Msg("snapshot: risk report uploaded")
	return key, nil
}

// List returns archived snapshots ordered by key, oldest first.
func (s *SnapshotService) List(ctx context.Context) ([]storage.ObjectInfo, error) {
	return s.store.ListObjects(ctx, path.Join(s.prefix, snapshotFolder)+"/")
}

// Get loads one archived snapshot by date (YYYY-MM-DD).
func (s *SnapshotService) Get(ctx context.Context, date string) (*domain.RiskReport, error) {
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrValidation)
	}

	payload, err := s.store.GetObject(ctx, s.keyFor(day))
	if err != nil {
		return nil, err
	}

	var report domain.RiskReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("decode risk snapshot: %w", err)
	}
	return &report, nil
}

func (s *SnapshotService) keyFor(day time.Time) string {
	return path.Join(s.prefix, snapshotFolder, day.Format(time.DateOnly)+".json")
}
