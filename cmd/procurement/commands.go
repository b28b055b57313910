package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/procurement-risk/internal/domain"
	"github.com/andresuchdata/procurement-risk/internal/repository/postgres"
	"github.com/andresuchdata/procurement-risk/internal/service"
	"github.com/andresuchdata/procurement-risk/internal/storage"
	"github.com/andresuchdata/procurement-risk/pkg/logger"
)

func runMigrate(c *cli.Context) error {
	e, err := envFrom(c)
	if err != nil {
		return err
	}
	if err := postgres.EnsureSchema(c.Context, e.db); err != nil {
		return err
	}
	logger.Log.Info().Msg("schema is up to date")
	return nil
}

func runRisks(c *cli.Context) error {
	e, err := envFrom(c)
	if err != nil {
		return err
	}

	report, err := e.service.GetStockoutRisks(c.Context)
	if err != nil {
		return err
	}

	if c.Bool("save") {
		path, err := saveLocal(e.cfg.App.SnapshotDir, report)
		if err != nil {
			return err
		}
		logger.Log.Info().Str("path", path).Msg("risk report saved")
	}

	if level := strings.ToUpper(strings.TrimSpace(c.String("level"))); level != "" {
		filtered := make([]domain.StockoutRisk, 0)
		for _, r := range report.Risks {
			if string(r.RiskLevel) == level {
				filtered = append(filtered, r)
			}
		}
		return printJSON(filtered)
	}
	return printJSON(report)
}

func runReorderPoints(c *cli.Context) error {
	e, err := envFrom(c)
	if err != nil {
		return err
	}
	updated, err := e.service.RefreshReorderPoints(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("updated reorder points for %d products\n", updated)
	return nil
}

func runForecast(c *cli.Context) error {
	e, err := envFrom(c)
	if err != nil {
		return err
	}

	months := c.Int("months")
	if raw := strings.TrimSpace(c.String("product")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid product id %q: %w", raw, err)
		}
		forecasts, err := e.service.GenerateForecast(c.Context, id, months)
		if err != nil {
			return err
		}
		return printJSON(forecasts)
	}

	batch, err := e.service.GenerateAllForecasts(c.Context, months)
	if err != nil {
		return err
	}
	logger.Log.Info().
		Int("total", batch.Total).
		Int("successful", batch.Successful).
		Int("failed", batch.Failed).
		Msg("forecasts generated")
	return nil
}

func runSnapshotUpload(c *cli.Context) error {
	snapshots, err := snapshotService(c)
	if err != nil {
		return err
	}
	key, err := snapshots.Upload(c.Context)
	if err != nil {
		return err
	}
	fmt.Println(key)
	return nil
}

func runSnapshotList(c *cli.Context) error {
	snapshots, err := snapshotService(c)
	if err != nil {
		return err
	}
	objects, err := snapshots.List(c.Context)
	if err != nil {
		return err
	}
	for _, obj := range objects {
		fmt.Printf("%s\t%d\t%s\n", obj.Key, obj.Size, obj.LastModified.Format(time.RFC3339))
	}
	return nil
}

func runSnapshotGet(c *cli.Context) error {
	snapshots, err := snapshotService(c)
	if err != nil {
		return err
	}
	report, err := snapshots.Get(c.Context, c.String("date"))
	if err != nil {
		return err
	}
	return printJSON(report)
}

func snapshotService(c *cli.Context) (*service.SnapshotService, error) {
	e, err := envFrom(c)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewMinioClient(c.Context, e.cfg.Storage)
	if err != nil {
		return nil, err
	}
	return service.NewSnapshotService(e.service, client, e.cfg.Storage.Prefix), nil
}

func saveLocal(dir string, report *domain.RiskReport) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("snapshot directory is not configured")
	}
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode risk report: %w", err)
	}
	path := filepath.Join(dir, "stockout-risks-"+report.GeneratedAt.Format(time.DateOnly)+".json")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write risk report: %w", err)
	}
	return path, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
