package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/procurement-risk/internal/cache"
	"github.com/andresuchdata/procurement-risk/internal/config"
	"github.com/andresuchdata/procurement-risk/internal/procurement"
	"github.com/andresuchdata/procurement-risk/internal/repository/postgres"
	"github.com/andresuchdata/procurement-risk/internal/service"
	"github.com/andresuchdata/procurement-risk/pkg/logger"
)

type ctxKey string

const envKey ctxKey = "procurement-env"

// env is what Before hooks hand to command actions.
type env struct {
	cfg     *config.Config
	db      *sqlx.DB
	service *service.ProcurementService
}

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string (defaults to the DB_* settings)",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func initEnv(c *cli.Context) error {
	cfg := config.Load()
	logger.Setup(cfg.Server.Mode, cfg.Server.LogFormat)
	if level := c.String("log-level"); level != "" {
		logger.SetLevel(level)
	}

	dsn := c.String("db-url")
	if dsn == "" {
		dsn = postgres.DSN(&cfg.Database)
	}

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(c.Context, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	db := sqlx.NewDb(sqlDB, "pgx")

	procurementCache, err := cache.NewProcurementCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("redis cache unavailable, continuing without cache")
		procurementCache = cache.NewNoopProcurementCache()
	}

	svc := service.NewProcurementService(
		postgres.NewProcurementRepository(postgres.Wrap(db)),
		procurementCache,
		procurement.NewCalculator(procurement.PolicyFromConfig(cfg.Procurement)),
		service.WithForecastWorkers(cfg.Procurement.ForecastWorkers),
	)

	c.Context = context.WithValue(c.Context, envKey, &env{cfg: cfg, db: db, service: svc})
	return nil
}

func closeEnv(c *cli.Context) error {
	if e, ok := c.Context.Value(envKey).(*env); ok && e.db != nil {
		return e.db.Close()
	}
	return nil
}

func envFrom(c *cli.Context) (*env, error) {
	e, ok := c.Context.Value(envKey).(*env)
	if !ok || e == nil {
		return nil, errors.New("environment not initialised")
	}
	return e, nil
}

func main() {
	app := &cli.App{
		Name:  "procurement",
		Usage: "Maintenance tasks for the procurement risk service",
		Flags: []cli.Flag{
			newDBURLFlag(),
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Override the log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: initEnv,
		After:  closeEnv,
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create the procurement tables when they are missing",
				Action: runMigrate,
			},
			{
				Name:  "risks",
				Usage: "Print the current stockout risk report",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "level",
						Usage: "Only print products at this risk level (e.g. CRITICAL)",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Also write the report to the local snapshot directory",
					},
				},
				Action: runRisks,
			},
			{
				Name:   "reorder-points",
				Usage:  "Recompute the reorder point of every active product",
				Action: runReorderPoints,
			},
			{
				Name:  "forecast",
				Usage: "Generate consumption forecasts",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "product",
						Usage: "Product id; all active products when empty",
					},
					&cli.IntFlag{
						Name:  "months",
						Usage: "Forecast horizon in months (1-24)",
						Value: 3,
					},
				},
				Action: runForecast,
			},
			{
				Name:  "snapshot",
				Usage: "Archive risk reports to object storage",
				Subcommands: []*cli.Command{
					{
						Name:   "upload",
						Usage:  "Upload today's risk report",
						Action: runSnapshotUpload,
					},
					{
						Name:   "list",
						Usage:  "List archived risk reports",
						Action: runSnapshotList,
					},
					{
						Name:  "get",
						Usage: "Print an archived risk report",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "date",
								Usage:    "Snapshot date (YYYY-MM-DD)",
								Required: true,
							},
						},
						Action: runSnapshotGet,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("command failed")
	}
}
