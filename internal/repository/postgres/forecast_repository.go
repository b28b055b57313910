package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/procurement-risk/internal/domain"
)

func (r *procurementRepository) UpsertForecasts(ctx context.Context, forecasts []domain.ConsumptionForecast) error {
	if len(forecasts) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO consumption_forecasts (
				product_id, forecast_month, forecast_date, predicted_consumption,
				forecast_method, confidence, seasonal_factor, trend_factor, is_baseline
			) VALUES (
				:product_id, :forecast_month, :forecast_date, :predicted_consumption,
				:forecast_method, :confidence, :seasonal_factor, :trend_factor, :is_baseline
			)
			ON CONFLICT (product_id, forecast_month)
			DO UPDATE SET
				forecast_date = EXCLUDED.forecast_date,
				predicted_consumption = EXCLUDED.predicted_consumption,
				forecast_method = EXCLUDED.forecast_method,
				confidence = EXCLUDED.confidence,
				seasonal_factor = EXCLUDED.seasonal_factor,
				trend_factor = EXCLUDED.trend_factor,
				is_baseline = EXCLUDED.is_baseline`

		stmt, err := tx.PrepareNamedContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, f := range forecasts {
			if _, err := stmt.ExecContext(ctx, f); err != nil {
				return fmt.Errorf("failed to upsert forecast %s/%s: %w", f.ProductID, f.ForecastMonth, err)
			}
		}
		return nil
	})
}
