package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/andresuchdata/procurement-risk/internal/domain"
)

const productColumns = `
	id, artis_codes, name, supplier, category, current_stock, avg_consumption,
	lead_time_days, safety_stock_days, min_stock_level, order_quantity,
	is_imported, reorder_point, last_order_date, active, updated_at`

const transactionColumns = `id, product_id, type, quantity, date, notes, include_in_avg`

type productRow struct {
	domain.Product
	ArtisCodes pq.StringArray `db:"artis_codes"`
}

func (r productRow) toDomain() domain.Product {
	p := r.Product
	p.Codes = []string(r.ArtisCodes)
	if p.Codes == nil {
		p.Codes = []string{}
	}
	return p
}

func (r *procurementRepository) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE active ORDER BY supplier, artis_codes[1]`

	var rows []productRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toDomain())
	}
	return products, nil
}

func (r *procurementRepository) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var row productRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	p := row.toDomain()
	return &p, nil
}

func (r *procurementRepository) UpdateProcurementSettings(ctx context.Context, id uuid.UUID, s domain.ProcurementSettings) (*domain.Product, error) {
	query := `
		UPDATE products SET
			lead_time_days    = COALESCE($2, lead_time_days),
			safety_stock_days = COALESCE($3, safety_stock_days),
			order_quantity    = COALESCE($4, order_quantity),
			is_imported       = COALESCE($5, is_imported),
			min_stock_level   = COALESCE($6, min_stock_level),
			updated_at        = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	var row productRow
	err := r.db.GetContext(ctx, &row, query, id,
		s.LeadTimeDays, s.SafetyStockDays, s.OrderQuantity, s.IsImported, s.MinStockLevel)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("update procurement settings: %w", err)
	}
	p := row.toDomain()
	return &p, nil
}

func (r *procurementRepository) UpdateReorderPoints(ctx context.Context, points map[uuid.UUID]float64) error {
	if len(points) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE products SET reorder_point = $2, updated_at = NOW() WHERE id = $1`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for id, point := range points {
			if _, err := stmt.ExecContext(ctx, id, point); err != nil {
				return fmt.Errorf("failed to update reorder point of %s: %w", id, err)
			}
		}
		return nil
	})
}

func (r *procurementRepository) ListTransactions(ctx context.Context, productID uuid.UUID) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE product_id = $1 ORDER BY date, created_at`

	var txns []domain.Transaction
	if err := sqlx.SelectContext(ctx, r.db, &txns, query, productID); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if txns == nil {
		txns = []domain.Transaction{}
	}
	return txns, nil
}

func (r *procurementRepository) ListConsumption(ctx context.Context, since time.Time) (map[uuid.UUID][]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE type = 'OUT' AND include_in_avg AND date >= $1
		ORDER BY product_id, date`

	var txns []domain.Transaction
	if err := sqlx.SelectContext(ctx, r.db, &txns, query, since); err != nil {
		return nil, fmt.Errorf("list consumption: %w", err)
	}

	byProduct := make(map[uuid.UUID][]domain.Transaction)
	for _, t := range txns {
		byProduct[t.ProductID] = append(byProduct[t.ProductID], t)
	}
	return byProduct, nil
}

func (r *procurementRepository) ListProductConsumption(ctx context.Context, productID uuid.UUID, since time.Time) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE product_id = $1 AND type = 'OUT' AND include_in_avg AND date >= $2
		ORDER BY date`

	var txns []domain.Transaction
	if err := sqlx.SelectContext(ctx, r.db, &txns, query, productID, since); err != nil {
		return nil, fmt.Errorf("list product consumption: %w", err)
	}
	return txns, nil
}
