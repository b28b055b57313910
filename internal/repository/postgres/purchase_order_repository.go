package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/procurement-risk/internal/domain"
)

const purchaseOrderColumns = `
	id, order_number, product_id, supplier, quantity, unit_price, total_amount,
	order_date, expected_delivery_date, actual_delivery_date, status,
	lead_time_days, actual_lead_time_days, notes, tracking_number,
	invoice_number, created_at, updated_at`

func (r *procurementRepository) CreatePurchaseOrder(ctx context.Context, po *domain.PurchaseOrder) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO purchase_orders (
				id, order_number, product_id, supplier, quantity, unit_price,
				total_amount, order_date, expected_delivery_date, status,
				lead_time_days, notes
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING created_at, updated_at`

		err := tx.QueryRowxContext(ctx, query,
			po.ID, po.OrderNumber, po.ProductID, po.Supplier, po.Quantity, po.UnitPrice,
			po.TotalAmount, po.OrderDate, po.ExpectedDeliveryDate, string(po.Status),
			po.LeadTimeDays, po.Notes,
		).Scan(&po.CreatedAt, &po.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert purchase order: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE products SET last_order_date = $2, updated_at = NOW() WHERE id = $1`,
			po.ProductID, po.OrderDate)
		if err != nil {
			return fmt.Errorf("failed to stamp last order date: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("product %s: %w", po.ProductID, domain.ErrNotFound)
		}
		return nil
	})
}

func (r *procurementRepository) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	err := r.db.GetContext(ctx, &po, `SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("purchase order %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	return &po, nil
}

func (r *procurementRepository) UpdatePurchaseOrderStatus(ctx context.Context, id uuid.UUID, fn func(po *domain.PurchaseOrder) error) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &po, `SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("purchase order %s: %w", id, domain.ErrNotFound)
			}
			return fmt.Errorf("failed to lock purchase order: %w", err)
		}

		if err := fn(&po); err != nil {
			return err
		}

		query := `
			UPDATE purchase_orders SET
				status = $2,
				actual_delivery_date = $3,
				actual_lead_time_days = $4,
				tracking_number = $5,
				invoice_number = $6,
				notes = $7,
				updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at`

		return tx.QueryRowxContext(ctx, query,
			po.ID, string(po.Status), po.ActualDeliveryDate, po.ActualLeadTimeDays,
			po.TrackingNumber, po.InvoiceNumber, po.Notes,
		).Scan(&po.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *procurementRepository) ListPurchaseOrders(ctx context.Context, filter domain.PurchaseOrderFilter) (*domain.PurchaseOrderList, error) {
	filter = filter.WithPageDefaults()

	where, args := buildPurchaseOrderFilterClause(filter, "", 1)

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM purchase_orders`+where, args...); err != nil {
		return nil, fmt.Errorf("count purchase orders: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM purchase_orders%s ORDER BY order_date DESC, order_number DESC LIMIT $%d OFFSET $%d`,
		purchaseOrderColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	var orders []domain.PurchaseOrder
	if err := sqlx.SelectContext(ctx, r.db, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	if orders == nil {
		orders = []domain.PurchaseOrder{}
	}

	return &domain.PurchaseOrderList{
		Orders: orders,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

func (r *procurementRepository) ListPurchaseOrdersForPerformance(ctx context.Context, supplier string) ([]domain.PurchaseOrder, error) {
	query := `SELECT ` + purchaseOrderColumns + ` FROM purchase_orders`
	var args []interface{}
	if supplier != "" {
		query += ` WHERE supplier = $1`
		args = append(args, supplier)
	}

	var orders []domain.PurchaseOrder
	if err := sqlx.SelectContext(ctx, r.db, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("list purchase orders for performance: %w", err)
	}
	return orders, nil
}
