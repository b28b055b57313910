package postgres

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/procurement-risk/internal/domain"
)

// buildPurchaseOrderFilterClause constructs the WHERE clause for purchase order listings
func buildPurchaseOrderFilterClause(filter domain.PurchaseOrderFilter, alias string, startIndex int) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	idx := startIndex

	if filter.Status != "" {
		clauses = append(clauses, fmt.Sprintf("%sstatus = $%d", alias, idx))
		args = append(args, string(filter.Status))
		idx++
	}

	if filter.Supplier != "" {
		clauses = append(clauses, fmt.Sprintf("%ssupplier ILIKE $%d", alias, idx))
		args = append(args, "%"+filter.Supplier+"%")
		idx++
	}

	if filter.ProductID != nil {
		clauses = append(clauses, fmt.Sprintf("%sproduct_id = $%d", alias, idx))
		args = append(args, *filter.ProductID)
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}
