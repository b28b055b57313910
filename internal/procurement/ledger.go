package procurement

import (
	"sort"

	"github.com/andresuchdata/procurement-risk/internal/domain"
)

// BuildLedger replays transactions in date order and returns each movement
// with the running balance, plus the final balance. Transactions sharing a
// date keep their input order.
func BuildLedger(txns []domain.Transaction) ([]domain.StockMovement, float64) {
	ordered := make([]domain.Transaction, len(txns))
	copy(ordered, txns)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	movements := make([]domain.StockMovement, 0, len(ordered))
	var balance float64
	for _, t := range ordered {
		balance += t.SignedQuantity()
		movements = append(movements, domain.StockMovement{
			Date:     t.Date,
			Type:     t.Type,
			Quantity: t.Quantity,
			Balance:  balance,
			Notes:    t.Notes,
		})
	}
	return movements, balance
}
