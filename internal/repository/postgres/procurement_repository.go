package postgres

import (
	"github.com/andresuchdata/procurement-risk/internal/repository"
)

type procurementRepository struct {
	db *DB
}

// NewProcurementRepository returns the PostgreSQL implementation.
func NewProcurementRepository(db *DB) repository.ProcurementRepository {
	return &procurementRepository{db: db}
}
