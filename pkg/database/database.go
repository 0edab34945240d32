package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager abstracts transaction creation so domain services can be
// tested without a live database
type TransactionManager interface {
	// BeginTx starts a transaction with a bounded lock wait
	BeginTx(ctx context.Context) (pgx.Tx, error)
}
