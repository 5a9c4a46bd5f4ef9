package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle passed through repository methods.
// The concrete type is infra-defined (pgx.Tx for Postgres); repositories
// must gracefully accept nil for the non-transactional path.
type Tx interface{}

// NoTX is passed where no transaction is in flight.
var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying handle via tx. Keeping the handle opaque keeps
// use-case interfaces free of storage types.
//
// USAGE
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx Tx) error {
//	    rec, err := ledger.Find(ctx, tx, codeID, userID)
//	    ...
//	    return err
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
