package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

// Queryer is satisfied by both *sqlx.DB and *sqlx.Tx
type Queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// WithTx runs fn in a transaction carried by the returned context, so that
// repository calls made with that context share it. A context that already
// carries a transaction is reused.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if db.txFrom(ctx) != nil {
		return fn(ctx)
	}
	return db.Transaction(ctx, func(tx *sqlx.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// Conn returns the transaction stored in ctx, or the pool
func (db *DB) Conn(ctx context.Context) Queryer {
	if tx := db.txFrom(ctx); tx != nil {
		return tx
	}
	return db.DB
}

func (db *DB) txFrom(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}
