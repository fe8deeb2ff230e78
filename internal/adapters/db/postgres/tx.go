package postgres

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// conn returns the transaction bound to ctx by TxManager.WithinTx, or
// the plain handle when no transaction is open.
func conn(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}

// TxManager scopes a group of repository calls to one database
// transaction.
type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTx runs fn inside a transaction. Repository calls made with the
// derived context share it; any error from fn rolls everything back.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}
