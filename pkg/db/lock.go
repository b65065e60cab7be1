package db

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// ForUpdate returns the row-lock suffix for the connection's dialect.
// SQLite has no row locks; its single writer already serializes transactions.
func ForUpdate(tx *gorm.DB) string {
	if IsSQLite(tx) {
		return ""
	}
	return " FOR UPDATE"
}

func IsSQLite(tx *gorm.DB) bool {
	return tx != nil && tx.Dialector != nil && tx.Dialector.Name() == "sqlite"
}

func IsPostgres(tx *gorm.DB) bool {
	return tx != nil && tx.Dialector != nil && tx.Dialector.Name() == "postgres"
}

// SnapshotTxOptions returns read-only repeatable-read options where the dialect supports them.
func SnapshotTxOptions(tx *gorm.DB) *sql.TxOptions {
	if IsSQLite(tx) {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}

// ReadSnapshot runs fn inside a read-only snapshot so multi-query reads never
// observe a partially committed posting.
func ReadSnapshot(ctx context.Context, conn *gorm.DB, fn func(tx *gorm.DB) error) error {
	return conn.WithContext(ctx).Transaction(fn, SnapshotTxOptions(conn))
}
