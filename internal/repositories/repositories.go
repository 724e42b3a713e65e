// package repositories provides SQLite implementations of the credential and profile stores.
package repositories

import (
	"database/sql"
	"fmt"
)

// DefaultAccount keys the single row each store keeps.
const DefaultAccount = "default"

// withTx runs fn inside a transaction, committing only when fn succeeds.
func withTx(db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func accountOrDefault(account string) string {
	if account == "" {
		return DefaultAccount
	}
	return account
}
