package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate applies a row-level write lock to the statement. Payment and
// charge state transitions read-then-write inside one transaction; without
// the lock two concurrent verifies can both observe PENDING before either
// commits. sqlite serializes writers itself and rejects FOR UPDATE syntax,
// so the clause is skipped there.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}
