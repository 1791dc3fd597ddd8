package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/analytics-database/internal/domain"
	"github.com/yungbote/analytics-database/internal/domain/rootcontext"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureContextSequence(db)
}

// EnsureContextSequence makes the first allocated root-context id equal
// rootcontext.FirstContextID. A placeholder row one below the start is
// inserted into an empty sequence table; postgres also needs its serial
// advanced past the explicit insert.
func EnsureContextSequence(db *gorm.DB) error {
	var count int64
	if err := db.Model(&rootcontext.ContextID{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count context ids: %w", err)
	}
	if count > 0 {
		return nil
	}
	seed := rootcontext.ContextID{ContextID: rootcontext.FirstContextID - 1}
	if err := db.Create(&seed).Error; err != nil {
		return fmt.Errorf("seed context id sequence: %w", err)
	}
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(
			`SELECT setval(pg_get_serial_sequence('"ContextId"', 'context_id'), ?)`,
			rootcontext.FirstContextID-1,
		).Error; err != nil {
			return fmt.Errorf("advance context id sequence: %w", err)
		}
	}
	return nil
}
