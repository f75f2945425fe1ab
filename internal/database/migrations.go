package database

import (
	"log"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/mlodi/backend/internal/database/migrations"
	"gorm.io/gorm"
)

// RunMigrations runs the versioned data migrations. Schema creation is
// handled by AutoMigrate; these migrations seed and evolve reference data.
func RunMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		migrations.SeedEngagementDefinitions(),
	})

	if err := m.Migrate(); err != nil {
		log.Printf("Could not migrate: %v", err)
		return err
	}
	return nil
}
