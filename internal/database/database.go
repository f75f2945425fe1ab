package database

import (
	"fmt"
	"time"

	"github.com/mlodi/backend/internal/config"
	"github.com/mlodi/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB initializes the database connection with configuration
func InitDB(dbConfig config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(dbConfig.URL), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdle)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Migrate runs schema auto-migration for all models, then the versioned
// reference-data migrations.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		// Identity
		&models.User{},

		// Ledgers
		&models.FanTierRecord{},
		&models.PointTransaction{},
		&models.Wallet{},

		// Reference data
		&models.Achievement{},
		&models.AchievementCriterion{},
		&models.Challenge{},
		&models.Milestone{},

		// Per-user progression state
		&models.UserAchievement{},
		&models.UserChallengeProgress{},
		&models.UserMilestoneProgress{},
	)
	if err != nil {
		return err
	}

	return RunMigrations(db)
}
