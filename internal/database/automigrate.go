package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"feedback-board-api/internal/domain"
)

// models lists every table in dependency order
func models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Board{},
		&domain.Membership{},
		&domain.Tag{},
		&domain.Feedback{},
		&domain.FeedbackTag{},
		&domain.Upvote{},
		&domain.Comment{},
	}
}

// AutoMigrate creates or updates all tables, indexes and foreign keys
func AutoMigrate(db *gorm.DB) error {
	// custom join models must be registered before the owning models migrate
	if err := db.SetupJoinTable(&domain.Board{}, "Members", &domain.Membership{}); err != nil {
		return fmt.Errorf("failed to set up board_memberships join table: %w", err)
	}
	if err := db.SetupJoinTable(&domain.Feedback{}, "Tags", &domain.FeedbackTag{}); err != nil {
		return fmt.Errorf("failed to set up feedback_tags join table: %w", err)
	}

	if err := db.AutoMigrate(models()...); err != nil {
		return fmt.Errorf("failed to run auto-migration: %w", err)
	}

	return nil
}

// AutoMigrateWithRetry runs AutoMigrate up to maxRetries times with linear backoff
func AutoMigrateWithRetry(db *gorm.DB, logger *zap.Logger, maxRetries int) error {
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		err = AutoMigrate(db)
		if err == nil {
			logger.Info("Database migrations completed",
				zap.Int("attempt", attempt),
				zap.Int("tables", len(models())),
			)
			return nil
		}

		if attempt < maxRetries {
			backoff := time.Duration(attempt) * time.Second
			logger.Warn("Migration attempt failed, retrying...",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", maxRetries),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			time.Sleep(backoff)
		}
	}

	logger.Error("Migration failed after all retry attempts",
		zap.Int("total_attempts", maxRetries),
		zap.Error(err),
	)
	return fmt.Errorf("migration failed after %d attempts: %w", maxRetries, err)
}
