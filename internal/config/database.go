package config

import (
	"fmt"
	"time"

	_ "github.com/lib/pq" // registers the "postgres" database/sql driver
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pipeline_tracker/internal/models"
)

// InitDB opens the database with retry and applies migrations.
// lib/pq is used as the driver so unique violations surface as *pq.Error.
func InitDB(cfg Config) (*gorm.DB, error) {
	var (
		db      *gorm.DB
		lastErr error
	)
	for i := 1; i <= cfg.DBConnectAttempts; i++ {
		db, lastErr = gorm.Open(postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        cfg.DSN(),
		}), &gorm.Config{})
		if lastErr == nil {
			break
		}
		logrus.WithError(lastErr).WithField("attempt", i).Warn("database not ready, retrying")
		time.Sleep(cfg.DBConnectDelay)
	}
	if lastErr != nil {
		return nil, fmt.Errorf("db connect failed after %d attempts: %w", cfg.DBConnectAttempts, lastErr)
	}

	if err := db.AutoMigrate(
		&models.Route{},
		&models.Waypoint{},
		&models.LocationFix{},
		&models.PipeJoint{},
		&models.DesignSpecSegment{},
		&models.PupConfig{},
	); err != nil {
		return nil, fmt.Errorf("auto-migration failed: %w", err)
	}

	return db, nil
}
