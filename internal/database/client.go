// Package database provides the shared GORM connection helper for the
// TimescaleDB cycle store.
package database

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/weldtech/weldwatch/internal/log"
	"go.uber.org/zap"
)

// CreateConnection creates a database connection with standard GORM
// configuration, routing GORM's own logging through zap.
func CreateConnection(connectionString string) (*gorm.DB, error) {
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	log.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		log.Warn("warning: unable to create a TimescaleDB connection:", err)
		return nil, err
	}

	return db, nil
}
