// Package timescaledb persists cycle results to a TimescaleDB hypertable
// for long-term production history and reporting.
package timescaledb

import (
	"context"
	"sync"

	"github.com/weldtech/weldwatch/internal/database"
	"github.com/weldtech/weldwatch/internal/log"
	"github.com/weldtech/weldwatch/internal/types"
	"gorm.io/gorm"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS cycles (
	id TEXT NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL,
	reference_height DOUBLE PRECISION,
	min_height DOUBLE PRECISION,
	max_height DOUBLE PRECISION,
	weld_depth DOUBLE PRECISION,
	pass_fail TEXT,
	model_id BIGINT,
	model_name TEXT,
	model_type TEXT
);`

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb;`

const createHypertableSQL = `SELECT create_hypertable('cycles', 'timestamp', if_not_exists => TRUE);`

// Storage holds the configuration for a TimescaleDB storage backend
type Storage struct {
	db *gorm.DB
}

// New sets up a new TimescaleDB storage backend
func New(ctx context.Context, connectionString string) (*Storage, error) {
	db, err := database.CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}
	t := &Storage{db: db}

	log.Info("creating cycles table...")
	if err := db.WithContext(ctx).Exec(createTableSQL).Error; err != nil {
		log.Warn("warning: could not create cycles table")
		return nil, err
	}

	log.Info("creating TimescaleDB extension...")
	if err := db.WithContext(ctx).Exec(createExtensionSQL).Error; err != nil {
		log.Warn("warning: could not create TimescaleDB extension")
		return nil, err
	}

	log.Info("creating hypertable...")
	if err := db.WithContext(ctx).Exec(createHypertableSQL).Error; err != nil {
		log.Warn("warning: could not create hypertable")
		return nil, err
	}

	return t, nil
}

// StartStorageEngine creates a goroutine loop to receive cycle results
// and send them off to TimescaleDB
func (t *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.CycleResult {
	log.Info("starting TimescaleDB storage engine...")
	resultChan := make(chan types.CycleResult, 10)
	go t.processResults(ctx, wg, resultChan)
	return resultChan
}

func (t *Storage) processResults(ctx context.Context, wg *sync.WaitGroup, rchan <-chan types.CycleResult) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case r := <-rchan:
			if err := t.StoreResult(r); err != nil {
				log.Error("could not store cycle result:", err)
			}
		case <-ctx.Done():
			log.Info("cancellation request received, stopping TimescaleDB result processor")
			return
		}
	}
}

// StoreResult stores a cycle result in TimescaleDB
func (t *Storage) StoreResult(r types.CycleResult) error {
	return t.db.Create(&r).Error
}

// RecentCycles returns the most recent limit cycles, newest first.
func (t *Storage) RecentCycles(limit int) ([]types.CycleResult, error) {
	var cycles []types.CycleResult
	err := t.db.Order("timestamp DESC").Limit(limit).Find(&cycles).Error
	return cycles, err
}
