package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTelemetryConfig controls database tracing and pool metrics.
type DBTelemetryConfig struct {
	Enabled         bool
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBSystem        string
	PoolInterval    time.Duration
}

// DefaultDBTelemetryConfig returns sensible defaults for database observability.
func DefaultDBTelemetryConfig() DBTelemetryConfig {
	return DBTelemetryConfig{
		Enabled:         true,
		LogFullSQL:      false,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
		PoolInterval:    15 * time.Second,
	}
}

// DBTelemetry wires otelgorm tracing and connection pool gauges into a
// GORM DB instance.
type DBTelemetry struct {
	config   DBTelemetryConfig
	logger   *zap.Logger
	sqlDB    *sql.DB
	poolIdle *Gauge
	poolUsed *Gauge
	poolWait *Counter
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewDBTelemetry creates database telemetry using the given meter provider.
func NewDBTelemetry(cfg DBTelemetryConfig, mp *MeterProvider, logger *zap.Logger) (*DBTelemetry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dt := &DBTelemetry{
		config:   cfg,
		logger:   logger,
		stopChan: make(chan struct{}),
	}

	meter := mp.Meter(TracerName)

	var err error
	dt.poolIdle, err = NewGauge(meter, "fleet_db_pool_idle", "Idle database connections", "{connections}")
	if err != nil {
		return nil, err
	}
	dt.poolUsed, err = NewGauge(meter, "fleet_db_pool_in_use", "In-use database connections", "{connections}")
	if err != nil {
		return nil, err
	}
	dt.poolWait, err = NewCounter(meter, "fleet_db_pool_wait_total", "Total connection waits", "{waits}")
	if err != nil {
		return nil, err
	}
	return dt, nil
}

// Register installs the otelgorm plugin and the slow query callback on db.
func (dt *DBTelemetry) Register(db *gorm.DB) error {
	if !dt.config.Enabled {
		dt.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(dt.config.DBSystem),
	}
	if !dt.config.LogFullSQL {
		// Keep query parameters out of spans.
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("failed to register otelgorm plugin: %w", err)
	}

	if err := dt.registerSlowQueryCallback(db); err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB for pool metrics: %w", err)
	}
	dt.sqlDB = sqlDB

	dt.logger.Info("Database telemetry enabled",
		zap.Bool("log_full_sql", dt.config.LogFullSQL),
		zap.Duration("slow_query_threshold", dt.config.SlowQueryThresh),
		zap.String("db_system", dt.config.DBSystem),
	)
	return nil
}

type dbStartTimeKey struct{}

func (dt *DBTelemetry) registerSlowQueryCallback(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.Statement.Context = context.WithValue(tx.Statement.Context, dbStartTimeKey{}, time.Now())
	}
	after := func(tx *gorm.DB) {
		start, ok := tx.Statement.Context.Value(dbStartTimeKey{}).(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)
		if elapsed >= dt.config.SlowQueryThresh {
			dt.logger.Warn("Slow database query",
				zap.Duration("elapsed", elapsed),
				zap.String("table", tx.Statement.Table),
			)
		}
	}

	if err := db.Callback().Create().Before("gorm:create").Register("fleet:slow_query_before_create", before); err != nil {
		return err
	}
	if err := db.Callback().Create().After("gorm:create").Register("fleet:slow_query_after_create", after); err != nil {
		return err
	}
	if err := db.Callback().Query().Before("gorm:query").Register("fleet:slow_query_before_query", before); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("fleet:slow_query_after_query", after); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("fleet:slow_query_before_update", before); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("fleet:slow_query_after_update", after); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("fleet:slow_query_before_delete", before); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("fleet:slow_query_after_delete", after); err != nil {
		return err
	}
	return nil
}

// StartPoolStatsCollection periodically records connection pool gauges.
// Non-blocking; use Stop() to stop collection.
func (dt *DBTelemetry) StartPoolStatsCollection(ctx context.Context) {
	if dt.sqlDB == nil {
		return
	}
	interval := dt.config.PoolInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-dt.stopChan:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := dt.sqlDB.Stats()
				dt.poolIdle.Record(ctx, int64(stats.Idle))
				dt.poolUsed.Record(ctx, int64(stats.InUse))
				dt.poolWait.Add(ctx, 0) // keep the series alive even when no waits occur
			}
		}
	}()
}

// Stop stops pool stats collection.
func (dt *DBTelemetry) Stop() {
	dt.stopOnce.Do(func() {
		close(dt.stopChan)
	})
}
