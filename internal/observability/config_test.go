package observability

import (
	"testing"
	"time"

	"github.com/smallbiznis/partita/internal/config"
	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestLoadConfigSQLLogging(t *testing.T) {
	t.Setenv("LOG_SQL_LEVEL", "info")
	t.Setenv("SQL_SLOW_THRESHOLD_MS", "500")
	t.Setenv("SQL_CONTENTION_THRESHOLD_MS", "")

	cfg := LoadConfig(config.Config{PostingLockTimeout: 3 * time.Second})
	assert.Equal(t, gormlogger.Info, cfg.SQLLogLevel)
	assert.Equal(t, 500*time.Millisecond, cfg.SQLSlowThreshold)
	assert.Equal(t, 30*time.Millisecond, cfg.SQLContentionThreshold)

	gormCfg := cfg.GormLogger()
	assert.Equal(t, gormlogger.Info, gormCfg.Level)
	assert.Equal(t, 500*time.Millisecond, gormCfg.SlowThreshold)
	assert.Equal(t, 30*time.Millisecond, gormCfg.ContentionThreshold)
	assert.Contains(t, gormCfg.ContendedTables, "protocol_sequences")
}

func TestGormLoggerKeepsDefaultsForUnsetThresholds(t *testing.T) {
	t.Setenv("LOG_SQL_LEVEL", "")
	t.Setenv("SQL_SLOW_THRESHOLD_MS", "not-a-number")
	t.Setenv("SQL_CONTENTION_THRESHOLD_MS", "")

	cfg := LoadConfig(config.Config{})
	gormCfg := cfg.GormLogger()
	assert.Equal(t, gormlogger.Warn, gormCfg.Level)
	assert.Equal(t, 200*time.Millisecond, gormCfg.SlowThreshold)
	assert.Equal(t, 50*time.Millisecond, gormCfg.ContentionThreshold)
}
