package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// GormLoggerConfig configures the GORM zap logger.
type GormLoggerConfig struct {
	Level                gormlogger.LogLevel
	SlowThreshold        time.Duration
	IgnoreRecordNotFound bool

	// ContentionThreshold applies to statements on the row-locked ledger
	// tables, where a slow statement usually means a lock wait.
	ContentionThreshold time.Duration
	ContendedTables     []string
}

// DefaultGormLoggerConfig returns production-safe defaults.
func DefaultGormLoggerConfig() GormLoggerConfig {
	return GormLoggerConfig{
		Level:               gormlogger.Warn,
		SlowThreshold:       200 * time.Millisecond,
		ContentionThreshold: 50 * time.Millisecond,
		ContendedTables:     []string{"protocol_sequences", "open_items", "accounts"},
	}
}

// ParseGormLevel maps a textual level onto gorm's levels, falling back to def.
func ParseGormLevel(value string, def gormlogger.LogLevel) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "silent", "off":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "warn", "warning":
		return gormlogger.Warn
	case "info", "debug":
		return gormlogger.Info
	default:
		return def
	}
}

// GormLogger implements gormlogger.Interface on top of the request-scoped zap logger,
// so SQL lines carry company, actor and trace fields.
type GormLogger struct {
	cfg       GormLoggerConfig
	contended map[string]struct{}
}

func NewGormLogger(cfg GormLoggerConfig) *GormLogger {
	contended := make(map[string]struct{}, len(cfg.ContendedTables))
	for _, table := range cfg.ContendedTables {
		contended[strings.ToLower(strings.TrimSpace(table))] = struct{}{}
	}
	return &GormLogger{cfg: cfg, contended: contended}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.cfg.Level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Info, zap.InfoLevel, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Warn, zap.WarnLevel, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Error, zap.ErrorLevel, msg, data)
}

func (l *GormLogger) message(ctx context.Context, enabled gormlogger.LogLevel, level zapcore.Level, msg string, data []interface{}) {
	if l.cfg.Level < enabled {
		return
	}
	fields := []zap.Field{zap.String("component", "gorm")}
	if len(data) > 0 {
		fields = append(fields, zap.Any("data", data))
	}
	emit(FromContext(ctx), level, msg, fields)
}

// Trace logs failed statements, slow statements and, at Info, everything else.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.cfg.Level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	if err != nil && l.cfg.Level >= gormlogger.Error &&
		(!errors.Is(err, gormlogger.ErrRecordNotFound) || !l.cfg.IgnoreRecordNotFound) {
		sql, rows := fc()
		emit(FromContext(ctx), zap.ErrorLevel, "gorm.query", l.queryFields(sql, rows, elapsed, err))
		return
	}
	if l.cfg.Level < gormlogger.Warn {
		return
	}

	sql, rows := fc()
	table := tableFromSQL(sql)
	if threshold := l.thresholdFor(table); threshold > 0 && elapsed > threshold {
		msg := "gorm.slow_query"
		if _, ok := l.contended[table]; ok {
			msg = "gorm.lock_wait"
		}
		emit(FromContext(ctx), zap.WarnLevel, msg, l.queryFields(sql, rows, elapsed, nil))
		return
	}
	if l.cfg.Level >= gormlogger.Info {
		emit(FromContext(ctx), zap.DebugLevel, "gorm.query", l.queryFields(sql, rows, elapsed, nil))
	}
}

// ParamsFilter strips bound values; amounts and counterparty data stay out of logs.
func (l *GormLogger) ParamsFilter(_ context.Context, sql string, _ ...interface{}) (string, []interface{}) {
	return sql, nil
}

func (l *GormLogger) thresholdFor(table string) time.Duration {
	if _, ok := l.contended[table]; ok && l.cfg.ContentionThreshold > 0 {
		return l.cfg.ContentionThreshold
	}
	return l.cfg.SlowThreshold
}

func (l *GormLogger) queryFields(sql string, rows int64, elapsed time.Duration, err error) []zap.Field {
	fields := []zap.Field{
		zap.String("component", "gorm"),
		zap.String("sql", strings.TrimSpace(sql)),
		zap.String("table", tableFromSQL(sql)),
		zap.String("operation", operationFromSQL(sql)),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
	}
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows_affected", rows))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	return fields
}

func emit(log *zap.Logger, level zapcore.Level, msg string, fields []zap.Field) {
	if ce := log.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

// operationFromSQL returns the statement verb. Verbs inside a leading WITH
// clause belong to the CTE bodies and are skipped.
func operationFromSQL(sql string) string {
	tokens := strings.Fields(strings.ToUpper(sql))
	if len(tokens) == 0 {
		return "UNKNOWN"
	}
	cte := tokens[0] == "WITH"
	depth := 0
	for _, token := range tokens {
		rest := strings.TrimLeft(token, "(")
		depth += len(token) - len(rest)
		if !cte || depth == 0 {
			switch verb := strings.Trim(rest, "();,"); verb {
			case "SELECT", "INSERT", "UPDATE", "DELETE", "MERGE":
				return verb
			}
		}
		depth += strings.Count(rest, "(") - strings.Count(rest, ")")
		if depth < 0 {
			depth = 0
		}
	}
	return "UNKNOWN"
}

func tableFromSQL(sql string) string {
	tokens := strings.Fields(strings.ToUpper(strings.TrimSpace(sql)))
	for i := 0; i < len(tokens)-1; i++ {
		switch tokens[i] {
		case "FROM", "INTO", "UPDATE":
			return strings.ToLower(strings.Trim(tokens[i+1], "\"`();"))
		}
	}
	return ""
}

var _ gormlogger.Interface = (*GormLogger)(nil)
