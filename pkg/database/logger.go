package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/weiawesome/jobboard-chat/pkg/log"
)

// Logger adapts gorm's logger interface to the context logger in pkg/log,
// so SQL traces carry the same request and connection fields.
type Logger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewLogger creates a gorm logger. A zero slowThreshold disables slow query warnings.
func NewLogger(level gormlogger.LogLevel, slowThreshold time.Duration) *Logger {
	return &Logger{level: level, slowThreshold: slowThreshold}
}

func (l *Logger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *Logger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		lg := log.Ctx(ctx)
		lg.Info().Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		lg := log.Ctx(ctx)
		lg.Warn().Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *Logger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		lg := log.Ctx(ctx)
		lg.Error().Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *Logger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	lg := log.Ctx(ctx)

	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		lg.Error().Err(err).Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("query failed")
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		lg.Warn().Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("slow query")
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		lg.Debug().Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("query")
	}
}
