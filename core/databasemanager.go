package core

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type LogLevel int

const (
	LogLevelSilent LogLevel = iota + 1
	LogLevelError
	LogLevelWarn
	LogLevelInfo
)

// ParseLogLevel maps silent/error/warn/info to a LogLevel. Anything else is
// silent.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "error":
		return LogLevelError
	case "warn", "warning":
		return LogLevelWarn
	case "info":
		return LogLevelInfo
	default:
		return LogLevelSilent
	}
}

type DatabaseManager struct {
	SqlDB    *sql.DB
	LogLevel LogLevel
	db       *gorm.DB
}

// New opens the pool and wraps it in gorm. The dsn must name the schema and
// use parseTime=true.
func New(dsn string, maxConnection int, level LogLevel) (*DatabaseManager, error) {
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxConnection)
	sqlDB.SetMaxIdleConns(maxConnection)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping pool: %w", err)
	}

	dm := &DatabaseManager{SqlDB: sqlDB, LogLevel: level}
	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB}), &gorm.Config{
		Logger:         logger.Default.LogMode(dm.gormLogLevel()),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	dm.db = db
	return dm, nil
}

func (dm *DatabaseManager) gormLogLevel() logger.LogLevel {
	switch dm.LogLevel {
	case LogLevelError:
		return logger.Error
	case LogLevelWarn:
		return logger.Warn
	case LogLevelInfo:
		return logger.Info
	default:
		return logger.Silent
	}
}

// Exec runs fn with a session bound to ctx.
func (dm *DatabaseManager) Exec(ctx context.Context, fn func(db *gorm.DB) error) error {
	return fn(dm.db.WithContext(ctx))
}

// Transaction runs fn inside a transaction bound to ctx.
func (dm *DatabaseManager) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return dm.db.WithContext(ctx).Transaction(fn)
}

// Migrate creates or updates the tables of models.
func (dm *DatabaseManager) Migrate(ctx context.Context, models ...interface{}) error {
	if err := dm.db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Close closes the pool
func (dm *DatabaseManager) Close() error {
	return dm.SqlDB.Close()
}
