package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jdon/coffeechat/internal/app/repositories"
)

// OpenSQLite opens (creating if needed) the SQLite database at path and migrates the schema.
func OpenSQLite(path string, lgr zerolog.Logger) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	dsn := path + "?_foreign_keys=on&_busy_timeout=5000"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite handle: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(repositories.GormModels()...); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}

	lgr.Info().Str("path", path).Msg("SQLite database ready")
	return gdb, nil
}
