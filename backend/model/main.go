package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"filebox/backend/common"
)

// InitDB opens the database selected by cfg.SQLDSN and migrates the schema.
// An empty DSN means SQLite at cfg.SQLitePath.
func InitDB(cfg common.Config) (*gorm.DB, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	common.SysLog("Database initialized successfully.")
	return db, nil
}

func openDialector(cfg common.Config) (gorm.Dialector, error) {
	dsn := cfg.SQLDSN
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		common.SysLog("Using PostgreSQL database")
		return postgres.Open(dsn), nil
	case dsn != "":
		common.SysLog("Using MySQL database")
		return mysql.Open(dsn), nil
	}

	path := cfg.SQLitePath
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}
	common.SysLog("SQL_DSN not set, using SQLite as database", "path", path)
	if !strings.Contains(path, "?") {
		path += "?_busy_timeout=5000"
	}
	return sqlite.Open(path), nil
}

// Migrate creates or updates the tables and their unique indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &File{}); err != nil {
		return fmt.Errorf("failed to auto migrate database schema: %w", err)
	}
	return nil
}

func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	common.SysLog("Closing database connection.")
	return sqlDB.Close()
}
