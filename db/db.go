package db

import (
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func NewDB(uri string, logDBQueries bool) (*gorm.DB, error) {
	// WAL keeps readers from blocking the writer; busy_timeout covers the
	// short write lock contention that remains.
	if !strings.Contains(uri, "?") {
		uri = uri + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	logLevel := gormlogger.Silent
	if logDBQueries {
		logLevel = gormlogger.Info
	}

	gormDB, err := gorm.Open(sqlite.Open(uri), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	return gormDB, nil
}
