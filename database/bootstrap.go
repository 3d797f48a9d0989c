package database

import (
	"github.com/glebarez/sqlite"
	"github.com/rotisserie/eris"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"agriadvisor/pkg/journal"
)

// OpenSQLite opens the journal database and migrates its tables.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, eris.Wrapf(err, "open sqlite %s", path)
	}
	if err := db.AutoMigrate(journal.Models()...); err != nil {
		return nil, eris.Wrap(err, "automigrate journal")
	}
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return eris.Wrap(err, "db.DB()")
	}
	return sqlDB.Close()
}
