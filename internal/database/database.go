package database

import (
	"log"
	"time"

	"github.com/Conceptual-Machines/battito/internal/models"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	maxOpenConns    = 10
	maxIdleConns    = 2
	connMaxLifetime = 30 * time.Minute
)

// Connect opens the Postgres database holding target routes
func Connect(databaseURL string) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql handle")
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	log.Println("✅ Database connected")
	return db, nil
}

// Migrate creates or updates the schema
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Target{}); err != nil {
		return errors.Wrap(err, "migrate targets")
	}
	log.Println("✅ Database migrations complete")
	return nil
}

// Ping reports whether the database answers
func Ping(db *gorm.DB) error {
	if db == nil {
		return errors.New("database disabled")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
