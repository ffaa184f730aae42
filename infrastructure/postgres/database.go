package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"facefolio/domain/models"
	"facefolio/infrastructure/vectorindex"
)

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func NewDatabase(config DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		config.Host, config.User, config.Password, config.DBName, config.Port, config.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	// Enable pgvector extension for the embedding index
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("failed to enable pgvector extension: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Photo{},
		&models.Face{},
		&models.PhotoFace{},
	); err != nil {
		return fmt.Errorf("failed to run auto migrations: %v", err)
	}

	// The vector gateway owns its own table
	if err := vectorindex.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate vector index: %v", err)
	}

	return nil
}
