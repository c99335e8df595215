package postgres

import (
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	pkgerrors "github.com/pkg/errors"

	"fulfillment-engine/internal/models"
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	DbName   string
	SslMode  string
}

func ConnectDB(cfg Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.DbName, cfg.SslMode)

	db, err := gorm.Open("postgres", dsn)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "postgres open")
	}
	if err := db.DB().Ping(); err != nil {
		_ = db.Close()
		return nil, pkgerrors.Wrap(err, "postgres ping")
	}
	return db, nil
}

// Migrate creates the engine's tables. Used by main and the integration suite.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Order{},
		&models.Address{},
		&models.LineItem{},
		&models.Hold{},
		&models.DistributorSubmission{},
	).Error
}
