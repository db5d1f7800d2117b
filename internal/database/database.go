package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"clinicAgent/internal/config"
	"clinicAgent/internal/logger"
)

type Database struct {
	DB *gorm.DB
}

// DSN собирает строку подключения к PostgreSQL.
func DSN(c config.Database) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

func New(cfg *config.Cfg, log *logger.Zap) (*Database, error) {
	db, err := gorm.Open(postgres.Open(DSN(cfg.Database)), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("подключение к postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	log.Info("Подключение к БД установлено",
		zap.String("host", cfg.Database.Host),
		zap.String("db", cfg.Database.Name),
	)
	return &Database{DB: db}, nil
}

func (d *Database) Close(log *logger.Zap) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("Ошибка закрытия БД", zap.Error(err))
	}
}
