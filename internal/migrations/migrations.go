package migrations

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"clinicAgent/internal/config"
	"clinicAgent/internal/logger"
)

// DatabaseURL собирает URL подключения в формате golang-migrate.
func DatabaseURL(c config.Database) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Run применяет все новые миграции. Отсутствие изменений - не ошибка.
func Run(cfg *config.Cfg, log *logger.Zap) error {
	m, err := migrate.New(cfg.Migrations.Path, DatabaseURL(cfg.Database))
	if err != nil {
		return fmt.Errorf("инициализация миграций: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("Новых миграций нет", zap.String("path", cfg.Migrations.Path))
			return nil
		}
		return fmt.Errorf("применение миграций: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("версия схемы: %w", err)
	}
	log.Info("Миграции применены",
		zap.String("path", cfg.Migrations.Path),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}
