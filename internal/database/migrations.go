package database

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"sellerdesk-automation-api/db/migrations"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// RunMigrations applies the embedded SQL migrations when RUN_MIGRATIONS=true.
func RunMigrations(dbURL string, log *zap.Logger) error {
	if !strings.EqualFold(os.Getenv("RUN_MIGRATIONS"), "true") {
		log.Info("skipping migrations (RUN_MIGRATIONS is not 'true')", zap.String("component", "migrations"))
		return nil
	}

	src, err := iofs.New(migrations.SQLFiles, ".")
	if err != nil {
		return fmt.Errorf("could not load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(dbURL))
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("database schema already up to date", zap.String("component", "migrations"))
			return nil
		}
		return fmt.Errorf("migrations failed: %w", err)
	}

	log.Info("all database migrations applied", zap.String("component", "migrations"))
	return nil
}

// migrateURL rewrites the connection URL scheme for the pgx/v5 migrate driver.
func migrateURL(dbURL string) string {
	if rest, ok := strings.CutPrefix(dbURL, "postgresql://"); ok {
		return "pgx5://" + rest
	}
	if rest, ok := strings.CutPrefix(dbURL, "postgres://"); ok {
		return "pgx5://" + rest
	}
	return dbURL
}
