package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bankroll/internal/logger"
	"bankroll/internal/store"
	"bankroll/internal/store/gormstore"
	"bankroll/internal/store/mongostore"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// MigrationsSource is where the SQL migrations are read from.
const MigrationsSource = "file://migrations"

// Manager handles database operations
type Manager struct {
	config *Config
	store  store.Store
}

// NewManager opens the backend selected by config.Driver.
func NewManager(ctx context.Context, config *Config) (*Manager, error) {
	var (
		s   store.Store
		err error
	)
	switch config.Driver {
	case DriverPostgres, "":
		s, err = openPostgres(config)
	case DriverSQLite:
		s, err = openSQLite(config)
	case DriverMongo:
		s, err = openMongo(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.Driver)
	}
	if err != nil {
		return nil, err
	}
	return &Manager{config: config, store: s}, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{TranslateError: true}
}

func openPostgres(config *Config) (store.Store, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  config.DSN(),
		PreferSimpleProtocol: true,
	}), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return gormstore.New(db), nil
}

func openSQLite(config *Config) (store.Store, error) {
	if dir := filepath.Dir(config.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(config.SQLitePath), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return gormstore.New(db), nil
}

func openMongo(ctx context.Context, config *Config) (store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return mongostore.Connect(ctx, config.MongoURI)
}

// RunMigrations brings the schema up to date. PostgreSQL applies the SQL
// files under migrations/, SQLite auto-migrates the models and MongoDB
// creates its indexes.
func (m *Manager) RunMigrations(ctx context.Context) error {
	log := logger.Named("database")
	log.Infow("Running database migrations", "driver", m.config.Driver)

	switch s := m.store.(type) {
	case *mongostore.Store:
		if err := s.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	case *gormstore.Store:
		if m.config.Driver == DriverSQLite {
			if err := s.AutoMigrate(); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			break
		}
		if err := Migrate(m.config, func(mig *migrate.Migrate) error { return mig.Up() }); err != nil {
			return err
		}
	}

	log.Info("Database migrations completed successfully")
	return nil
}

// Migrate runs fn against a golang-migrate instance for the PostgreSQL
// database in config. ErrNoChange is not an error.
func Migrate(config *Config, fn func(*migrate.Migrate) error) error {
	mig, err := migrate.New(MigrationsSource, config.MigrateURL())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := mig.Close()
		if srcErr != nil {
			logger.Get().Warnf("migrate source close error: %v", srcErr)
		}
		if dbErr != nil {
			logger.Get().Warnf("migrate database close error: %v", dbErr)
		}
	}()

	if err := fn(mig); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Store returns the opened backend.
func (m *Manager) Store() store.Store {
	return m.store
}

// Close releases the backend connection.
func (m *Manager) Close() error {
	return m.store.Close()
}
