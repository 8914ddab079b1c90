package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"yamdb/internal/config"
	"yamdb/internal/microservices/http-api/models"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ConnectDB opens the database selected by cfg.DatabaseDriver and verifies the connection.
func ConnectDB(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	logLevel := gormlogger.Warn
	if cfg.IsDevelopment() && cfg.LogLevel == "debug" {
		logLevel = gormlogger.Info
	}

	db, err := Open(dialector, logLevel)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	// Verify the connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	zap.L().Info("Connected to the database", zap.String("driver", cfg.DatabaseDriver))
	return db, nil
}

// Dialector picks the gorm driver for name.
func Dialector(name, dsn string) (gorm.Dialector, error) {
	switch name {
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(sqliteDSN(dsn)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", name)
	}
}

// Open opens a gorm handle with driver errors translated to gorm's
// sentinel errors, so unique violations surface as gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector, level gormlogger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema of every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to automigrate tables: %w", err)
	}
	zap.L().Info("Database migrations applied successfully")
	return nil
}

// sqliteDSN turns on foreign key enforcement, which SQLite leaves off unless
// asked per connection. Without it ON DELETE CASCADE and SET NULL are ignored.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=1"
}

// OpenInMemory opens a private in-memory SQLite database with foreign keys
// enforced and the schema migrated. Used by tests and local tooling.
func OpenInMemory(name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := Open(sqlite.Open(sqliteDSN(dsn)), gormlogger.Silent)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// one connection keeps the in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Health adapts a gorm handle to the health check's Ping.
type Health struct {
	db *gorm.DB
}

func NewHealth(db *gorm.DB) *Health {
	return &Health{db: db}
}

func (h *Health) Ping(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
