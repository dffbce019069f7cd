package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"starter-server/confs"
	"starter-server/entities"
	"starter-server/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(cfg *confs.Config, log logger.Logger) (Database, error) {
	dialector, err := dialectorFor(cfg, log)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormLogLevel(cfg.Database.LogLevel)),
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Database.Driver == confs.DriverSQLite {
		// sqlite serializes writers; a single connection avoids "database is locked"
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}
	sqlDB.SetConnMaxLifetime(0)

	log.Info("Database connection established (driver=", cfg.Database.Driver, ")")

	log.Info("Running database migrations...")
	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("Database migrations completed successfully")

	return &GormDatabase{DB: db}, nil
}

func dialectorFor(cfg *confs.Config, log logger.Logger) (gorm.Dialector, error) {
	d := cfg.Database
	switch d.Driver {
	case confs.DriverSQLite:
		if d.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(d.SQLitePath), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		log.Info("Using sqlite database at ", d.SQLitePath)
		return sqlite.Open(d.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000"), nil
	case confs.DriverPostgres:
		return postgres.Open(PostgresDSN(d, cfg.IsProduction())), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", d.Driver)
	}
}

// PostgresDSN builds the connection string, preferring DB_URL over the
// individual DB_* parameters.
func PostgresDSN(d confs.DatabaseConfig, production bool) string {
	if d.URL != "" {
		dsn := d.URL
		if production && !strings.Contains(dsn, "sslmode=") {
			if strings.Contains(dsn, "?") {
				dsn += "&sslmode=require"
			} else {
				dsn += "?sslmode=require"
			}
		}
		return dsn
	}

	sslMode := "require"
	if d.Host == "localhost" || d.Host == "127.0.0.1" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, sslMode)
}

func gormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// Migrate creates or updates the schema for every entity.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entities.User{},
		&entities.Session{},
		&entities.Customer{},
		&entities.Settings{},
		&entities.Notification{},
		&entities.Invoice{},
		&entities.UsageRecord{},
		&entities.Upload{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SeedAdmin creates the bootstrap admin account unless a user with that
// email already exists. It reports whether a user was created.
func SeedAdmin(ctx context.Context, db *gorm.DB, email, password string) (bool, error) {
	email = entities.NormalizeEmail(email)
	if email == "" {
		return false, nil
	}

	var existing entities.User
	err := db.WithContext(ctx).Unscoped().Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil && !existing.DeletedAt.Valid:
		return false, nil
	case err == nil:
		// A deleted account still holds the address.
		if err := db.WithContext(ctx).Unscoped().Model(&existing).
			Update("email", entities.TombstoneEmail(existing.ID, existing.Email)).Error; err != nil {
			return false, fmt.Errorf("failed to release admin email: %w", err)
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &entities.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: string(hash),
		Role:         entities.RoleAdmin,
		Status:       entities.UserStatusActive,
	}
	if err := db.WithContext(ctx).Create(admin).Error; err != nil {
		return false, fmt.Errorf("failed to create admin: %w", err)
	}
	if err := db.WithContext(ctx).Create(entities.DefaultSettings(admin.ID)).Error; err != nil {
		return false, fmt.Errorf("failed to create admin settings: %w", err)
	}
	return true, nil
}
