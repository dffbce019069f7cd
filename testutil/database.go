package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"starter-server/confs"
	"starter-server/db"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SetupTestDatabase opens a migrated sqlite database that lives for the test.
func SetupTestDatabase(t *testing.T) db.Database {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on&_busy_timeout=5000"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(gdb))

	database := &db.GormDatabase{DB: gdb}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// GetTestConfig returns a valid configuration for tests.
func GetTestConfig(t *testing.T) *confs.Config {
	t.Helper()
	return &confs.Config{
		AppEnv: confs.EnvTest,
		Port:   "3536",
		Database: confs.DatabaseConfig{
			Driver:   confs.DriverSQLite,
			LogLevel: "silent",
		},
		Auth: confs.AuthConfig{
			JWTSecret:  "test_jwt_secret_key_for_testing_only",
			SessionTTL: time.Hour,
		},
		Upload: confs.UploadConfig{
			Dir:          t.TempDir(),
			MaxBytes:     1 << 20,
			AllowedTypes: []string{"image/png", "text/plain", "application/pdf"},
		},
		Logger:             confs.LoggerSettings{LogLevel: confs.LogLevelError, LogType: confs.LogTypeConsole},
		CORSOrigins:        []string{"*"},
		RateLimitRPS:       100,
		RateLimitBurst:     100,
		UsageFlushInterval: time.Minute,
	}
}
