package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/oceanml-backend/internal/platform/envutil"
	"github.com/yungbote/oceanml-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver     string
	DSN        string
	SQLitePath string
}

// ConfigFromEnv reads DB_DRIVER plus either DATABASE_URL / POSTGRES_* or
// SQLITE_PATH.
func ConfigFromEnv() Config {
	cfg := Config{
		Driver:     strings.ToLower(envutil.String("DB_DRIVER", DriverPostgres)),
		DSN:        envutil.String("DATABASE_URL", ""),
		SQLitePath: envutil.String("SQLITE_PATH", "oceanml.db"),
	}
	if cfg.Driver == DriverPostgres && cfg.DSN == "" {
		cfg.DSN = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=%s",
			envutil.String("POSTGRES_USER", "postgres"),
			envutil.String("POSTGRES_PASSWORD", ""),
			envutil.String("POSTGRES_HOST", "localhost"),
			envutil.String("POSTGRES_PORT", "5432"),
			envutil.String("POSTGRES_NAME", "oceanml"),
			envutil.String("POSTGRES_SSLMODE", "disable"),
		)
	}
	return cfg
}

type Service struct {
	db     *gorm.DB
	log    *logger.Logger
	driver string
}

func Open(logg *logger.Logger, cfg Config) (*Service, error) {
	serviceLog := logg.With("service", "DatabaseService", "driver", cfg.Driver)

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gormCfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
		Logger:                                   gormLog,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case DriverPostgres:
		db, err = gorm.Open(postgres.Open(cfg.DSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
	case DriverSQLite:
		db, err = gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite %q: %w", cfg.SQLitePath, err)
		}
		// SQLite allows one writer; a single connection keeps the lease
		// updates from tripping SQLITE_BUSY.
		sqlDB, dbErr := db.DB()
		if dbErr != nil {
			return nil, dbErr
		}
		sqlDB.SetMaxOpenConns(1)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (allowed: %q, %q)", cfg.Driver, DriverPostgres, DriverSQLite)
	}

	serviceLog.Info("Database connected")
	return &Service{db: db, log: serviceLog, driver: cfg.Driver}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
