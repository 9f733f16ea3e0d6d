package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"time"

	"rabbit-moon/internal/config"
	"rabbit-moon/internal/logger"
	"rabbit-moon/internal/models"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

const maxRetries = 5

// DSN builds the driver specific connection string. DB_DSN wins when set.
func DSN(cfg config.DatabaseConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	switch cfg.Driver {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = cfg.Username
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
		mc.DBName = cfg.Database
		mc.ParseTime = true
		mc.MultiStatements = true
		return mc.FormatDSN()
	case "postgres":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.Username, cfg.Password),
			Host:     net.JoinHostPort(cfg.Host, cfg.Port),
			Path:     "/" + cfg.Database,
			RawQuery: "sslmode=disable",
		}
		return u.String()
	default:
		return ""
	}
}

func driverName(driver string) (string, schema.Dialect, error) {
	switch driver {
	case "mysql":
		return "mysql", mysqldialect.New(), nil
	case "postgres":
		return "postgres", pgdialect.New(), nil
	case "sqlite":
		return sqliteshim.ShimName, sqlitedialect.New(), nil
	default:
		return "", nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Connect opens the pool and pings it, retrying a few times while the
// database comes up.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	name, dialect, err := driverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	sqldb, err := sql.Open(name, DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.MaxLifetime)
	}

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to %s (attempt %d/%d)", cfg.Driver, i+1, maxRetries))
		err = sqldb.PingContext(ctx)
		if err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to %s: %v", cfg.Driver, err))
		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				sqldb.Close()
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
	if err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("connect to %s after %d attempts: %w", cfg.Driver, maxRetries, err)
	}

	log.LogDatabase("CONNECT", cfg.Driver, fmt.Sprintf("connection successful (max open %d, max idle %d)", cfg.MaxOpenConns, cfg.MaxIdleConns))
	return bun.NewDB(sqldb, dialect), nil
}

// CreateSchema creates the tables straight from the models. Used for SQLite
// and tests; MySQL and Postgres go through the migrations.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range []interface{}{
		(*models.Template)(nil),
		(*models.Transaction)(nil),
		(*models.Invitation)(nil),
	} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}
