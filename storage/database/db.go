package database

import (
	"context"
	"database/sql"
	"embed"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/tutoria/core"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrations embed.FS

func open(dbName string, conf *core.Config) (*sqlx.DB, error) {
	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     url.UserPassword(conf.Database.User, conf.Database.Password),
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return sqlx.Open(conf.Database.Engine, u.String())
}

// Open opens the application database and waits for it to be ready.
func Open(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	db, err := open(conf.Database.Name, conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping cancelled")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

func createDB(ctx context.Context, db *sqlx.DB, name string) error {
	// check if DB exists
	var exists bool
	if err := db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", name); err != nil {
		return errors.Wrap(err, "checking DB")
	}

	// create DB if not exist
	if !exists {
		if _, err := db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist creates the application database through the maintenance database.
func CreateIfNotExist(ctx context.Context, conf *core.Config) error {
	db, err := open("postgres", conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err = ping(ctx, db); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	return createDB(ctx, db, conf.Database.Name)
}

func initGoose() error {
	goose.SetBaseFS(migrations)
	return goose.SetDialect("postgres")
}

// Migrate applies all pending migrations.
func Migrate(db *sql.DB) error {
	if err := initGoose(); err != nil {
		return errors.Wrap(err, "setting up migrations")
	}
	if err := goose.Up(db, migrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// RunMigrationCommand runs a goose command (up, down, status, ...) against the embedded migrations.
func RunMigrationCommand(db *sql.DB, command string, args ...string) error {
	if err := initGoose(); err != nil {
		return errors.Wrap(err, "setting up migrations")
	}
	return goose.Run(command, db, migrationsDir, args...)
}
