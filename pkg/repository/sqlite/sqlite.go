// Package sqlite implements the repository on an embedded SQLite database.
package sqlite

import (
	"context"
	"embed"
	"errors"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/m-mizutani/goerr/v2"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const dsnPragmas = "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

type SQLite struct {
	db           *sqlx.DB
	memory       *memoryRepository
	injection    *injectionRepository
	conversation *conversationRepository
	activity     *activityRepository
}

var _ interfaces.Repository = &SQLite{}

type Option func(*options)

type options struct {
	skipMigration bool
}

// WithoutMigration opens the database without applying schema migrations
func WithoutMigration() Option {
	return func(o *options) {
		o.skipMigration = true
	}
}

// New opens (or creates) the database file at path and applies pending
// schema migrations.
func New(ctx context.Context, path string, opts ...Option) (*SQLite, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sqlx.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}
	// A single connection serializes writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to connect sqlite database", goerr.V("path", path))
	}

	if !o.skipMigration {
		if err := migrateUp(db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &SQLite{
		db:           db,
		memory:       &memoryRepository{db: db},
		injection:    &injectionRepository{db: db},
		conversation: &conversationRepository{db: db},
		activity:     &activityRepository{db: db},
	}, nil
}

func newMigrator(db *sqlx.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load embedded migrations")
	}
	drv, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create migrator")
	}
	return m, nil
}

func migrateUp(db *sqlx.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	// m.Close would close the shared *sql.DB, so the migrator is left to the GC.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return goerr.Wrap(err, "failed to apply migrations")
	}
	return nil
}

// SchemaVersion returns the applied migration version and whether the
// schema was left dirty by a failed migration.
func (s *SQLite) SchemaVersion() (uint, bool, error) {
	m, err := newMigrator(s.db)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, goerr.Wrap(err, "failed to read schema version")
	}
	return version, dirty, nil
}

func (s *SQLite) Memory() interfaces.MemoryRepository {
	return s.memory
}

func (s *SQLite) Injection() interfaces.InjectionRepository {
	return s.injection
}

func (s *SQLite) Conversation() interfaces.ConversationRepository {
	return s.conversation
}

func (s *SQLite) Activity() interfaces.ActivityRepository {
	return s.activity
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
