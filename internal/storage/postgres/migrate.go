package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"rentcard_service/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var ErrNoMigrations = errors.New("no applied migrations")

type Migration struct {
	Version  int64
	Name     string
	Duration time.Duration
}

type MigrationStatus struct {
	Version   int64
	Name      string
	AppliedAt *time.Time
}

func (s MigrationStatus) Applied() bool {
	return s.AppliedAt != nil
}

// Migrator runs the embedded goose migrations.
type Migrator struct {
	provider *goose.Provider
}

// OpenDB opens a database/sql handle over pgx for the migrator.
func OpenDB(cfg *config.Config) (*sql.DB, error) {
	const op = "storage.postgres.OpenDB"

	connConfig, err := pgx.ParseConfig(dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	return stdlib.OpenDB(*connConfig), nil
}

func NewMigrator(db *sql.DB) (*Migrator, error) {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}

	return newMigrator(db, fsys)
}

func newMigrator(db *sql.DB, fsys fs.FS) (*Migrator, error) {
	const op = "storage.postgres.NewMigrator"

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Migrator{provider: provider}, nil
}

// Sources lists the known migrations in version order.
func (m *Migrator) Sources() []Migration {
	sources := m.provider.ListSources()

	migrations := make([]Migration, 0, len(sources))
	for _, src := range sources {
		migrations = append(migrations, Migration{Version: src.Version, Name: migrationName(src.Path)})
	}

	return migrations
}

// Up applies every pending migration in version order.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	const op = "storage.postgres.Migrator.Up"

	results, err := m.provider.Up(ctx)

	done := make([]Migration, 0, len(results))
	for _, res := range results {
		if res.Error != nil {
			continue
		}
		done = append(done, fromResult(res))
	}

	if err != nil {
		return done, fmt.Errorf("%s: %w", op, err)
	}

	return done, nil
}

// Down reverts the most recently applied migration.
func (m *Migrator) Down(ctx context.Context) (Migration, error) {
	const op = "storage.postgres.Migrator.Down"

	res, err := m.provider.Down(ctx)
	if err != nil {
		if errors.Is(err, goose.ErrNoNextVersion) {
			return Migration{}, ErrNoMigrations
		}

		return Migration{}, fmt.Errorf("%s: %w", op, err)
	}

	return fromResult(res), nil
}

func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	const op = "storage.postgres.Migrator.Status"

	list, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	statuses := make([]MigrationStatus, 0, len(list))
	for _, st := range list {
		status := MigrationStatus{
			Version: st.Source.Version,
			Name:    migrationName(st.Source.Path),
		}
		if st.State == goose.StateApplied {
			at := st.AppliedAt
			status.AppliedAt = &at
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

func fromResult(res *goose.MigrationResult) Migration {
	return Migration{
		Version:  res.Source.Version,
		Name:     migrationName(res.Source.Path),
		Duration: res.Duration,
	}
}

// migrationName turns "003_create_tokens.sql" into "create_tokens".
func migrationName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if _, name, ok := strings.Cut(base, "_"); ok {
		return name
	}

	return base
}
