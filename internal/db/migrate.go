package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrator — обёртка над goose.Provider. Миграции лежат в бинаре,
// отдельный набор на каждый диалект.
type Migrator struct {
	provider *goose.Provider
}

// NewMigrator создаёт мигратор для диалекта, которым открыт gormDB.
func NewMigrator(gormDB *gorm.DB) (*Migrator, error) {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch name := gormDB.Dialector.Name(); name {
	case "postgres":
		dialect, dir = goose.DialectPostgres, "migrations/postgres"
	case "sqlite":
		dialect, dir = goose.DialectSQLite3, "migrations/sqlite"
	default:
		return nil, fmt.Errorf("migrations are not available for dialect %q", name)
	}

	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations fs: %w", err)
	}

	// goose работает с *sql.DB, берём его из GORM. Provider.Close не вызываем:
	// соединением владеет тот, кто открыл gormDB.
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("sql DB: %w", err)
	}

	provider, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Migrator{provider: provider}, nil
}

// Up применяет все pending миграции и возвращает версии применённых.
func (m *Migrator) Up(ctx context.Context) ([]int64, error) {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	applied := make([]int64, 0, len(results))
	for _, r := range results {
		applied = append(applied, r.Source.Version)
	}
	return applied, nil
}

// Version показывает текущую версию схемы.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// MigrationState — строка для команды `migrate status`.
type MigrationState struct {
	Version int64
	Path    string
	Applied bool
}

func (m *Migrator) Status(ctx context.Context) ([]MigrationState, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}

	out := make([]MigrationState, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationState{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}

// Migrate — сокращение для старта сервиса: применить всё и выйти.
func Migrate(ctx context.Context, gormDB *gorm.DB) error {
	m, err := NewMigrator(gormDB)
	if err != nil {
		return err
	}
	_, err = m.Up(ctx)
	return err
}
