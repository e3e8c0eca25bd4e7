package application

import (
	"context"
	"database/sql"
	"embed"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// MigrationManager collects embedded goose migrations from modules and
// applies them at boot through database/sql with the pgx driver.
type MigrationManager interface {
	RegisterSchema(fs *embed.FS, dir string)
	Run(ctx context.Context, dsn string) error
}

type schemaSource struct {
	fs  *embed.FS
	dir string
}

func NewMigrationManager() MigrationManager {
	return &migrationManager{}
}

type migrationManager struct {
	sources []schemaSource
}

func (m *migrationManager) RegisterSchema(fs *embed.FS, dir string) {
	m.sources = append(m.sources, schemaSource{fs: fs, dir: dir})
}

func (m *migrationManager) Run(ctx context.Context, dsn string) error {
	if len(m.sources) == 0 {
		return nil
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	for _, src := range m.sources {
		goose.SetBaseFS(src.fs)
		if err := goose.UpContext(ctx, db, src.dir); err != nil {
			goose.SetBaseFS(nil)
			return err
		}
	}
	goose.SetBaseFS(nil)
	return nil
}
