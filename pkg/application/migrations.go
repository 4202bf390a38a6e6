package application

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationManager collects embedded schema files from modules and applies
// them in lexical order. Schema files are written to be idempotent
// (CREATE TABLE IF NOT EXISTS), so Apply can run on every boot.
type MigrationManager interface {
	RegisterSchema(fs ...*embed.FS)
	Apply(ctx context.Context) error
}

func NewMigrationManager(pool *pgxpool.Pool) MigrationManager {
	return &migrationManager{pool: pool}
}

type migrationManager struct {
	pool    *pgxpool.Pool
	schemas []*embed.FS
}

func (m *migrationManager) RegisterSchema(fsys ...*embed.FS) {
	m.schemas = append(m.schemas, fsys...)
}

func (m *migrationManager) Apply(ctx context.Context) error {
	for _, fsys := range m.schemas {
		var files []string
		err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".sql") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("walk schema fs: %w", err)
		}
		sort.Strings(files)

		for _, file := range files {
			sql, err := fsys.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read schema %s: %w", file, err)
			}
			if _, err := m.pool.Exec(ctx, string(sql)); err != nil {
				return fmt.Errorf("apply schema %s: %w", file, err)
			}
		}
	}
	return nil
}
