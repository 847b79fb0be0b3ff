// Package migrations embeds the SQL that creates the posts and examples tables.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/uptrace/bun"
)

//go:embed sql
var files embed.FS

// Supported dialect directories.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// FS returns the embedded migration tree, one directory per dialect.
func FS() fs.FS {
	return files
}

// Files lists the up migrations for dialect in apply order.
func Files(dialect string) ([]string, error) {
	dir := path.Join("sql", strings.ToLower(strings.TrimSpace(dialect)))
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations: unsupported dialect %q: %w", dialect, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		names = append(names, path.Join(dir, entry.Name()))
	}
	sort.Strings(names)
	return names, nil
}

// Apply runs every up migration for dialect against db. Statements are
// idempotent so Apply may run on every start.
func Apply(ctx context.Context, db bun.IDB, dialect string) error {
	names, err := Files(dialect)
	if err != nil {
		return err
	}
	for _, name := range names {
		content, err := fs.ReadFile(files, name)
		if err != nil {
			return fmt.Errorf("migrations: read %s: %w", name, err)
		}
		for _, stmt := range statements(string(content)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrations: apply %s: %w", path.Base(name), err)
			}
		}
	}
	return nil
}

func statements(script string) []string {
	parts := strings.Split(script, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
