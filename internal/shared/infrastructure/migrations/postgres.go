// Package migrations embeds and applies the engine's PostgreSQL schema.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/careflowhq/careflow/internal/shared/infrastructure/database"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

// RunPostgresMigrations executes all migrations in order. Migrations use
// IF NOT EXISTS throughout, so reruns are harmless.
func RunPostgresMigrations(ctx context.Context, conn database.Connection) error {
	entries, err := postgresFS.ReadDir("postgres")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, file := range upFiles {
		migration, err := postgresFS.ReadFile("postgres/" + file)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", file, err)
		}
		if _, err := conn.Exec(ctx, string(migration)); err != nil {
			return fmt.Errorf("executing migration %s: %w", file, err)
		}
	}
	return nil
}
