package database

import (
	"context"
	"fmt"
	"sort"

	dbsql "bursar/pkg/database/sql"
	"bursar/pkg/logging"
)

// Migrate applies the embedded schema files in lexical order. The schema is
// written to be idempotent, so running this on every startup is safe.
func Migrate(ctx context.Context, db PostgresConn, logger logging.Logger) error {
	entries, err := dbsql.Content.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("failed to read embedded schema dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := dbsql.Content.ReadFile("schema/" + name)
		if err != nil {
			return fmt.Errorf("failed to read embedded schema %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to apply schema %s: %w", name, err)
		}
		logger.WithField("schema", name).Info("Applied schema file")
	}

	return nil
}
