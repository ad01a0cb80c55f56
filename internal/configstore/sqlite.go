package configstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oakrise/docstamp/internal/mapping"
	"github.com/oakrise/docstamp/pkg/database"
)

// SQLiteStore implements Store over the mapping_sets table. Each
// configuration is one row holding the serialized set, so concurrent saves
// under the same name interleave at whole-row granularity only.
type SQLiteStore struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a SQLite-backed configuration store.
func NewSQLiteStore(db *database.DB, logger *zap.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:     db,
		logger: logger,
	}
}

// Save upserts the configuration under its name, stamping LastModified and
// the fixed schema version tag on the stored copy.
func (s *SQLiteStore) Save(ctx context.Context, set *mapping.MappingSet) error {
	if err := set.Validate(); err != nil {
		return err
	}

	stored := *set
	stored.Version = mapping.SchemaVersion
	stored.LastModified = time.Now().UTC()

	payload, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("failed to serialize mapping set: %w", err)
	}

	query := `
		INSERT INTO mapping_sets (name, payload, field_count, version, last_modified)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			field_count = excluded.field_count,
			version = excluded.version,
			last_modified = excluded.last_modified
	`
	err = s.db.WithTransaction(func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			stored.Name,
			string(payload),
			len(stored.Mappings),
			stored.Version,
			stored.LastModified,
		)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to save mapping set",
			zap.String("name", stored.Name),
			zap.Error(err))
		return fmt.Errorf("failed to save mapping set: %w", err)
	}

	s.logger.Info("Mapping set saved",
		zap.String("name", stored.Name),
		zap.Int("fields", len(stored.Mappings)))
	return nil
}

// Load retrieves a configuration by name.
func (s *SQLiteStore) Load(ctx context.Context, name string) (*mapping.MappingSet, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM mapping_sets WHERE name = ?", name,
	).Scan(&payload)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		s.logger.Error("Failed to load mapping set",
			zap.String("name", name),
			zap.Error(err))
		return nil, fmt.Errorf("failed to load mapping set: %w", err)
	}

	var set mapping.MappingSet
	if err := json.Unmarshal([]byte(payload), &set); err != nil {
		return nil, fmt.Errorf("failed to parse mapping set %q: %w", name, err)
	}
	return &set, nil
}

// List enumerates stored configurations, most recently modified first.
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, last_modified, field_count
		FROM mapping_sets
		ORDER BY last_modified DESC
	`)
	if err != nil {
		s.logger.Error("Failed to list mapping sets", zap.Error(err))
		return nil, fmt.Errorf("failed to list mapping sets: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.Name, &sum.LastModified, &sum.FieldCount); err != nil {
			return nil, fmt.Errorf("failed to scan mapping set row: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Delete removes a configuration. Deleting an absent name is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM mapping_sets WHERE name = ?", name)
	if err != nil {
		s.logger.Error("Failed to delete mapping set",
			zap.String("name", name),
			zap.Error(err))
		return fmt.Errorf("failed to delete mapping set: %w", err)
	}
	return nil
}
