// Package migrate applies versioned SQL schema migrations read from a file
// system, typically an embedded one.
package migrate

import (
	"database/sql"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// DefaultTable is the table recording applied migration versions
const DefaultTable = "schema_migrations"

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// Migrator handles the execution of migrations
type Migrator struct {
	db         *sql.DB
	migrations []Migration
	table      string
	logger     *zap.SugaredLogger
}

// NewMigrator creates a migrator for the given migrations
func NewMigrator(db *sql.DB, migrations []Migration, logger *zap.SugaredLogger) *Migrator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	return &Migrator{
		db:         db,
		migrations: sorted,
		table:      DefaultTable,
		logger:     logger,
	}
}

func (m *Migrator) ensureTable() error {
	_, err := m.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`, m.table))
	if err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}
	return nil
}

// CurrentVersion returns the highest applied migration version, 0 if none
func (m *Migrator) CurrentVersion() (int, error) {
	if err := m.ensureTable(); err != nil {
		return 0, err
	}
	var version int
	err := m.db.QueryRow(fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", m.table)).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

// Pending returns migrations that haven't been applied yet, in order
func (m *Migrator) Pending() ([]Migration, error) {
	current, err := m.CurrentVersion()
	if err != nil {
		return nil, err
	}
	var pending []Migration
	for _, mig := range m.migrations {
		if mig.Version > current {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// MigrateUp runs all pending migrations up to the latest version
func (m *Migrator) MigrateUp() error {
	pending, err := m.Pending()
	if err != nil {
		return err
	}
	for _, mig := range pending {
		if err := m.apply(mig, true); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", mig.Version, err)
		}
	}
	return nil
}

// MigrateDown reverts migrations until target is the current version
func (m *Migrator) MigrateDown(target int) error {
	current, err := m.CurrentVersion()
	if err != nil {
		return err
	}
	if target >= current {
		return fmt.Errorf("target version %d must be less than current version %d", target, current)
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		mig := m.migrations[i]
		if mig.Version > target && mig.Version <= current {
			if err := m.apply(mig, false); err != nil {
				return fmt.Errorf("failed to rollback migration %d: %w", mig.Version, err)
			}
		}
	}
	return nil
}

// apply runs a single migration up or down inside a transaction
func (m *Migrator) apply(mig Migration, up bool) error {
	stmt, direction := mig.Up, "up"
	if !up {
		stmt, direction = mig.Down, "down"
	}
	if stmt == "" {
		return fmt.Errorf("migration %d has no %s SQL", mig.Version, direction)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(stmt); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	if up {
		_, err = tx.Exec(fmt.Sprintf("INSERT OR REPLACE INTO %s (version) VALUES (?)", m.table), mig.Version)
	} else {
		_, err = tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE version >= ?", m.table), mig.Version)
	}
	if err != nil {
		return fmt.Errorf("failed to update migration version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration transaction: %w", err)
	}

	m.logger.Infof("applied migration %d (%s) %s", mig.Version, mig.Name, direction)
	return nil
}
