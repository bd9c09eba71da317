package config

import (
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chrissnell/pm10dash/pkg/migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteProvider implements ConfigProvider for a SQLite database holding one
// row per setting in a key/value table.
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	migrations, err := migrate.Load(migrationsFS, "migrations")
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate.NewMigrator(db, migrations, nil).MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate settings database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// settingFields maps setting keys to the field they populate
func settingFields(c *ConfigData) map[string]interface{} {
	return map[string]interface{}{
		"server.listen_addr":       &c.Server.ListenAddr,
		"server.cert":              &c.Server.Cert,
		"server.key":               &c.Server.Key,
		"server.read_timeout":      &c.Server.ReadTimeout,
		"server.write_timeout":     &c.Server.WriteTimeout,
		"server.shutdown_timeout":  &c.Server.ShutdownTimeout,
		"server.assets_dir":        &c.Server.AssetsDir,
		"dashboard.data_dir":       &c.Dashboard.DataDir,
		"dashboard.data_file":      &c.Dashboard.DataFile,
		"dashboard.station":        &c.Dashboard.Station,
		"dashboard.period":         &c.Dashboard.Period,
		"dashboard.preferred_year": &c.Dashboard.PreferredYear,
		"dashboard.preview_rows":   &c.Dashboard.PreviewRows,
		"session.cookie_name":      &c.Session.CookieName,
		"session.ttl":              &c.Session.TTL,
	}
}

// SettingKeys returns every key the settings table understands
func SettingKeys() []string {
	keys := make([]string, 0)
	for k := range settingFields(&ConfigData{}) {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadConfig loads the complete configuration from the settings table
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := Defaults()
	fields := settingFields(config)

	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting row: %w", err)
		}
		field, ok := fields[key]
		if !ok {
			return nil, fmt.Errorf("unknown setting %q", key)
		}
		if err := setField(field, value); err != nil {
			return nil, fmt.Errorf("invalid value for setting %q: %w", key, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	return config, nil
}

func setField(field interface{}, value string) error {
	switch f := field.(type) {
	case *string:
		*f = value
	case *int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*f = n
	case *time.Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*f = d
	default:
		return fmt.Errorf("unsupported field type %T", field)
	}
	return nil
}

// formatField renders a field the way setField parses it
func formatField(field interface{}) string {
	switch f := field.(type) {
	case *string:
		return *f
	case *int:
		return strconv.Itoa(*f)
	case *time.Duration:
		return f.String()
	default:
		return fmt.Sprint(field)
	}
}

// Settings flattens cfg into setting keys and values
func Settings(cfg *ConfigData) map[string]string {
	out := make(map[string]string)
	for key, field := range settingFields(cfg) {
		out[key] = formatField(field)
	}
	return out
}

// SaveConfig replaces every stored setting with the values of configData
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM settings`); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}
	for key, value := range Settings(configData) {
		if _, err := tx.Exec(`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`, key, value); err != nil {
			return fmt.Errorf("failed to store setting %q: %w", key, err)
		}
	}
	return tx.Commit()
}

// SetSetting stores one setting, replacing any previous value
func (s *SQLiteProvider) SetSetting(key, value string) error {
	if _, ok := settingFields(&ConfigData{})[key]; !ok {
		return fmt.Errorf("unknown setting %q", key)
	}
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, key, value)
	if err != nil {
		return fmt.Errorf("failed to store setting %q: %w", key, err)
	}
	return nil
}

// DeleteSetting removes a setting so its default applies again
func (s *SQLiteProvider) DeleteSetting(key string) error {
	if _, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete setting %q: %w", key, err)
	}
	return nil
}

// IsReadOnly returns false since SQLite supports writes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
