package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"schema-sentinel/internal/catalog"

	"github.com/spf13/viper"
)

type DBConfig struct {
	Name    string   `mapstructure:"name"`
	Driver  string   `mapstructure:"driver"`
	DSN     string   `mapstructure:"dsn"`
	Schemas []string `mapstructure:"schemas"`
	Active  bool     `mapstructure:"active"`
}

// GetActiveDBConfig returns the currently active database configuration.
func GetActiveDBConfig() (*DBConfig, error) {
	var configs []DBConfig

	if err := viper.UnmarshalKey("databases", &configs); err != nil {
		return nil, fmt.Errorf("failed to parse databases config: %w", err)
	}

	var activeConfig *DBConfig
	count := 0

	for i := range configs {
		if configs[i].Active {
			activeConfig = &configs[i]
			count++
		}
	}

	if count == 0 {
		return nil, fmt.Errorf("no active database found in config (set active: true)")
	}
	if count > 1 {
		return nil, fmt.Errorf("multiple active databases found (only one can be active)")
	}

	return activeConfig, nil
}

// ResolveDBConfig picks the target database: an explicit DSN (flag or
// environment) wins over the active entry of the databases list.
func ResolveDBConfig() (*DBConfig, error) {
	if connStr := viper.GetString("database.dsn"); connStr != "" {
		cfg := &DBConfig{
			Name:    "cli",
			Driver:  viper.GetString("database.driver"),
			DSN:     connStr,
			Schemas: viper.GetStringSlice("settings.schemas"),
			Active:  true,
		}
		if cfg.Driver == "" {
			cfg.Driver = DetectDriver(connStr)
		}
		return cfg, nil
	}

	cfg, err := GetActiveDBConfig()
	if err != nil {
		return nil, fmt.Errorf("database.dsn is required (via --dsn, SENTINEL_DATABASE_DSN or config): %w", err)
	}
	if cfg.Driver == "" {
		cfg.Driver = DetectDriver(cfg.DSN)
	}
	if len(cfg.Schemas) == 0 {
		cfg.Schemas = viper.GetStringSlice("settings.schemas")
	}
	return cfg, nil
}

// DetectDriver guesses the database/sql driver name from the DSN shape.
func DetectDriver(connStr string) string {
	lower := strings.ToLower(connStr)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"),
		strings.Contains(lower, "sslmode"):
		return "postgres"
	case strings.HasPrefix(lower, "sqlserver://"):
		return "sqlserver"
	case strings.HasPrefix(lower, "oracle://"):
		return "oracle"
	case strings.HasPrefix(lower, "file:"), strings.HasSuffix(lower, ".db"),
		strings.HasSuffix(lower, ".sqlite"), lower == ":memory:":
		return "sqlite"
	default:
		return "mysql"
	}
}

// openDatabase opens and pings the configured database. An unreachable
// server is reported as *catalog.ConnectionError, as introspection does.
func openDatabase(ctx context.Context, cfg *DBConfig) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		db.Close()
		return nil, &catalog.ConnectionError{Err: err}
	}
	return db, nil
}

// configuredSchemas returns the schemas to verify. MySQL has no schema layer
// below the database, so the current database stands in when none are set.
func configuredSchemas(ctx context.Context, db *sql.DB, cfg *DBConfig) ([]string, error) {
	if len(cfg.Schemas) > 0 || cfg.Driver != "mysql" {
		return cfg.Schemas, nil
	}
	var name sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&name); err != nil {
		return nil, fmt.Errorf("failed to get database name: %w", err)
	}
	if name.String == "" {
		return nil, fmt.Errorf("no database selected in DSN")
	}
	return []string{name.String}, nil
}
