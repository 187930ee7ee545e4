package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level YAML configuration.
type Config struct {
	Connection Connection `yaml:"connection"`
	// ConnectionString overrides Connection. It may be a libpq keyword
	// string, a postgres:// URL or a semicolon separated descriptor such as
	// "Host=db;Database=shop;Username=app".
	ConnectionString string   `yaml:"connection_string"`
	Schemas          []string `yaml:"schemas"`
	ExcludeTables    []string `yaml:"exclude_tables"`
	IncludeFunctions bool     `yaml:"include_functions"`
	StrictKeys       bool     `yaml:"strict_keys"`
	Output           string   `yaml:"output"`
	Server           Server   `yaml:"server"`
}

// Connection holds database connection parameters.
type Connection struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// Server holds HTTP transport settings.
type Server struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DSN builds a PostgreSQL connection string.
func (c *Connection) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		quoteValue(c.Host), c.Port, quoteValue(c.Database), quoteValue(c.User), quoteValue(c.Password), quoteValue(c.SSLMode),
	)
}

// DSN returns the connection string pgx should use.
func (c *Config) DSN() string {
	if c.ConnectionString != "" && !isDescriptor(c.ConnectionString) {
		return c.ConnectionString
	}
	return c.Connection.DSN()
}

// Descriptor returns the connection descriptor the model name is taken from.
func (c *Config) Descriptor() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return "Database=" + c.Connection.Database
}

// LoadEnv loads KEY=VALUE pairs from the given .env files into the process
// environment. Missing files are skipped; variables already set win.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Read parses a YAML config file without applying defaults. An empty path
// yields an empty config.
func Read(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return &cfg, nil
}

// Load reads path and finishes the config. An empty path yields a config
// built from the environment alone.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finish applies descriptor parsing, environment fallbacks and defaults,
// then validates.
func (c *Config) Finish() error {
	if isDescriptor(c.ConnectionString) {
		conn, err := ParseDescriptor(c.ConnectionString)
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		c.Connection = conn
	}
	c.applyEnv()
	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnv fills in empty Connection fields from environment variables.
// YAML values take precedence; env vars are used only as fallback.
func (c *Config) applyEnv() {
	if c.ConnectionString == "" {
		c.ConnectionString = envOr("PGSE_CONNECTION_STRING", "DATABASE_URL")
	}
	if c.ConnectionString != "" && !isDescriptor(c.ConnectionString) {
		return
	}

	conn := &c.Connection
	if conn.Host == "" {
		conn.Host = envOr("PGHOST", "POSTGRES_HOST")
	}
	if conn.Port == 0 {
		if s := envOr("PGPORT", "POSTGRES_PORT"); s != "" {
			if p, err := strconv.Atoi(s); err == nil {
				conn.Port = p
			}
		}
	}
	if conn.Database == "" {
		conn.Database = envOr("PGDATABASE", "POSTGRES_DB")
	}
	if conn.User == "" {
		conn.User = envOr("PGUSER", "POSTGRES_USER")
	}
	if conn.Password == "" {
		conn.Password = envOr("PGPASSWORD", "POSTGRES_PASSWORD")
	}
	if conn.SSLMode == "" {
		conn.SSLMode = envOr("PGSSLMODE")
	}
}

// envOr returns the first non-empty value from the given env var names.
func envOr(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// validate checks connection settings and fills defaults.
func (c *Config) validate() error {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.ConnectionString != "" && !isDescriptor(c.ConnectionString) {
		return nil
	}
	if c.Connection.Host == "" {
		return fmt.Errorf("connection.host is required")
	}
	if c.Connection.Port == 0 {
		c.Connection.Port = 5432
	}
	if c.Connection.Database == "" {
		return fmt.Errorf("connection.database is required")
	}
	if c.Connection.User == "" {
		return fmt.Errorf("connection.user is required")
	}
	if c.Connection.SSLMode == "" {
		c.Connection.SSLMode = "disable"
	}
	return nil
}

// ExcludeSet returns a set of excluded table names for O(1) lookup.
func (c *Config) ExcludeSet() map[string]bool {
	set := make(map[string]bool, len(c.ExcludeTables))
	for _, t := range c.ExcludeTables {
		set[t] = true
	}
	return set
}

// isDescriptor reports whether s is a semicolon separated Key=Value
// descriptor rather than a libpq string or URL.
func isDescriptor(s string) bool {
	if s == "" || strings.Contains(s, "://") {
		return false
	}
	return strings.Contains(s, ";") || !strings.Contains(strings.TrimSpace(s), " ")
}

// ParseDescriptor parses "Host=db;Port=5432;Database=shop;Username=app".
// Keys are case-insensitive; unknown keys are ignored.
func ParseDescriptor(s string) (Connection, error) {
	var conn Connection
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			return conn, fmt.Errorf("connection_string: malformed segment %q", part)
		}
		v = strings.TrimSpace(v)
		switch strings.ToLower(strings.Join(strings.Fields(k), "")) {
		case "host", "server":
			conn.Host = v
		case "port":
			p, err := strconv.Atoi(v)
			if err != nil {
				return conn, fmt.Errorf("connection_string: invalid port %q", v)
			}
			conn.Port = p
		case "database", "dbname", "db":
			conn.Database = v
		case "username", "userid", "user", "uid":
			conn.User = v
		case "password", "pwd":
			conn.Password = v
		case "sslmode":
			conn.SSLMode = strings.ToLower(v)
		}
	}
	return conn, nil
}

// quoteValue quotes a libpq keyword value when it is empty or contains
// spaces, quotes or backslashes.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
