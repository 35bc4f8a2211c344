package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// EnvPrefix marks environment variables that override the config file,
// e.g. LOOKUP_SERVER_PORT=9090 or LOOKUP_LOOKUP_DEFAULT_LIMIT=500.
const EnvPrefix = "LOOKUP_"

type DBConfig struct {
	Type         string `yaml:"type" json:"type"`
	Host         string `yaml:"host" json:"host"`
	Port         int    `yaml:"port" json:"port"`
	Username     string `yaml:"username" json:"username"`
	Password     string `yaml:"password" json:"password"`
	DatabaseName string `yaml:"database_name" json:"database_name"`
	DSN          string `yaml:"dsn" json:"dsn"` // optional explicit DSN
}

type ServerConfig struct {
	Port           int `yaml:"port" json:"port"`
	ConnectTimeout int `yaml:"connect_timeout" json:"connect_timeout"` // seconds
}

// LookupConfig configures the foreign datalist.
type LookupConfig struct {
	Field          string   `yaml:"field"`    // reserved form field
	Keywords       []string `yaml:"keywords"` // directive introducers
	DefaultLimit   int      `yaml:"default_limit"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Placeholder    string   `yaml:"placeholder"`
	// CommentsEnabled says the host renders column comments; nil means true.
	CommentsEnabled *bool    `yaml:"comments_enabled"`
	AllowedTables   []string `yaml:"allowed_tables"`
	// Annotations supply directives for columns without a comment. Keys are
	// TABLE.COLUMN, *.COLUMN or *SUFFIX.
	Annotations map[string]string `yaml:"annotations"`
}

// Comments reports whether column comments are rendered.
func (l LookupConfig) Comments() bool {
	return l.CommentsEnabled == nil || *l.CommentsEnabled
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type AppConfig struct {
	Database DBConfig     `yaml:"database" json:"database"`
	Server   ServerConfig `yaml:"server" json:"server"`
	Lookup   LookupConfig `yaml:"lookup" json:"-"`
	Log      LogConfig    `yaml:"log" json:"-"`
}

// ApplyDefaults fills every unset setting.
func (c *AppConfig) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ConnectTimeout <= 0 {
		c.Server.ConnectTimeout = 10
	}
	if c.Lookup.Field == "" {
		c.Lookup.Field = "foreignDatalist"
	}
	if len(c.Lookup.Keywords) == 0 {
		c.Lookup.Keywords = []string{"lookup", "dropdown"}
	}
	if c.Lookup.DefaultLimit <= 0 {
		c.Lookup.DefaultLimit = 10000
	}
	if c.Lookup.TimeoutSeconds <= 0 {
		c.Lookup.TimeoutSeconds = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// LoadFile loads YAML config from path.
func LoadFile(path string) (AppConfig, error) {
	var cfg AppConfig
	f, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(f, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"driver":        "database.type",
	"dsn":           "database.dsn",
	"port":          "server.port",
	"timeout":       "server.connect_timeout",
	"log-level":     "log.level",
	"default-limit": "lookup.default_limit",
	"field":         "lookup.field",
}

// listKeys hold comma separated values in the environment.
var listKeys = map[string]bool{
	"lookup.keywords":       true,
	"lookup.allowed_tables": true,
}

// Load reads the YAML file at path (skipped when path is empty), then layers
// LOOKUP_ environment variables and the explicitly set flags on top, and
// applies defaults. Precedence: flags > environment > file > defaults.
func Load(path string, flags *pflag.FlagSet) (AppConfig, error) {
	var cfg AppConfig
	if path != "" {
		c, err := LoadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		cfg = c
	}

	k := koanf.New(".")
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return cfg, fmt.Errorf("load environment: %w", err)
	}
	if flags != nil {
		err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !f.Changed || !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil)
		if err != nil {
			return cfg, fmt.Errorf("load flags: %w", err)
		}
	}

	// decoding onto cfg keeps the file values koanf has no key for
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// envKey turns LOOKUP_DATABASE_DATABASE_NAME into database.database_name:
// the first segment names the section.
func envKey(name, value string) (string, interface{}) {
	name = strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	section, rest, ok := strings.Cut(name, "_")
	if !ok || rest == "" {
		return "", nil
	}
	key := section + "." + rest
	if listKeys[key] {
		var items []string
		for _, s := range strings.Split(value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		return key, items
	}
	return key, value
}

// NormalizeDriver maps common aliases to canonical keys (keeps backwards compat).
func NormalizeDriver(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "postgresql", "pg", "postgres":
		return "postgres"
	case "mysql", "mariadb":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	case "mssql", "sqlserver":
		return "sqlserver"
	case "godror", "oracle":
		return "godror"
	default:
		return strings.ToLower(d)
	}
}

// BuildDriverAndDSN produces a driver name and DSN string for supported DB types.
func BuildDriverAndDSN(db DBConfig) (driver string, dsn string, err error) {
	// If explicit DSN provided, user must also set Type to choose driver or we guess
	t := NormalizeDriver(db.Type)

	if db.DSN != "" {
		return t, db.DSN, nil
	}

	switch t {
	case "postgres":
		driver = "postgres"
		// simple URL form
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	case "mysql":
		driver = "mysql"
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	case "sqlite":
		driver = "sqlite"
		if db.DatabaseName == "" {
			return "", "", fmt.Errorf("sqlite needs a file path in database_name")
		}
		dsn = fmt.Sprintf("file:%s?mode=ro", db.DatabaseName)
	case "sqlserver":
		driver = "sqlserver"
		dsn = fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	case "godror":
		driver = "godror"
		// simple EZCONNECT style; may need adjustments per environment
		dsn = fmt.Sprintf("%s/%s@%s:%d/%s",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	default:
		err = fmt.Errorf("unsupported database type: %s", db.Type)
	}
	return
}
