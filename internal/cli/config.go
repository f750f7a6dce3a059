package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config describes what to page through. It is read from a YAML or TOML
// file and overridden by flags.
type Config struct {
	// Driver is one of "sqlite", "postgres" or "mysql".
	Driver string `yaml:"driver" toml:"driver"`
	DSN    string `yaml:"dsn" toml:"dsn"`
	Table  string `yaml:"table" toml:"table"`

	// Columns are the selected columns.
	Columns []string `yaml:"columns" toml:"columns"`

	// Order holds "alias asc|desc" terms.
	Order []string `yaml:"order" toml:"order"`

	// ColumnMapping maps order aliases to column names. Without it every
	// selected column is its own alias.
	ColumnMapping map[string]string `yaml:"columnMapping" toml:"column_mapping"`

	PerPage int `yaml:"perPage" toml:"per_page"`
}

// LoadConfig reads a config file, picking the decoder by extension.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	return &cfg, nil
}

// mapping returns the alias mapping used to parse Order.
func (c *Config) mapping() map[string]string {
	if len(c.ColumnMapping) > 0 {
		return c.ColumnMapping
	}

	ret := make(map[string]string, len(c.Columns))
	for _, col := range c.Columns {
		ret[col] = col
	}

	return ret
}

func (c *Config) validate() error {
	switch {
	case c.Driver == "":
		return fmt.Errorf("driver is required")
	case c.DSN == "":
		return fmt.Errorf("dsn is required")
	case c.Table == "":
		return fmt.Errorf("table is required")
	case len(c.Columns) == 0:
		return fmt.Errorf("at least one column is required")
	case len(c.Order) == 0:
		return fmt.Errorf("at least one order term is required")
	}

	return nil
}
