package convert

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config configures the conversion pipeline. Zero values get defaults();
// everything is read-only once the Pipeline is constructed.
type Config struct {
	// Profiles is the document-variant registry. Empty means the built-in set.
	Profiles []Profile `yaml:"profiles"`

	// Markets maps address keywords to market passwords, in priority order.
	// Empty means the built-in table.
	Markets []MarketKeyword `yaml:"markets"`

	// MaxFileSize is the maximum PDF size to process (default: 50 MB).
	MaxFileSize int64 `yaml:"max_file_size"`

	// RowTolerance is the vertical distance in points within which text
	// tokens belong to the same table row (default: 3.0).
	RowTolerance float64 `yaml:"row_tolerance"`

	// Logger for debug/error messages.
	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if len(c.Profiles) == 0 {
		c.Profiles = BuiltinProfiles()
	}
	if len(c.Markets) == 0 {
		c.Markets = BuiltinMarkets()
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 50 * 1024 * 1024
	}
	if c.RowTolerance <= 0 {
		c.RowTolerance = 3.0
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// LoadConfig reads a YAML profile/market override file. Sections left out of
// the file keep their built-in values via defaults().
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
