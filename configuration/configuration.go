// Package configuration handles the parsing and validation of the YAML
// configuration file, with environment variable overrides.
package configuration

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// envPrefix is the prefix of environment variables that override file
// settings, e.g. IMAGEDB_DATABASE_PATH.
const envPrefix = "imagedb"

// Configuration is the root configuration object.
type Configuration struct {
	Log      Log      `mapstructure:"log"`
	Database Database `mapstructure:"database"`
}

// Log holds the logging settings.
type Log struct {
	// Level is one of the logrus levels, e.g. "info" or "debug".
	Level string `mapstructure:"level"`
	// Formatter is "text" or "json".
	Formatter string `mapstructure:"formatter"`
}

// Database holds the settings of the metadata database.
type Database struct {
	// Path is the SQLite database file path.
	Path        string        `mapstructure:"path"`
	BusyTimeout time.Duration `mapstructure:"busytimeout"`
	JournalMode string        `mapstructure:"journalmode"`
	Pool        Pool          `mapstructure:"pool"`
}

// Pool holds the connection pool settings.
type Pool struct {
	MaxOpen     int           `mapstructure:"maxopen"`
	MaxIdle     int           `mapstructure:"maxidle"`
	MaxLifetime time.Duration `mapstructure:"maxlifetime"`
	MaxIdleTime time.Duration `mapstructure:"maxidletime"`
}

var journalModes = map[string]struct{}{
	"delete":   {},
	"truncate": {},
	"persist":  {},
	"memory":   {},
	"wal":      {},
	"off":      {},
}

// Parse reads a YAML configuration, applies defaults and environment variable
// overrides, and validates the result.
func Parse(rd io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.formatter", "text")
	v.SetDefault("database.busytimeout", 5*time.Second)
	v.SetDefault("database.journalmode", "wal")

	if err := v.ReadConfig(rd); err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	config := new(Configuration)
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate reports every problem found, not just the first one.
func (c *Configuration) validate() error {
	var result *multierror.Error

	if c.Database.Path == "" {
		result = multierror.Append(result, fmt.Errorf("database.path is required"))
	}
	if _, ok := journalModes[strings.ToLower(c.Database.JournalMode)]; !ok {
		result = multierror.Append(result, fmt.Errorf("database.journalmode %q is not a valid journal mode", c.Database.JournalMode))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		result = multierror.Append(result, fmt.Errorf("log.level %q is not a valid level", c.Log.Level))
	}
	switch c.Log.Formatter {
	case "text", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("log.formatter %q is not a valid formatter", c.Log.Formatter))
	}

	return result.ErrorOrNil()
}
