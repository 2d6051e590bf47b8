// Package config loads the settings of the command line tool from
// defaults, an optional .sqlmagick.yaml file, SQLMAGICK_* environment
// variables and command line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes environment variables, e.g. SQLMAGICK_DATABASE.
	EnvPrefix = "SQLMAGICK"
	// FileName is the config file name searched without extension.
	FileName = ".sqlmagick"
	// DefaultDatabase is the shared database file in the working directory.
	DefaultDatabase = "sqlmagick.db"
)

// Keys of the settings.
const (
	KeyDatabase  = "database"
	KeyLogLevel  = "log.level"
	KeyLogFormat = "log.format"
	KeyMaxRows   = "max_rows"
)

// Config is the effective configuration.
type Config struct {
	Database string    `mapstructure:"database" yaml:"database"`
	Log      LogConfig `mapstructure:"log" yaml:"log"`
	MaxRows  int       `mapstructure:"max_rows" yaml:"max_rows"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// New returns a viper instance with defaults and environment binding.
// Flags are bound by the caller with BindPFlag.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDatabase, DefaultDatabase)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyMaxRows, 20)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file and returns the merged configuration. With
// an empty file, .sqlmagick.yaml is looked up in dirs and its absence is
// not an error. An explicitly named file must exist.
func Load(v *viper.Viper, file string, dirs ...string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		for _, d := range dirs {
			v.AddConfigPath(d)
		}
	}

	if file != "" || len(dirs) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if file != "" || !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// YAML renders the configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
