package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	xv6fs "github.com/weberc2/xv6fs/pkg/fs"
)

const (
	envVarPrefix = "XV6FS"
	appName      = "xv6fs"

	logFormatText = "text"
	logFormatJSON = "json"
)

type Config struct {
	Image         string `envconfig:"XV6FS_IMAGE"          yaml:"image"`
	CacheCapacity int    `envconfig:"XV6FS_CACHE_CAPACITY" yaml:"cacheCapacity"`
	LogLevel      string `envconfig:"XV6FS_LOG_LEVEL"      yaml:"logLevel"`
	LogFormat     string `envconfig:"XV6FS_LOG_FORMAT"     yaml:"logFormat"`
	ReadOnly      bool   `envconfig:"XV6FS_READ_ONLY"      yaml:"readOnly"`
}

// DefaultConfigFile is `$XV6FS_CONFIG_FILE`, or else `xv6fs.yaml` in the
// user's config directory.
func DefaultConfigFile() string {
	if configFile := os.Getenv(envVarPrefix + "_CONFIG_FILE"); configFile != "" {
		return configFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName+".yaml")
}

// LoadConfig reads `configFile` (if it exists) and then applies environment
// variables on top. Unset fields get their defaults.
func LoadConfig(configFile string) (*Config, error) {
	var c Config
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			if err := yaml.UnmarshalStrict(data, &c); err != nil {
				return nil, fmt.Errorf("unmarshaling config file: %w", err)
			}
		}
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	if c.CacheCapacity == 0 {
		c.CacheCapacity = xv6fs.DefaultCacheCapacity
	}
	if c.LogLevel == "" {
		c.LogLevel = logrus.WarnLevel.String()
	}
	if c.LogFormat == "" {
		c.LogFormat = logFormatText
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.Image == "" {
		return fmt.Errorf(
			"missing required configuration: image / %s_IMAGE",
			envVarPrefix,
		)
	}
	if c.CacheCapacity < 1 {
		return fmt.Errorf(
			"invalid configuration: cacheCapacity must be positive; found `%d`",
			c.CacheCapacity,
		)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid configuration: logLevel: %w", err)
	}
	if c.LogFormat != logFormatText && c.LogFormat != logFormatJSON {
		return fmt.Errorf(
			"invalid configuration: logFormat must be `%s` or `%s`; "+
				"found `%s`",
			logFormatText,
			logFormatJSON,
			c.LogFormat,
		)
	}
	return nil
}

// Logger builds the configured logger writing to `w`.
func (c *Config) Logger(w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	if c.LogFormat == logFormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}
