package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration settings
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Runner  RunnerConfig  `mapstructure:"runner"`
	Output  OutputConfig  `mapstructure:"output"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// RunnerConfig holds the defaults handed to the execution engine
type RunnerConfig struct {
	Pattern    string        `mapstructure:"pattern"`
	Inventory  string        `mapstructure:"inventory"`
	Forks      int           `mapstructure:"forks"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RemotePort int           `mapstructure:"remote_port"`
	RemoteUser string        `mapstructure:"remote_user"`
	Transport  string        `mapstructure:"transport"`
}

// OutputConfig holds report output configuration
type OutputConfig struct {
	ShowColors bool `mapstructure:"show_colors"`
	ShowFacts  bool `mapstructure:"show_facts"`
	Indent     int  `mapstructure:"indent"`
}

// Load loads configuration from files and environment variables
func Load(configPaths ...string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config files
	for _, path := range configPaths {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Environment variables
	v.SetEnvPrefix("REPORTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "plain")
	v.SetDefault("logging.file", "")

	// Runner defaults
	v.SetDefault("runner.pattern", "*")
	v.SetDefault("runner.inventory", "")
	v.SetDefault("runner.forks", 5)
	v.SetDefault("runner.timeout", 10*time.Second)
	v.SetDefault("runner.remote_port", 22)
	v.SetDefault("runner.remote_user", "")
	v.SetDefault("runner.transport", "smart")

	// Output defaults
	v.SetDefault("output.show_colors", false)
	v.SetDefault("output.show_facts", false)
	v.SetDefault("output.indent", 2)
}
