package main

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// cliConfig is the merged view of flags, MDSTREAM_* variables and
// mdstream.yaml, in that order of precedence.
type cliConfig struct {
	Registry       string        `mapstructure:"registry"`
	Partial        bool          `mapstructure:"partial"`
	Chunk          int           `mapstructure:"chunk"`
	Delay          time.Duration `mapstructure:"delay"`
	Width          int           `mapstructure:"width"`
	Color          string        `mapstructure:"color"`
	Style          string        `mapstructure:"style"`
	ShowIncomplete bool          `mapstructure:"show-incomplete"`
}

// configPaths is searched for mdstream.yaml.
var configPaths = []string{"."}

func loadConfig(flags *pflag.FlagSet) (cliConfig, error) {
	v := viper.New()
	v.SetConfigName("mdstream")
	v.SetConfigType("yaml")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("MDSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chunk", 8)
	v.SetDefault("delay", 30*time.Millisecond)
	v.SetDefault("color", "auto")
	v.SetDefault("style", "monokai")

	if err := v.BindPFlags(flags); err != nil {
		return cliConfig{}, err
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cliConfig{}, err
		}
	}

	var cfg cliConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cliConfig{}, err
	}
	return cfg, nil
}
