package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cliConfig is resolved from flags, ENTITYCTL_* variables and an optional
// config file, in that order of precedence.
type cliConfig struct {
	Dir      string   `mapstructure:"dir"`
	Format   string   `mapstructure:"format"`
	LogLevel string   `mapstructure:"log_level"`
	Modules  []string `mapstructure:"modules"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("ENTITYCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	v.SetDefault("dir", "settings")
	v.SetDefault("format", "json")
	v.SetDefault("log_level", "info")
	v.SetDefault("modules", []string{})
	return v
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	flags := cmd.PersistentFlags()
	for key, flag := range map[string]string{
		"dir":       "dir",
		"format":    "format",
		"log_level": "log-level",
		"modules":   "modules",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

func loadConfig(v *viper.Viper, path string) (cliConfig, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cliConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var cfg cliConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cliConfig{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Modules = splitModules(cfg.Modules)
	return cfg, nil
}

// splitModules accepts both repeated values and comma separated lists, which
// is how ENTITYCTL_MODULES arrives.
func splitModules(values []string) []string {
	var out []string
	for _, value := range values {
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", level, err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(parsed).
		With().
		Timestamp().
		Str("component", "entityctl").
		Logger(), nil
}
