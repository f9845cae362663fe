package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kolah/drygen/internal/resolver"
)

const (
	DefaultFile = "drygen.yaml"
	EnvPrefix   = "DRYGEN_"
)

type Config struct {
	Spec      string         `koanf:"spec"`
	OutputDir string         `koanf:"output-dir"`
	Filename  string         `koanf:"filename"`
	Templates TemplateConfig `koanf:"templates"`
	DryRun    bool           `koanf:"dry-run"`
	Check     bool           `koanf:"check"`
	Strict    bool           `koanf:"strict"`
	// ValidateSpec runs a structural check of the input document and reports
	// findings as warnings.
	ValidateSpec bool           `koanf:"validate"`
	Resolver     ResolverConfig `koanf:"resolver"`
	Log          LogConfig      `koanf:"log"`
}

type TemplateConfig struct {
	Dir string `koanf:"dir"`
}

type ResolverConfig struct {
	// BaseDir overrides the directory relative file references resolve
	// against. Defaults to the directory of the input document.
	BaseDir     string        `koanf:"base-dir"`
	AllowRemote bool          `koanf:"allow-remote"`
	HTTPTimeout time.Duration `koanf:"http-timeout"`
	// MaxRetries is the total number of attempts for a transient failure.
	MaxRetries      int           `koanf:"max-retries"`
	BackoffBase     time.Duration `koanf:"backoff-base"`
	BreakerFailures int           `koanf:"breaker-failures"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Settings converts the resolver section into fetcher settings.
func (r ResolverConfig) Settings() resolver.Settings {
	return resolver.Settings{
		HTTPTimeout:     r.HTTPTimeout,
		MaxRetries:      r.MaxRetries,
		BackoffBase:     r.BackoffBase,
		BreakerFailures: r.BreakerFailures,
	}
}

func defaults() map[string]any {
	d := resolver.DefaultSettings()
	return map[string]any{
		"output-dir":                "out",
		"resolver.allow-remote":     true,
		"resolver.http-timeout":     d.HTTPTimeout,
		"resolver.max-retries":      d.MaxRetries,
		"resolver.backoff-base":     d.BackoffBase,
		"resolver.breaker-failures": d.BreakerFailures,
		"log.level":                 "info",
		"log.format":                "text",
	}
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"spec":         "spec",
	"output-dir":   "output-dir",
	"filename":     "filename",
	"templates":    "templates.dir",
	"dry-run":      "dry-run",
	"check":        "check",
	"strict":       "strict",
	"validate":     "validate",
	"base-dir":     "resolver.base-dir",
	"http-timeout": "resolver.http-timeout",
	"max-retries":  "resolver.max-retries",
	"log-level":    "log.level",
	"log-format":   "log.format",
}

// BindFlags binds the generate flags to cmd.
func BindFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringP("config", "c", "", "Config file path (default: "+DefaultFile+")")
	flags.StringP("spec", "s", "", "OpenAPI document path or http(s) URL")
	flags.StringP("output-dir", "o", "", "Output directory (default: out)")
	flags.String("filename", "", "Output file name (default: <spec name>.rb)")
	flags.String("templates", "", "Custom templates directory")
	flags.Bool("dry-run", false, "Print output without writing files")
	flags.Bool("check", false, "Fail if the output file is missing or out of date")
	flags.Bool("strict", false, "Fail when any diagnostic is reported")
	flags.Bool("validate", false, "Validate the document structure and report findings as warnings")
	flags.String("base-dir", "", "Directory relative references resolve against")
	flags.Bool("no-remote", false, "Reject http(s) references")
	flags.Duration("http-timeout", 0, "Timeout for each remote fetch (default: 15s)")
	flags.Int("max-retries", 0, "Attempts for transient remote failures (default: 3)")
}

// BindLogFlags binds logging flags shared by every command.
func BindLogFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text, json")
}

// Load layers defaults, the config file, DRYGEN_* environment variables and
// changed flags, in that order.
func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	configFile := lookupString(cmd, "config")
	if configFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			configFile = DefaultFile
		}
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	flagsMap := buildFlagsMap(cmd)
	if len(flagsMap) > 0 {
		if err := k.Load(confmap.Provider(flagsMap, "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// envKey maps DRYGEN_RESOLVER__HTTP_TIMEOUT to resolver.http-timeout.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	s = strings.ReplaceAll(s, "__", ".")
	return strings.ReplaceAll(s, "_", "-")
}

// visitFlags calls fn once per flag visible to cmd, local ones first.
func visitFlags(cmd *cobra.Command, fn func(*pflag.Flag)) {
	seen := make(map[string]bool)
	visit := func(f *pflag.Flag) {
		if seen[f.Name] {
			return
		}
		seen[f.Name] = true
		fn(f)
	}
	cmd.Flags().VisitAll(visit)
	cmd.PersistentFlags().VisitAll(visit)
	cmd.InheritedFlags().VisitAll(visit)
}

func lookupString(cmd *cobra.Command, name string) string {
	var value string
	visitFlags(cmd, func(f *pflag.Flag) {
		if f.Name == name && value == "" {
			value = f.Value.String()
		}
	})
	return value
}

// buildFlagsMap returns only flags set explicitly, so unset flags never
// mask values from the file or environment.
func buildFlagsMap(cmd *cobra.Command) map[string]any {
	m := make(map[string]any)

	visitFlags(cmd, func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if f.Name == "no-remote" {
			m["resolver.allow-remote"] = f.Value.String() != "true"
			return
		}
		if key, ok := flagKeys[f.Name]; ok {
			m[key] = f.Value.String()
		}
	})

	return m
}

func (c *Config) Validate() error {
	if c.Spec == "" {
		return fmt.Errorf("spec file is required")
	}
	if c.OutputDir == "" && !c.DryRun {
		return fmt.Errorf("output directory is required")
	}
	if c.DryRun && c.Check {
		return fmt.Errorf("dry-run and check cannot be combined")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Log.Format)
	}

	if c.Resolver.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.Resolver.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative")
	}
	if c.Resolver.BackoffBase < 0 {
		return fmt.Errorf("backoff base must not be negative")
	}
	if c.Resolver.BreakerFailures < 0 {
		return fmt.Errorf("breaker failures must not be negative")
	}

	return nil
}
