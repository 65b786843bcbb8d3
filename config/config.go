// Package config loads jsbundle settings from defaults, an optional file,
// environment variables prefixed JSBUNDLE_ and command-line flags, in
// increasing order of precedence.
package config

import (
	"context"
	stderrors "errors"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/jsbundle/codegen"
	"github.com/wippyai/jsbundle/compilation"
	"github.com/wippyai/jsbundle/errors"
	"github.com/wippyai/jsbundle/linker"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. JSBUNDLE_LOG_LEVEL.
	EnvPrefix = "JSBUNDLE"
	// FileName is the config file searched for in the working directory,
	// without extension. toml, yaml and json are accepted.
	FileName = "jsbundle"
)

// Config is the decoded configuration.
type Config struct {
	MangleExports      string      `mapstructure:"mangle_exports"`
	ConcatenateModules bool        `mapstructure:"concatenate_modules"`
	LibraryExports     bool        `mapstructure:"library_exports"`
	Environment        Environment `mapstructure:"environment"`
	Parallelism        int         `mapstructure:"parallelism"`
	CacheSize          int         `mapstructure:"cache_size"`
	Log                Log         `mapstructure:"log"`
	Metrics            Metrics     `mapstructure:"metrics"`
}

// Environment describes the output syntax.
type Environment struct {
	ArrowFunction bool `mapstructure:"arrow_function"`
}

// Log configures the CLI logger.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Metrics controls the prometheus dump after a build.
type Metrics struct {
	Enabled bool `mapstructure:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MangleExports: linker.MangleDeterministic.String(),
		Environment:   Environment{ArrowFunction: true},
		Parallelism:   runtime.GOMAXPROCS(0),
		CacheSize:     1024,
		Log:           Log{Level: "info", Format: "console"},
	}
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// File is an explicit config file. When empty, jsbundle.{toml,yaml,json}
	// in Dir is used if present.
	File string
	// Dir is searched for the default config file; empty means ".".
	Dir string
	// EnvFile is a dotenv file whose variables are added to the process
	// environment before JSBUNDLE_ overrides are read. Variables already
	// set are kept.
	EnvFile string
	// Flags are bound by name: "log-level" overrides log.level.
	Flags *pflag.FlagSet
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"log-level":   "log.level",
	"log-format":  "log.format",
	"mangle":      "mangle_exports",
	"concatenate": "concatenate_modules",
	"library":     "library_exports",
	"parallelism": "parallelism",
	"metrics":     "metrics.enabled",
}

// Load reads and validates the configuration.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Canceled(errors.PhaseConfig, err)
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "env file "+opts.EnvFile)
		}
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "config file "+opts.File)
		}
		v.SetConfigFile(opts.File)
	} else {
		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		v.SetConfigName(FileName)
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !stderrors.As(err, &notFound) {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "read config")
		}
	}

	if opts.Flags != nil {
		for flag, key := range flagKeys {
			f := opts.Flags.Lookup(flag)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvariant, err, "bind flag "+flag)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("mangle_exports", d.MangleExports)
	v.SetDefault("concatenate_modules", d.ConcatenateModules)
	v.SetDefault("library_exports", d.LibraryExports)
	v.SetDefault("environment.arrow_function", d.Environment.ArrowFunction)
	v.SetDefault("parallelism", d.Parallelism)
	v.SetDefault("cache_size", d.CacheSize)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
}

// Validate rejects values the compilation cannot use.
func (c *Config) Validate() error {
	if _, err := linker.ParseMangleMode(c.MangleExports); err != nil {
		return invalid("mangle_exports", err.Error())
	}
	if c.Parallelism <= 0 {
		return invalid("parallelism", "must be positive")
	}
	if c.CacheSize <= 0 {
		return invalid("cache_size", "must be positive")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", err.Error())
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return invalid("log.format", "must be console or json, got "+c.Log.Format)
	}
	return nil
}

func invalid(key, detail string) error {
	return errors.InvalidData(errors.PhaseConfig, strings.Split(key, "."), detail)
}

// CompilationOptions converts c. The runtimes list is left empty so every
// runtime of the graph is compiled.
func (c *Config) CompilationOptions() compilation.Options {
	mode, err := linker.ParseMangleMode(c.MangleExports)
	if err != nil {
		mode = linker.MangleDeterministic
	}
	return compilation.Options{
		Mangle:         mode,
		LibraryExports: c.LibraryExports,
		Concatenate:    c.ConcatenateModules,
		Environment:    codegen.Environment{ArrowFunction: c.Environment.ArrowFunction},
		Parallelism:    c.Parallelism,
		CacheSize:      c.CacheSize,
	}
}

// Logger builds a zap logger: JSON production output for the json format,
// a development console logger otherwise.
func (l Log) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return nil, invalid("log.level", err.Error())
	}
	var zc zap.Config
	if l.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
