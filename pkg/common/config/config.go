// Package config loads settings for forkflow programs from defaults, a
// config file, a .env file, FORKFLOW_ environment variables and command
// line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	fferrors "github.com/vnykmshr/forkflow/pkg/common/errors"
	"github.com/vnykmshr/forkflow/pkg/common/logging"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FORKFLOW"

// Config is the settings shared by the example programs.
type Config struct {
	Workers      int           `mapstructure:"workers" validate:"gte=1,lte=1024"`
	BufferSize   int           `mapstructure:"buffer_size" validate:"gte=0"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`

	Logging logging.Config `mapstructure:"logging"`
	Redis   RedisConfig    `mapstructure:"redis"`
	Metrics MetricsConfig  `mapstructure:"metrics"`

	// Schedule is a cron spec; empty runs once.
	Schedule string `mapstructure:"schedule"`
}

// RedisConfig locates the input and output lists.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr" validate:"required,hostname_port"`
	DB           int           `mapstructure:"db" validate:"gte=0"`
	InputKey     string        `mapstructure:"input_key" validate:"required"`
	OutputKey    string        `mapstructure:"output_key" validate:"required,nefield=InputKey"`
	BlockTimeout time.Duration `mapstructure:"block_timeout" validate:"gte=0"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Namespace string `mapstructure:"namespace"`
}

var defaults = map[string]interface{}{
	"workers":             4,
	"buffer_size":         0,
	"poll_interval":       100 * time.Millisecond,
	"logging.level":       "info",
	"logging.format":      "json",
	"logging.output":      "stderr",
	"logging.timestamp":   true,
	"logging.no_color":    false,
	"redis.addr":          "localhost:6379",
	"redis.db":            0,
	"redis.input_key":     "forkflow:in",
	"redis.output_key":    "forkflow:out",
	"redis.block_timeout": time.Duration(0),
	"metrics.enabled":     false,
	"metrics.addr":        ":2112",
	"metrics.namespace":   "forkflow",
	"schedule":            "",
}

// flag name -> config key
var flagKeys = map[string]string{
	"workers":       "workers",
	"buffer-size":   "buffer_size",
	"poll-interval": "poll_interval",
	"log-level":     "logging.level",
	"log-format":    "logging.format",
	"redis-addr":    "redis.addr",
	"input-key":     "redis.input_key",
	"output-key":    "redis.output_key",
	"metrics":       "metrics.enabled",
	"metrics-addr":  "metrics.addr",
	"schedule":      "schedule",
}

// Flags returns a flag set with every option Load understands.
func Flags(name string) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.String("config", "", "path to a config file (yaml, json or toml)")
	flags.String("env-file", ".env", "path to a .env file; missing files are ignored")
	flags.IntP("workers", "w", 4, "number of parallel workers")
	flags.Int("buffer-size", 0, "work queue capacity (0 means 2 x workers)")
	flags.Duration("poll-interval", 100*time.Millisecond, "result poll interval while the work queue is full")
	flags.String("log-level", "info", "trace, debug, info, warn or error")
	flags.String("log-format", "json", "json or console")
	flags.String("redis-addr", "localhost:6379", "redis address")
	flags.String("input-key", "forkflow:in", "redis list to read")
	flags.String("output-key", "forkflow:out", "redis list to write")
	flags.Bool("metrics", false, "serve Prometheus metrics")
	flags.String("metrics-addr", ":2112", "metrics listen address")
	flags.String("schedule", "", "cron spec; empty runs once")
	return flags
}

// Load parses args with Flags(name) and resolves the configuration.
func Load(name string, args []string) (Config, error) {
	flags := Flags(name)
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}
	return LoadFlags(flags)
}

// LoadFlags resolves the configuration for already parsed flags. Only flags
// that were set explicitly override other sources.
func LoadFlags(flags *pflag.FlagSet) (Config, error) {
	envFile, _ := flags.GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file, _ := flags.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	for flagName, key := range flagKeys {
		if f := flags.Lookup(flagName); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", flagName, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and reports the first violation as a
// ValidationError naming the config key.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return err
		}
		first := verrs[0]
		return fferrors.NewValidationError("config", keyName(first.Namespace()), first.Value(), ruleText(first))
	}
	return nil
}

// keyName turns "Config.Redis.InputKey" into "Redis.InputKey".
func keyName(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func ruleText(fe validator.FieldError) string {
	if fe.Param() == "" {
		return "failed " + fe.Tag()
	}
	return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
}
