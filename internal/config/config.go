package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"github.com/vytor/studyhall/internal/logger"
)

// EnvPrefix prefixes every environment variable the application reads.
const EnvPrefix = "STUDYHALL_"

type Config struct {
	DBPath            string        `koanf:"db_path" validate:"required"`
	LogLevel          string        `koanf:"log_level" validate:"loglevel"`
	LogColors         bool          `koanf:"log_colors"`
	ReminderInterval  time.Duration `koanf:"reminder_interval" validate:"min=1s"`
	ReminderCooldown  time.Duration `koanf:"reminder_cooldown" validate:"min=0"`
	ReminderWorkers   int           `koanf:"reminder_workers" validate:"min=1,max=64"`
	ReminderQueueSize int           `koanf:"reminder_queue_size" validate:"min=1"`
	MaxIntervalDays   int           `koanf:"max_interval_days" validate:"min=0"`
	ReviewBatchSize   int           `koanf:"review_batch_size" validate:"min=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:            "studyhall.db",
		LogLevel:          "INFO",
		LogColors:         false,
		ReminderInterval:  time.Hour,
		ReminderCooldown:  12 * time.Hour,
		ReminderWorkers:   2,
		ReminderQueueSize: 64,
		MaxIntervalDays:   0,
		ReviewBatchSize:   20,
	}
}

// LoadOptions tells Load where to look besides the environment.
type LoadOptions struct {
	// ConfigFile is an optional YAML file. Falls back to $STUDYHALL_CONFIG.
	ConfigFile string
	// EnvFile is loaded into the environment when present. Defaults to ".env".
	EnvFile string
	// Flags contributes the flags the user changed; nil skips them.
	Flags *pflag.FlagSet
}

// Load builds the configuration from, in increasing precedence: defaults,
// the YAML file, the .env file and environment, and changed command-line flags.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// A missing .env is normal outside development.
	if err := godotenv.Load(envFile); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load %s: %w", envFile, err)
	}

	path := opts.ConfigFile
	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("load config file %s: %w", path, err)
		}
		logger.Debug("loaded config file: %s", path)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return cfg, fmt.Errorf("load environment: %w", err)
	}

	if opts.Flags != nil {
		fs := opts.Flags
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", nil, func(f *pflag.Flag) (string, interface{}) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if !configKeys[key] {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		}), nil); err != nil {
			return cfg, fmt.Errorf("load flags: %w", err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.LogLevel = strings.ToUpper(strings.TrimSpace(cfg.LogLevel))

	return cfg, cfg.Validate()
}

var configKeys = func() map[string]bool {
	keys := make(map[string]bool)
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		keys[t.Field(i).Tag.Get("koanf")] = true
	}
	return keys
}()

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.ToUpper(f.Tag.Get("koanf"))
	})
	_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		return logger.ValidLevel(fl.Field().String())
	})
	return v
}()

// Validate checks that all configuration values are valid. Errors name the
// offending key the way it is spelled in the environment, without prefix.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " cannot be empty"
	case "loglevel":
		return fmt.Sprintf("%s must be one of DEBUG, INFO, WARN, ERROR (got %q)", fe.Field(), fe.Value())
	case "min":
		return fmt.Sprintf("%s must be at least %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
