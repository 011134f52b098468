package config

import (
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"gokw/domain/stats"
	"gokw/internal/errors"

	"github.com/go-playground/validator/v10"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig   `validate:"required"`
	Analysis AnalysisConfig `validate:"required"`
	Log      LogConfig      `validate:"required"`
}

// DatabaseConfig holds database connection settings. An empty URL keeps
// runs in memory.
type DatabaseConfig struct {
	URL            string `validate:"omitempty,url"`
	MigrateOnStart bool
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required,numeric"`
	UIPort  string `validate:"required,numeric"`
	GinMode string `validate:"oneof=debug release test"`
}

// AnalysisConfig holds defaults for rank test computations
type AnalysisConfig struct {
	MinGroupSize int    `validate:"gte=0"`
	Workers      int    `validate:"gte=1,lte=256"`
	Delimiter    string `validate:"required,delimiter"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `validate:"oneof=ERROR WARN INFO DEBUG TRACE"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("delimiter", func(fl validator.FieldLevel) bool {
		_, err := ParseDelimiter(fl.Field().String())
		return err == nil
	})
	return v
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:            getEnvOrDefault("DATABASE_URL", ""),
			MigrateOnStart: getEnvBoolOrDefault("MIGRATE_ON_START", true),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			UIPort:  getEnvOrDefault("UI_PORT", "8081"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Analysis: AnalysisConfig{
			MinGroupSize: getEnvIntOrDefault("MIN_GROUP_SIZE", stats.DefaultMinGroupSize),
			Workers:      getEnvIntOrDefault("WORKERS", 1),
			Delimiter:    getEnvOrDefault("DELIMITER", "tab"),
		},
		Log: LogConfig{
			Level: strings.ToUpper(getEnvOrDefault("LOG_LEVEL", "INFO")),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks every field against its constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace()+" ("+fe.Tag()+")")
			}
		} else {
			fields = append(fields, err.Error())
		}
		return errors.ConfigInvalid("configuration validation failed: " + strings.Join(fields, ", "))
	}
	return nil
}

// DelimiterRune returns the configured field delimiter
func (a AnalysisConfig) DelimiterRune() rune {
	r, _ := ParseDelimiter(a.Delimiter)
	return r
}

// ParseDelimiter accepts "tab", an escaped "\t", or any single character
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "tab", `\t`, "\t":
		return '\t', nil
	case "comma":
		return ',', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, errors.ConfigInvalid("delimiter must be a single character or \"tab\", got " + strconv.Quote(s))
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '\n' || r == '\r' || r == '"' {
		return 0, errors.ConfigInvalid("delimiter " + strconv.Quote(s) + " is not allowed")
	}
	return r, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
