package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port      string `validate:"required,numeric"`
	APIPrefix string `validate:"required,startswith=/"`

	// Database configuration
	DBType            string `validate:"oneof=mysql mariadb postgres postgresql sqlite sqlite-purego sqlserver mssql"`
	DBHost            string
	DBPort            string
	DBDatabase        string `validate:"required"`
	DBUser            string
	DBPassword        string
	DBConnectionLimit int `validate:"min=1"`

	// Authorizer configuration, optional
	AuthzURL      string `validate:"omitempty,url"`
	AuthzClientID string `validate:"required_with=AuthzURL"`

	// Data model options
	IncludeModelInternalFunctions bool
	CommitOnMethodReturn          bool
	SerializeNaively              bool
	ExposeProperty                bool
	RaiseLoadErrors               bool
	PayloadFormat                 string `validate:"oneof=msgpack json"`
}

var validate = validator.New()

// Load loads configuration from environment variables. A .env file, or the
// file named by ENV_FILE, is read first when present.
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:                          getEnv("PORT", "3000"),
		APIPrefix:                     getEnv("API_PREFIX", "/api"),
		DBType:                        strings.ToLower(getEnv("DB_TYPE", "mysql")),
		DBHost:                        getEnv("DB_HOST", "localhost"),
		DBPort:                        getEnv("DB_PORT", "3306"),
		DBDatabase:                    getEnv("DB_DATABASE", ""),
		DBUser:                        getEnv("DB_USER", ""),
		DBPassword:                    getEnv("DB_PASSWORD", ""),
		DBConnectionLimit:             getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		AuthzURL:                      getEnv("AUTHZ_URL", ""),
		AuthzClientID:                 getEnv("AUTHZ_CLIENT_ID", ""),
		IncludeModelInternalFunctions: getEnvAsBool("INCLUDE_MODEL_INTERNAL_FUNCTIONS", false),
		CommitOnMethodReturn:          getEnvAsBool("COMMIT_ON_METHOD_RETURN", false),
		SerializeNaively:              getEnvAsBool("SERIALIZE_NAIVELY", false),
		ExposeProperty:                getEnvAsBool("EXPOSE_PROPERTY", true),
		RaiseLoadErrors:               getEnvAsBool("RAISE_LOAD_ERRORS", true),
		PayloadFormat:                 strings.ToLower(getEnv("PAYLOAD_FORMAT", "msgpack")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration, naming the first offending field
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid configuration: %s failed %q", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.DBType != "sqlite" && c.DBType != "sqlite-purego" && c.DBUser == "" {
		return fmt.Errorf("DB_USER is required for %s", c.DBType)
	}
	return nil
}

func loadEnvFile() error {
	file := getEnv("ENV_FILE", ".env")
	if _, err := os.Stat(file); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	// existing environment wins over the file
	if err := godotenv.Load(file); err != nil {
		return fmt.Errorf("failed to load %s: %w", file, err)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
