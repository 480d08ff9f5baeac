package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/satheeshds/portal/models"
	"github.com/satheeshds/portal/validator"
	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Configuration struct {
	Server    ServerConfig
	Store     StoreConfig
	Auth      AuthConfig
	Gate      GateConfig
	Documents DocumentsConfig
	Company   models.CompanyProfile
	Billing   BillingConfig
}

type ServerConfig struct {
	Port     string `validate:"required"`
	LogLevel string `validate:"oneof=debug info warn error"`
}

type StoreConfig struct {
	Kind        string `validate:"oneof=postgres memory"`
	DatabaseURL string `validate:"required_if=Kind postgres"`
}

// AuthConfig holds the Basic Auth credentials. Both empty disables auth.
type AuthConfig struct {
	User string
	Pass string
}

type GateConfig struct {
	Timeout         time.Duration `validate:"gt=0"`
	BreakerFailures uint32        `validate:"gt=0"`
	BreakerCooldown time.Duration `validate:"gt=0"`
}

// DocumentsConfig selects S3 when Bucket is set, else the local directory.
type DocumentsConfig struct {
	Bucket string
	Prefix string
	Region string
	Dir    string
}

type BillingConfig struct {
	MutationRetries uint64 `validate:"gt=0"`
}

// Load reads .env when present, then the process environment.
func Load() (*Configuration, error) {
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env")
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE", StorePostgres)
	v.SetDefault("GATE_TIMEOUT", 2*time.Second)
	v.SetDefault("GATE_BREAKER_FAILURES", 5)
	v.SetDefault("GATE_BREAKER_COOLDOWN", 30*time.Second)
	v.SetDefault("MUTATION_RETRIES", 3)
	v.SetDefault("DOCUMENTS_DIR", "./data/documents")
	v.SetDefault("COMPANY_NAME", models.DefaultCompanyName)
	return v
}

// FromViper builds and validates a Configuration from v.
func FromViper(v *viper.Viper) (*Configuration, error) {
	cfg := &Configuration{
		Server: ServerConfig{
			Port:     v.GetString("PORT"),
			LogLevel: strings.ToLower(v.GetString("LOG_LEVEL")),
		},
		Store: StoreConfig{
			Kind:        strings.ToLower(v.GetString("STORE")),
			DatabaseURL: v.GetString("DATABASE_URL"),
		},
		Auth: AuthConfig{
			User: v.GetString("AUTH_USER"),
			Pass: v.GetString("AUTH_PASS"),
		},
		Gate: GateConfig{
			Timeout:         v.GetDuration("GATE_TIMEOUT"),
			BreakerFailures: v.GetUint32("GATE_BREAKER_FAILURES"),
			BreakerCooldown: v.GetDuration("GATE_BREAKER_COOLDOWN"),
		},
		Documents: DocumentsConfig{
			Bucket: v.GetString("DOCUMENTS_BUCKET"),
			Prefix: v.GetString("DOCUMENTS_PREFIX"),
			Region: v.GetString("AWS_REGION"),
			Dir:    v.GetString("DOCUMENTS_DIR"),
		},
		Company: models.CompanyProfile{
			CompanyName: v.GetString("COMPANY_NAME"),
			Address:     v.GetString("COMPANY_ADDRESS"),
			Email:       v.GetString("COMPANY_EMAIL"),
			Phone:       v.GetString("COMPANY_PHONE"),
		}.WithDefaults(),
		Billing: BillingConfig{
			MutationRetries: v.GetUint64("MUTATION_RETRIES"),
		},
	}
	if err := validator.ValidateRequest(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SlogLevel maps LogLevel to a slog level.
func (c ServerConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
