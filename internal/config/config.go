package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	GeminiAPIKey   string   `mapstructure:"GEMINI_API_KEY"`
	GeminiModel    string   `mapstructure:"GEMINI_MODEL"`
	GeminiBaseURL  string   `mapstructure:"GEMINI_BASE_URL"`
	ArmorIQAPIKey  string   `mapstructure:"ARMORIQ_API_KEY"`
	ArmorIQBaseURL string   `mapstructure:"ARMORIQ_BASE_URL"`
	ArmorIQUserID  string   `mapstructure:"ARMORIQ_USER_ID"`
	ArmorIQAgentID string   `mapstructure:"ARMORIQ_AGENT_ID"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("ARMORIQ_BASE_URL", "https://api.armoriq.ai")
	v.SetDefault("ARMORIQ_USER_ID", "doctor_admin")
	v.SetDefault("ARMORIQ_AGENT_ID", "agent_prescription_gen")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("GEMINI_API_KEY")
	v.BindEnv("GEMINI_MODEL")
	v.BindEnv("GEMINI_BASE_URL")
	v.BindEnv("ARMORIQ_API_KEY")
	v.BindEnv("ARMORIQ_BASE_URL")
	v.BindEnv("ARMORIQ_USER_ID")
	v.BindEnv("ARMORIQ_AGENT_ID")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	// The record store is the one dependency the server cannot run without.
	// A missing model key only fails /generate-prescription, lazily.
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// AuditEnabled reports whether the ArmorIQ plan-audit path is configured.
// When false the prescription flow still runs and responses carry
// security_verified=false.
func (c *Config) AuditEnabled() bool {
	return c.ArmorIQAPIKey != ""
}
