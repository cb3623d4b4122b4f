package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`

	// Duplicate detection tuning.
	NameSimilarityThreshold float64 `mapstructure:"NAME_SIMILARITY_THRESHOLD"`
	ReportDateWindowDays    int     `mapstructure:"REPORT_DATE_WINDOW_DAYS"`

	// Engine feature switches.
	AutomaticClassification bool `mapstructure:"FEATURE_AUTOMATIC_CLASSIFICATION"`
	TaskGeneration          bool `mapstructure:"FEATURE_TASK_GENERATION"`
	ReferenceDefinition     bool `mapstructure:"FEATURE_REFERENCE_DEFINITION"`

	// Follow-up fallback when no disease-specific duration is configured.
	DefaultFollowUpDays int `mapstructure:"DEFAULT_FOLLOW_UP_DAYS"`

	// Deferred case-share synchronization.
	ShareSyncEnabled      bool `mapstructure:"SHARE_SYNC_ENABLED"`
	ShareSyncDelaySeconds int  `mapstructure:"SHARE_SYNC_DELAY_SECONDS"`
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
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("NAME_SIMILARITY_THRESHOLD", 0.65)
	v.SetDefault("REPORT_DATE_WINDOW_DAYS", 30)
	v.SetDefault("FEATURE_AUTOMATIC_CLASSIFICATION", true)
	v.SetDefault("FEATURE_TASK_GENERATION", true)
	v.SetDefault("FEATURE_REFERENCE_DEFINITION", false)
	v.SetDefault("DEFAULT_FOLLOW_UP_DAYS", 21)
	v.SetDefault("SHARE_SYNC_ENABLED", true)
	v.SetDefault("SHARE_SYNC_DELAY_SECONDS", 5)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("NAME_SIMILARITY_THRESHOLD")
	v.BindEnv("REPORT_DATE_WINDOW_DAYS")
	v.BindEnv("FEATURE_AUTOMATIC_CLASSIFICATION")
	v.BindEnv("FEATURE_TASK_GENERATION")
	v.BindEnv("FEATURE_REFERENCE_DEFINITION")
	v.BindEnv("DEFAULT_FOLLOW_UP_DAYS")
	v.BindEnv("SHARE_SYNC_ENABLED")
	v.BindEnv("SHARE_SYNC_DELAY_SECONDS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.NameSimilarityThreshold <= 0 || cfg.NameSimilarityThreshold > 1 {
		return nil, fmt.Errorf("NAME_SIMILARITY_THRESHOLD must be in (0, 1], got %v", cfg.NameSimilarityThreshold)
	}
	if cfg.ReportDateWindowDays <= 0 {
		return nil, fmt.Errorf("REPORT_DATE_WINDOW_DAYS must be positive, got %d", cfg.ReportDateWindowDays)
	}

	return &cfg, nil
}

// CORSOriginList splits the comma-separated CORS_ORIGINS value.
func (c *Config) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
