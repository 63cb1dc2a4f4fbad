package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	Port           string        `mapstructure:"PORT"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	AdminKey       string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed    string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`

	CampaignID         string `mapstructure:"CAMPAIGN_ID"`
	AnalysisWindowDays int    `mapstructure:"ANALYSIS_WINDOW_DAYS"`

	CycleDurationDays int `mapstructure:"CYCLE_DURATION_DAYS"`
	BuildPhaseDays    int `mapstructure:"BUILD_PHASE_DAYS"`
	MeasurePhaseDays  int `mapstructure:"MEASURE_PHASE_DAYS"`
	AnalyzePhaseDays  int `mapstructure:"ANALYZE_PHASE_DAYS"`
	DecidePhaseDays   int `mapstructure:"DECIDE_PHASE_DAYS"`

	ConnectorTimeout time.Duration `mapstructure:"CONNECTOR_TIMEOUT"`
	AnalyticsURL     string        `mapstructure:"ANALYTICS_URL"`
	EmailPlatformURL string        `mapstructure:"EMAIL_PLATFORM_URL"`
	CRMURL           string        `mapstructure:"CRM_URL"`

	NotifyWebhookURL string `mapstructure:"NOTIFY_WEBHOOK_URL"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("CAMPAIGN_ID", "benefits_made_simple")
	v.SetDefault("ANALYSIS_WINDOW_DAYS", 30)

	v.SetDefault("CYCLE_DURATION_DAYS", 28)
	v.SetDefault("BUILD_PHASE_DAYS", 7)
	v.SetDefault("MEASURE_PHASE_DAYS", 14)
	v.SetDefault("ANALYZE_PHASE_DAYS", 5)
	v.SetDefault("DECIDE_PHASE_DAYS", 2)

	v.SetDefault("CONNECTOR_TIMEOUT", "15s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
