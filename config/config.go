package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Port           string
	DBPath         string
	JournalEnabled bool
	LogMode        string

	RecommendationTimeout time.Duration
	StaleAfter            time.Duration
	LowMoistureThreshold  float64
	PestRiskThreshold     float64

	CropRulesCSV  string
	CropRulesXLSX string

	YieldModelEndpoint string
	YieldModelKey      string

	RedisAddr    string
	RedisChannel string

	WeatherBulletinURL string
}

// Load reads .env (when present) and the process environment. A missing
// .env is normal outside development, so that error is returned to the
// caller only as a note; the config is always usable.
func Load() (AppConfig, error) {
	envErr := godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_PATH", "advisor.db")
	v.SetDefault("JOURNAL_ENABLED", true)
	v.SetDefault("LOG_MODE", "dev")
	v.SetDefault("RECOMMENDATION_TIMEOUT", "10s")
	v.SetDefault("STALE_AFTER", "168h")
	v.SetDefault("LOW_MOISTURE_THRESHOLD", 35.0)
	v.SetDefault("PEST_RISK_THRESHOLD", 0.3)
	v.SetDefault("CROP_RULES_CSV", "")
	v.SetDefault("CROP_RULES_XLSX", "")
	v.SetDefault("YIELD_MODEL_ENDPOINT", "")
	v.SetDefault("YIELD_MODEL_KEY", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_CHANNEL", "advisor-events")
	v.SetDefault("WEATHER_BULLETIN_URL", "")

	cfg := AppConfig{
		Port:                  v.GetString("PORT"),
		DBPath:                v.GetString("DB_PATH"),
		JournalEnabled:        v.GetBool("JOURNAL_ENABLED"),
		LogMode:               v.GetString("LOG_MODE"),
		RecommendationTimeout: v.GetDuration("RECOMMENDATION_TIMEOUT"),
		StaleAfter:            v.GetDuration("STALE_AFTER"),
		LowMoistureThreshold:  v.GetFloat64("LOW_MOISTURE_THRESHOLD"),
		PestRiskThreshold:     v.GetFloat64("PEST_RISK_THRESHOLD"),
		CropRulesCSV:          v.GetString("CROP_RULES_CSV"),
		CropRulesXLSX:         v.GetString("CROP_RULES_XLSX"),
		YieldModelEndpoint:    v.GetString("YIELD_MODEL_ENDPOINT"),
		YieldModelKey:         v.GetString("YIELD_MODEL_KEY"),
		RedisAddr:             v.GetString("REDIS_ADDR"),
		RedisChannel:          v.GetString("REDIS_CHANNEL"),
		WeatherBulletinURL:    v.GetString("WEATHER_BULLETIN_URL"),
	}
	if cfg.RecommendationTimeout <= 0 {
		cfg.RecommendationTimeout = 10 * time.Second
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 7 * 24 * time.Hour
	}
	return cfg, envErr
}
