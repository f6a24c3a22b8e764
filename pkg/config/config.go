package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	JWTSecret         string
	JWTExpiryDuration time.Duration

	// CEISA exchange channel
	CeisaBaseURL   string
	CeisaAPIKey    string
	CeisaTimeout   time.Duration
	SimulationMode bool

	// Outgoing queue
	MaxRetries             int
	RetrySchedulerInterval time.Duration

	// Archive retention
	ArchiveRetentionDays int

	// Rate limiting, in ulule/limiter format (e.g. "100-M").
	RateLimit string

	// Subjects permitted to use the administrative unlock.
	AdminUserIDs []string

	PosthogAPIKey string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("CEISA_BASE_URL", "https://apis-gw.beacukai.go.id")
	viper.SetDefault("CEISA_API_KEY", "")
	viper.SetDefault("CEISA_TIMEOUT", "30s")
	viper.SetDefault("SIMULATION_MODE", true)
	viper.SetDefault("MAX_RETRIES", 3)
	viper.SetDefault("RETRY_SCHEDULER_INTERVAL", "1m")
	viper.SetDefault("ARCHIVE_RETENTION_DAYS", 3650)
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("ADMIN_USER_IDS", "")
	viper.SetDefault("POSTHOG_API_KEY", "")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" && cfg.IsProduction {
		log.Println("Warning: JWT_SECRET is the insecure default in a production environment.")
	}

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiry, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiry = time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiry)
	}
	cfg.JWTExpiryDuration = jwtExpiry

	cfg.CeisaBaseURL = viper.GetString("CEISA_BASE_URL")
	cfg.CeisaAPIKey = viper.GetString("CEISA_API_KEY")

	timeoutStr := viper.GetString("CEISA_TIMEOUT")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 30 * time.Second
		log.Printf("Warning: Invalid value for CEISA_TIMEOUT ('%s'). Defaulting to %s.\n", timeoutStr, timeout)
	}
	cfg.CeisaTimeout = timeout

	cfg.SimulationMode = viper.GetBool("SIMULATION_MODE")
	if !cfg.SimulationMode && cfg.CeisaAPIKey == "" {
		log.Println("Warning: CEISA_API_KEY not set; real channel submissions will be rejected.")
	}

	cfg.MaxRetries = viper.GetInt("MAX_RETRIES")

	intervalStr := viper.GetString("RETRY_SCHEDULER_INTERVAL")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		interval = time.Minute
		log.Printf("Warning: Invalid value for RETRY_SCHEDULER_INTERVAL ('%s'). Defaulting to %s.\n", intervalStr, interval)
	}
	cfg.RetrySchedulerInterval = interval

	cfg.ArchiveRetentionDays = viper.GetInt("ARCHIVE_RETENTION_DAYS")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	for _, id := range strings.Split(viper.GetString("ADMIN_USER_IDS"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			cfg.AdminUserIDs = append(cfg.AdminUserIDs, id)
		}
	}
	if len(cfg.AdminUserIDs) == 0 {
		log.Println("Warning: ADMIN_USER_IDS not set; the administrative unlock is unavailable.")
	}

	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")

	return cfg, nil
}
