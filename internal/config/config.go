package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"sitepay/internal/models"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func GetBoolEnv(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDecimalEnv(key string, defaultVal decimal.Decimal) (decimal.Decimal, error) {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return defaultVal, nil
	}
	d, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type GatewayConfig struct {
	BaseURL     string
	SecretKey   string
	WebhookHash string
	RedirectURL string
	Timeout     time.Duration
	// FeeCollection is models.CollectionExternal or models.CollectionSplit.
	FeeCollection string
}

type OnboardingConfig struct {
	SessionTTL     time.Duration
	RetainTerminal time.Duration
	BankListTTL    time.Duration
}

type DashboardConfig struct {
	CacheTTL    time.Duration
	RecentLimit int
}

type JobsConfig struct {
	Enabled           bool
	ExpirySchedule    string
	ReconcileSchedule string
	ReconcileBatch    int
}

// Config is built once at start-up and passed to every component. Nothing
// mutates it afterwards.
type Config struct {
	Env          string
	Port         string
	LogLevel     string
	CORSOrigins  string
	JWTSecret    string
	ServiceName  string
	OTLPEndpoint string

	Database   DatabaseConfig
	Redis      RedisConfig
	Gateway    GatewayConfig
	Fees       models.FeeSchedule
	Countries  map[string]models.Country
	Onboarding OnboardingConfig
	// IntentBucket is the window within which identical payment requests
	// resolve to the same intent.
	IntentBucket time.Duration
	Dashboard    DashboardConfig
	Jobs         JobsConfig
}

// IsProduction checks if the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Env:          GetEnv("ENV", "development"),
		Port:         GetEnv("PORT", "8080"),
		LogLevel:     GetEnv("LOG_LEVEL", "info"),
		CORSOrigins:  GetEnv("CORS_ORIGINS", "*"),
		JWTSecret:    GetEnv("JWT_SECRET", ""),
		ServiceName:  GetEnv("SERVICE_NAME", "sitepay"),
		OTLPEndpoint: GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Database: DatabaseConfig{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "sitepay"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
		},
		Gateway: GatewayConfig{
			BaseURL:       strings.TrimRight(GetEnv("GATEWAY_BASE_URL", "https://api.flutterwave.com"), "/"),
			SecretKey:     GetEnv("GATEWAY_SECRET_KEY", ""),
			WebhookHash:   GetEnv("GATEWAY_WEBHOOK_HASH", ""),
			RedirectURL:   GetEnv("GATEWAY_REDIRECT_URL", ""),
			Timeout:       GetDurationEnv("GATEWAY_TIMEOUT", 15*time.Second),
			FeeCollection: GetEnv("GATEWAY_FEE_COLLECTION", models.CollectionExternal),
		},
		Onboarding: OnboardingConfig{
			SessionTTL:     GetDurationEnv("ONBOARDING_SESSION_TTL", 24*time.Hour),
			RetainTerminal: GetDurationEnv("ONBOARDING_RETAIN_TERMINAL", 7*24*time.Hour),
			BankListTTL:    GetDurationEnv("ONBOARDING_BANK_LIST_TTL", 24*time.Hour),
		},
		IntentBucket: GetDurationEnv("LEDGER_INTENT_BUCKET", 15*time.Minute),
		Dashboard: DashboardConfig{
			CacheTTL:    GetDurationEnv("DASHBOARD_CACHE_TTL", time.Minute),
			RecentLimit: GetIntEnv("DASHBOARD_RECENT_LIMIT", 10),
		},
		Jobs: JobsConfig{
			Enabled:           GetBoolEnv("JOBS_ENABLED", true),
			ExpirySchedule:    GetEnv("JOBS_EXPIRY_SCHEDULE", "@every 5m"),
			ReconcileSchedule: GetEnv("JOBS_RECONCILE_SCHEDULE", "@every 10m"),
			ReconcileBatch:    GetIntEnv("JOBS_RECONCILE_BATCH", 200),
		},
	}

	fees, err := loadFees()
	if err != nil {
		return nil, err
	}
	cfg.Fees = fees

	cfg.Countries = loadCountries(GetEnv("SUPPORTED_COUNTRIES", "NG,GH,KE"))
	if len(cfg.Countries) == 0 {
		return nil, fmt.Errorf("SUPPORTED_COUNTRIES selects no known country")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFees() (models.FeeSchedule, error) {
	def := models.DefaultFeeSchedule()
	gateway, err := getDecimalEnv("FEE_GATEWAY_PCT", def.GatewayPct)
	if err != nil {
		return models.FeeSchedule{}, err
	}
	s := models.FeeSchedule{GatewayPct: gateway, PlatformPct: make(map[models.Tier]decimal.Decimal, len(models.Tiers))}
	for _, tier := range models.Tiers {
		key := "FEE_PLATFORM_" + strings.ToUpper(string(tier)) + "_PCT"
		pct, err := getDecimalEnv(key, def.PlatformPct[tier])
		if err != nil {
			return models.FeeSchedule{}, err
		}
		s.PlatformPct[tier] = pct
	}
	if err := s.Validate(); err != nil {
		return models.FeeSchedule{}, fmt.Errorf("fee schedule: %w", err)
	}
	return s, nil
}

func loadCountries(list string) map[string]models.Country {
	known := models.DefaultCountries()
	out := make(map[string]models.Country)
	for _, code := range strings.Split(list, ",") {
		code = strings.ToUpper(strings.TrimSpace(code))
		if c, ok := known[code]; ok {
			out[code] = c
		}
	}
	return out
}

func (c *Config) validate() error {
	switch c.Gateway.FeeCollection {
	case models.CollectionExternal, models.CollectionSplit:
	default:
		return fmt.Errorf("GATEWAY_FEE_COLLECTION must be %q or %q", models.CollectionExternal, models.CollectionSplit)
	}
	if c.IntentBucket <= 0 {
		return fmt.Errorf("LEDGER_INTENT_BUCKET must be positive")
	}
	if c.Onboarding.SessionTTL <= 0 {
		return fmt.Errorf("ONBOARDING_SESSION_TTL must be positive")
	}

	var missing []string
	for key, val := range map[string]string{
		"GATEWAY_SECRET_KEY":   c.Gateway.SecretKey,
		"GATEWAY_WEBHOOK_HASH": c.Gateway.WebhookHash,
		"JWT_SECRET":           c.JWTSecret,
	} {
		if val == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		if c.IsProduction() {
			return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
		}
		log.Printf("warning: unset settings in %s mode: %s", c.Env, strings.Join(missing, ", "))
	}
	return nil
}

// Currencies returns the set of currencies of the supported countries.
func (c *Config) Currencies() map[string]bool {
	out := make(map[string]bool, len(c.Countries))
	for _, country := range c.Countries {
		out[country.Currency] = true
	}
	return out
}
