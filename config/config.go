package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingAPIKey           = errors.New("SERPAPI_KEY is required")
	ErrMissingEmailCredentials = errors.New("EMAIL_USER, EMAIL_PASS and EMAIL_TO are required when email is enabled")
)

// Config holds all application configuration
type Config struct {
	Environment   string        `yaml:"environment"`
	LoggingConfig LoggingConfig `yaml:"logging"`
	SearchConfig  SearchConfig  `yaml:"search"`
	SerpAPIConfig SerpAPIConfig `yaml:"serpapi"`
	ReportConfig  ReportConfig  `yaml:"report"`
	EmailConfig   EmailConfig   `yaml:"email"`
	NTFYConfig    NTFYConfig    `yaml:"ntfy"`
	RedisConfig   RedisConfig   `yaml:"redis"`
	CacheConfig   CacheConfig   `yaml:"cache"`
	HistoryConfig HistoryConfig `yaml:"history"`
	MonitorConfig MonitorConfig `yaml:"monitor"`
	DealConfig    DealConfig    `yaml:"deals"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=json text console"`
}

// Destination is one arrival city and the airport codes searched for it
type Destination struct {
	City  string   `yaml:"city" validate:"required"`
	Codes []string `yaml:"codes" validate:"min=1,dive,len=3"`
}

// CodesParam joins the airport codes the way the search API expects them
func (d Destination) CodesParam() string {
	return strings.Join(d.Codes, ",")
}

// SearchConfig describes the route and travel window being monitored
type SearchConfig struct {
	DepartureCity    string        `yaml:"departure_city"`
	DepartureCode    string        `yaml:"departure_code" validate:"required,len=3"`
	Destinations     []Destination `yaml:"destinations" validate:"min=1,dive"`
	Year             int           `yaml:"year" validate:"min=2000,max=2100"`
	StartMonth       int           `yaml:"start_month" validate:"min=1,max=12"`
	EndMonth         int           `yaml:"end_month" validate:"min=1,max=12"`
	DepartureDays    []int         `yaml:"departure_days" validate:"min=1,dive,min=0,max=6"`
	TripDurationDays int           `yaml:"trip_duration_days" validate:"min=1,max=30"`
	Currency         string        `yaml:"currency" validate:"len=3"`
	Language         string        `yaml:"language" validate:"required"`
	Adults           int           `yaml:"adults" validate:"min=1,max=9"`
	SamplingStrategy string        `yaml:"sampling_strategy" validate:"oneof=conservative weekly comprehensive complete"`
	MaxDates         int           `yaml:"max_dates" validate:"min=0"` // overrides the strategy when > 0
	ConfirmThreshold int           `yaml:"confirm_threshold" validate:"min=0"`
	MonthlyQuota     int           `yaml:"monthly_quota" validate:"min=1"`
}

// SerpAPIConfig holds the search API client configuration
type SerpAPIConfig struct {
	APIKey     string        `yaml:"-"`
	BaseURL    string        `yaml:"base_url" validate:"required,url"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxRetries int           `yaml:"max_retries" validate:"min=0,max=5"`
	DeepSearch bool          `yaml:"deep_search"`
}

// ReportConfig controls report rendering and persistence
type ReportConfig struct {
	OutputDir  string `yaml:"output_dir"`
	FilePrefix string `yaml:"file_prefix"`
	TopN       int    `yaml:"top_n" validate:"min=1"`
	SaveJSON   bool   `yaml:"save_json"`
}

// EmailConfig holds SMTP configuration for the e-mailed report
type EmailConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"-"`
	To       []string `yaml:"to"`
}

// NTFYConfig holds NTFY push notification configuration
type NTFYConfig struct {
	ServerURL string `yaml:"server_url"`
	Topic     string `yaml:"topic"`
	Username  string `yaml:"username"`
	Password  string `yaml:"-"`
	Enabled   bool   `yaml:"enabled"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"-"`
	DB       int    `yaml:"db"`
}

// CacheConfig controls caching of raw search responses
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	Prefix  string        `yaml:"prefix"`
}

// HistoryConfig controls the optional price history store
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Driver  string `yaml:"driver" validate:"oneof=sqlite postgres"`
	DSN     string `yaml:"dsn"`
}

// MonitorConfig controls the scheduled monitor mode
type MonitorConfig struct {
	Cron         string   `yaml:"cron" validate:"required"`
	Port         string   `yaml:"port"`
	StatusServer bool     `yaml:"status_server"`
	StatusToken  string   `yaml:"-"` // bearer token for the status server's /api routes
	CORSOrigins  []string `yaml:"cors_origins"`
}

// DealConfig holds deal classification thresholds
type DealConfig struct {
	GoodDealThreshold    float64 `yaml:"good_deal_threshold"`
	GreatDealThreshold   float64 `yaml:"great_deal_threshold"`
	AmazingDealThreshold float64 `yaml:"amazing_deal_threshold"`
	ErrorFareThreshold   float64 `yaml:"error_fare_threshold"`
	BaselineMinSamples   int     `yaml:"baseline_min_samples"`
	BaselineWindowDays   int     `yaml:"baseline_window_days"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env and the monitor's config.env if they exist
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")

	loggingConfig := LoggingConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "text"),
	}

	departureCity := getEnv("DEPARTURE_CITY", "Tel Aviv")
	destinations := []Destination{{
		City:  getEnv("ARRIVAL_CITY", "Paris"),
		Codes: splitCodes(getEnv("ARRIVAL_CODES", "CDG,ORY")),
	}}
	extra, err := ParseDestinations(getEnv("ADDITIONAL_DESTINATIONS", ""))
	if err != nil {
		return nil, err
	}
	destinations = append(destinations, extra...)

	departureDays, err := parseInts(getEnv("DEPARTURE_DAYS", "2,3"))
	if err != nil {
		return nil, fmt.Errorf("DEPARTURE_DAYS: %w", err)
	}

	searchConfig := SearchConfig{
		DepartureCity:    departureCity,
		DepartureCode:    strings.ToUpper(getEnv("DEPARTURE_CODE", "TLV")),
		Destinations:     destinations,
		Year:             getEnvInt("TRAVEL_YEAR", time.Now().Year()),
		StartMonth:       getEnvInt("START_MONTH", 4),
		EndMonth:         getEnvInt("END_MONTH", 6),
		DepartureDays:    departureDays,
		TripDurationDays: getEnvInt("TRIP_DURATION_DAYS", 4),
		Currency:         strings.ToUpper(getEnv("CURRENCY", "USD")),
		Language:         getEnv("LANGUAGE", "en"),
		Adults:           getEnvInt("ADULTS", 1),
		SamplingStrategy: strings.ToLower(getEnv("SAMPLING_STRATEGY", "weekly")),
		MaxDates:         getEnvInt("MAX_DATES", 0),
		ConfirmThreshold: getEnvInt("CONFIRM_THRESHOLD", 50),
		MonthlyQuota:     getEnvInt("MONTHLY_QUOTA", 250),
	}

	serpAPIConfig := SerpAPIConfig{
		APIKey:     getEnv("SERPAPI_KEY", ""),
		BaseURL:    getEnv("SERPAPI_BASE_URL", "https://serpapi.com/search"),
		Timeout:    getEnvDuration("SEARCH_TIMEOUT", 30*time.Second),
		MaxRetries: getEnvInt("SEARCH_MAX_RETRIES", 0),
		DeepSearch: getEnvBool("SERPAPI_DEEP_SEARCH", false),
	}

	reportConfig := ReportConfig{
		OutputDir:  getEnv("OUTPUT_DIR", "."),
		FilePrefix: getEnv("REPORT_FILE_PREFIX", "flight_monitor"),
		TopN:       getEnvInt("TOP_N", 5),
		SaveJSON:   getEnvBool("SAVE_JSON", true),
	}

	emailConfig := EmailConfig{
		Enabled:  getEnvBool("EMAIL_ENABLED", false),
		Host:     getEnv("EMAIL_HOST", "smtp.gmail.com"),
		Port:     getEnvInt("EMAIL_PORT", 465),
		Username: getEnv("EMAIL_USER", ""),
		Password: getEnv("EMAIL_PASS", ""),
		To:       splitList(getEnv("EMAIL_TO", "")),
	}

	ntfyConfig := NTFYConfig{
		ServerURL: getEnv("NTFY_SERVER_URL", "https://ntfy.sh"),
		Topic:     getEnv("NTFY_TOPIC", ""),
		Username:  getEnv("NTFY_USERNAME", ""),
		Password:  getEnv("NTFY_PASSWORD", ""),
		Enabled:   getEnvBool("NTFY_ENABLED", false),
	}

	redisConfig := RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	cacheConfig := CacheConfig{
		Enabled: getEnvBool("CACHE_ENABLED", false),
		TTL:     getEnvDuration("CACHE_TTL", 6*time.Hour),
		Prefix:  getEnv("CACHE_PREFIX", "monitor-flights"),
	}

	historyConfig := HistoryConfig{
		Enabled: getEnvBool("HISTORY_ENABLED", false),
		Driver:  getEnv("HISTORY_DRIVER", "sqlite"),
		DSN:     getEnv("HISTORY_DSN", "flight_history.db"),
	}

	monitorConfig := MonitorConfig{
		Cron:         getEnv("MONITOR_CRON", "0 9 */4 * *"),
		Port:         getEnv("PORT", "8080"),
		StatusServer: getEnvBool("STATUS_SERVER_ENABLED", true),
		StatusToken:  getEnv("STATUS_TOKEN", ""),
		CORSOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}

	dealConfig := DealConfig{
		GoodDealThreshold:    getEnvFloat("DEAL_GOOD_THRESHOLD", 0.20),
		GreatDealThreshold:   getEnvFloat("DEAL_GREAT_THRESHOLD", 0.35),
		AmazingDealThreshold: getEnvFloat("DEAL_AMAZING_THRESHOLD", 0.50),
		ErrorFareThreshold:   getEnvFloat("DEAL_ERROR_FARE_THRESHOLD", 0.70),
		BaselineMinSamples:   getEnvInt("DEAL_BASELINE_MIN_SAMPLES", 10),
		BaselineWindowDays:   getEnvInt("DEAL_BASELINE_WINDOW_DAYS", 90),
	}

	return &Config{
		Environment:   getEnv("ENVIRONMENT", "development"),
		LoggingConfig: loggingConfig,
		SearchConfig:  searchConfig,
		SerpAPIConfig: serpAPIConfig,
		ReportConfig:  reportConfig,
		EmailConfig:   emailConfig,
		NTFYConfig:    ntfyConfig,
		RedisConfig:   redisConfig,
		CacheConfig:   cacheConfig,
		HistoryConfig: historyConfig,
		MonitorConfig: monitorConfig,
		DealConfig:    dealConfig,
	}, nil
}

// TestConfig returns a fully populated configuration that ignores the environment
func TestConfig() *Config {
	return &Config{
		Environment:   "test",
		LoggingConfig: LoggingConfig{Level: "error", Format: "text"},
		SearchConfig: SearchConfig{
			DepartureCity:    "Tel Aviv",
			DepartureCode:    "TLV",
			Destinations:     []Destination{{City: "Paris", Codes: []string{"CDG", "ORY"}}},
			Year:             2026,
			StartMonth:       4,
			EndMonth:         6,
			DepartureDays:    []int{2, 3},
			TripDurationDays: 4,
			Currency:         "USD",
			Language:         "en",
			Adults:           1,
			SamplingStrategy: "weekly",
			ConfirmThreshold: 50,
			MonthlyQuota:     250,
		},
		SerpAPIConfig: SerpAPIConfig{
			APIKey:  "test-key",
			BaseURL: "http://localhost/search",
			Timeout: 5 * time.Second,
		},
		ReportConfig:  ReportConfig{OutputDir: ".", FilePrefix: "flight_monitor", TopN: 5},
		HistoryConfig: HistoryConfig{Driver: "sqlite", DSN: ":memory:"},
		MonitorConfig: MonitorConfig{Cron: "0 9 */4 * *", Port: "8080"},
		CacheConfig:   CacheConfig{TTL: time.Hour, Prefix: "test"},
		DealConfig: DealConfig{
			GoodDealThreshold:    0.20,
			GreatDealThreshold:   0.35,
			AmazingDealThreshold: 0.50,
			ErrorFareThreshold:   0.70,
			BaselineMinSamples:   3,
			BaselineWindowDays:   90,
		},
	}
}

// LoadFile loads the environment configuration and overlays a YAML file on top of it.
// Secrets are never read from the file; they always come from the environment.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.SearchConfig.DepartureCode = strings.ToUpper(cfg.SearchConfig.DepartureCode)
	cfg.SearchConfig.Currency = strings.ToUpper(cfg.SearchConfig.Currency)
	return cfg, nil
}

var validate = validator.New()

// Validate checks field ranges and cross-field rules. It does not check credentials.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	s := c.SearchConfig
	if s.StartMonth > s.EndMonth {
		return fmt.Errorf("validate config: start month %d is after end month %d", s.StartMonth, s.EndMonth)
	}
	if _, err := currency.ParseISO(s.Currency); err != nil {
		return fmt.Errorf("validate config: currency %q: %w", s.Currency, err)
	}
	if _, err := language.Parse(s.Language); err != nil {
		return fmt.Errorf("validate config: language %q: %w", s.Language, err)
	}
	return nil
}

// RequireCredentials fails when credentials needed by the enabled features are missing.
func (c *Config) RequireCredentials() error {
	if strings.TrimSpace(c.SerpAPIConfig.APIKey) == "" {
		return ErrMissingAPIKey
	}
	e := c.EmailConfig
	if e.Enabled && (e.Username == "" || e.Password == "" || len(e.To) == 0) {
		return ErrMissingEmailCredentials
	}
	return nil
}

// ParseDestinations parses "City:AAA,BBB;City2:CCC" into destinations
func ParseDestinations(raw string) ([]Destination, error) {
	var out []Destination
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		city, codes, ok := strings.Cut(part, ":")
		if !ok || strings.TrimSpace(city) == "" {
			return nil, fmt.Errorf("invalid destination %q (expected City:AAA,BBB)", part)
		}
		list := splitCodes(codes)
		if len(list) == 0 {
			return nil, fmt.Errorf("destination %q has no airport codes", city)
		}
		out = append(out, Destination{City: strings.TrimSpace(city), Codes: list})
	}
	return out, nil
}

func splitCodes(raw string) []string {
	codes := []string{}
	for _, code := range strings.Split(raw, ",") {
		code = strings.TrimSpace(strings.ToUpper(code))
		if code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

func splitList(raw string) []string {
	out := []string{}
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseInts(raw string) ([]int, error) {
	out := []int{}
	for _, v := range splitList(raw) {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", v)
		}
		out = append(out, n)
	}
	return out, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if len(strings.TrimSpace(value)) == 0 {
		return defaultValue
	}
	return strings.TrimSpace(value)
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return d
}
