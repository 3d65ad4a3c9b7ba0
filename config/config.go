package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"yard-sniper/models"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int

	YardsPath   string
	Queries     []string
	HistoryPath string
	LogLevel    string

	LKQBaseURL       string
	LKQFollowDetails bool
	PickAndPayURL    string
	BudgetBaseURL    string
	BudgetS3URL      string
	SourceTimeout    time.Duration
	BudgetRender     bool
	BrowserWait      time.Duration
	ChromeBin        string
	MinLineTokens    int
	VINSnippetRadius int
	PickAndPayNarrow bool
	BudgetNarrow     bool

	VINDecodeURL string
	VINTimeout   time.Duration

	CompsEnabled   bool
	EbayURL        string
	EbayTimeout    time.Duration
	SerpAPIURL     string
	SerpAPIKey     string
	SerpAPITimeout time.Duration
	MaxSamples     int
	FailThreshold  int
	CacheBackend   string
	CachePath      string
	CacheTTL       time.Duration
	AnalyzeLimit   int
	PartType       string
	CradlePos      string
	FeaturesPath   string
	Cost           float64
	Ship           float64
	BuyerPaysShip  bool

	DriveFilter  string
	EngineFilter string
	MaxAgeDays   int
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "sniper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "sniper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "yard_sniper"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 250),
		MaxRetries:     getEnvInt("MAX_RETRIES", 5),

		YardsPath:   getEnv("YARDS_CONFIG", "yards_config.json"),
		Queries:     getEnvList("SCAN_QUERIES", ";"),
		HistoryPath: getEnv("SCAN_HISTORY_PATH", "scan_history.csv"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		LKQBaseURL:       getEnv("LKQ_BASE_URL", "https://www.pyp.com"),
		LKQFollowDetails: getEnvBool("LKQ_FOLLOW_DETAILS", false),
		PickAndPayURL:    getEnv("PICKANDPAY_URL", "https://centralfloridapickandpay.com/vehicle-inventory/"),
		BudgetBaseURL:    getEnv("BUDGET_BASE_URL", "https://budgetupullit.com"),
		BudgetS3URL:      getEnv("BUDGET_S3_URL", "http://budgetupullit.s3softwaresolutions.com/inventory.aspx"),
		SourceTimeout:    getEnvDuration("SOURCE_TIMEOUT", 20*time.Second),
		BudgetRender:     getEnvBool("BUDGET_RENDER", false),
		BrowserWait:      getEnvDuration("BROWSER_WAIT", 2500*time.Millisecond),
		ChromeBin:        getEnv("CHROME_BIN", ""),
		MinLineTokens:    getEnvInt("MIN_LINE_TOKENS", 8),
		VINSnippetRadius: getEnvInt("VIN_SNIPPET_RADIUS", 120),
		PickAndPayNarrow: getEnvBool("PICKANDPAY_NARROW", true),
		BudgetNarrow:     getEnvBool("BUDGET_NARROW", false),

		VINDecodeURL: getEnv("VIN_DECODE_URL", "https://vpic.nhtsa.dot.gov/api/vehicles"),
		VINTimeout:   getEnvDuration("VIN_TIMEOUT", 10*time.Second),

		CompsEnabled:   getEnvBool("COMPS_ENABLED", false),
		EbayURL:        getEnv("EBAY_URL", "https://www.ebay.com"),
		EbayTimeout:    getEnvDuration("EBAY_TIMEOUT", 10*time.Second),
		SerpAPIURL:     getEnv("SERPAPI_URL", "https://serpapi.com/search.json"),
		SerpAPIKey:     getEnv("SERPAPI_KEY", ""),
		SerpAPITimeout: getEnvDuration("SERPAPI_TIMEOUT", 15*time.Second),
		MaxSamples:     getEnvInt("MAX_SAMPLES", 20),
		FailThreshold:  getEnvInt("EBAY_FAIL_THRESHOLD", 2),
		CacheBackend:   getEnv("COMP_CACHE_BACKEND", "file"),
		CachePath:      getEnv("COMP_CACHE_PATH", "ebay_cache.json"),
		CacheTTL:       getEnvDuration("COMP_CACHE_TTL", 24*time.Hour),
		AnalyzeLimit:   getEnvInt("ANALYZE_LIMIT", 10),
		PartType:       getEnv("PART_TYPE", "Cradle"),
		CradlePos:      getEnv("CRADLE_POSITION", ""),
		FeaturesPath:   getEnv("PLATFORM_FEATURES", "platform_feature_modules.json"),
		Cost:           getEnvFloat("PART_COST", 0),
		Ship:           getEnvFloat("SHIP_ESTIMATE", 0),
		BuyerPaysShip:  getEnvBool("BUYER_PAYS_SHIPPING", true),

		DriveFilter:  getEnv("DRIVE_FILTER", ""),
		EngineFilter: getEnv("ENGINE_FILTER", ""),
		MaxAgeDays:   getEnvInt("MAX_AGE_DAYS", 0),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

type yardsFile struct {
	Yards []models.Yard `json:"yards"`
}

// LoadYards reads the yard list from a JSON file of the form
// {"yards": [{"name": ..., "slug": ..., "enabled": ...}]}.
func LoadYards(path string) ([]models.Yard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read yards %q: %w", path, err)
	}
	var f yardsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse yards %q: %w", path, err)
	}
	return f.Yards, nil
}

// LoadPlatformFeatures reads option modules per model from a JSON object of
// the form {"RANGE ROVER": ["adaptive cruise control module", ...]}. Keys are
// uppercased. A missing file returns a nil map and no error.
func LoadPlatformFeatures(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read features %q: %w", path, err)
	}
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parse features %q: %w", path, err)
	}
	out := make(map[string][]string, len(raw))
	for model, feats := range raw {
		out[strings.ToUpper(strings.TrimSpace(model))] = feats
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, sep string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
