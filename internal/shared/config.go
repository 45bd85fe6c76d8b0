package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	// RedisAddr empty means sessions and search results live in process.
	RedisAddr string
	RedisDB   int
	RedisPass string

	SessionTTL       time.Duration
	CacheTTL         time.Duration
	SessionCacheSize int
	MaxRounds        int
	PlanWorkers      int
	VendorRPS        int
	RequestTimeout   time.Duration

	GeminiKey   string
	GeminiModel string

	SerpAPIKey  string
	SerpAPIBase string

	RapidAPIKey     string
	BookingBase     string
	TripAdvisorBase string

	AirportsCSV string
	Currency    string
}

// Load reads the environment, after an optional .env in the working directory.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),

		RedisAddr: env("REDIS_ADDR", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		RedisPass: env("REDIS_PASSWORD", ""),

		SessionTTL:       seconds("SESSION_TTL_SECONDS", 3600),
		CacheTTL:         seconds("CACHE_TTL_SECONDS", 900),
		SessionCacheSize: atoi("SESSION_CACHE_SIZE", 10000),
		MaxRounds:        atoi("MAX_QUESTION_ROUNDS", 3),
		PlanWorkers:      atoi("PLAN_WORKERS", 4),
		VendorRPS:        atoi("VENDOR_RPS", 5),
		RequestTimeout:   seconds("REQUEST_TIMEOUT_SECONDS", 60),

		GeminiKey:   env("GEMINI_API_KEY", ""),
		GeminiModel: env("GEMINI_MODEL", "gemini-2.5-flash"),

		SerpAPIKey:  env("SERPAPI_KEY", ""),
		SerpAPIBase: env("SERPAPI_BASE_URL", ""),

		RapidAPIKey:     env("RAPIDAPI_KEY", ""),
		BookingBase:     env("BOOKING_BASE_URL", ""),
		TripAdvisorBase: env("TRIPADVISOR_BASE_URL", ""),

		AirportsCSV: env("AIRPORTS_CSV", ""),
		Currency:    env("CURRENCY", "GBP"),
	}
	for k, v := range map[string]string{"GEMINI_API_KEY": c.GeminiKey, "SERPAPI_KEY": c.SerpAPIKey, "RAPIDAPI_KEY": c.RapidAPIKey} {
		if v == "" {
			log.Warn().Msgf("%s is empty", k)
		}
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer; using default")
	}
	return def
}

func seconds(k string, def int) time.Duration {
	return time.Duration(atoi(k, def)) * time.Second
}
