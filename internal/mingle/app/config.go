package app

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	StorageDriver string // memory, sqlite, postgres or redis (default: sqlite)
	DatabaseFile  string // SQLite database file (default: ./mingle.db)
	DatabaseURL   string // Postgres DSN, required for the postgres driver
	RedisURL      string // redis:// URL or host:port (default: localhost:6379)
	SnapshotKey   string // Key the app state is stored under (default: MingleAppStoreV2)
	PepperFile    string // Path to file containing pepper for password hashing (default: ./pepper)

	OTPIssuer         string        // Shown in the code email (default: Mingle)
	OTPTTL            time.Duration // Code lifetime (default: 10m)
	OTPResendCooldown time.Duration // Minimum gap between codes to one address (default: 60s)
	OTPCodeStore      string        // memory or redis (default: memory)

	MailProvider       string // ses, emailjs or noop (default: noop)
	MailFromAddress    string
	MailFromName       string // (default: Mingle)
	AWSRegion          string // (default: us-east-1)
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	EmailJSServiceID   string
	EmailJSTemplateID  string
	EmailJSPublicKey   string

	GeocoderURL          string        // Nominatim base URL
	GeocoderUserAgent    string        // Nominatim requires an identifying agent
	WeatherURL           string        // open-meteo base URL
	WeatherFallbackLat   float64       // Forecast point for events without a location (default: 34.05)
	WeatherFallbackLon   float64       // (default: -118.25)
	CollaboratorTimeout  time.Duration // Geocoding and forecast timeout (default: 5s)
	HousekeepingInterval time.Duration // Expired code sweep interval (default: 1h)

	AdminToken string // Optional: enables POST /v1/admin/reset
}

// LoadConfig reads the environment. Outside prod a .env file in the working
// directory is loaded first; variables already set take precedence.
func LoadConfig() Config {
	env := getEnvOrDefault("ENV", "dev")
	if env != "prod" {
		_ = godotenv.Load()
	}

	return Config{
		Env:                 env,
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		StorageDriver: getEnvOrDefault("STORAGE_DRIVER", "sqlite"),
		DatabaseFile:  getEnvOrDefault("DATABASE_FILE", "mingle.db"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      getEnvOrDefault("REDIS_URL", "localhost:6379"),
		SnapshotKey:   getEnvOrDefault("SNAPSHOT_KEY", "MingleAppStoreV2"),
		PepperFile:    getEnvOrDefault("PEPPER_FILE", "pepper"),

		OTPIssuer:         getEnvOrDefault("OTP_ISSUER", "Mingle"),
		OTPTTL:            getEnvDurationOrDefault("OTP_TTL", 10*time.Minute),
		OTPResendCooldown: getEnvDurationOrDefault("OTP_RESEND_COOLDOWN", time.Minute),
		OTPCodeStore:      getEnvOrDefault("OTP_CODE_STORE", "memory"),

		MailProvider:       getEnvOrDefault("MAIL_PROVIDER", "noop"),
		MailFromAddress:    os.Getenv("MAIL_FROM_ADDRESS"),
		MailFromName:       getEnvOrDefault("MAIL_FROM_NAME", "Mingle"),
		AWSRegion:          getEnvOrDefault("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		EmailJSServiceID:   os.Getenv("EMAILJS_SERVICE_ID"),
		EmailJSTemplateID:  os.Getenv("EMAILJS_TEMPLATE_ID"),
		EmailJSPublicKey:   os.Getenv("EMAILJS_PUBLIC_KEY"),

		GeocoderURL:          os.Getenv("GEOCODER_URL"),
		GeocoderUserAgent:    getEnvOrDefault("GEOCODER_USER_AGENT", "mingle/"+BuildVersion),
		WeatherURL:           os.Getenv("WEATHER_URL"),
		WeatherFallbackLat:   getEnvFloatOrDefault("WEATHER_FALLBACK_LAT", 34.05),
		WeatherFallbackLon:   getEnvFloatOrDefault("WEATHER_FALLBACK_LON", -118.25),
		CollaboratorTimeout:  getEnvDurationOrDefault("COLLABORATOR_TIMEOUT", 5*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Hour),

		AdminToken: os.Getenv("ADMIN_TOKEN"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
