package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	defaultDBName              = "countries"
	defaultCountriesCollection = "countries"
	defaultMigrationsHistory   = "migrations_history"
	defaultRestCountriesURL    = "https://restcountries.com/v2/all?fields=name,capital,region,population,flag,currencies"
	defaultExchangeRateURL     = "https://open.er-api.com/v6/latest/USD"
	defaultSummaryImagePath    = "cache/summary.png"
	defaultHTTPPort            = 8080
	defaultWorkerCount         = 2
)

// Config holds the application configuration
type Config struct {
	MongoURI                    string
	MongoAuthDB                 string
	DBName                      string
	CollectionCountries         string
	CollectionMigrationsHistory string
	RestCountriesAPIBaseURL     string
	ExchangeRateAPIBaseURL      string
	SummaryImagePath            string
	HTTPPort                    int
	RefreshIntervalMinutes      int
	RefreshOnStartup            bool
	WorkerCount                 int
}

// Load reads the .env file and loads the configuration
func Load() *Config {
	// Ignore err if .env file is not found in deployment
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	return &Config{
		MongoURI:                    getMongoURI(),
		MongoAuthDB:                 getEnv("MONGO_AUTH_DB", "admin"),
		DBName:                      getEnv("DB_NAME", defaultDBName),
		CollectionCountries:         getEnv("COLLECTION_COUNTRIES", defaultCountriesCollection),
		CollectionMigrationsHistory: getEnv("COLLECTION_MIGRATIONS_HISTORY", defaultMigrationsHistory),
		RestCountriesAPIBaseURL:     getEnv("RESTCOUNTRIES_API_BASE_URL", defaultRestCountriesURL),
		ExchangeRateAPIBaseURL:      getEnv("EXCHANGE_RATE_API_BASE_URL", defaultExchangeRateURL),
		SummaryImagePath:            getEnv("SUMMARY_IMAGE_PATH", defaultSummaryImagePath),
		HTTPPort:                    getEnvInt("HTTP_PORT", defaultHTTPPort),
		RefreshIntervalMinutes:      getEnvInt("REFRESH_INTERVAL_MINUTES", 0),
		RefreshOnStartup:            getEnvBool("REFRESH_ON_STARTUP", false),
		WorkerCount:                 getEnvInt("WORKER_COUNT", defaultWorkerCount),
	}
}

// getMongoURI constructs the MongoDB URI from environment variables.
// MONGO_URI wins when set.
func getMongoURI() string {
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		return uri
	}

	host := getEnv("MONGO_HOST", "localhost")
	port := getEnv("MONGO_PORT", "27017")
	user := os.Getenv("MONGO_USER")
	pass := os.Getenv("MONGO_PASS")

	if user == "" {
		return "mongodb://" + host + ":" + port
	}
	return "mongodb://" + user + ":" + pass + "@" + host + ":" + port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Invalid boolean for %s=%q, using %t", key, v, fallback)
		return fallback
	}
	return b
}
