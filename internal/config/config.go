package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-timeline/internal/weather"
)

type AppConfig struct {
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	GeocoderAPIKey    string

	// Narrator settings. Without an API key the template narrator is used.
	NarratorAPIKey  string
	NarratorBaseURL string
	NarratorModel   string
	NarrateRPS      float64
	NarrateBurst    int

	HTTPTimeout time.Duration

	// FetchInterval controls how often tracked cities are refreshed.
	FetchInterval time.Duration

	// Cities refreshed in the background so their reports are warm.
	TrackedCities []weather.Location

	// CacheTTL lets /chat reuse a stored report younger than this (0 = always fetch).
	CacheTTL time.Duration

	// In-memory store retention.
	StoreMaxHistory int           // max number of reports per city (0 = unlimited)
	StoreMaxAge     time.Duration // max age of reports (0 = unlimited)

	Port string
}

// DashboardConfig configures the terminal dashboard.
type DashboardConfig struct {
	ServiceURL   string
	HTTPTimeout  time.Duration
	QueryTimeout time.Duration
	ItemPitch    float64
	SettleDelay  time.Duration
}

// Load reads service configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	loadDotEnv()
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.NarratorAPIKey = os.Getenv("OPENROUTER_API_KEY")
	cfg.NarratorBaseURL = getenvDefault("NARRATOR_BASE_URL", "https://openrouter.ai/api/v1")
	cfg.NarratorModel = getenvDefault("NARRATOR_MODEL", "kwaipilot/kat-coder-pro:free")
	cfg.NarrateBurst = getenvInt("NARRATE_BURST", 2)

	rps, err := getenvFloat("NARRATE_RPS", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid NARRATE_RPS: %w", err)
	}
	cfg.NarrateRPS = rps

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}

	// Scheduler interval: default 15 minutes.
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "15m"); err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}

	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", "10m"); err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96) // roughly 24h at 15-minute intervals
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}

	cfg.Port = getenvDefault("PORT", "8000")
	cfg.TrackedCities = parseCities(os.Getenv("WEATHER_TRACKED_CITIES"))

	return cfg, nil
}

// LoadDashboard reads dashboard configuration from environment.
func LoadDashboard() (*DashboardConfig, error) {
	loadDotEnv()
	cfg := &DashboardConfig{
		ServiceURL: strings.TrimRight(getenvDefault("SERVICE_URL", "http://localhost:8000"), "/"),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	if cfg.QueryTimeout, err = getenvDuration("QUERY_TIMEOUT", "45s"); err != nil {
		return nil, fmt.Errorf("invalid QUERY_TIMEOUT: %w", err)
	}
	if cfg.SettleDelay, err = getenvDuration("SETTLE_DELAY", "150ms"); err != nil {
		return nil, fmt.Errorf("invalid SETTLE_DELAY: %w", err)
	}
	if cfg.ItemPitch, err = getenvFloat("ITEM_PITCH", 72); err != nil {
		return nil, fmt.Errorf("invalid ITEM_PITCH: %w", err)
	}
	if cfg.ItemPitch <= 0 {
		return nil, fmt.Errorf("invalid ITEM_PITCH: must be positive")
	}

	return cfg, nil
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
}

// parseCities reads a comma separated list of "City" or "City:Country" entries.
func parseCities(raw string) []weather.Location {
	var locs []weather.Location
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		city, country, _ := strings.Cut(entry, ":")
		locs = append(locs, weather.Location{
			City:    strings.TrimSpace(city),
			Country: strings.TrimSpace(country),
		})
	}
	return locs
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getenvDuration(key, def string) (time.Duration, error) {
	return time.ParseDuration(getenvDefault(key, def))
}
