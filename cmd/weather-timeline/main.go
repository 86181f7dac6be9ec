package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-timeline/internal/api/http"
	"github.com/i474232898/weather-timeline/internal/config"
	"github.com/i474232898/weather-timeline/internal/scheduler"
	"github.com/i474232898/weather-timeline/internal/store"
	"github.com/i474232898/weather-timeline/internal/weather"
	"github.com/i474232898/weather-timeline/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Geocoders are tried in order; Open-Meteo needs no key.
	geocoders := []weather.Geocoder{providers.NewOpenMeteoGeocoder(httpClient)}
	if cfg.OpenWeatherAPIKey != "" {
		geocoders = append(geocoders, providers.NewOpenWeatherGeocoder(httpClient, cfg.OpenWeatherAPIKey))
	}
	if cfg.GeocoderAPIKey != "" {
		geocoders = append(geocoders, providers.NewGoogleGeocoder(cfg.GeocoderAPIKey))
	}

	// Providers with resilience (backoff + circuit breaker), highest priority first.
	provs := []weather.Provider{providers.NewOpenMeteoProvider(httpClient)}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey))
	}

	var narrator weather.Narrator = weather.TemplateNarrator{}
	if cfg.NarratorAPIKey != "" {
		narrator = providers.NewLLMNarrator(httpClient, cfg.NarratorBaseURL, cfg.NarratorAPIKey, cfg.NarratorModel, cfg.NarrateRPS, cfg.NarrateBurst)
	} else {
		log.Println("INFO: OPENROUTER_API_KEY not set; using template narrator")
	}

	// Core service orchestrating geocoders, providers and store.
	service := weather.NewService(memStore, geocoders, provs, narrator, weather.WithCacheTTL(cfg.CacheTTL))

	// Scheduler that keeps tracked cities warm.
	sched := scheduler.New(cfg.TrackedCities, cfg.FetchInterval, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-timeline",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-timeline",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		log.Printf("INFO: listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
