package main

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tripscout/config"
	"tripscout/database"
	"tripscout/handlers"
	"tripscout/search"
	"tripscout/services"
)

func main() {
	// Load .env file (ignored in production where env vars are set directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found — using environment variables")
	}

	cfg := config.Load()

	store, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Database init failed: %v", err)
	}
	defer store.Close()

	flights := services.NewFlightClient(cfg.SerpAPIKey, cfg.SerpAPIURL, cfg.Currency, cfg.ProviderTimeout)
	hotels := services.NewHotelClient(cfg.SerpAPIKey, cfg.SerpAPIURL, cfg.Currency, cfg.ProviderTimeout)
	analyzer := services.NewAnalyzer(cfg.OpenAIKey, cfg.OpenAIURL, cfg.OpenAIModel, cfg.ProviderTimeout)

	orch := search.NewOrchestrator(
		flights, hotels, analyzer, store,
		search.NewSessionStore(),
		cfg.DefaultOrigin, cfg.ProviderTimeout,
	)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// Trusted proxies (the hosting platform sits behind a proxy)
	r.SetTrustedProxies([]string{"0.0.0.0/0"})

	// CORS — allow configured frontend origins
	frontendURLs := os.Getenv("FRONTEND_URL")
	allowedOrigins := []string{"http://localhost:5173", "http://localhost:3000"}
	if frontendURLs != "" {
		for _, u := range strings.Split(frontendURLs, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	searchHandler := handlers.NewHandler(orch, cfg.Currency)
	historyHandler := handlers.NewHistoryHandler(store)

	api := r.Group("/api")
	{
		api.GET("/health", historyHandler.Health)
		api.POST("/search", searchHandler.Search)
		api.POST("/search/more", searchHandler.More)
		api.POST("/search/save", searchHandler.Save)
		api.GET("/search/:user_id/pdf", searchHandler.ItineraryPDF)
		api.GET("/history/:user_id", historyHandler.Get)
	}

	log.Printf("🚀 TripScout backend starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
