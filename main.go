package main

import (
	"net/http"
	"os"
	"strings"
	"time"

	"aura/config"
	"aura/controllers"
	"aura/db"
	"aura/insight"
	"aura/router"
	"aura/tools"
	"aura/workers"

	"github.com/gin-gonic/gin"
)

// =====================
// ENV esperadas
// =====================
//
// Server
// - AURA_CONFIG       (path to config.json, default config/config.json)
// - JWT_SECRET        (overrides security.jwt_secret from the config file)
// - AUTOMIGRATE       (set to 1 to run the gorm automigrate on boot)
//
// OpenAI
// - OPENAI_API_KEY
// - OPENAI_MODEL      (defaults to the configured insights.model)
// - OPENAI_BASE_URL   (optional, for proxies)
//
// =====================

func main() {
	cfgPath := strings.TrimSpace(os.Getenv("AURA_CONFIG"))
	if cfgPath == "" {
		cfgPath = "config/config.json"
	}
	cfg := config.Get(cfgPath)
	config.InitLogger(cfg.LogLevel)

	db.SetConfigurations(cfg)
	database, err := db.Connect()
	if err != nil {
		config.Logger.Fatal().Err(err).Msg("could not connect to database")
	}
	defer database.Close()

	client := tools.NewOpenAIClient(cfg.Insights.Model)
	svc := insight.NewService(database, client, insight.Config{
		StaleAfter: time.Duration(cfg.Insights.StalenessHours) * time.Hour,
		LockTTL:    time.Duration(cfg.Insights.LockTTLSeconds) * time.Second,
		WindowDays: cfg.Insights.WindowDays,
		Model:      client.Model,
	}, config.Logger)
	controllers.SetInsightService(svc)

	workers.StartLockReaper(database, time.Minute)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(db.SetDBtoContext(database))
	router.Initialize(r, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.ApiPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	config.Logger.Info().Str("port", cfg.ApiPort).Msg("aura listening")
	if err := srv.ListenAndServe(); err != nil {
		config.Logger.Fatal().Err(err).Msg("server stopped")
	}
}
