package router

import (
	"aura/config"
	"aura/controllers"
	"aura/middleware"

	"github.com/gin-gonic/gin"
)

// Initialize wires all routes and middlewares: a public health probe, then
// authenticated + validated (active user) groups.
func Initialize(r *gin.Engine, cfg config.Configuration) {
	controllers.SetJWTSecret(cfg.Security.JwtSecret)

	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	api := r.Group("/api")

	// Authenticated routes (token required)
	auth := api.Group("")
	auth.Use(controllers.AuthRequired())

	// Validated routes (token + active user)
	validated := auth.Group("")
	validated.Use(Authorizer())

	// Insight cache: FULL / peek / cache-only probe / purge / ping
	validated.POST("/insights", Logger(), controllers.GenerateInsights)

	// Upstream sources consumed by the insight pipeline
	validated.GET("/quiz-attempts", Logger(), controllers.GetQuizAttempts)
	validated.POST("/quiz-attempts", Logger(), controllers.CreateQuizAttempt)
	validated.GET("/checkins", Logger(), controllers.GetCheckIns)
	validated.POST("/checkins", Logger(), controllers.CreateCheckIn)
	validated.GET("/journal", Logger(), controllers.GetJournalEntries)
	validated.POST("/journal", Logger(), controllers.CreateJournalEntry)

	config.Logger.Info().Msg("routes initialized")
}
