// Package router assembles the HTTP surface: middleware, API routes, health,
// metrics and the Swagger UI.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "bankroll/internal/docs" // Import swagger docs
	"bankroll/internal/handlers"
	"bankroll/internal/logger"
	"bankroll/internal/metrics"
	"bankroll/internal/middleware"
	"bankroll/internal/services"
	"bankroll/internal/store"
)

// Options are the collaborators the router serves.
type Options struct {
	Services *services.Services
	Store    store.Store
	Metrics  *metrics.Metrics
	// CORSOrigins lists allowed browser origins. Empty allows any origin.
	CORSOrigins []string
}

// New builds the gin engine.
func New(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogging())
	r.Use(middleware.ErrorHandler())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/api/health", health(opts.Store))
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	groupHandler := handlers.NewGroupHandler(opts.Services.Groups)
	balanceHandler := handlers.NewBalanceHandler(opts.Services.Balances)
	rankingHandler := handlers.NewRankingHandler(opts.Services.Ranking)
	adminHandler := handlers.NewAdminHandler(opts.Services.Groups, opts.Services.Ranking, opts.Services.History)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware())

	v1.POST("/groups", groupHandler.CreateGroup)

	group := v1.Group("/groups/:groupID")
	group.GET("", groupHandler.GetGroup)
	group.POST("/join", groupHandler.JoinGroup)
	group.GET("/me", groupHandler.GetMember)
	group.GET("/stakes", groupHandler.ResolveStakes)
	group.GET("/players", groupHandler.ListPlayers)

	group.GET("/balances", balanceHandler.ListBalances)
	group.POST("/balances", balanceHandler.CreateBalance)
	group.PUT("/balances/:balanceID", balanceHandler.UpdateBalance)
	group.DELETE("/balances/:balanceID", balanceHandler.DeleteBalance)

	group.GET("/ranking", rankingHandler.PublicRanking)

	admin := group.Group("/admin")
	admin.PUT("/settings", adminHandler.UpdateSettings)
	admin.GET("/ranking", adminHandler.FullRanking)
	admin.GET("/history", adminHandler.ListHistory)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Admin-Password", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func health(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if st != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := st.Ping(ctx); err != nil {
				logger.Named("http").Warnw("Health check failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
