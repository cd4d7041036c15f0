package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"atm-fleet-backend/config"
	"atm-fleet-backend/internal/model"
	"atm-fleet-backend/internal/mw"
	"atm-fleet-backend/internal/report"
	"atm-fleet-backend/internal/sdk"
	"atm-fleet-backend/internal/store"
	"atm-fleet-backend/internal/tasks"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, taskSvc *tasks.Service, sdkSvc *sdk.Service, reports *report.Generator, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, taskSvc, sdkSvc, reports, cfg)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	// Fleet listings are read-mostly; a short cache keeps dashboard polling
	// off the database.
	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	auth := mw.Auth(cfg.Auth.JWTSecret)
	adminOnly := mw.RequireRoles(model.RoleAdmin)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Terminal-side withdrawal simulation. Unauthenticated: the card
		// and PIN are the credential here.
		sdkGroup := api.Group("/sdk")
		{
			sdkGroup.POST("/withdraw", handler.Withdraw)
			sdkGroup.POST("/end-transaction", handler.EndTransaction)
		}

		atms := api.Group("/atms")
		{
			atms.GET("", caching, handler.GetATMs)
			atms.GET("/:id", handler.GetATM)
			atms.GET("/:id/history", auth, handler.GetATMHistory)
			atms.POST("", auth, adminOnly, handler.CreateATM)
			atms.POST("/:id/refill", auth, adminOnly, handler.RefillATM)
		}

		taskGroup := api.Group("/tasks", auth)
		{
			taskGroup.GET("", adminOnly, handler.GetTasks)
			taskGroup.GET("/:id", handler.GetTask)
			taskGroup.PUT("/:id/status", handler.ChangeTaskStatus)
			taskGroup.GET("/:id/report", handler.GetDiagnosticReport)
		}

		engineers := api.Group("/engineers", auth)
		{
			engineers.GET("/tasks", handler.GetEngineerTasks)
			engineers.PUT("/activity", handler.SetActivity)
			engineers.POST("/push-subscription", handler.SavePushSubscription)
		}
	}

	return r
}
