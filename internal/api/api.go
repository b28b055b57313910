package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/procurement-risk/internal/api/handlers"
	"github.com/andresuchdata/procurement-risk/internal/api/middleware"
	"github.com/andresuchdata/procurement-risk/internal/service"
)

type Services struct {
	ProcurementService *service.ProcurementService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(cors.New(corsConfig(allowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.ProcurementService != nil {
		h := handlers.NewProcurementHandler(services.ProcurementService)
		procurementGroup := apiGroup.Group("/procurement")
		{
			procurementGroup.GET("/stockout-risks", h.GetStockoutRisks)
			procurementGroup.GET("/alerts", h.GetAlerts)
			procurementGroup.GET("/supplier-performance", h.GetSupplierPerformance)

			procurementGroup.GET("/purchase-orders", h.ListPurchaseOrders)
			procurementGroup.POST("/purchase-orders", h.CreatePurchaseOrder)
			procurementGroup.GET("/purchase-orders/:id", h.GetPurchaseOrder)
			procurementGroup.PUT("/purchase-orders/:id/status", h.UpdatePurchaseOrderStatus)

			procurementGroup.PUT("/products/:id/settings", h.UpdateProcurementSettings)
			procurementGroup.GET("/products/:id/consumption", h.GetConsumptionHistory)
			procurementGroup.GET("/products/:id/stock-movements", h.GetStockMovements)

			procurementGroup.POST("/reorder-points/refresh", h.RefreshReorderPoints)
			procurementGroup.POST("/forecasts", h.GenerateForecast)
			procurementGroup.POST("/forecasts/all", h.GenerateAllForecasts)
		}
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	cfg := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			cfg.AllowOrigins = nil
			cfg.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			cfg.AllowOrigins = normalizedOrigins
		}
	}
	return cfg
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
