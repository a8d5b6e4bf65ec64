package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codyseavey/cardboard-compass/backend/internal/api/handlers"
	"github.com/codyseavey/cardboard-compass/backend/internal/auth"
	"github.com/codyseavey/cardboard-compass/backend/internal/config"
	"github.com/codyseavey/cardboard-compass/backend/internal/metrics"
	"github.com/codyseavey/cardboard-compass/backend/internal/services"
)

// Services are the dependencies the HTTP handlers call into
type Services struct {
	Collection *services.CollectionService
	Profiles   *services.ProfileService
	Snapshots  *services.SnapshotService
	Scanner    *services.ScannerService
	Images     *services.ImageStorageService // optional
}

func SetupRouter(cfg config.Config, svc Services) (*gin.Engine, error) {
	router := gin.Default()

	// CORS configuration - allow origins from config
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", auth.OwnerHeader}
	corsConfig.AllowCredentials = false // Explicitly set
	router.Use(cors.New(corsConfig))
	router.Use(requestMetrics())

	// Initialize handlers
	collectionHandler := handlers.NewCollectionHandler(svc.Collection, svc.Snapshots)
	profileHandler := handlers.NewProfileHandler(svc.Profiles)
	scanHandler := handlers.NewScanHandler(svc.Scanner, svc.Collection, svc.Images)
	priceHandler, err := handlers.NewPriceHandler(svc.Collection, svc.Snapshots, cfg.Chart.CacheSize)
	if err != nil {
		return nil, err
	}

	// Serve scanned images
	if svc.Images != nil {
		router.Static(services.ScannedImagesRoute, svc.Images.GetStorageDir())
	}

	// API routes
	api := router.Group("/api")
	api.Use(auth.Middleware(auth.TokenTable(cfg.Auth.Tokens), cfg.Auth.AllowOwnerHeader))
	{
		// Collection routes
		collection := api.Group("/collection")
		{
			collection.GET("", collectionHandler.GetCollection)
			collection.POST("", collectionHandler.AddToCollection)
			collection.GET("/stats", collectionHandler.GetStats)
			collection.GET("/value-history", priceHandler.GetValueHistory)
			collection.POST("/snapshot", collectionHandler.TakeSnapshot)
			collection.GET("/:id", collectionHandler.GetCard)
			collection.PATCH("/:id", collectionHandler.UpdateCard)
			collection.PUT("/:id/prices", collectionHandler.UpdatePrices)
			collection.DELETE("/:id", collectionHandler.DeleteCard)
			collection.GET("/:id/history", priceHandler.GetCardHistory)
		}

		// Profile routes
		profile := api.Group("/profile")
		{
			profile.GET("", profileHandler.GetProfile)
			profile.PATCH("", profileHandler.UpdateProfile)
		}

		// Scanner routes
		scan := api.Group("/scan")
		{
			scan.POST("", scanHandler.Scan)
			scan.POST("/frame-quality", scanHandler.AnalyzeFrame)
			scan.POST("/position", scanHandler.Position)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router, nil
}

// requestMetrics records request counts and latency by route template
func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
