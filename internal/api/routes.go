package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler, allowedOrigins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowAllOrigins:  len(allowedOrigins) == 0,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		api.POST("/reports", handler.SubmitReport)
		api.GET("/clusters", handler.GetClusters)
		api.GET("/clusters/geojson", handler.GetClustersGeoJSON)
		api.GET("/rebalance", handler.GetRebalance)
		api.GET("/recommendations", handler.GetRecommendations)
		api.GET("/heatmap", handler.GetHeatmap)
		api.GET("/stats", handler.GetStats)
		api.GET("/stream", handler.StreamSnapshots)
		api.GET("/products", handler.GetProducts)
		api.GET("/cities", handler.GetCities)
	}

	router.GET("/metrics", gin.WrapH(handler.metrics.Handler()))
}
