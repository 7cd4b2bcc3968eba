package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agrimap/server/config"
)

// GetProducts returns the reportable product catalog
func (h *Handler) GetProducts(c *gin.Context) {
	c.JSON(http.StatusOK, config.Products)
}

// GetCities returns the known cities and the default map center
func (h *Handler) GetCities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"center": config.MapCenter,
		"cities": config.GetCities(),
	})
}
