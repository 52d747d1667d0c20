package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoint and by mealbot --version
var Version = "v1.0.0"

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "MealPlan action server is running",
		"version": Version,
	})
}
