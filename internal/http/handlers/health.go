package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const serviceName = "oceanml-api"

type HealthHandler struct {
	version string
}

func NewHealthHandler(version string) *HealthHandler {
	if version == "" {
		version = "dev"
	}
	return &HealthHandler{version: version}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": h.version,
		"service": serviceName,
	})
}

// GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "OceanML API",
		"version": h.version,
		"health":  "/health",
	})
}
