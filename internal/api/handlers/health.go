package handlers

import (
	"net/http"

	"github.com/Conceptual-Machines/battito/internal/database"
	"github.com/Conceptual-Machines/battito/internal/transport"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db       *gorm.DB
	fallback transport.Destination
}

func NewHealthHandler(db *gorm.DB, fallback transport.Destination) *HealthHandler {
	return &HealthHandler{db: db, fallback: fallback}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	dbStatus := "disabled"
	if h.db != nil {
		dbStatus = "ok"
		if err := database.Ping(h.db); err != nil {
			dbStatus = "error"
		}
	}

	status := "healthy"
	code := http.StatusOK
	if dbStatus == "error" {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":   status,
		"database": dbStatus,
		"osc": gin.H{
			"destination": h.fallback.Addr,
			"address":     h.fallback.Address,
		},
	})
}
