package handlers

import (
	"errors"
	"net/http"

	"github.com/Conceptual-Machines/battito/internal/models"
	"github.com/Conceptual-Machines/battito/internal/services"
	"github.com/gin-gonic/gin"
)

type TargetHandler struct {
	store services.TargetStore
}

func NewTargetHandler(store services.TargetStore) *TargetHandler {
	return &TargetHandler{store: store}
}

type TargetRequest struct {
	Host        string `json:"host" binding:"required"`
	Port        int    `json:"port" binding:"required"`
	Address     string `json:"address"`
	Subdivision uint32 `json:"subdivision"`
}

// List handles GET /api/v1/targets
func (h *TargetHandler) List(c *gin.Context) {
	targets, err := h.store.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"targets": targets})
}

// Put handles PUT /api/v1/targets/:name
func (h *TargetHandler) Put(c *gin.Context) {
	var req TargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	target := &models.Target{
		Name:        c.Param("name"),
		Host:        req.Host,
		Port:        req.Port,
		Address:     req.Address,
		Subdivision: req.Subdivision,
	}
	if err := h.store.Put(c.Request.Context(), target); err != nil {
		if isValidationError(err) {
			respondBadRequest(c, err)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, target)
}

// Delete handles DELETE /api/v1/targets/:name
func (h *TargetHandler) Delete(c *gin.Context) {
	err := h.store.Delete(c.Request.Context(), c.Param("name"))
	if errors.Is(err, services.ErrTargetNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": err.Error()})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
