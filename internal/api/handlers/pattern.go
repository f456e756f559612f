package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Conceptual-Machines/battito/internal/services"
	"github.com/Conceptual-Machines/battito/pkg/pattern"
	"github.com/gin-gonic/gin"
)

type PatternHandler struct {
	compiler *services.Compiler
	player   *services.Player
}

func NewPatternHandler(compiler *services.Compiler, player *services.Player) *PatternHandler {
	return &PatternHandler{compiler: compiler, player: player}
}

type CompileRequest struct {
	Pattern     string `json:"pattern"`
	Subdivision uint32 `json:"subdivision"`
	Format      string `json:"format"`
}

type PlayRequest struct {
	Target      string `json:"target" binding:"required"`
	Pattern     string `json:"pattern"`
	Subdivision uint32 `json:"subdivision"`
}

// Parse handles POST /parse: compile "target $ pattern" and send it
func (h *PatternHandler) Parse(c *gin.Context) {
	var req PlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.player.PlayLine(c.Request.Context(), req.Target+pattern.TargetSeparator+req.Pattern, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Set("outcome", string(services.OutcomeOK))
	c.JSON(http.StatusOK, result.Payload)
}

// Play handles POST /api/v1/play
func (h *PatternHandler) Play(c *gin.Context) {
	var req PlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	result, err := h.player.PlayLine(c.Request.Context(), req.Target+pattern.TargetSeparator+req.Pattern, req.Subdivision)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Set("outcome", string(services.OutcomeOK))
	c.JSON(http.StatusOK, result)
}

// Compile handles POST /api/v1/compile
func (h *PatternHandler) Compile(c *gin.Context) {
	var req CompileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	format := strings.ToLower(req.Format)

	if format == formatTree {
		seq, err := h.compiler.Parse(ctx, req.Pattern)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tree": seq.Tree(), "length": seq.Length})
		return
	}

	var out pattern.OutputFormat
	if format != formatSlots {
		f, err := pattern.ParseOutputFormat(format)
		if err != nil {
			respondBadRequest(c, fmt.Errorf("%w; expected max, json, tree or slots", err))
			return
		}
		out = f
	}

	p, err := h.compiler.Compile(ctx, req.Pattern, req.Subdivision)
	if err != nil {
		respondError(c, err)
		return
	}
	if format == formatSlots && uint64(p.Length)*uint64(p.Subdivision) > maxSlots {
		respondError(c, fmt.Errorf("%w: %d slots, limit is %d", services.ErrPatternTooLarge,
			uint64(p.Length)*uint64(p.Subdivision), maxSlots))
		return
	}
	c.Set("outcome", string(services.OutcomeOK))

	switch {
	case format == formatSlots:
		c.JSON(http.StatusOK, gin.H{
			"slots":       p.Slots(),
			"length":      p.Length,
			"subdivision": p.Subdivision,
		})
	case out == pattern.FormatJSON:
		c.JSON(http.StatusOK, p)
	default:
		c.JSON(http.StatusOK, gin.H{
			"steps":       p.MaxFormat(),
			"length":      p.Length,
			"subdivision": p.Subdivision,
		})
	}
}
