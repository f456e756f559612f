package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/Conceptual-Machines/battito/internal/export"
	"github.com/Conceptual-Machines/battito/internal/metrics"
	"github.com/Conceptual-Machines/battito/internal/services"
	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	compiler      *services.Compiler
	sentryMetrics *metrics.SentryMetrics
}

func NewExportHandler(compiler *services.Compiler) *ExportHandler {
	return &ExportHandler{compiler: compiler, sentryMetrics: metrics.NewSentryMetrics()}
}

// ExportMIDI handles GET /api/v1/export.mid?pattern=...
func (h *ExportHandler) ExportMIDI(c *gin.Context) {
	text, ok := c.GetQuery("pattern")
	if !ok {
		respondBadRequest(c, errors.New("missing pattern query parameter"))
		return
	}

	p, err := h.compiler.Compile(c.Request.Context(), text, 0)
	if err != nil {
		respondError(c, err)
		return
	}

	start := time.Now()
	var buf bytes.Buffer
	opts := export.DefaultOptions()
	opts.TrackName = c.DefaultQuery("name", "battito")
	if _, err := export.WriteSMF(&buf, p, opts); err != nil {
		respondError(c, err)
		return
	}
	h.sentryMetrics.RecordPerformanceMetric("export.smf", time.Since(start), map[string]interface{}{
		"steps": len(p.Steps),
		"bytes": buf.Len(),
	})

	c.Set("outcome", string(services.OutcomeOK))
	c.Header("Content-Disposition", `attachment; filename="pattern.mid"`)
	c.Data(http.StatusOK, midiContentType, buf.Bytes())
}
