package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"signalscout/internal/pipeline"
	"signalscout/internal/repository"
	"signalscout/internal/source"
)

type SignalHandler struct {
	Repo      repository.SignalRepository
	Processor *pipeline.Processor
}

func (h *SignalHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/signals")
	group.GET("", h.listSignals)
	group.GET("/:id", h.getSignal)
	group.POST("/ingest", h.ingest)
}

func (h *SignalHandler) listSignals(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	var sinceTime *time.Time
	if since := strings.TrimSpace(c.Query("since")); since != "" {
		if parsed, err := time.Parse(time.RFC3339, since); err == nil {
			parsed = parsed.UTC()
			sinceTime = &parsed
		}
	}

	params := repository.ListSignalsParams{
		Channel: strQuery(c, "channel"),
		Asset:   strQuery(c, "asset"),
		Tier:    strQuery(c, "tier"),
		Outcome: strQuery(c, "outcome"),
		Since:   sinceTime,
		OrderBy: c.DefaultQuery("order_by", "created_at"),
		Limit:   limit,
		Offset:  offset,
	}
	items, err := h.Repo.ListSignals(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountSignals(c.Request.Context(), params)
	if err != nil {
		total = int64(len(items))
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *SignalHandler) getSignal(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	s, err := h.Repo.GetSignalByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if s == nil {
		Error(c, http.StatusNotFound, "signal not found", nil)
		return
	}
	Ok(c, s, nil)
}

type ingestRequest struct {
	Channel  string    `json:"channel" binding:"required"`
	Text     string    `json:"text" binding:"required"`
	PostedAt time.Time `json:"posted_at"`
}

// ingest processes one message synchronously, outside the scan schedule.
// A message that is not a signal returns 200 with null data.
func (h *SignalHandler) ingest(c *gin.Context) {
	if h.Processor == nil || h.Repo == nil {
		Error(c, http.StatusInternalServerError, "pipeline unavailable", nil)
		return
	}
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	msg := source.RawMessage{Channel: req.Channel, Text: req.Text, PostedAt: req.PostedAt}
	sig, err := h.Processor.Process(c.Request.Context(), msg)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if sig == nil {
		Ok(c, nil, map[string]any{"extracted": false})
		return
	}
	if err := h.Repo.InsertSignal(c.Request.Context(), sig); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, sig, map[string]any{"extracted": true})
}
