package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"signalscout/internal/accuracy"
	"signalscout/internal/pipeline"
	"signalscout/internal/repository"
)

// AdminHandler exposes manual triggers for the scheduled jobs and the
// source-channel listing.
type AdminHandler struct {
	Scanner *pipeline.ScanService
	Tracker *accuracy.Tracker
	Repo    repository.SignalRepository
}

func (h *AdminHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/admin")
	group.POST("/scan", h.scan)
	group.POST("/resolve", h.resolve)
	group.GET("/sources", h.sources)
}

func (h *AdminHandler) scan(c *gin.Context) {
	if h.Scanner == nil {
		Error(c, http.StatusInternalServerError, "scanner unavailable", nil)
		return
	}
	res, err := h.Scanner.RunOnce(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, res, nil)
}

func (h *AdminHandler) resolve(c *gin.Context) {
	if h.Tracker == nil {
		Error(c, http.StatusInternalServerError, "tracker unavailable", nil)
		return
	}
	now := time.Now().UTC()
	if err := h.Tracker.RunOnce(c.Request.Context(), now); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if c.Query("recompute") == "all" {
		if err := h.Tracker.RecomputeAll(c.Request.Context(), now); err != nil {
			Error(c, http.StatusBadGateway, err.Error(), nil)
			return
		}
	}
	Ok(c, gin.H{"resolved": true}, nil)
}

func (h *AdminHandler) sources(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	items, err := h.Repo.ListSourceChannels(c.Request.Context(), false)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}
