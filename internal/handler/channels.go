package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"signalscout/internal/models"
	"signalscout/internal/repository"
)

type ChannelHandler struct {
	Repo repository.SignalRepository
}

func (h *ChannelHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/channels")
	group.GET("", h.ranking)
	group.GET("/:id", h.getChannel)
}

// ranking lists channels ordered by composite score.
func (h *ChannelHandler) ranking(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	items, err := h.Repo.ListChannelStats(c.Request.Context(), repository.ListChannelStatsParams{
		OrderBy: "composite_score",
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, int64(len(items))))
}

type channelDetail struct {
	*models.ChannelStats
	Monthly map[string]models.MonthlyStat `json:"monthly"`
}

func (h *ChannelHandler) getChannel(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	st, err := h.Repo.GetChannelStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if st == nil {
		Error(c, http.StatusNotFound, "channel not found", nil)
		return
	}
	detail := channelDetail{ChannelStats: st}
	if len(st.MonthlyBreakdown) > 0 {
		_ = json.Unmarshal(st.MonthlyBreakdown, &detail.Monthly)
	}
	Ok(c, detail, nil)
}
