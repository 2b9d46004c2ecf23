package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/response"
	"github.com/stemsi/exstem-practice/internal/service"
)

const (
	refreshInterval   = 5 * time.Second
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second // prevent slow queries from blocking the SSE loop
)

type MonitorHandler struct {
	monitor *service.MonitorService
	log     zerolog.Logger
}

func NewMonitorHandler(monitor *service.MonitorService, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		monitor: monitor,
		log:     log.With().Str("component", "monitor_handler").Logger(),
	}
}

// Snapshot godoc
// GET /api/v1/practice/monitor
// Returns one frame of the practice monitor.
func (h *MonitorHandler) Snapshot(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), refreshTimeout)
	defer cancel()

	snapshot, err := h.monitor.Snapshot(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Monitor snapshot failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, snapshot)
}

// Stream godoc
// GET /api/v1/practice/monitor/stream
// Streams monitor frames as server-sent events until the client disconnects.
func (h *MonitorHandler) Stream(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.sendSnapshot(c, reqCtx)

	refreshTicker := time.NewTicker(refreshInterval)
	defer refreshTicker.Stop()
	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	h.log.Info().Msg("Admin attached to practice monitor")

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Msg("Admin detached from practice monitor")
			return
		case <-refreshTicker.C:
			h.sendSnapshot(c, reqCtx)
		case <-keepAliveTicker.C:
			c.SSEvent("ping", gin.H{"type": "ping"})
			c.Writer.Flush()
		}
	}
}

// sendSnapshot writes one frame. A failed fetch is logged and skipped; the next
// refresh tries again.
func (h *MonitorHandler) sendSnapshot(c *gin.Context, parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, refreshTimeout)
	defer cancel()

	snapshot, err := h.monitor.Snapshot(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to fetch monitor snapshot")
		return
	}
	c.SSEvent("snapshot", snapshot)
	c.Writer.Flush()
}
