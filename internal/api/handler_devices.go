package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetDeviceState returns the stored state, or the default for an unseen device.
func (h *Handler) GetDeviceState(c *gin.Context) {
	state, err := h.store.LoadState(c.Request.Context(), c.Param("device_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetDeviceLogs returns the most recent decisions for a device, newest first.
func (h *Handler) GetDeviceLogs(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	logs, err := h.store.RecentLogs(c.Request.Context(), c.Param("device_id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

type regionResponse struct {
	Name string `json:"name"`
	NX   string `json:"nx"`
	NY   string `json:"ny"`
}

// GetRegions lists the regions the weather mode understands.
func (h *Handler) GetRegions(c *gin.Context) {
	all := h.catalog.All()
	regions := make([]regionResponse, 0, len(all))
	for _, name := range h.catalog.Names() {
		coords := all[name]
		regions = append(regions, regionResponse{Name: name, NX: coords.NX, NY: coords.NY})
	}
	c.JSON(http.StatusOK, gin.H{"regions": regions})
}

// GetMetrics returns the decision counters.
func (h *Handler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Metrics().Snapshot())
}
