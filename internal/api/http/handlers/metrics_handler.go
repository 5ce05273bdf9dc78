package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ecobazaar-auth/internal/observability"
)

// MetricsHandler exposes the in-memory counters to admins.
type MetricsHandler struct {
	metrics *observability.Metrics
}

// NewMetricsHandler returns a new handler instance.
func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Show handles GET /admin/metrics.
func (h *MetricsHandler) Show(c *fiber.Ctx) error {
	requests, errorCounts := h.metrics.Snapshot()
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"requests": requests,
			"errors":   errorCounts,
		},
	})
}
