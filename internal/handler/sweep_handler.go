package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"bankcards/internal/service"
)

// ExpirationRunner runs one expiration pass on demand.
type ExpirationRunner interface {
	RunExpirationSweep(ctx context.Context) (service.SweepResult, error)
}

// SweepHandler handles administrative sweep endpoints.
type SweepHandler struct {
	sweeper ExpirationRunner
}

// NewSweepHandler creates a new sweep handler.
func NewSweepHandler(sweeper ExpirationRunner) *SweepHandler {
	return &SweepHandler{sweeper: sweeper}
}

// RunSweep godoc
// @Summary Expire overdue cards now
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.SweepResult
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/sweeps [post]
func (h *SweepHandler) RunSweep(c echo.Context) error {
	result, err := h.sweeper.RunExpirationSweep(c.Request().Context())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, result)
}
