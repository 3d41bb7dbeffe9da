package api

import (
	"github.com/labstack/echo/v4"

	"CrowdPulse/internal/domain/models"
	pkghttp "CrowdPulse/pkg/http"
	"CrowdPulse/pkg/logger"
)

// usageSummary returns today's quota usage, resolved for the caller: callers
// with their own credentials see their per-user counters.
func (h *Handler) usageSummary(c echo.Context) error {
	var req models.UsageRequest
	if errs := pkghttp.ReadAndValidateRequest(c, &req); errs != nil {
		return pkghttp.BadRequestResponse(c, errs)
	}
	return pkghttp.SuccessResponse(c, h.ledger.Summary(req.CallerID))
}

// resetUsage zeroes quota counters. Test mode only: live counters protect
// real API budgets and must survive operator curiosity.
func (h *Handler) resetUsage(c echo.Context) error {
	var req models.ResetUsageRequest
	if errs := pkghttp.ReadAndValidateRequest(c, &req); errs != nil {
		return pkghttp.BadRequestResponse(c, errs)
	}
	if h.mode != models.ModeTest {
		return pkghttp.AppErrorResponse(c, pkghttp.ForbiddenError("usage reset is only available in test mode"))
	}

	h.ledger.Reset(req.Service, req.CallerID)
	h.log.Info("usage counters reset via api",
		logger.String("service", req.Service),
		logger.String("caller", req.CallerID))
	return pkghttp.SuccessResponse(c, h.ledger.Summary(req.CallerID))
}
