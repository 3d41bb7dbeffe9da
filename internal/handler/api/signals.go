package api

import (
	"github.com/labstack/echo/v4"

	"CrowdPulse/internal/domain/models"
	pkghttp "CrowdPulse/pkg/http"
	"CrowdPulse/pkg/logger"
)

const latestCacheKey = "latest"

// latestSignals returns the newest signal per symbol for the server's mode.
// Served from a short cache: dashboards poll this.
func (h *Handler) latestSignals(c echo.Context) error {
	if sigs, ok := h.sigCache.Get(latestCacheKey); ok {
		return pkghttp.ListResponse(c, sigs, int64(len(sigs)))
	}

	sigs, err := h.signals.LatestPerSymbol(c.Request().Context(), h.mode)
	if err != nil {
		h.log.Error("load latest signals", logger.Error(err))
		return pkghttp.AppErrorResponse(c, pkghttp.InternalError("could not load signals").WithError(err))
	}

	h.sigCache.Set(latestCacheKey, sigs)
	return pkghttp.ListResponse(c, sigs, int64(len(sigs)))
}

// signalHistory returns a symbol's signal time series, newest first.
func (h *Handler) signalHistory(c echo.Context) error {
	var req models.SignalsRequest
	if errs := pkghttp.ReadAndValidateRequest(c, &req); errs != nil {
		return pkghttp.BadRequestResponse(c, errs)
	}
	if req.Symbol == "" {
		return pkghttp.AppErrorResponse(c, pkghttp.BadRequestError("symbol is required"))
	}

	sigs, err := h.signals.History(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		h.log.Error("load signal history",
			logger.String("symbol", req.Symbol),
			logger.Error(err))
		return pkghttp.AppErrorResponse(c, pkghttp.InternalError("could not load signal history").WithError(err))
	}
	return pkghttp.ListResponse(c, sigs, int64(len(sigs)))
}
