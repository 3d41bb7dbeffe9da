package api

import (
	"github.com/labstack/echo/v4"

	pkghttp "CrowdPulse/pkg/http"
	"CrowdPulse/pkg/logger"
)

type healthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

type statsResponse struct {
	Posts      int64 `json:"posts"`
	Sentiments int64 `json:"sentiments"`
	MarketBars int64 `json:"market_bars"`
	Signals    int64 `json:"signals"`
	RunActive  bool  `json:"run_active"`
}

func (h *Handler) health(c echo.Context) error {
	return pkghttp.SuccessResponse(c, healthResponse{Status: "ok", Mode: string(h.mode)})
}

// stats reports row counts across the stores plus whether a run is active.
func (h *Handler) stats(c echo.Context) error {
	ctx := c.Request().Context()
	out := statsResponse{RunActive: h.orch.Running()}

	var err error
	if out.Posts, err = h.posts.Count(ctx); err != nil {
		h.log.Error("count posts", logger.Error(err))
		return pkghttp.AppErrorResponse(c, pkghttp.InternalError("could not load stats").WithError(err))
	}
	if out.Sentiments, err = h.sentiments.Count(ctx); err != nil {
		return pkghttp.AppErrorResponse(c, pkghttp.InternalError("could not load stats").WithError(err))
	}
	if out.MarketBars, err = h.markets.Count(ctx); err != nil {
		return pkghttp.AppErrorResponse(c, pkghttp.InternalError("could not load stats").WithError(err))
	}
	if out.Signals, err = h.signals.Count(ctx); err != nil {
		return pkghttp.AppErrorResponse(c, pkghttp.InternalError("could not load stats").WithError(err))
	}
	return pkghttp.SuccessResponse(c, out)
}

// recentLogs serves the warn/error ring buffer for quick diagnosis without
// shell access.
func (h *Handler) recentLogs(c echo.Context) error {
	collector := h.log.Collector()
	if collector == nil {
		return pkghttp.ListResponse(c, []logger.Entry{}, 0)
	}
	entries := collector.Recent()
	return pkghttp.ListResponse(c, entries, int64(len(entries)))
}
