package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/pipeline"
	pkghttp "CrowdPulse/pkg/http"
	"CrowdPulse/pkg/logger"
)

var errRunConflict = pkghttp.NewAppError("ERR_RUN_IN_PROGRESS", "a pipeline run is already in progress", http.StatusConflict)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// same-origin policy is handled by the CORS middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *Handler) bindRunRequest(c echo.Context) (*models.RunRequest, interface{}) {
	var req models.RunRequest
	if errs := pkghttp.ReadAndValidateRequest(c, &req); errs != nil {
		return nil, errs
	}
	if req.Mode != "" && req.Mode != string(h.mode) {
		return nil, []pkghttp.ValidationError{{
			Code:    "ERR_MODE_MISMATCH",
			Field:   "mode",
			Message: fmt.Sprintf("server is running in %s mode", h.mode),
		}}
	}
	return &req, nil
}

// runPipeline triggers a run and blocks until it finishes. For callers that
// want progress, the SSE and websocket variants stream it.
func (h *Handler) runPipeline(c echo.Context) error {
	if _, errs := h.bindRunRequest(c); errs != nil {
		return pkghttp.BadRequestResponse(c, errs)
	}
	if h.orch.Running() {
		return pkghttp.AppErrorResponse(c, errRunConflict)
	}

	summary, err := h.orch.Run(c.Request().Context(), nil)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		return pkghttp.AppErrorResponse(c, errRunConflict)
	}
	if err != nil {
		h.log.Error("pipeline run aborted", logger.Error(err))
		return pkghttp.AppErrorResponse(c, pkghttp.InternalError("pipeline run aborted").WithError(err))
	}
	h.sigCache.Invalidate()
	return pkghttp.SuccessResponse(c, summary)
}

// runPipelineSSE streams progress events over server-sent events. The
// request context is cancelled when the consumer disconnects; the run checks
// it between stages, so in-flight upstream calls complete first.
func (h *Handler) runPipelineSSE(c echo.Context) error {
	if _, errs := h.bindRunRequest(c); errs != nil {
		return pkghttp.BadRequestResponse(c, errs)
	}
	if h.orch.Running() {
		return pkghttp.AppErrorResponse(c, errRunConflict)
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	events := make(chan models.ProgressEvent, 32)
	go func() {
		defer close(events)
		_, err := h.orch.Run(c.Request().Context(), func(ev models.ProgressEvent) {
			events <- ev
		})
		if errors.Is(err, pipeline.ErrRunInProgress) {
			events <- conflictEvent()
		}
	}()

	for ev := range events {
		b, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", b)
		w.Flush()
	}
	h.sigCache.Invalidate()
	return nil
}

// runPipelineWS streams the same events over a websocket. Closing the socket
// cancels the run context.
func (h *Handler) runPipelineWS(c echo.Context) error {
	if _, errs := h.bindRunRequest(c); errs != nil {
		return pkghttp.BadRequestResponse(c, errs)
	}

	conn, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// the read pump only exists to notice the peer going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var writeMu sync.Mutex
	send := func(ev models.ProgressEvent) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(ev); err != nil {
			cancel()
		}
	}

	_, err = h.orch.Run(ctx, send)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		send(conflictEvent())
		return nil
	}
	h.sigCache.Invalidate()

	writeMu.Lock()
	defer writeMu.Unlock()
	return conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func conflictEvent() models.ProgressEvent {
	return models.ProgressEvent{
		Stage:     models.StageError,
		Message:   "a pipeline run is already in progress",
		Done:      true,
		Timestamp: time.Now().UTC(),
	}
}
