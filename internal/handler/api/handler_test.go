package api

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/domain/service"
	"CrowdPulse/internal/ingestion"
	"CrowdPulse/internal/pipeline"
	"CrowdPulse/internal/repository"
	"CrowdPulse/internal/signal"
	"CrowdPulse/internal/usage"
	"CrowdPulse/pkg/logger"
)

var testSymbols = []string{"RELIANCE", "TCS"}

func newTestHandler(t *testing.T, mode models.DataMode) (*Handler, *echo.Echo) {
	t.Helper()

	db, err := repository.Open(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	posts := repository.NewPostStore(db)
	sentiments := repository.NewSentimentStore(db)
	markets := repository.NewMarketStore(db)
	signals := repository.NewSignalStore(db)

	log := logger.Nop()
	ledger := usage.NewLedger(usage.Limits{
		Global: map[string]int{"telegram": 200, "market": 500, "gemini": 1500},
	}, nil, "", log)

	now := func() time.Time { return time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC) }

	coord := ingestion.NewCoordinator(
		[]service.SourceCollector{pipeline.NewSimCollector(models.SourceTelegram, testSymbols, 3, now)},
		map[models.SourceKind][]string{models.SourceTelegram: {"sim_channel"}},
		posts, ledger, mode, log,
	)
	engine := signal.NewEngine(sentiments, markets, signals, signal.Params{
		Lookback:       72 * time.Hour,
		VelocityWindow: time.Hour,
		IdealPosts:     100,
	}, mode, log, signal.WithClock(now))

	orch := pipeline.NewOrchestrator(
		coord,
		pipeline.NewSimMarketFetcher(now),
		markets, posts, sentiments,
		pipeline.SimScorer{},
		engine,
		pipeline.Params{
			Symbols:        testSymbols,
			Mode:           mode,
			MarketLookback: 5 * 24 * time.Hour,
			ScoreBatchSize: 20,
			ScoreLimit:     500,
		},
		log,
		pipeline.WithClock(now),
	)

	h := NewHandler(orch, posts, sentiments, markets, signals, ledger, mode, log)
	e := echo.New()
	h.RegisterRoutes(e)
	return h, e
}

func doRequest(t *testing.T, e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) (int, json.RawMessage) {
	t.Helper()
	var body struct {
		Status int             `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return body.Status, body.Data
}

func TestHealth(t *testing.T) {
	_, e := newTestHandler(t, models.ModeTest)
	rec := doRequest(t, e, http.MethodGet, "/api/v1/health")
	status, data := envelope(t, rec)
	if status != http.StatusOK {
		t.Fatalf("expected 200 envelope, got %d", status)
	}
	if !strings.Contains(string(data), `"test"`) {
		t.Fatalf("health must report the mode: %s", data)
	}
}

func TestRunProducesSignals(t *testing.T) {
	_, e := newTestHandler(t, models.ModeTest)

	rec := doRequest(t, e, http.MethodPost, "/api/v1/pipeline/run")
	status, data := envelope(t, rec)
	if status != http.StatusOK {
		t.Fatalf("run failed: %s", rec.Body.String())
	}
	var summary pipeline.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.PostsScored == 0 {
		t.Fatalf("expected scored posts, got %+v", summary)
	}
	if len(summary.Signals) == 0 {
		t.Fatalf("expected signals from the simulation")
	}

	rec = doRequest(t, e, http.MethodGet, "/api/v1/signals")
	status, data = envelope(t, rec)
	if status != http.StatusOK {
		t.Fatalf("signals read failed: %s", rec.Body.String())
	}
	var list struct {
		Rows  []models.DivergenceSignal `json:"rows"`
		Total int64                     `json:"total"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total == 0 {
		t.Fatalf("expected stored signals")
	}
}

func TestRunStreamEndsWithDone(t *testing.T) {
	_, e := newTestHandler(t, models.ModeTest)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pipeline/run/stream", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected event stream, got %s", ct)
	}

	var events []models.ProgressEvent
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev models.ProgressEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("decode event: %v (%s)", err, line)
		}
		events = append(events, ev)
	}
	if len(events) == 0 {
		t.Fatalf("expected progress events")
	}

	doneCount := 0
	lastProgress := -1
	for _, ev := range events {
		if ev.Done {
			doneCount++
		}
		if ev.Progress < lastProgress {
			t.Fatalf("progress went backwards")
		}
		lastProgress = ev.Progress
	}
	if doneCount != 1 {
		t.Fatalf("expected exactly one done event, got %d", doneCount)
	}
	last := events[len(events)-1]
	if !last.Done || last.Progress != 100 {
		t.Fatalf("stream must end with the terminal event, got %+v", last)
	}
}

func TestResetUsageForbiddenInLive(t *testing.T) {
	h, e := newTestHandler(t, models.ModeLive)
	h.ledger.TryRecord("telegram", 5, "")

	rec := doRequest(t, e, http.MethodPost, "/api/v1/usage/reset?service=telegram")
	status, _ := envelope(t, rec)
	if status != http.StatusForbidden {
		t.Fatalf("live reset must be forbidden, got %d", status)
	}
	if h.ledger.Summary("")["telegram"].Used != 5 {
		t.Fatalf("counters must be untouched")
	}
}

func TestResetUsageAllowedInTest(t *testing.T) {
	h, e := newTestHandler(t, models.ModeTest)
	h.ledger.TryRecord("telegram", 5, "")

	rec := doRequest(t, e, http.MethodPost, "/api/v1/usage/reset?service=telegram")
	status, _ := envelope(t, rec)
	if status != http.StatusOK {
		t.Fatalf("test-mode reset must succeed, got %d", status)
	}
	if h.ledger.Summary("")["telegram"].Used != 0 {
		t.Fatalf("counter should be zeroed")
	}
}

func TestSignalHistoryRequiresSymbol(t *testing.T) {
	_, e := newTestHandler(t, models.ModeTest)
	rec := doRequest(t, e, http.MethodGet, "/api/v1/signals/history")
	status, _ := envelope(t, rec)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 envelope, got %d", status)
	}
}

func TestRunModeMismatchRejected(t *testing.T) {
	_, e := newTestHandler(t, models.ModeTest)
	rec := doRequest(t, e, http.MethodPost, "/api/v1/pipeline/run?mode=live")
	status, _ := envelope(t, rec)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 envelope for mode mismatch, got %d", status)
	}
}

func TestStats(t *testing.T) {
	_, e := newTestHandler(t, models.ModeTest)
	doRequest(t, e, http.MethodPost, "/api/v1/pipeline/run")

	rec := doRequest(t, e, http.MethodGet, "/api/v1/stats")
	status, data := envelope(t, rec)
	if status != http.StatusOK {
		t.Fatalf("stats failed: %s", rec.Body.String())
	}
	var stats statsResponse
	if err := json.Unmarshal(data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Posts == 0 || stats.Sentiments == 0 {
		t.Fatalf("expected populated stores after a run: %+v", stats)
	}
}
