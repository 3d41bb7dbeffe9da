package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"CrowdPulse/internal/domain/models"
)

func TestLocalScorerBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/score/batch" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req localScoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := localScoreResponse{}
		for range req.Texts {
			resp.Results = append(resp.Results, struct {
				Label      string  `json:"label"`
				Confidence float64 `json:"confidence"`
			}{Label: "NEGATIVE", Confidence: 0.7})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	s := NewLocalScorer(srv.URL, 5*time.Second)
	out, err := s.ScoreBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out))
	}
	if out[0].Label != models.LabelNegative || out[0].Scorer != "local" {
		t.Fatalf("expected normalized negative result, got %+v", out[0])
	}
}

func TestLocalScorerLengthMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(localScoreResponse{})
	}))
	defer srv.Close()

	s := NewLocalScorer(srv.URL, 5*time.Second)
	if _, err := s.ScoreBatch(context.Background(), []string{"a"}); err == nil {
		t.Fatalf("expected contract violation error")
	}
}
