package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/domain/service"
	"CrowdPulse/internal/usage"
	"CrowdPulse/pkg/logger"
)

type fakeCollector struct {
	kind  models.SourceKind
	posts []models.RawPostCandidate
	err   error
}

func (f *fakeCollector) Kind() models.SourceKind { return f.kind }

func (f *fakeCollector) Fetch(ctx context.Context, units []string, gate service.QuotaGate) ([]models.RawPostCandidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.RawPostCandidate
	for range units {
		if !gate() {
			break
		}
	}
	return append(out, f.posts...), nil
}

type memPostStore struct {
	posts     map[string]*models.SocialPost
	failOn    map[string]bool
	nextID    uint
}

func newMemPostStore() *memPostStore {
	return &memPostStore{posts: map[string]*models.SocialPost{}, failOn: map[string]bool{}}
}

func (m *memPostStore) Insert(ctx context.Context, post *models.SocialPost) error {
	if m.failOn[post.SourceID] {
		return errors.New("insert failed")
	}
	if _, ok := m.posts[post.SourceID]; ok {
		return errors.New("unique constraint")
	}
	m.nextID++
	post.ID = m.nextID
	m.posts[post.SourceID] = post
	return nil
}

func (m *memPostStore) ExistingSourceIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, id := range ids {
		if _, ok := m.posts[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (m *memPostStore) Unscored(ctx context.Context, mode models.DataMode, limit int) ([]models.SocialPost, error) {
	return nil, nil
}

func (m *memPostStore) BackfillEnrichment(ctx context.Context, id uint, symbol, cleaned string) error {
	return nil
}

func (m *memPostStore) Count(ctx context.Context) (int64, error) { return int64(len(m.posts)), nil }

func candidate(kind models.SourceKind, id, text string) models.RawPostCandidate {
	return models.RawPostCandidate{
		Source:   kind,
		SourceID: id,
		Text:     text,
		PostedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

func testLedger(limits map[string]int) *usage.Ledger {
	return usage.NewLedger(usage.Limits{Global: limits}, nil, "", logger.Nop())
}

func TestRunStoresAndDedups(t *testing.T) {
	store := newMemPostStore()
	store.posts["twitter_old"] = &models.SocialPost{SourceID: "twitter_old"}

	col := &fakeCollector{kind: models.SourceTwitter, posts: []models.RawPostCandidate{
		candidate(models.SourceTwitter, "twitter_1", "new post"),
		candidate(models.SourceTwitter, "twitter_1", "batch duplicate"),
		candidate(models.SourceTwitter, "twitter_old", "already stored"),
	}}

	c := NewCoordinator(
		[]service.SourceCollector{col},
		map[models.SourceKind][]string{models.SourceTwitter: {"q1"}},
		store,
		testLedger(map[string]int{"twitter": 50}),
		models.ModeTest,
		logger.Nop(),
	)

	results := c.Run(context.Background())
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Stored != 1 || r.Skipped != 2 {
		t.Fatalf("expected stored=1 skipped=2, got %+v", r)
	}
	if store.posts["twitter_1"].DataSource != models.ModeTest {
		t.Fatalf("posts must be tagged with the run mode")
	}
}

func TestRunSourceFailureIsolated(t *testing.T) {
	broken := &fakeCollector{kind: models.SourceTelegram, err: errors.New("session expired")}
	healthy := &fakeCollector{kind: models.SourceReddit, posts: []models.RawPostCandidate{
		candidate(models.SourceReddit, "reddit_1", "fine"),
	}}

	c := NewCoordinator(
		[]service.SourceCollector{broken, healthy},
		map[models.SourceKind][]string{
			models.SourceTelegram: {"chan"},
			models.SourceReddit:   {"sub"},
		},
		newMemPostStore(),
		testLedger(map[string]int{"telegram": 50}),
		models.ModeLive,
		logger.Nop(),
	)

	results := c.Run(context.Background())
	if results[0].Reason != models.SkipTransportError || results[0].Err == "" {
		t.Fatalf("expected transport error result, got %+v", results[0])
	}
	if results[1].Stored != 1 {
		t.Fatalf("healthy source must not be affected, got %+v", results[1])
	}
}

func TestRunNotConfigured(t *testing.T) {
	col := &fakeCollector{kind: models.SourceYouTube}
	c := NewCoordinator(
		[]service.SourceCollector{col},
		map[models.SourceKind][]string{},
		newMemPostStore(),
		testLedger(nil),
		models.ModeTest,
		logger.Nop(),
	)

	results := c.Run(context.Background())
	if results[0].Reason != models.SkipNotConfigured {
		t.Fatalf("expected not_configured, got %+v", results[0])
	}
}

func TestRunQuotaExhaustedBeforeStart(t *testing.T) {
	ledger := testLedger(map[string]int{"twitter": 1})
	ledger.TryRecord("twitter", 1, "")

	col := &fakeCollector{kind: models.SourceTwitter, posts: []models.RawPostCandidate{
		candidate(models.SourceTwitter, "twitter_1", "should not be stored"),
	}}
	store := newMemPostStore()
	c := NewCoordinator(
		[]service.SourceCollector{col},
		map[models.SourceKind][]string{models.SourceTwitter: {"q"}},
		store,
		ledger,
		models.ModeTest,
		logger.Nop(),
	)

	results := c.Run(context.Background())
	if results[0].Reason != models.SkipQuotaExceeded {
		t.Fatalf("expected quota_exceeded, got %+v", results[0])
	}
	if n, _ := store.Count(context.Background()); n != 0 {
		t.Fatalf("nothing may be stored past an exhausted quota")
	}
}

func TestIngestSingleSourceByKind(t *testing.T) {
	reddit := &fakeCollector{kind: models.SourceReddit, posts: []models.RawPostCandidate{
		candidate(models.SourceReddit, "reddit_1", "only this source"),
	}}
	twitter := &fakeCollector{kind: models.SourceTwitter, posts: []models.RawPostCandidate{
		candidate(models.SourceTwitter, "twitter_1", "must stay untouched"),
	}}
	store := newMemPostStore()
	c := NewCoordinator(
		[]service.SourceCollector{reddit, twitter},
		map[models.SourceKind][]string{
			models.SourceReddit:  {"sub"},
			models.SourceTwitter: {"q"},
		},
		store,
		testLedger(map[string]int{"reddit": 50, "twitter": 50}),
		models.ModeTest,
		logger.Nop(),
	)

	r := c.Ingest(context.Background(), models.SourceReddit)
	if r.Source != models.SourceReddit || r.Stored != 1 {
		t.Fatalf("expected one reddit post, got %+v", r)
	}
	if _, ok := store.posts["twitter_1"]; ok {
		t.Fatalf("other sources must not run")
	}

	r = c.Ingest(context.Background(), models.SourceYouTube)
	if r.Reason != models.SkipNotConfigured {
		t.Fatalf("unknown kind must come back not_configured, got %+v", r)
	}
}

func TestRunInsertFailureIsolatedPerRecord(t *testing.T) {
	store := newMemPostStore()
	store.failOn["twitter_bad"] = true

	col := &fakeCollector{kind: models.SourceTwitter, posts: []models.RawPostCandidate{
		candidate(models.SourceTwitter, "twitter_bad", "insert fails"),
		candidate(models.SourceTwitter, "twitter_ok", "insert works"),
	}}
	c := NewCoordinator(
		[]service.SourceCollector{col},
		map[models.SourceKind][]string{models.SourceTwitter: {"q"}},
		store,
		testLedger(map[string]int{"twitter": 50}),
		models.ModeTest,
		logger.Nop(),
	)

	r := c.Run(context.Background())[0]
	if r.Stored != 1 || r.Skipped != 1 {
		t.Fatalf("expected stored=1 skipped=1, got %+v", r)
	}
}
