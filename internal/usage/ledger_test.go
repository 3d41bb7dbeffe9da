package usage

import (
	"sync"
	"testing"
	"time"

	"CrowdPulse/pkg/logger"
)

func testLimits() Limits {
	return Limits{
		Global:       map[string]int{"telegram": 200, "twitter": 50, "gemini": 1500},
		PerUser:      map[string]int{"telegram": 200, "twitter": 100},
		AlwaysGlobal: map[string]bool{"gemini": true},
	}
}

func newTestLedger(t *testing.T, creds CredentialFn) *Ledger {
	t.Helper()
	return NewLedger(testLimits(), creds, "", logger.Nop())
}

func TestTryRecordAtomicSequence(t *testing.T) {
	l := NewLedger(Limits{Global: map[string]int{"twitter": 5}}, nil, "", logger.Nop())

	for i := 0; i < 5; i++ {
		if !l.TryRecord("twitter", 1, "") {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}
	if l.TryRecord("twitter", 1, "") {
		t.Fatalf("call 6 should be blocked")
	}
	if rem := l.Remaining("twitter", ""); rem != 0 {
		t.Fatalf("expected 0 remaining, got %d", rem)
	}
	if !l.IsBlocked("twitter", "") {
		t.Fatalf("expected blocked")
	}
}

func TestTryRecordNeverExceedsUnderConcurrency(t *testing.T) {
	const limit = 100
	l := NewLedger(Limits{Global: map[string]int{"gemini": limit}}, nil, "", logger.Nop())

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 4*limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryRecord("gemini", 1, "") {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != limit {
		t.Fatalf("expected exactly %d recorded calls, got %d", limit, allowed)
	}
	if rem := l.Remaining("gemini", ""); rem != 0 {
		t.Fatalf("expected 0 remaining, got %d", rem)
	}
}

func TestHybridScopingWithCredentials(t *testing.T) {
	creds := func(service, callerID string) bool {
		return callerID == "5" && service == "twitter"
	}
	l := newTestLedger(t, creds)

	// caller 5 has own credentials: per-user limit applies
	if !l.TryRecord("twitter", 1, "5") {
		t.Fatalf("per-user call should be allowed")
	}
	s := l.Summary("5")
	if s["twitter"].Scope != "per_user" {
		t.Fatalf("expected per_user scope, got %s", s["twitter"].Scope)
	}
	if s["twitter"].Limit != 100 {
		t.Fatalf("expected per-user limit 100, got %d", s["twitter"].Limit)
	}
	if s["twitter"].Used != 1 {
		t.Fatalf("expected used=1, got %d", s["twitter"].Used)
	}

	// caller without credentials falls back to the global counter
	if !l.TryRecord("twitter", 1, "9") {
		t.Fatalf("global fallback call should be allowed")
	}
	g := l.Summary("")
	if g["twitter"].Scope != "global" {
		t.Fatalf("expected global scope")
	}
	if g["twitter"].Used != 1 {
		t.Fatalf("per-user usage must not leak into global counter, got %d", g["twitter"].Used)
	}
}

func TestAlwaysGlobalIgnoresCaller(t *testing.T) {
	creds := func(string, string) bool { return true }
	l := newTestLedger(t, creds)

	l.TryRecord("gemini", 1, "5")
	s := l.Summary("5")
	if s["gemini"].Scope != "global" {
		t.Fatalf("gemini must always be global, got %s", s["gemini"].Scope)
	}
	if s["gemini"].Used != 1 {
		t.Fatalf("expected used=1, got %d", s["gemini"].Used)
	}
}

func TestCredentialResolutionNotCached(t *testing.T) {
	hasCreds := false
	creds := func(service, callerID string) bool { return hasCreds }
	l := newTestLedger(t, creds)

	l.TryRecord("twitter", 1, "5")
	if l.Summary("5")["twitter"].Scope != "global" {
		t.Fatalf("expected global scope before credentials exist")
	}

	hasCreds = true
	l.TryRecord("twitter", 1, "5")
	s := l.Summary("5")
	if s["twitter"].Scope != "per_user" {
		t.Fatalf("credential change must take effect on the next call")
	}
	if s["twitter"].Used != 1 {
		t.Fatalf("per-user counter should start fresh, got %d", s["twitter"].Used)
	}
}

func TestUnconfiguredServiceNeverBlocks(t *testing.T) {
	l := newTestLedger(t, nil)

	for i := 0; i < 1000; i++ {
		if !l.TryRecord("reddit", 1, "") {
			t.Fatalf("unconfigured service must not block, blocked at call %d", i+1)
		}
	}
	if l.IsBlocked("reddit", "") {
		t.Fatalf("unconfigured service must never report blocked")
	}
}

func TestDayRollover(t *testing.T) {
	now := time.Date(2026, 3, 9, 23, 50, 0, 0, time.UTC)
	l := NewLedger(Limits{Global: map[string]int{"twitter": 2}}, nil, "", logger.Nop(),
		WithClock(func() time.Time { return now }))

	l.TryRecord("twitter", 2, "")
	if !l.IsBlocked("twitter", "") {
		t.Fatalf("expected blocked before midnight")
	}

	now = now.Add(20 * time.Minute) // past UTC midnight
	if l.IsBlocked("twitter", "") {
		t.Fatalf("expected fresh counters after midnight")
	}
	if rem := l.Remaining("twitter", ""); rem != 2 {
		t.Fatalf("expected full quota after rollover, got %d", rem)
	}
}

func TestPersistenceSurvivesRestart(t *testing.T) {
	stateFile := t.TempDir() + "/usage.json"
	limits := Limits{Global: map[string]int{"twitter": 10}}

	l := NewLedger(limits, nil, stateFile, logger.Nop())
	l.TryRecord("twitter", 3, "")

	l2 := NewLedger(limits, nil, stateFile, logger.Nop())
	if rem := l2.Remaining("twitter", ""); rem != 7 {
		t.Fatalf("expected 7 remaining after reload, got %d", rem)
	}
}

func TestResetSingleService(t *testing.T) {
	l := newTestLedger(t, nil)
	l.TryRecord("twitter", 5, "")
	l.TryRecord("telegram", 5, "")

	l.Reset("twitter", "")
	if used := l.Summary("")["twitter"].Used; used != 0 {
		t.Fatalf("expected twitter reset, got %d", used)
	}
	if used := l.Summary("")["telegram"].Used; used != 5 {
		t.Fatalf("telegram should be untouched, got %d", used)
	}
}
