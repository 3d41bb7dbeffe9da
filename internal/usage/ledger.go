// Package usage implements the daily quota ledger shared by every external
// collaborator: collectors, the market fetcher, and the primary scorer.
//
// A service is either always-global (one shared counter) or hybrid: when a
// caller id is supplied and that caller has dedicated credentials, usage is
// tracked under "user:<id>:<service>" against the per-user limit, otherwise
// it falls back to the shared counter and the global limit. Credential
// status is resolved on every call, never cached, since it can change
// between calls.
package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/domain/repository"
	"CrowdPulse/pkg/logger"
	"CrowdPulse/pkg/util"
)

// Limits holds the configured daily quotas.
type Limits struct {
	Global       map[string]int
	PerUser      map[string]int
	AlwaysGlobal map[string]bool
}

// CredentialFn reports whether a caller has dedicated credentials for a
// service. Resolved per call by design.
type CredentialFn func(service, callerID string) bool

// ServiceSummary is one row of the usage summary.
type ServiceSummary struct {
	Used        int     `json:"used"`
	Limit       int     `json:"limit"`
	Remaining   int     `json:"remaining"`
	Blocked     bool    `json:"blocked"`
	PercentUsed float64 `json:"percent_used"`
	Scope       string  `json:"scope"`
}

// Option configures the ledger.
type Option func(*Ledger)

// WithAudit appends an audit row per recorded/blocked call.
func WithAudit(store repository.UsageLogStore) Option {
	return func(l *Ledger) { l.audit = store }
}

// WithMetrics publishes utilization and block counters.
func WithMetrics(m repository.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// Ledger tracks per-day usage counters keyed by scope. All read-modify-write
// sequences go through one mutex; state is flushed to the state file after
// every successful mutation so counters survive a process restart.
type Ledger struct {
	mu        sync.Mutex
	limits    Limits
	creds     CredentialFn
	stateFile string
	usage     map[string]map[string]int // day -> scopeKey -> count
	log       *logger.Logger
	audit     repository.UsageLogStore
	metrics   repository.Metrics
	now       func() time.Time
}

// NewLedger creates a ledger, loading any persisted state from stateFile.
func NewLedger(limits Limits, creds CredentialFn, stateFile string, log *logger.Logger, opts ...Option) *Ledger {
	if creds == nil {
		creds = func(string, string) bool { return false }
	}
	l := &Ledger{
		limits:    limits,
		creds:     creds,
		stateFile: stateFile,
		usage:     make(map[string]map[string]int),
		log:       log,
		metrics:   repository.NopMetrics{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.load()
	return l
}

// Remaining returns the number of calls left today for the resolved scope.
func (l *Ledger) Remaining(service, callerID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	key, limit := l.resolve(service, callerID)
	if limit < 0 {
		return math.MaxInt
	}
	used := l.today()[key]
	if rem := limit - used; rem > 0 {
		return rem
	}
	return 0
}

// IsBlocked reports whether the service has exhausted its daily limit.
func (l *Ledger) IsBlocked(service, callerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	key, limit := l.resolve(service, callerID)
	return limit >= 0 && l.today()[key] >= limit
}

// TryRecord atomically checks and increments usage. If the increment would
// exceed the limit it performs no mutation and returns false.
func (l *Ledger) TryRecord(service string, amount int, callerID string) bool {
	if amount <= 0 {
		amount = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key, limit := l.resolve(service, callerID)
	day := l.today()
	current := day[key]

	if limit >= 0 && current+amount > limit {
		l.log.Warn("api limit reached, call blocked",
			logger.String("service", service),
			logger.String("scope", key),
			logger.Int("used", current),
			logger.Int("limit", limit))
		l.metrics.RecordQuotaBlocked(service)
		l.appendAudit(service, "blocked", key, current, limit, callerID)
		return false
	}

	day[key] = current + amount
	total := current + amount

	l.warnMilestones(service, key, current, total, limit)
	if limit > 0 {
		l.metrics.RecordUsagePercent(key, float64(total)/float64(limit)*100)
	}
	l.persist()
	l.appendAudit(service, "recorded", key, total, limit, callerID)
	return true
}

// Summary returns today's usage for every configured service, resolved for
// the given caller.
func (l *Ledger) Summary(callerID string) map[string]ServiceSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	day := l.today()
	out := make(map[string]ServiceSummary, len(l.limits.Global))

	services := make([]string, 0, len(l.limits.Global))
	for svc := range l.limits.Global {
		services = append(services, svc)
	}
	sort.Strings(services)

	for _, svc := range services {
		key, limit := l.resolve(svc, callerID)
		used := day[key]
		scope := "global"
		if key != svc {
			scope = "per_user"
		}
		pct := 0.0
		if limit > 0 {
			pct = float64(used) / float64(limit) * 100
		}
		remaining := limit - used
		if remaining < 0 {
			remaining = 0
		}
		out[svc] = ServiceSummary{
			Used:        used,
			Limit:       limit,
			Remaining:   remaining,
			Blocked:     used >= limit,
			PercentUsed: pct,
			Scope:       scope,
		}
	}
	return out
}

// Reset zeroes counters for one service scope, or all of today's counters
// when service is empty. Test and ops only.
func (l *Ledger) Reset(service, callerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	day := l.today()
	if service != "" {
		key, _ := l.resolve(service, callerID)
		day[key] = 0
		l.log.Info("usage reset", logger.String("scope", key))
	} else {
		dk := util.DayKey(l.now())
		l.usage[dk] = make(map[string]int)
		l.log.Info("all usage counters reset")
	}
	l.persist()
}

// resolve returns the tracking key and applicable limit. Callers must hold
// the mutex.
func (l *Ledger) resolve(service, callerID string) (string, int) {
	if callerID != "" && !l.limits.AlwaysGlobal[service] && l.creds(service, callerID) {
		if perUser, ok := l.limits.PerUser[service]; ok {
			return fmt.Sprintf("user:%s:%s", callerID, service), perUser
		}
	}
	limit, ok := l.limits.Global[service]
	if !ok {
		// services without a configured limit are counted but never blocked
		limit = -1
	}
	return service, limit
}

// today returns the counter map for the current UTC day, creating it on
// first access after midnight.
func (l *Ledger) today() map[string]int {
	dk := util.DayKey(l.now())
	day, ok := l.usage[dk]
	if !ok {
		day = make(map[string]int)
		l.usage[dk] = day
	}
	return day
}

func (l *Ledger) warnMilestones(service, key string, before, after, limit int) {
	if limit <= 0 {
		return
	}
	pctBefore := float64(before) / float64(limit) * 100
	pctAfter := float64(after) / float64(limit) * 100

	crossed := func(threshold float64) bool {
		return pctAfter >= threshold && pctBefore < threshold
	}
	if pctAfter >= 90 || crossed(80) || crossed(50) {
		l.log.Warn("api usage milestone",
			logger.String("service", service),
			logger.String("scope", key),
			logger.Int("used", after),
			logger.Int("limit", limit),
			logger.Float64("percent", pctAfter))
	}
}

// persist writes the full counter state to the state file. A write failure
// is logged; the in-memory state stays authoritative for this process.
func (l *Ledger) persist() {
	if l.stateFile == "" {
		return
	}
	b, err := json.MarshalIndent(l.usage, "", "  ")
	if err != nil {
		l.log.Error("marshal usage state", logger.Error(err))
		return
	}
	if err := os.MkdirAll(filepath.Dir(l.stateFile), 0o755); err != nil {
		l.log.Error("create usage state dir", logger.Error(err))
		return
	}
	if err := os.WriteFile(l.stateFile, b, 0o644); err != nil {
		l.log.Error("write usage state", logger.Error(err))
	}
}

func (l *Ledger) load() {
	if l.stateFile == "" {
		return
	}
	b, err := os.ReadFile(l.stateFile)
	if err != nil {
		return
	}
	var state map[string]map[string]int
	if err := json.Unmarshal(b, &state); err != nil {
		l.log.Warn("corrupt usage state, starting fresh", logger.Error(err))
		return
	}
	l.usage = state
}

func (l *Ledger) appendAudit(service, status, key string, count, limit int, callerID string) {
	if l.audit == nil {
		return
	}
	entry := &models.UsageLogEntry{
		Service:    service,
		Status:     status,
		ScopeKey:   key,
		DailyCount: count,
		DailyLimit: limit,
		CallerID:   callerID,
		CreatedAt:  l.now().UTC(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.audit.Append(ctx, entry); err != nil {
		l.log.Debug("usage audit append failed", logger.Error(err))
	}
}
