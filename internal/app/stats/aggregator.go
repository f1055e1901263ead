package stats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/shadowlingo/shadow/internal/domain"
	"github.com/shadowlingo/shadow/internal/infra/analytics"
	"github.com/shadowlingo/shadow/internal/infra/metrics"
)

const (
	// DefaultSyncThreshold is how many events may elapse between
	// reconciliations of the lifetime-total mirror. Reading before every
	// write would double the store operations per practice event; the
	// mirror instead tolerates brief staleness.
	DefaultSyncThreshold = 10

	// milestoneHistoryLimit bounds the in-memory milestone history shown on
	// completion screens.
	milestoneHistoryLimit = 5
)

// AggregatorConfig configures a session aggregator.
type AggregatorConfig struct {
	UserID        string
	Timezone      string // IANA zone name, validated at construction
	SyncThreshold int    // 0 means DefaultSyncThreshold
}

// Aggregator owns the in-memory session counters and a best-effort mirror
// of the lifetime activity total, and fans each practice event out to the
// daily, per-language-pair, and singleton stats documents.
//
// Persistence is fire-and-forget: a failed write is logged and counted,
// never retried, and never blocks the local counters or the popup flow.
// The local counters stay authoritative for the session.
type Aggregator struct {
	cfg    AggregatorConfig
	store  domain.Store
	ranks  RankProvider
	streak *StreakService
	sink   analytics.Sink
	log    zerolog.Logger
	clock  func() time.Time

	mu          sync.Mutex
	session     domain.SessionCounters
	totalMirror int64
	pairMirror  map[string]int64
	sinceSync   int
	history     []domain.MilestoneEvent
}

// NewAggregator creates an aggregator. The timezone is validated here so a
// malformed zone fails at startup, not on the first event.
func NewAggregator(cfg AggregatorConfig, store domain.Store, ranks RankProvider, streak *StreakService, sink analytics.Sink, log zerolog.Logger) (*Aggregator, error) {
	if cfg.UserID == "" {
		return nil, domain.ErrEmptyUserID
	}
	if _, err := lookupZone(cfg.Timezone); err != nil {
		return nil, err
	}
	if cfg.SyncThreshold <= 0 {
		cfg.SyncThreshold = DefaultSyncThreshold
	}
	return &Aggregator{
		cfg:        cfg,
		store:      store,
		ranks:      ranks,
		streak:     streak,
		sink:       sink,
		log:        log,
		clock:      time.Now,
		pairMirror: make(map[string]int64),
	}, nil
}

// RecordResult is what a single practice event produced.
type RecordResult struct {
	Session    domain.SessionCounters  `json:"session"`
	Streak     domain.StreakResult     `json:"streak"`
	Milestones []domain.MilestoneEvent `json:"milestones,omitempty"`
}

// RecordEvent registers one practice event. The session counter bump is
// synchronous; everything downstream — mirror reconciliation, milestone
// detection, document writes, the streak transition — follows the
// fire-and-forget policy and cannot fail the call. The only errors returned
// are caller bugs (unknown event type).
func (a *Aggregator) RecordEvent(ctx context.Context, pair domain.LanguagePair, event domain.EventType) (RecordResult, error) {
	if !event.Valid() {
		return RecordResult{}, fmt.Errorf("%w: %q", domain.ErrUnknownEventType, event)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock()
	date, err := LocalDateBoundary(a.cfg.Timezone, now)
	if err != nil {
		return RecordResult{}, err
	}

	// Session counter first: the caller's UI sees the bump even if every
	// write below fails.
	if event == domain.EventListened {
		a.session.Listened++
	} else {
		a.session.Viewed++
	}
	metrics.EventsRecorded.WithLabelValues(string(event)).Inc()

	// Smart sync: reconcile the mirror at most once per SyncThreshold
	// events instead of reading before every write.
	a.sinceSync++
	if a.sinceSync >= a.cfg.SyncThreshold {
		a.reconcileLocked(ctx)
		a.sinceSync = 0
	}

	key := pair.Key()
	priorPair, known := a.pairMirror[key]
	firstForPair := false
	if !known {
		// One read per pair per session initializes the per-language mirror
		// and tells us whether first_listened needs stamping.
		doc, err := a.store.Get(ctx, LanguagePairPath(a.cfg.UserID, pair))
		switch {
		case errors.Is(err, domain.ErrDocumentNotFound):
			firstForPair = true
		case err != nil:
			a.swallow("language pair read", err)
		default:
			priorPair = doc.Int("count")
		}
	}

	priorTotal := a.totalMirror
	newTotal := priorTotal + 1
	newPair := priorPair + 1
	a.totalMirror = newTotal
	a.pairMirror[key] = newPair

	milestones := Detect(a.ranks, priorTotal, newTotal, &LanguageTotals{Prior: priorPair, New: newPair})
	for _, ev := range milestones {
		metrics.MilestonesDetected.WithLabelValues(string(ev.Scope)).Inc()
	}
	a.history = append(a.history, milestones...)
	if n := len(a.history); n > milestoneHistoryLimit {
		a.history = a.history[n-milestoneHistoryLimit:]
	}

	// The streak transition must run before this event's writes: it reads
	// the last-activity timestamps, and once persistLocked stamps them with
	// now, yesterday's activity is no longer observable.
	streakRes, err := a.streak.AdvanceAt(ctx, a.cfg.UserID, a.cfg.Timezone, now)
	if err != nil {
		a.swallow("streak transition", err)
	} else if streakRes.Outcome != domain.StreakUnchanged {
		metrics.StreakDays.Set(float64(streakRes.CurrentStreak))
	}

	a.persistLocked(ctx, pair, event, now, date, firstForPair)

	a.sink.Publish(analytics.New("practice.event", map[string]any{
		"type": string(event),
		"pair": key,
	}))

	return RecordResult{
		Session:    a.session,
		Streak:     streakRes,
		Milestones: milestones,
	}, nil
}

// ForceSync reconciles the lifetime-total mirror immediately, regardless of
// the event threshold. Invoked on session and collection changes.
func (a *Aggregator) ForceSync(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reconcileLocked(ctx)
	a.sinceSync = 0
}

// ResetSession zeroes the session counters and clears the milestone
// history. Called when the user dismisses a stats popup.
func (a *Aggregator) ResetSession() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = domain.SessionCounters{}
	a.history = nil
}

// Session returns the current session counters.
func (a *Aggregator) Session() domain.SessionCounters {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// LifetimeTotal returns the best-effort mirror of the lifetime activity
// total. It may lag the persisted value by up to SyncThreshold-1 events.
func (a *Aggregator) LifetimeTotal() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalMirror
}

// MilestoneHistory returns the milestones recorded this session, oldest
// first, bounded to the last five.
func (a *Aggregator) MilestoneHistory() []domain.MilestoneEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.MilestoneEvent, len(a.history))
	copy(out, a.history)
	return out
}

// ─── Snapshots ──────────────────────────────────────────────────────────────

// TodaySnapshot reads today's daily record. A missing document decodes as a
// zero record for today's date.
func (a *Aggregator) TodaySnapshot(ctx context.Context) (domain.DailyStatRecord, error) {
	date, err := LocalDateBoundary(a.cfg.Timezone, a.clock())
	if err != nil {
		return domain.DailyStatRecord{}, err
	}
	doc, err := a.store.Get(ctx, DailyStatPath(a.cfg.UserID, date))
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return domain.DailyStatRecord{Date: date}, nil
	}
	if err != nil {
		return domain.DailyStatRecord{}, err
	}
	return DecodeDailyStat(doc), nil
}

// LifetimeSnapshot reads the singleton stats document. A missing document
// decodes as zero stats.
func (a *Aggregator) LifetimeSnapshot(ctx context.Context) (domain.UserListeningStats, error) {
	doc, err := a.store.Get(ctx, UserStatsPath(a.cfg.UserID))
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return domain.UserListeningStats{}, nil
	}
	if err != nil {
		return domain.UserListeningStats{}, err
	}
	return DecodeUserStats(doc), nil
}

// DailyHistory returns the user's daily records for the last n days
// (including today), oldest first, for chart rendering. Days without
// activity are simply absent.
func (a *Aggregator) DailyHistory(ctx context.Context, n int) ([]domain.DailyStatRecord, error) {
	loc, err := lookupZone(a.cfg.Timezone)
	if err != nil {
		return nil, err
	}
	cutoff := a.clock().In(loc).AddDate(0, 0, -(n - 1)).Format("2006-01-02")

	prefix := DailyStatPrefix(a.cfg.UserID)
	paths, err := a.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var records []domain.DailyStatRecord
	for _, p := range paths {
		// ISO dates sort lexicographically.
		if p[len(prefix):] < cutoff {
			continue
		}
		doc, err := a.store.Get(ctx, p)
		if err != nil {
			return nil, err
		}
		records = append(records, DecodeDailyStat(doc))
	}
	return records, nil
}

// LanguagePairStats returns the per-study-direction lifetime records,
// ordered by pair key.
func (a *Aggregator) LanguagePairStats(ctx context.Context) ([]domain.LanguagePairStat, error) {
	paths, err := a.store.List(ctx, LanguagePairPrefix(a.cfg.UserID))
	if err != nil {
		return nil, err
	}

	var pairs []domain.LanguagePairStat
	for _, p := range paths {
		doc, err := a.store.Get(ctx, p)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, DecodeLanguagePairStat(doc))
	}
	return pairs, nil
}

// ─── Write Path ─────────────────────────────────────────────────────────────

// persistLocked merge-increments the three documents for this event. Daily
// and per-language counters are commutative increments, so concurrent
// sessions converge without a transaction.
func (a *Aggregator) persistLocked(ctx context.Context, pair domain.LanguagePair, event domain.EventType, now time.Time, date string, firstForPair bool) {
	uid := a.cfg.UserID
	countField, statsField, tsField := "count_listened", "phrases_listened", "last_listened_at"
	if event == domain.EventViewed {
		countField, statsField, tsField = "count_viewed", "phrases_viewed", "last_viewed_at"
	}

	// total_count is incremented in lockstep with its parts, keeping the
	// denormalized invariant total_count == count_listened + count_viewed.
	daily := DailyStatPath(uid, date)
	a.swallowIf("daily count", a.store.Increment(ctx, daily, countField, 1))
	a.swallowIf("daily total", a.store.Increment(ctx, daily, "total_count", 1))
	a.swallowIf("daily merge", a.store.Merge(ctx, daily, domain.Document{
		"date":         date,
		"last_updated": now.Unix(),
	}))

	pairPath := LanguagePairPath(uid, pair)
	a.swallowIf("pair count", a.store.Increment(ctx, pairPath, "count", 1))
	pairFields := domain.Document{
		"input_lang":   pair.Input,
		"target_lang":  pair.Target,
		"last_updated": now.Unix(),
	}
	if firstForPair {
		pairFields["first_listened"] = now.Unix()
	}
	a.swallowIf("pair merge", a.store.Merge(ctx, pairPath, pairFields))

	statsPath := UserStatsPath(uid)
	a.swallowIf("stats count", a.store.Increment(ctx, statsPath, statsField, 1))
	a.swallowIf("stats merge", a.store.Merge(ctx, statsPath, domain.Document{
		tsField: now.Unix(),
	}))
}

// reconcileLocked reads the persisted lifetime total into the mirror. A
// missing document means nothing has been persisted yet; the local mirror
// stands.
func (a *Aggregator) reconcileLocked(ctx context.Context) {
	metrics.ReconciliationReads.Inc()
	doc, err := a.store.Get(ctx, UserStatsPath(a.cfg.UserID))
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
	case err != nil:
		a.swallow("mirror reconciliation", err)
	default:
		a.totalMirror = DecodeUserStats(doc).Total()
	}
}

// swallow implements the transient-persistence-failure policy: log, count,
// move on. The practice flow never blocks on stats plumbing.
func (a *Aggregator) swallow(op string, err error) {
	a.log.Warn().Err(err).Str("op", op).Str("user", a.cfg.UserID).Msg("stats persistence failed")
	metrics.PersistenceFailures.WithLabelValues(op).Inc()
}

func (a *Aggregator) swallowIf(op string, err error) {
	if err != nil {
		a.swallow(op, err)
	}
}
