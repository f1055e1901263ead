// Package domain holds the pure types of the Shadow practice engine.
// Domain types carry no infrastructure dependency — persistence, HTTP,
// and presentation layers all build on top of these.
package domain

import "time"

// ─── Practice Events ────────────────────────────────────────────────────────

// EventType classifies a single practice event.
type EventType string

const (
	EventListened EventType = "listened"
	EventViewed   EventType = "viewed"
)

// Valid reports whether the event type is one the engine understands.
func (e EventType) Valid() bool {
	return e == EventListened || e == EventViewed
}

// LanguagePair identifies a study direction (input language → target language).
type LanguagePair struct {
	Input  string `json:"input_lang"`
	Target string `json:"target_lang"`
}

// Key returns the canonical document-key form, e.g. "en-ja".
func (p LanguagePair) Key() string {
	return p.Input + "-" + p.Target
}

// ─── Rank / Milestone Types ─────────────────────────────────────────────────

// RankThreshold is one row of a milestone table. Tables are iterated in
// strictly descending threshold order for lookup and always contain a
// threshold-0 floor. NextMilestone equals the threshold of the next-higher
// row, or 0 for the top rank.
type RankThreshold struct {
	Threshold     int64  `json:"threshold"`
	Title         string `json:"title"`
	ColorTag      string `json:"color_tag"`
	Description   string `json:"description"`
	NextMilestone int64  `json:"next_milestone"`
}

// MilestoneScope tells which table a milestone crossing came from.
type MilestoneScope string

const (
	ScopeTotal    MilestoneScope = "total"
	ScopeLanguage MilestoneScope = "language"
)

// MilestoneEvent is emitted when an increment crosses a rank boundary.
type MilestoneEvent struct {
	Scope       MilestoneScope `json:"scope"`
	Title       string         `json:"title"`
	ColorTag    string         `json:"color_tag"`
	Description string         `json:"description"`
	Count       int64          `json:"count"`
}

// ─── Persisted Statistics ───────────────────────────────────────────────────

// DailyStatRecord aggregates one user-local calendar day of practice.
// Invariant: TotalCount == CountListened + CountViewed after any sequence
// of increments.
type DailyStatRecord struct {
	Date          string    `json:"date"` // "YYYY-MM-DD"
	CountListened int64     `json:"count_listened"`
	CountViewed   int64     `json:"count_viewed"`
	TotalCount    int64     `json:"total_count"`
	LastUpdated   time.Time `json:"last_updated"`
}

// LanguagePairStat tracks lifetime activity for one study direction.
type LanguagePairStat struct {
	InputLang     string    `json:"input_lang"`
	TargetLang    string    `json:"target_lang"`
	Count         int64     `json:"count"`
	FirstListened time.Time `json:"first_listened"`
	LastUpdated   time.Time `json:"last_updated"`
}

// UserListeningStats is the per-user singleton document. It is mutated only
// via merge-increment operations, never overwritten wholesale.
type UserListeningStats struct {
	PhrasesListened       int64     `json:"phrases_listened"`
	PhrasesViewed         int64     `json:"phrases_viewed"`
	LastListenedAt        time.Time `json:"last_listened_at"`
	LastViewedAt          time.Time `json:"last_viewed_at"`
	CurrentStreak         int64     `json:"current_streak"`
	StreakStartDate       time.Time `json:"streak_start_date"`
	LastStreakCalculation time.Time `json:"last_streak_calculation"`
}

// Total returns the lifetime activity count across both event kinds.
func (s UserListeningStats) Total() int64 {
	return s.PhrasesListened + s.PhrasesViewed
}

// LastActivity returns the most recent of the two last-event timestamps.
func (s UserListeningStats) LastActivity() time.Time {
	if s.LastViewedAt.After(s.LastListenedAt) {
		return s.LastViewedAt
	}
	return s.LastListenedAt
}

// SessionCounters are ephemeral, in-memory counts for one client session.
// They are reset when the user dismisses a stats popup and are never
// persisted or synchronized across sessions.
type SessionCounters struct {
	Listened int64 `json:"listened"`
	Viewed   int64 `json:"viewed"`
}

// Total returns listened + viewed for this session.
func (c SessionCounters) Total() int64 {
	return c.Listened + c.Viewed
}

// ─── Streak Types ───────────────────────────────────────────────────────────

// StreakOutcome names the transition the streak calculator took.
type StreakOutcome string

const (
	StreakFirstTime        StreakOutcome = "first_time"
	StreakIncremented      StreakOutcome = "incremented"
	StreakFirstTimeSameDay StreakOutcome = "first_time_same_day"
	StreakReset            StreakOutcome = "reset"
	StreakUnchanged        StreakOutcome = "unchanged"
)

// StreakResult is the state produced by one streak transition.
type StreakResult struct {
	Outcome         StreakOutcome `json:"outcome"`
	CurrentStreak   int64         `json:"current_streak"`
	StreakStartDate time.Time     `json:"streak_start_date"`
}
