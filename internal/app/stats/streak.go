package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/shadowlingo/shadow/internal/domain"
)

// StreakState is the persisted slice of UserListeningStats the streak
// calculator owns.
type StreakState struct {
	CurrentStreak   int64
	StreakStartDate time.Time
	LastCalculation time.Time
	LastActivity    time.Time
}

// Transition applies the once-per-day streak rule. Pure: the decision
// depends only on the prior state, the zone, and the current instant.
//
// Evaluated only when the last calculation was not today (idempotent within
// a calendar day):
//   - no prior activity               → first_time: streak 1, start now
//   - last activity yesterday         → incremented, start unchanged
//   - last activity today             → first_time_same_day: a stale
//     calculation from another code path; only a zero streak is bumped to 1
//   - anything else (gap of 2+ days)  → reset: streak 1, start now
func Transition(state StreakState, loc *time.Location, now time.Time) domain.StreakResult {
	if !state.LastCalculation.IsZero() && daysBetween(loc, state.LastCalculation, now) == 0 {
		return domain.StreakResult{
			Outcome:         domain.StreakUnchanged,
			CurrentStreak:   state.CurrentStreak,
			StreakStartDate: state.StreakStartDate,
		}
	}

	if state.LastActivity.IsZero() {
		return domain.StreakResult{
			Outcome:         domain.StreakFirstTime,
			CurrentStreak:   1,
			StreakStartDate: now,
		}
	}

	switch gap := daysBetween(loc, state.LastActivity, now); gap {
	case 1:
		return domain.StreakResult{
			Outcome:         domain.StreakIncremented,
			CurrentStreak:   state.CurrentStreak + 1,
			StreakStartDate: state.StreakStartDate,
		}
	case 0:
		res := domain.StreakResult{
			Outcome:         domain.StreakFirstTimeSameDay,
			CurrentStreak:   state.CurrentStreak,
			StreakStartDate: state.StreakStartDate,
		}
		if state.CurrentStreak == 0 {
			res.CurrentStreak = 1
			res.StreakStartDate = now
		}
		return res
	default:
		return domain.StreakResult{
			Outcome:         domain.StreakReset,
			CurrentStreak:   1,
			StreakStartDate: now,
		}
	}
}

// StreakService persists streak transitions. The entire read-modify-write
// runs inside the store's transaction primitive so concurrent sessions for
// the same user cannot lose an update — at most one transition commits per
// logical day.
type StreakService struct {
	store domain.Store
	log   zerolog.Logger
}

// NewStreakService creates a streak service.
func NewStreakService(store domain.Store, log zerolog.Logger) *StreakService {
	return &StreakService{store: store, log: log}
}

// Advance evaluates today's streak transition for the user and persists it.
func (s *StreakService) Advance(ctx context.Context, userID, tz string) (domain.StreakResult, error) {
	return s.AdvanceAt(ctx, userID, tz, time.Now())
}

// AdvanceAt is Advance with an explicit instant, for callers that own the
// clock.
func (s *StreakService) AdvanceAt(ctx context.Context, userID, tz string, now time.Time) (domain.StreakResult, error) {
	if userID == "" {
		return domain.StreakResult{}, domain.ErrEmptyUserID
	}
	loc, err := lookupZone(tz)
	if err != nil {
		return domain.StreakResult{}, err
	}

	path := UserStatsPath(userID)
	var res domain.StreakResult

	err = s.store.RunTransaction(ctx, func(tx domain.Tx) error {
		doc, err := tx.Get(path)
		if errors.Is(err, domain.ErrDocumentNotFound) {
			doc = domain.Document{}
		} else if err != nil {
			return fmt.Errorf("read stats: %w", err)
		}

		stats := DecodeUserStats(doc)
		res = Transition(StreakState{
			CurrentStreak:   stats.CurrentStreak,
			StreakStartDate: stats.StreakStartDate,
			LastCalculation: stats.LastStreakCalculation,
			LastActivity:    stats.LastActivity(),
		}, loc, now)

		if res.Outcome == domain.StreakUnchanged {
			return nil
		}
		return tx.Merge(path, domain.Document{
			"current_streak":          res.CurrentStreak,
			"streak_start_date":       res.StreakStartDate.Unix(),
			"last_streak_calculation": now.Unix(),
		})
	})
	if err != nil {
		return domain.StreakResult{}, err
	}

	if res.Outcome != domain.StreakUnchanged {
		s.log.Debug().
			Str("user", userID).
			Str("outcome", string(res.Outcome)).
			Int64("streak", res.CurrentStreak).
			Msg("streak transition")
	}
	return res, nil
}

// Current loads the persisted streak state without evaluating a transition.
func (s *StreakService) Current(ctx context.Context, userID string) (domain.UserListeningStats, error) {
	doc, err := s.store.Get(ctx, UserStatsPath(userID))
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return domain.UserListeningStats{}, nil
	}
	if err != nil {
		return domain.UserListeningStats{}, err
	}
	return DecodeUserStats(doc), nil
}
