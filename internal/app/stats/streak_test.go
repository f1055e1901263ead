package stats_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/shadowlingo/shadow/internal/app/stats"
	"github.com/shadowlingo/shadow/internal/domain"
	"github.com/shadowlingo/shadow/internal/infra/docstore"
)

func testStore(t *testing.T) *docstore.DB {
	t.Helper()
	db, err := docstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedStreak(t *testing.T, db *docstore.DB, userID string, fields domain.Document) {
	t.Helper()
	if err := db.Merge(context.Background(), stats.UserStatsPath(userID), fields); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestAdvance_FirstEverEvent(t *testing.T) {
	db := testStore(t)
	svc := stats.NewStreakService(db, zerolog.Nop())

	now := time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC)
	res, err := svc.AdvanceAt(context.Background(), "u1", "UTC", now)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if res.Outcome != domain.StreakFirstTime {
		t.Errorf("outcome = %q, want first_time", res.Outcome)
	}
	if res.CurrentStreak != 1 {
		t.Errorf("streak = %d, want 1", res.CurrentStreak)
	}
	if !res.StreakStartDate.Equal(now) {
		t.Errorf("start = %v, want %v", res.StreakStartDate, now)
	}
}

func TestAdvance_ConsecutiveDayIncrements(t *testing.T) {
	db := testStore(t)
	svc := stats.NewStreakService(db, zerolog.Nop())

	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	start := now.AddDate(0, 0, -3)
	seedStreak(t, db, "u1", domain.Document{
		"current_streak":          3,
		"streak_start_date":       start.Unix(),
		"last_streak_calculation": yesterday.Unix(),
		"last_listened_at":        yesterday.Unix(),
	})

	res, err := svc.AdvanceAt(context.Background(), "u1", "UTC", now)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if res.Outcome != domain.StreakIncremented {
		t.Errorf("outcome = %q, want incremented", res.Outcome)
	}
	if res.CurrentStreak != 4 {
		t.Errorf("streak = %d, want 4", res.CurrentStreak)
	}
	if res.StreakStartDate.Unix() != start.Unix() {
		t.Errorf("start moved: got %v, want %v", res.StreakStartDate, start)
	}
}

func TestAdvance_GapResets(t *testing.T) {
	db := testStore(t)
	svc := stats.NewStreakService(db, zerolog.Nop())

	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	threeDaysAgo := now.AddDate(0, 0, -3)
	seedStreak(t, db, "u1", domain.Document{
		"current_streak":          3,
		"streak_start_date":       now.AddDate(0, 0, -5).Unix(),
		"last_streak_calculation": threeDaysAgo.Unix(),
		"last_listened_at":        threeDaysAgo.Unix(),
	})

	res, err := svc.AdvanceAt(context.Background(), "u1", "UTC", now)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if res.Outcome != domain.StreakReset {
		t.Errorf("outcome = %q, want reset", res.Outcome)
	}
	if res.CurrentStreak != 1 {
		t.Errorf("streak = %d, want 1", res.CurrentStreak)
	}
	if !res.StreakStartDate.Equal(now) {
		t.Errorf("start = %v, want reset to %v", res.StreakStartDate, now)
	}
}

func TestAdvance_IdempotentWithinDay(t *testing.T) {
	db := testStore(t)
	svc := stats.NewStreakService(db, zerolog.Nop())
	ctx := context.Background()

	morning := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 9, 1, 22, 0, 0, 0, time.UTC)

	first, err := svc.AdvanceAt(ctx, "u1", "UTC", morning)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	second, err := svc.AdvanceAt(ctx, "u1", "UTC", evening)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}

	if second.Outcome != domain.StreakUnchanged {
		t.Errorf("second outcome = %q, want unchanged", second.Outcome)
	}
	if second.CurrentStreak != first.CurrentStreak {
		t.Errorf("streak changed within a day: %d vs %d", second.CurrentStreak, first.CurrentStreak)
	}

	got, err := svc.Current(ctx, "u1")
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if got.CurrentStreak != 1 {
		t.Errorf("persisted streak = %d, want 1", got.CurrentStreak)
	}
}

func TestAdvance_SameDayActivityBumpsZeroOnly(t *testing.T) {
	db := testStore(t)
	svc := stats.NewStreakService(db, zerolog.Nop())
	ctx := context.Background()

	now := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	earlier := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	// Activity recorded today by another path, but no calculation yet and a
	// zero streak: bump to 1.
	seedStreak(t, db, "u1", domain.Document{
		"current_streak":   0,
		"last_listened_at": earlier.Unix(),
	})
	res, err := svc.AdvanceAt(ctx, "u1", "UTC", now)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if res.Outcome != domain.StreakFirstTimeSameDay {
		t.Errorf("outcome = %q, want first_time_same_day", res.Outcome)
	}
	if res.CurrentStreak != 1 {
		t.Errorf("streak = %d, want 1", res.CurrentStreak)
	}

	// Same shape with a non-zero streak: the streak is left alone.
	seedStreak(t, db, "u2", domain.Document{
		"current_streak":    5,
		"streak_start_date": earlier.AddDate(0, 0, -5).Unix(),
		"last_listened_at":  earlier.Unix(),
	})
	res, err = svc.AdvanceAt(ctx, "u2", "UTC", now)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if res.Outcome != domain.StreakFirstTimeSameDay {
		t.Errorf("outcome = %q, want first_time_same_day", res.Outcome)
	}
	if res.CurrentStreak != 5 {
		t.Errorf("streak = %d, want 5 untouched", res.CurrentStreak)
	}
}

func TestAdvance_TimezoneDecidesTheDay(t *testing.T) {
	db := testStore(t)
	svc := stats.NewStreakService(db, zerolog.Nop())
	ctx := context.Background()

	// 2026-09-01T20:00Z is already Sep 2 in Tokyo. An event at 10:00Z the
	// same UTC day counts as yesterday there, so the streak increments.
	first := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	second := time.Date(2026, 9, 1, 20, 0, 0, 0, time.UTC)

	if _, err := svc.AdvanceAt(ctx, "u1", "Asia/Tokyo", first); err != nil {
		t.Fatalf("advance: %v", err)
	}
	seedStreak(t, db, "u1", domain.Document{"last_listened_at": first.Unix()})

	res, err := svc.AdvanceAt(ctx, "u1", "Asia/Tokyo", second)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if res.Outcome != domain.StreakIncremented {
		t.Errorf("outcome = %q, want incremented across the Tokyo midnight", res.Outcome)
	}
	if res.CurrentStreak != 2 {
		t.Errorf("streak = %d, want 2", res.CurrentStreak)
	}
}

func TestAdvance_InvalidInput(t *testing.T) {
	db := testStore(t)
	svc := stats.NewStreakService(db, zerolog.Nop())
	ctx := context.Background()
	now := time.Now()

	if _, err := svc.AdvanceAt(ctx, "u1", "Not/AZone", now); !errors.Is(err, domain.ErrInvalidTimezone) {
		t.Errorf("expected ErrInvalidTimezone, got %v", err)
	}
	if _, err := svc.AdvanceAt(ctx, "", "UTC", now); !errors.Is(err, domain.ErrEmptyUserID) {
		t.Errorf("expected ErrEmptyUserID, got %v", err)
	}
}

func TestTransition_Table(t *testing.T) {
	loc := time.UTC
	day := func(d, h int) time.Time {
		return time.Date(2026, 9, d, h, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name    string
		state   stats.StreakState
		now     time.Time
		outcome domain.StreakOutcome
		streak  int64
	}{
		{
			name:    "no history",
			state:   stats.StreakState{},
			now:     day(1, 9),
			outcome: domain.StreakFirstTime,
			streak:  1,
		},
		{
			name: "already calculated today",
			state: stats.StreakState{
				CurrentStreak:   3,
				LastCalculation: day(1, 8),
				LastActivity:    day(1, 8),
			},
			now:     day(1, 22),
			outcome: domain.StreakUnchanged,
			streak:  3,
		},
		{
			name: "yesterday",
			state: stats.StreakState{
				CurrentStreak:   3,
				LastCalculation: day(1, 8),
				LastActivity:    day(1, 8),
			},
			now:     day(2, 9),
			outcome: domain.StreakIncremented,
			streak:  4,
		},
		{
			name: "two day gap",
			state: stats.StreakState{
				CurrentStreak:   7,
				LastCalculation: day(1, 8),
				LastActivity:    day(1, 8),
			},
			now:     day(3, 9),
			outcome: domain.StreakReset,
			streak:  1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := stats.Transition(tc.state, loc, tc.now)
			if res.Outcome != tc.outcome {
				t.Errorf("outcome = %q, want %q", res.Outcome, tc.outcome)
			}
			if res.CurrentStreak != tc.streak {
				t.Errorf("streak = %d, want %d", res.CurrentStreak, tc.streak)
			}
		})
	}
}
