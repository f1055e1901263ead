package stats_test

import (
	"testing"

	"github.com/shadowlingo/shadow/internal/app/stats"
	"github.com/shadowlingo/shadow/internal/domain"
)

func TestRankTables_Shape(t *testing.T) {
	ranks := stats.DefaultRanks()

	for name, table := range map[string][]domain.RankThreshold{
		"total":    ranks.TotalRanks(),
		"language": ranks.LanguageRanks(),
	} {
		t.Run(name, func(t *testing.T) {
			if len(table) == 0 {
				t.Fatal("empty table")
			}
			// Strictly descending, with a 0 floor.
			for i := 1; i < len(table); i++ {
				if table[i].Threshold >= table[i-1].Threshold {
					t.Errorf("thresholds not strictly descending at %d: %d >= %d",
						i, table[i].Threshold, table[i-1].Threshold)
				}
			}
			if table[len(table)-1].Threshold != 0 {
				t.Errorf("last entry threshold = %d, want 0 floor", table[len(table)-1].Threshold)
			}
			// NextMilestone links to the next-higher row; 0 at the top.
			if table[0].NextMilestone != 0 {
				t.Errorf("top rank NextMilestone = %d, want 0", table[0].NextMilestone)
			}
			for i := 1; i < len(table); i++ {
				if table[i].NextMilestone != table[i-1].Threshold {
					t.Errorf("entry %d NextMilestone = %d, want %d",
						i, table[i].NextMilestone, table[i-1].Threshold)
				}
			}
		})
	}
}

func TestRank_ConstantWithinBand(t *testing.T) {
	// For every threshold t and every value in [t, nextThreshold), the rank
	// title and NextMilestone must not change.
	table := stats.DefaultRanks().TotalRanks()

	for i, row := range table {
		at := stats.Rank(table, row.Threshold)
		if at.Title != row.Title {
			t.Errorf("Rank(%d).Title = %q, want %q", row.Threshold, at.Title, row.Title)
		}

		upper := row.Threshold + 100
		if i > 0 {
			upper = table[i-1].Threshold - 1
		}
		for _, v := range []int64{row.Threshold, (row.Threshold + upper) / 2, upper} {
			got := stats.Rank(table, v)
			if got.Title != row.Title {
				t.Errorf("Rank(%d).Title = %q, want %q (band of %d)", v, got.Title, row.Title, row.Threshold)
			}
			if got.NextMilestone != row.NextMilestone {
				t.Errorf("Rank(%d).NextMilestone = %d, want %d", v, got.NextMilestone, row.NextMilestone)
			}
		}
	}
}

func TestRank_ShadowInitiateAt100(t *testing.T) {
	table := stats.DefaultRanks().TotalRanks()

	if got := stats.Rank(table, 99).Title; got == "Shadow Initiate" {
		t.Errorf("rank at 99 should not yet be Shadow Initiate, got %q", got)
	}
	if got := stats.Rank(table, 100).Title; got != "Shadow Initiate" {
		t.Errorf("rank at 100 = %q, want Shadow Initiate", got)
	}
	if got := stats.Rank(table, 101).Title; got != "Shadow Initiate" {
		t.Errorf("rank at 101 = %q, want Shadow Initiate", got)
	}
}

func TestNewStaticRanks_LinksAndOrders(t *testing.T) {
	// Rows given ascending and unlinked; the provider must order and link.
	ranks := stats.NewStaticRanks(
		[]domain.RankThreshold{
			{Threshold: 0, Title: "floor"},
			{Threshold: 5, Title: "mid"},
			{Threshold: 50, Title: "top"},
		},
		[]domain.RankThreshold{{Threshold: 0, Title: "floor"}},
	)

	table := ranks.TotalRanks()
	if table[0].Title != "top" || table[0].NextMilestone != 0 {
		t.Errorf("top = %+v, want title top with NextMilestone 0", table[0])
	}
	if table[1].NextMilestone != 50 {
		t.Errorf("mid NextMilestone = %d, want 50", table[1].NextMilestone)
	}
	if table[2].NextMilestone != 5 {
		t.Errorf("floor NextMilestone = %d, want 5", table[2].NextMilestone)
	}
}
