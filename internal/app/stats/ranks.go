// Package stats implements the Shadow practice-statistics engine:
// rank tables, the day-boundary utility, the streak calculator, the
// milestone detector, and the session aggregator.
package stats

import (
	"sort"

	"github.com/shadowlingo/shadow/internal/domain"
)

// RankProvider supplies the milestone tables. It is injected at
// construction so tests and alternate builds swap thresholds wholesale
// instead of branching on a debug flag inside the lookup path.
type RankProvider interface {
	// TotalRanks is ordered by strictly descending threshold and always
	// ends with a threshold-0 floor.
	TotalRanks() []domain.RankThreshold
	// LanguageRanks has the same shape, over per-language-pair counts.
	LanguageRanks() []domain.RankThreshold
}

// rankRow is the ascending-order authoring form of a table entry.
type rankRow struct {
	threshold   int64
	title       string
	colorTag    string
	description string
}

var totalRankRows = []rankRow{
	{0, "Quiet Listener", "slate", "Every voice starts in silence."},
	{10, "First Echoes", "sky", "The first phrases are sticking."},
	{50, "Warm-Up Voice", "teal", "Practice is turning into a habit."},
	{100, "Shadow Initiate", "green", "One hundred phrases shadowed."},
	{250, "Echo Apprentice", "lime", "The rhythm of the language is yours."},
	{500, "Steady Shadow", "yellow", "Five hundred phrases and counting."},
	{1000, "Voice Chaser", "amber", "A thousand phrases in your wake."},
	{2500, "Fluent Shadow", "orange", "Shadowing faster than thinking."},
	{5000, "Shadow Adept", "red", "Five thousand phrases mastered."},
	{10000, "Echo Master", "violet", "Ten thousand echoes answered."},
	{25000, "Shadow Legend", "gold", "The shadow has become the voice."},
}

var languageRankRows = []rankRow{
	{0, "Dabbler", "slate", "A new language, a first step."},
	{25, "Explorer", "sky", "Finding your footing in this language."},
	{100, "Pathfinder", "teal", "One hundred phrases in one language."},
	{250, "Regular", "green", "This language is part of your routine."},
	{1000, "Specialist", "amber", "Deep practice, one language."},
	{5000, "Resident Voice", "violet", "You sound like you live there."},
}

type staticRanks struct {
	total    []domain.RankThreshold
	language []domain.RankThreshold
}

func (r staticRanks) TotalRanks() []domain.RankThreshold    { return r.total }
func (r staticRanks) LanguageRanks() []domain.RankThreshold { return r.language }

// DefaultRanks returns the production milestone tables.
func DefaultRanks() RankProvider {
	return staticRanks{
		total:    buildTable(totalRankRows),
		language: buildTable(languageRankRows),
	}
}

// NewStaticRanks builds a provider from ascending-order rows. Used by tests
// and alternate builds that want their own thresholds.
func NewStaticRanks(total, language []domain.RankThreshold) RankProvider {
	return staticRanks{
		total:    linkTable(total),
		language: linkTable(language),
	}
}

// buildTable converts authoring rows into a lookup table: descending order,
// NextMilestone linked to the next-higher threshold (0 at the top).
func buildTable(rows []rankRow) []domain.RankThreshold {
	table := make([]domain.RankThreshold, len(rows))
	for i, r := range rows {
		table[i] = domain.RankThreshold{
			Threshold:   r.threshold,
			Title:       r.title,
			ColorTag:    r.colorTag,
			Description: r.description,
		}
	}
	return linkTable(table)
}

func linkTable(table []domain.RankThreshold) []domain.RankThreshold {
	out := make([]domain.RankThreshold, len(table))
	copy(out, table)
	sort.Slice(out, func(i, j int) bool { return out[i].Threshold < out[j].Threshold })

	for i := range out {
		if i+1 < len(out) {
			out[i].NextMilestone = out[i+1].Threshold
		} else {
			out[i].NextMilestone = 0 // top rank: no further milestone
		}
	}

	// Descending for lookup.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Rank returns the rank for a cumulative count: the first entry of the
// descending table whose threshold is <= value. The threshold-0 floor
// guarantees a match.
func Rank(table []domain.RankThreshold, value int64) domain.RankThreshold {
	for _, r := range table {
		if value >= r.Threshold {
			return r
		}
	}
	if len(table) == 0 {
		return domain.RankThreshold{}
	}
	return table[len(table)-1]
}
