package stats

import "github.com/shadowlingo/shadow/internal/domain"

// LanguageTotals carries the optional per-language before/after counts for
// milestone detection.
type LanguageTotals struct {
	Prior int64
	New   int64
}

// Detect compares rank-table lookups before and after an increment and
// emits a MilestoneEvent per table whose rank title changed. Pure function:
// no side effects, no I/O.
func Detect(ranks RankProvider, priorTotal, newTotal int64, language *LanguageTotals) []domain.MilestoneEvent {
	var events []domain.MilestoneEvent

	if ev, ok := crossing(ranks.TotalRanks(), priorTotal, newTotal, domain.ScopeTotal); ok {
		events = append(events, ev)
	}
	if language != nil {
		if ev, ok := crossing(ranks.LanguageRanks(), language.Prior, language.New, domain.ScopeLanguage); ok {
			events = append(events, ev)
		}
	}
	return events
}

func crossing(table []domain.RankThreshold, prior, next int64, scope domain.MilestoneScope) (domain.MilestoneEvent, bool) {
	before := Rank(table, prior)
	after := Rank(table, next)
	if before.Title == after.Title {
		return domain.MilestoneEvent{}, false
	}
	return domain.MilestoneEvent{
		Scope:       scope,
		Title:       after.Title,
		ColorTag:    after.ColorTag,
		Description: after.Description,
		Count:       next,
	}, true
}
