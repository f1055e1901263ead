package stats

import "github.com/shadowlingo/shadow/internal/domain"

// Document paths. One singleton stats document per user, one daily document
// per user-local calendar day, one document per language pair.

// UserStatsPath is the per-user singleton statistics document.
func UserStatsPath(userID string) string {
	return "users/" + userID + "/stats"
}

// DailyStatPath is the per-day statistics document. date is "YYYY-MM-DD"
// in the user's timezone.
func DailyStatPath(userID, date string) string {
	return "users/" + userID + "/daily/" + date
}

// DailyStatPrefix is the listing prefix for a user's daily documents.
func DailyStatPrefix(userID string) string {
	return "users/" + userID + "/daily/"
}

// LanguagePairPath is the per-study-direction document.
func LanguagePairPath(userID string, pair domain.LanguagePair) string {
	return "users/" + userID + "/languages/" + pair.Key()
}

// LanguagePairPrefix is the listing prefix for a user's language-pair
// documents.
func LanguagePairPrefix(userID string) string {
	return "users/" + userID + "/languages/"
}

// ─── Decoders ───────────────────────────────────────────────────────────────
// Documents are decoded into typed structs exactly once, here at the store
// boundary. Missing fields normalize to their documented defaults.

// DecodeUserStats decodes the singleton stats document.
func DecodeUserStats(doc domain.Document) domain.UserListeningStats {
	return domain.UserListeningStats{
		PhrasesListened:       doc.Int("phrases_listened"),
		PhrasesViewed:         doc.Int("phrases_viewed"),
		LastListenedAt:        doc.Time("last_listened_at"),
		LastViewedAt:          doc.Time("last_viewed_at"),
		CurrentStreak:         doc.Int("current_streak"),
		StreakStartDate:       doc.Time("streak_start_date"),
		LastStreakCalculation: doc.Time("last_streak_calculation"),
	}
}

// DecodeDailyStat decodes a daily statistics document.
func DecodeDailyStat(doc domain.Document) domain.DailyStatRecord {
	return domain.DailyStatRecord{
		Date:          doc.String("date"),
		CountListened: doc.Int("count_listened"),
		CountViewed:   doc.Int("count_viewed"),
		TotalCount:    doc.Int("total_count"),
		LastUpdated:   doc.Time("last_updated"),
	}
}

// DecodeLanguagePairStat decodes a language-pair document.
func DecodeLanguagePairStat(doc domain.Document) domain.LanguagePairStat {
	return domain.LanguagePairStat{
		InputLang:     doc.String("input_lang"),
		TargetLang:    doc.String("target_lang"),
		Count:         doc.Int("count"),
		FirstListened: doc.Time("first_listened"),
		LastUpdated:   doc.Time("last_updated"),
	}
}
