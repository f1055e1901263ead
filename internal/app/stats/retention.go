package stats

import (
	"context"
	"fmt"
)

// PruneDaily deletes daily records older than retentionDays (counting today
// as day one). The singleton stats and per-language documents are lifetime
// aggregates and are never pruned. Returns how many documents were removed.
func (a *Aggregator) PruneDaily(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("retention days must be positive, got %d", retentionDays)
	}
	loc, err := lookupZone(a.cfg.Timezone)
	if err != nil {
		return 0, err
	}
	cutoff := a.clock().In(loc).AddDate(0, 0, -(retentionDays - 1)).Format("2006-01-02")

	prefix := DailyStatPrefix(a.cfg.UserID)
	paths, err := a.store.List(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("list daily records: %w", err)
	}

	pruned := 0
	for _, p := range paths {
		if p[len(prefix):] >= cutoff {
			continue
		}
		if err := a.store.Delete(ctx, p); err != nil {
			return pruned, fmt.Errorf("delete %s: %w", p, err)
		}
		pruned++
	}
	if pruned > 0 {
		a.log.Info().Int("pruned", pruned).Str("cutoff", cutoff).Msg("daily records pruned")
	}
	return pruned, nil
}
