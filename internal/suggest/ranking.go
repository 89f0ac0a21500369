package suggest

import (
	"sort"
	"strings"
)

// RankTips sorts tips by confidence (highest first), keeps one tip per
// command, and truncates to limit. Input order breaks confidence ties.
// Evidence from dropped duplicates is merged into the kept tip.
func RankTips(tips []Tip, limit int) []Tip {
	sorted := make([]Tip, len(tips))
	copy(sorted, tips)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	var ranked []Tip
	byCommand := make(map[string]int)
	for _, t := range sorted {
		if idx, seen := byCommand[t.Command]; seen {
			ranked[idx].Evidence = MergeEvidence(ranked[idx].Evidence, t.Evidence)
			continue
		}
		byCommand[t.Command] = len(ranked)
		ranked = append(ranked, t)
	}

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// MergeEvidence appends extra to kept unless it is already present.
func MergeEvidence(kept, extra string) string {
	if extra == "" || strings.Contains(kept, extra) {
		return kept
	}
	return kept + "; Also: " + extra
}
