package stats

import (
	"sort"

	"github.com/verte-zerg/typemaster/internal/model"
)

// SelectWeakChars picks the most-mistyped characters. Space and the line
// terminator are never considered weak.
func SelectWeakChars(aggs []model.CharAggregate, top int) map[rune]struct{} {
	weakSet := map[rune]struct{}{}
	candidates := make([]model.CharAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Mistakes <= 0 || agg.Char == " " || agg.Char == "\n" || agg.Char == "" {
			continue
		}
		candidates = append(candidates, agg)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Mistakes == candidates[j].Mistakes {
			return candidates[i].Char < candidates[j].Char
		}
		return candidates[i].Mistakes > candidates[j].Mistakes
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	for _, c := range candidates[:top] {
		weakSet[[]rune(c.Char)[0]] = struct{}{}
	}
	return weakSet
}
