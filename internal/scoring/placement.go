package scoring

import "sort"

// Placement assigns 1-based places from totals, highest first. Tied teams
// share a place and the tie uses up rank slots: two teams tied at the top
// are both 1st and the next distinct total is 3rd, not 2nd.
func Placement(totals map[string]float64) map[string]int {
	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if totals[ids[i]] != totals[ids[j]] {
			return totals[ids[i]] > totals[ids[j]]
		}
		return ids[i] < ids[j]
	})

	places := make(map[string]int, len(ids))
	for i, id := range ids {
		if i > 0 && totals[id] == totals[ids[i-1]] {
			places[id] = places[ids[i-1]]
			continue
		}
		places[id] = i + 1
	}
	return places
}
