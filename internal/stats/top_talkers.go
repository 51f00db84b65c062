// Package stats builds descriptive per-host traffic summaries.
package stats

import (
	"sort"

	"weblog-hunter/internal/model"
)

// TopTalkers tallies total, 4xx and 5xx requests per host and returns the
// busiest hosts first. Hosts with equal totals keep first-seen order.
// A limit of zero or less yields an empty result.
func TopTalkers(records []model.Record, limit int) []model.TopTalker {
	if limit <= 0 {
		return []model.TopTalker{}
	}

	index := make(map[string]int)
	var talkers []model.TopTalker

	for i := range records {
		r := &records[i]
		pos, exists := index[r.Host]
		if !exists {
			pos = len(talkers)
			index[r.Host] = pos
			talkers = append(talkers, model.TopTalker{Host: r.Host})
		}

		row := &talkers[pos]
		row.Total++
		switch r.StatusClass() {
		case 4:
			row.Count4xx++
		case 5:
			row.Count5xx++
		}
	}

	sort.SliceStable(talkers, func(i, j int) bool {
		return talkers[i].Total > talkers[j].Total
	})

	if len(talkers) > limit {
		talkers = talkers[:limit]
	}
	if talkers == nil {
		talkers = []model.TopTalker{}
	}
	return talkers
}
