package retrieval

import (
	"sort"

	"github.com/palmlore/palmd/internal/domain"
)

// Aggregate merges results from multiple query executions: duplicate IDs
// are dropped (first occurrence wins), the remainder is stable-sorted by
// similarity descending, and the list is truncated to limit. Pure
// function, no I/O.
func Aggregate(results []*domain.KnowledgeItem, limit int) []*domain.KnowledgeItem {
	seen := make(map[string]bool, len(results))
	unique := make([]*domain.KnowledgeItem, 0, len(results))
	for _, item := range results {
		if item == nil || seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		unique = append(unique, item)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Similarity > unique[j].Similarity
	})

	if limit > 0 && len(unique) > limit {
		unique = unique[:limit]
	}
	return unique
}
