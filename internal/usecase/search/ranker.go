package search

import (
	"sort"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/repository"
)

type Scored struct {
	Profile       *domain.Profile
	Compatibility domain.Compatibility
}

// Rank scores every candidate against viewer and orders them by key.
// Ties keep the input order.
func Rank(viewer *domain.Profile, candidates []*domain.Profile, key SortKey) []Scored {
	out := make([]Scored, len(candidates))
	for i, c := range candidates {
		out[i] = Scored{Profile: c, Compatibility: domain.ScoreCompatibility(viewer, c)}
	}

	var less func(a, b Scored) bool
	switch key {
	case SortAge:
		less = func(a, b Scored) bool { return a.Profile.Age < b.Profile.Age }
	case SortNewest:
		less = func(a, b Scored) bool { return a.Profile.CreatedAt.After(b.Profile.CreatedAt) }
	case SortCompletion:
		less = func(a, b Scored) bool { return a.Profile.CompletionPercentage > b.Profile.CompletionPercentage }
	default:
		less = func(a, b Scored) bool { return a.Compatibility.Total > b.Compatibility.Total }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// storeOrder maps sort keys the store can order by itself. Compatibility
// depends on the viewer and is ranked in memory.
func storeOrder(key SortKey) ([]repository.Order, bool) {
	switch key {
	case SortAge:
		return []repository.Order{{Field: repository.FieldAge}}, true
	case SortNewest:
		return []repository.Order{{Field: repository.FieldCreatedAt, Desc: true}}, true
	case SortCompletion:
		return []repository.Order{{Field: repository.FieldCompletion, Desc: true}}, true
	}
	return nil, false
}

// paginate returns up to limit items starting at offset.
func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}
