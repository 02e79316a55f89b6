package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/fentz26/radar/internal/models"
)

// Comparator orders two items, returning -1, 0 or 1.
type Comparator func(a, b models.Item) int

// BuildComparator compiles a SortSpec into a comparator. Equal keys compare
// as 0, so callers must sort stably to keep input order among ties.
func BuildComparator(spec models.SortSpec) Comparator {
	base := keyComparator(spec.Key)
	if spec.Direction == models.SortDesc {
		return func(a, b models.Item) int { return -base(a, b) }
	}
	return base
}

func keyComparator(key models.SortKey) Comparator {
	switch key {
	case models.SortByName:
		return func(a, b models.Item) int { return foldCompare(a.Name, b.Name) }
	case models.SortByCategory:
		return func(a, b models.Item) int { return foldCompare(a.Category, b.Category) }
	case models.SortByStatus:
		// Lexical, so "detected" sorts before "missing".
		return func(a, b models.Item) int { return cmp.Compare(a.Status, b.Status) }
	case models.SortByLastSeen:
		return func(a, b models.Item) int { return a.LastSeen.Compare(b.LastSeen) }
	case models.SortByEssential:
		return func(a, b models.Item) int { return cmp.Compare(boolRank(a.IsEssential), boolRank(b.IsEssential)) }
	default:
		return func(models.Item, models.Item) int { return 0 }
	}
}

func foldCompare(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Sort returns a stably sorted copy of items.
func Sort(items []models.Item, c Comparator) []models.Item {
	out := slices.Clone(items)
	slices.SortStableFunc(out, c)
	return out
}
