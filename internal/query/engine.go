package query

import (
	"slices"

	"github.com/fentz26/radar/internal/models"
)

// DefaultPageSize is used by hosts that do not pick their own.
const DefaultPageSize = 20

// Page selects one slice of a result. Number is 1-based.
type Page struct {
	Number int `json:"page"`
	Size   int `json:"page_size"`
}

// Result is one page of a query plus totals over the whole match set.
type Result struct {
	Items        []models.Item `json:"items"`
	TotalMatched int           `json:"total_matched"`
	TotalPages   int           `json:"total_pages"`
	Page         int           `json:"page"`
}

// Apply filters, stably sorts and overlays the manual order, returning the
// full ordered match set.
func Apply(all []models.Item, filter models.FilterSpec, sort models.SortSpec, order ManualOrder) []models.Item {
	matched := Filter(all, BuildPredicate(filter))
	sorted := Sort(matched, BuildComparator(sort))
	return ApplyManualOrder(sorted, order)
}

// Paginate slices an ordered match set. The page number is clamped into
// [1, TotalPages]; TotalPages is at least 1 even for an empty set. A
// non-positive page size puts every item on a single page.
func Paginate(ordered []models.Item, page Page) Result {
	total := len(ordered)
	size := page.Size
	if size <= 0 {
		size = max(total, 1)
	}

	pages := max(1, (total+size-1)/size)
	number := max(1, min(page.Number, pages))

	start := min((number-1)*size, total)
	end := min(start+size, total)

	items := slices.Clone(ordered[start:end])
	if items == nil {
		items = []models.Item{}
	}
	return Result{
		Items:        items,
		TotalMatched: total,
		TotalPages:   pages,
		Page:         number,
	}
}

// Run is the engine's single entry point: filter, sort, overlay, paginate.
func Run(all []models.Item, filter models.FilterSpec, sort models.SortSpec, order ManualOrder, page Page) Result {
	return Paginate(Apply(all, filter, sort, order), page)
}

// DistinctCategories returns every category present in items, sorted ascending.
func DistinctCategories(items []models.Item) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, item := range items {
		if item.Category == "" || seen[item.Category] {
			continue
		}
		seen[item.Category] = true
		out = append(out, item.Category)
	}
	slices.Sort(out)
	return out
}
