// Package query implements the item query engine: filtering, sorting,
// manual ordering and pagination over an in-memory record set.
//
// Everything in this package is pure. Callers own the record set and the
// current filter, sort, order and page values; the engine never holds state.
package query

import (
	"strings"
	"time"

	"github.com/fentz26/radar/internal/models"
)

// Predicate reports whether an item belongs in a result.
type Predicate func(models.Item) bool

// BuildPredicate compiles a FilterSpec into a single predicate. All
// conditions are ANDed. An unparsable date bound yields a predicate that
// matches nothing.
func BuildPredicate(spec models.FilterSpec) Predicate {
	search := strings.ToLower(strings.TrimSpace(spec.SearchText))

	categories := make(map[string]struct{}, len(spec.Categories))
	for _, c := range spec.Categories {
		categories[c] = struct{}{}
	}
	statuses := make(map[models.ItemStatus]struct{}, len(spec.Statuses))
	for _, s := range spec.Statuses {
		statuses[s] = struct{}{}
	}

	from, fromSet, fromOK := parseBound(spec.DateFrom, false)
	to, toSet, toOK := parseBound(spec.DateTo, true)
	if !fromOK || !toOK {
		return func(models.Item) bool { return false }
	}

	return func(item models.Item) bool {
		if search != "" && !matchesSearch(item, search) {
			return false
		}
		if len(categories) > 0 {
			if _, ok := categories[item.Category]; !ok {
				return false
			}
		}
		if len(statuses) > 0 {
			if _, ok := statuses[item.Status]; !ok {
				return false
			}
		}
		if spec.EssentialOnly && !item.IsEssential {
			return false
		}
		if fromSet && item.LastSeen.Before(from) {
			return false
		}
		if toSet && item.LastSeen.After(to) {
			return false
		}
		return true
	}
}

// Filter returns the items matching p, preserving input order.
func Filter(items []models.Item, p Predicate) []models.Item {
	out := make([]models.Item, 0, len(items))
	for _, item := range items {
		if p(item) {
			out = append(out, item)
		}
	}
	return out
}

func matchesSearch(item models.Item, lowered string) bool {
	return strings.Contains(strings.ToLower(item.Name), lowered) ||
		strings.Contains(strings.ToLower(item.Description), lowered) ||
		strings.Contains(strings.ToLower(item.Category), lowered)
}

var boundLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

const dateOnly = "2006-01-02"

// parseBound parses a date bound. set is false for an empty bound; ok is
// false when the bound is present but unparsable. A date-only upper bound
// extends to the last instant of that day so the range stays inclusive.
func parseBound(raw string, upper bool) (t time.Time, set, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, true
	}
	for _, layout := range boundLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true, true
		}
	}
	if t, err := time.Parse(dateOnly, raw); err == nil {
		if upper {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return t, true, true
	}
	return time.Time{}, true, false
}

// ValidBound reports whether raw is empty or a parsable date bound.
func ValidBound(raw string) bool {
	_, _, ok := parseBound(raw, false)
	return ok
}
