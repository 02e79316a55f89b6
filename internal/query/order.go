package query

import (
	"slices"

	"github.com/fentz26/radar/internal/models"
)

// ManualOrder is a user-chosen display sequence of item ids.
type ManualOrder []string

// ApplyManualOrder lays order over an already filtered and sorted sequence.
// Items named by order come first in that order; ids with no matching item
// are skipped. The remaining items follow in their existing relative order.
func ApplyManualOrder(sorted []models.Item, order ManualOrder) []models.Item {
	if len(order) == 0 {
		return sorted
	}

	byID := make(map[string]int, len(sorted))
	for i, item := range sorted {
		byID[item.ID] = i
	}

	out := make([]models.Item, 0, len(sorted))
	placed := make(map[string]bool, len(order))
	for _, id := range order {
		i, ok := byID[id]
		if !ok || placed[id] {
			continue
		}
		placed[id] = true
		out = append(out, sorted[i])
	}
	for _, item := range sorted {
		if !placed[item.ID] {
			out = append(out, item)
		}
	}
	return out
}

// Reconcile drops ids that no longer name an item and appends ids of items
// the order does not mention, in the order they appear in items. Pass items
// already sorted so newcomers keep their sort-derived relative order.
func (o ManualOrder) Reconcile(items []models.Item) ManualOrder {
	present := make(map[string]bool, len(items))
	for _, item := range items {
		present[item.ID] = true
	}

	out := make(ManualOrder, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, id := range o {
		if present[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, item := range items {
		if !seen[item.ID] {
			seen[item.ID] = true
			out = append(out, item.ID)
		}
	}
	return out
}

// Move returns a copy of o with id relocated to newIndex, clamped to the
// valid range. An id not in o leaves the order unchanged.
func (o ManualOrder) Move(id string, newIndex int) ManualOrder {
	from := slices.Index(o, id)
	out := slices.Clone(o)
	if from < 0 {
		return out
	}
	newIndex = max(0, min(newIndex, len(o)-1))

	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, newIndex, id)
}

// IDs returns the id sequence of items.
func IDs(items []models.Item) ManualOrder {
	out := make(ManualOrder, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}
