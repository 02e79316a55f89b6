// Package view holds the host-side state of an item listing: the current
// filter, sort, page and manual order, re-running the query engine on
// every change.
package view

import (
	"context"
	"slices"
	"strings"

	"github.com/fentz26/radar/internal/models"
	"github.com/fentz26/radar/internal/query"
)

// OrderPersister saves manual order changes. Model applies changes
// optimistically and rolls back when the persister fails.
type OrderPersister interface {
	SaveOrder(ctx context.Context, ids []string) error
	ResetOrder(ctx context.Context) error
}

// Model is not safe for concurrent use.
type Model struct {
	items     []models.Item
	order     query.ManualOrder
	filter    models.FilterSpec
	sort      models.SortSpec
	page      query.Page
	persister OrderPersister
}

// New creates an empty model. pageSize <= 0 shows everything on one page.
func New(p OrderPersister, pageSize int) *Model {
	return &Model{
		sort:      models.SortSpec{Key: models.SortByName, Direction: models.SortAsc},
		page:      query.Page{Number: 1, Size: pageSize},
		persister: p,
	}
}

// SetData replaces the record set and stored order, keeping the view state.
func (m *Model) SetData(items []models.Item, order []string) {
	m.items = slices.Clone(items)
	m.order = slices.Clone(order)
}

func (m *Model) Items() []models.Item { return m.items }
func (m *Model) Order() query.ManualOrder { return slices.Clone(m.order) }
func (m *Model) Filter() models.FilterSpec { return m.filter }
func (m *Model) Sort() models.SortSpec { return m.sort }
func (m *Model) Page() query.Page { return m.page }

// --- Filter and sort ---

// SetFilter replaces the filter and returns to page 1.
func (m *Model) SetFilter(f models.FilterSpec) {
	m.filter = f
	m.page.Number = 1
}

// SetSearch sets the search text.
func (m *Model) SetSearch(text string) {
	f := m.filter
	f.SearchText = text
	m.SetFilter(f)
}

// ToggleCategory adds or removes a category from the filter.
func (m *Model) ToggleCategory(category string) {
	f := m.filter
	f.Categories = toggle(f.Categories, category)
	m.SetFilter(f)
}

// ToggleStatus adds or removes a status from the filter.
func (m *Model) ToggleStatus(status models.ItemStatus) {
	f := m.filter
	f.Statuses = toggle(f.Statuses, status)
	m.SetFilter(f)
}

// SetEssentialOnly restricts the view to essential items.
func (m *Model) SetEssentialOnly(on bool) {
	f := m.filter
	f.EssentialOnly = on
	m.SetFilter(f)
}

// SetDateRange sets the inclusive last-seen bounds.
func (m *Model) SetDateRange(from, to string) {
	f := m.filter
	f.DateFrom, f.DateTo = from, to
	m.SetFilter(f)
}

// ClearFilter removes every restriction.
func (m *Model) ClearFilter() {
	m.SetFilter(models.FilterSpec{})
}

// SetSort replaces the sort and returns to page 1.
func (m *Model) SetSort(s models.SortSpec) {
	m.sort = s
	m.page.Number = 1
}

// CycleSortKey advances to the next sort key.
func (m *Model) CycleSortKey() {
	i := slices.Index(models.SortKeys, m.sort.Key)
	s := m.sort
	s.Key = models.SortKeys[(i+1)%len(models.SortKeys)]
	m.SetSort(s)
}

// ToggleDirection flips between ascending and descending.
func (m *Model) ToggleDirection() {
	s := m.sort
	if s.Direction == models.SortDesc {
		s.Direction = models.SortAsc
	} else {
		s.Direction = models.SortDesc
	}
	m.SetSort(s)
}

// ApplyPreset loads a saved filter and sort.
func (m *Model) ApplyPreset(p models.FilterPreset) {
	m.filter = p.Filter
	m.SetSort(p.Sort)
}

func toggle[T comparable](list []T, v T) []T {
	if i := slices.Index(list, v); i >= 0 {
		return slices.Delete(slices.Clone(list), i, i+1)
	}
	return append(slices.Clone(list), v)
}

// --- Paging ---

// SetPage selects a page; it is clamped when the result is computed.
func (m *Model) SetPage(n int) {
	m.page.Number = n
	m.page.Number = m.Result().Page
}

func (m *Model) NextPage() { m.SetPage(m.page.Number + 1) }
func (m *Model) PrevPage() { m.SetPage(m.page.Number - 1) }

// --- Derived views ---

// Ordered returns every match in display order.
func (m *Model) Ordered() []models.Item {
	return query.Apply(m.items, m.filter, m.sort, m.order)
}

// Result returns the current page.
func (m *Model) Result() query.Result {
	return query.Paginate(m.Ordered(), m.page)
}

// Categories lists the distinct categories of the whole record set.
func (m *Model) Categories() []string {
	return query.DistinctCategories(m.items)
}

// Stats summarizes the whole record set.
func (m *Model) Stats() models.Stats {
	return query.Summarize(m.items)
}

// Find returns the item with id.
func (m *Model) Find(id string) (models.Item, bool) {
	for _, it := range m.items {
		if it.ID == id {
			return it, true
		}
	}
	return models.Item{}, false
}

// Describe summarizes the active filter and sort in one line.
func (m *Model) Describe() string {
	var parts []string
	f := m.filter
	if f.SearchText != "" {
		parts = append(parts, "search:"+f.SearchText)
	}
	if len(f.Categories) > 0 {
		parts = append(parts, "category:"+strings.Join(f.Categories, ","))
	}
	if len(f.Statuses) > 0 {
		st := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			st[i] = string(s)
		}
		parts = append(parts, "status:"+strings.Join(st, ","))
	}
	if f.EssentialOnly {
		parts = append(parts, "essential")
	}
	if f.DateFrom != "" || f.DateTo != "" {
		parts = append(parts, "seen:"+f.DateFrom+".."+f.DateTo)
	}
	parts = append(parts, "sort:"+string(m.sort.Key)+" "+string(m.sort.Direction))
	return strings.Join(parts, "  ")
}

// --- Manual order ---

// ApplyMove relocates id to newIndex within the currently visible match set
// without persisting it. Ids outside the visible set follow it in their
// current unfiltered display order, so items never placed by hand keep
// their sort-derived positions. It returns the previous order for
// RestoreOrder, and false when id is not visible.
func (m *Model) ApplyMove(id string, newIndex int) (query.ManualOrder, bool) {
	visible := query.IDs(m.Ordered())
	if !slices.Contains(visible, id) {
		return nil, false
	}
	moved := visible.Move(id, newIndex)

	inView := make(map[string]bool, len(moved))
	for _, v := range moved {
		inView[v] = true
	}
	next := slices.Clone(moved)
	for _, v := range query.IDs(query.Apply(m.items, models.FilterSpec{}, m.sort, m.order)) {
		if !inView[v] {
			next = append(next, v)
		}
	}

	prev := m.order
	m.order = next
	return prev, true
}

// ApplyMoveBy shifts id by delta positions in the visible match set
// without persisting it.
func (m *Model) ApplyMoveBy(id string, delta int) (query.ManualOrder, bool) {
	i := slices.Index(query.IDs(m.Ordered()), id)
	if i < 0 {
		return nil, false
	}
	return m.ApplyMove(id, i+delta)
}

// ClearOrder drops the manual order locally and returns the previous one.
func (m *Model) ClearOrder() query.ManualOrder {
	prev := m.order
	m.order = nil
	return prev
}

// RestoreOrder puts back an order returned by ApplyMove or ClearOrder.
func (m *Model) RestoreOrder(prev query.ManualOrder) {
	m.order = slices.Clone(prev)
}

// Move applies ApplyMove and persists the result. On persistence failure
// the previous order is restored and the error returned.
func (m *Model) Move(ctx context.Context, id string, newIndex int) error {
	prev, ok := m.ApplyMove(id, newIndex)
	if !ok {
		return nil
	}
	return m.persist(ctx, prev)
}

// MoveBy shifts id by delta positions in the visible match set and
// persists the result.
func (m *Model) MoveBy(ctx context.Context, id string, delta int) error {
	prev, ok := m.ApplyMoveBy(id, delta)
	if !ok {
		return nil
	}
	return m.persist(ctx, prev)
}

func (m *Model) persist(ctx context.Context, prev query.ManualOrder) error {
	if m.persister == nil {
		return nil
	}
	if err := m.persister.SaveOrder(ctx, m.Order()); err != nil {
		m.order = prev
		return err
	}
	return nil
}

// ResetOrder drops the manual order, restoring it if persistence fails.
func (m *Model) ResetOrder(ctx context.Context) error {
	prev := m.ClearOrder()
	if m.persister == nil {
		return nil
	}
	if err := m.persister.ResetOrder(ctx); err != nil {
		m.order = prev
		return err
	}
	return nil
}
