package view

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/radar/internal/models"
	"github.com/fentz26/radar/internal/query"
)

type fakePersister struct {
	saved  [][]string
	resets int
	err    error
}

func (f *fakePersister) SaveOrder(_ context.Context, ids []string) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, ids)
	return nil
}

func (f *fakePersister) ResetOrder(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.resets++
	return nil
}

func day(d int) time.Time {
	return time.Date(2025, 1, d, 12, 0, 0, 0, time.UTC)
}

func fixture() []models.Item {
	return []models.Item{
		{ID: "a", Name: "Apple", Category: "food", Status: models.ItemStatusDetected, LastSeen: day(1)},
		{ID: "b", Name: "Bag", Category: "gear", Status: models.ItemStatusMissing, IsEssential: true, LastSeen: day(2)},
		{ID: "c", Name: "Cable", Category: "gear", Status: models.ItemStatusMissing, LastSeen: day(3)},
		{ID: "d", Name: "Drill", Category: "tools", Status: models.ItemStatusDetected, LastSeen: day(4)},
	}
}

func ids(items []models.Item) []string {
	return []string(query.IDs(items))
}

func TestFilterChangesResetPage(t *testing.T) {
	m := New(nil, 2)
	m.SetData(fixture(), nil)

	m.NextPage()
	assert.Equal(t, 2, m.Page().Number)

	m.ToggleCategory("gear")
	assert.Equal(t, 1, m.Page().Number)
	assert.Equal(t, []string{"b", "c"}, ids(m.Ordered()))

	m.ToggleCategory("gear")
	assert.Empty(t, m.Filter().Categories)

	m.NextPage()
	m.CycleSortKey()
	assert.Equal(t, 1, m.Page().Number)
	assert.Equal(t, models.SortByCategory, m.Sort().Key)
}

func TestPageClamp(t *testing.T) {
	m := New(nil, 3)
	m.SetData(fixture(), nil)

	m.SetPage(10)
	assert.Equal(t, 2, m.Page().Number)
	m.PrevPage()
	m.PrevPage()
	assert.Equal(t, 1, m.Page().Number)

	res := m.Result()
	assert.Equal(t, 4, res.TotalMatched)
	assert.Equal(t, 2, res.TotalPages)
}

func TestToggleDirectionAndStatus(t *testing.T) {
	m := New(nil, 0)
	m.SetData(fixture(), nil)

	m.SetSort(models.SortSpec{Key: models.SortByLastSeen, Direction: models.SortAsc})
	m.ToggleDirection()
	assert.Equal(t, []string{"d", "c", "b", "a"}, ids(m.Ordered()))

	m.ToggleStatus(models.ItemStatusMissing)
	m.SetEssentialOnly(true)
	assert.Equal(t, []string{"b"}, ids(m.Ordered()))
	assert.Contains(t, m.Describe(), "essential")

	m.ClearFilter()
	assert.Len(t, m.Ordered(), 4)
}

func TestMove_WithinFilteredView(t *testing.T) {
	p := &fakePersister{}
	m := New(p, 0)
	m.SetData(fixture(), []string{"d", "a"})

	// Visible under the gear filter: b, c (neither in the stored order).
	m.ToggleCategory("gear")
	require.NoError(t, m.Move(context.Background(), "c", 0))

	want := []string{"c", "b", "d", "a"}
	if diff := cmp.Diff(want, []string(m.Order())); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, p.saved, 1)
	assert.Equal(t, want, p.saved[0])
	assert.Equal(t, []string{"c", "b"}, ids(m.Ordered()))
}

func TestMove_HiddenItemsKeepSortOrder(t *testing.T) {
	p := &fakePersister{}
	m := New(p, 0)
	m.SetData([]models.Item{
		{ID: "z", Name: "Zed", Category: "x"},
		{ID: "a", Name: "Apple", Category: "x"},
		{ID: "m", Name: "Mid", Category: "y"},
	}, nil)

	m.ToggleCategory("y")
	require.NoError(t, m.Move(context.Background(), "m", 0))
	m.ClearFilter()

	want := []string{"m", "a", "z"}
	assert.Equal(t, want, []string(m.Order()))
	assert.Equal(t, want, ids(m.Ordered()))
	require.Len(t, p.saved, 1)
	assert.Equal(t, want, p.saved[0])
}

func TestMoveBy(t *testing.T) {
	m := New(&fakePersister{}, 0)
	m.SetData(fixture(), nil)

	require.NoError(t, m.MoveBy(context.Background(), "a", 1))
	assert.Equal(t, []string{"b", "a", "c", "d"}, ids(m.Ordered()))

	require.NoError(t, m.MoveBy(context.Background(), "d", -10))
	assert.Equal(t, []string{"d", "b", "a", "c"}, ids(m.Ordered()))

	// Unknown ids are ignored.
	require.NoError(t, m.MoveBy(context.Background(), "zz", 1))
}

func TestMove_RollsBackOnFailure(t *testing.T) {
	p := &fakePersister{err: errors.New("offline")}
	m := New(p, 0)
	m.SetData(fixture(), []string{"b", "a"})

	err := m.Move(context.Background(), "d", 0)
	require.Error(t, err)
	assert.Equal(t, []string{"b", "a"}, []string(m.Order()))
	assert.Equal(t, []string{"b", "a", "c", "d"}, ids(m.Ordered()))

	require.Error(t, m.ResetOrder(context.Background()))
	assert.Equal(t, []string{"b", "a"}, []string(m.Order()))
}

func TestResetOrder(t *testing.T) {
	p := &fakePersister{}
	m := New(p, 0)
	m.SetData(fixture(), []string{"d", "c"})

	require.NoError(t, m.ResetOrder(context.Background()))
	assert.Empty(t, m.Order())
	assert.Equal(t, 1, p.resets)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(m.Ordered()))
}

func TestApplyMoveAndRestore(t *testing.T) {
	m := New(nil, 0)
	m.SetData(fixture(), []string{"c"})

	prev, ok := m.ApplyMoveBy("a", 1)
	require.True(t, ok)
	assert.Equal(t, []string{"c"}, []string(prev))
	assert.Equal(t, []string{"c", "b", "a", "d"}, ids(m.Ordered()))

	m.RestoreOrder(prev)
	assert.Equal(t, []string{"c", "a", "b", "d"}, ids(m.Ordered()))

	_, ok = m.ApplyMove("zz", 0)
	assert.False(t, ok)

	prev = m.ClearOrder()
	assert.Equal(t, []string{"c"}, []string(prev))
	assert.Empty(t, m.Order())
}

func TestApplyPreset(t *testing.T) {
	m := New(nil, 0)
	m.SetData(fixture(), nil)

	m.ApplyPreset(models.FilterPreset{
		Filter: models.FilterSpec{Statuses: []models.ItemStatus{models.ItemStatusMissing}},
		Sort:   models.SortSpec{Key: models.SortByLastSeen, Direction: models.SortDesc},
	})
	assert.Equal(t, []string{"c", "b"}, ids(m.Ordered()))
	assert.Equal(t, []string{"food", "gear", "tools"}, m.Categories())
	assert.Equal(t, 2, m.Stats().Missing)
}
