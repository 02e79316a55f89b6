package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/radar/internal/audit"
	"github.com/fentz26/radar/internal/models"
	"github.com/fentz26/radar/internal/query"
	"github.com/fentz26/radar/internal/store"
)

var fixedNow = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts Options) (*Service, *store.Store) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger, _ := test.NewNullLogger()
	opts.Log = logger
	svc := NewService(st, audit.NewRecorder(st, logger), opts)
	svc.now = func() time.Time { return fixedNow }
	return svc, st
}

func mustCreate(t *testing.T, svc *Service, user string, in ItemInput) *models.Item {
	t.Helper()
	item, err := svc.CreateItem(context.Background(), user, in)
	require.NoError(t, err)
	return item
}

func TestCreateItem_Validation(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, "u1", ItemInput{Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = svc.CreateItem(ctx, "u1", ItemInput{Name: "Keys", Status: "lost"})
	assert.ErrorIs(t, err, ErrInvalidItem)

	item := mustCreate(t, svc, "u1", ItemInput{Name: " Keys ", RFID: "A", Status: models.ItemStatusDetected})
	assert.Equal(t, "Keys", item.Name)
	assert.True(t, item.LastSeen.Equal(fixedNow))

	_, err = svc.CreateItem(ctx, "u1", ItemInput{Name: "Spare", RFID: "A"})
	assert.ErrorIs(t, err, ErrDuplicateTag)

	// Tags are scoped per user.
	_, err = svc.CreateItem(ctx, "u2", ItemInput{Name: "Spare", RFID: "A"})
	assert.NoError(t, err)
}

func TestUpdateItem(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()
	item := mustCreate(t, svc, "u1", ItemInput{Name: "Keys"})

	detected := models.ItemStatusDetected
	category := "keys"
	updated, err := svc.UpdateItem(ctx, "u1", item.ID, ItemPatch{Status: &detected, Category: &category})
	require.NoError(t, err)
	assert.Equal(t, "keys", updated.Category)
	assert.Equal(t, models.ItemStatusDetected, updated.Status)
	assert.True(t, updated.LastSeen.Equal(fixedNow))

	_, err = svc.UpdateItem(ctx, "u1", "missing-id", ItemPatch{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateItem(ctx, "u2", item.ID, ItemPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuery(t *testing.T) {
	svc, _ := newTestService(t, Options{DefaultPageSize: 2})
	ctx := context.Background()
	a := mustCreate(t, svc, "u1", ItemInput{Name: "Alpha", Category: "x"})
	b := mustCreate(t, svc, "u1", ItemInput{Name: "Bravo", Category: "y", IsEssential: true})
	c := mustCreate(t, svc, "u1", ItemInput{Name: "Charlie", Category: "x"})

	res, err := svc.Query(ctx, "u1", QueryRequest{Page: query.Page{Number: 1, Size: 10}})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, []string(query.IDs(res.Items)))

	_, err = svc.SaveOrder(ctx, "u1", []string{c.ID, a.ID})
	require.NoError(t, err)

	res, err = svc.Query(ctx, "u1", QueryRequest{Page: query.Page{Number: 1, Size: 10}, Manual: true})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, []string(query.IDs(res.Items)))

	res, err = svc.Query(ctx, "u1", QueryRequest{
		Filter: models.FilterSpec{Categories: []string{"x"}},
		Sort:   models.SortSpec{Key: models.SortByName, Direction: models.SortDesc},
		Page:   query.Page{Number: 1, Size: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalMatched)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, c.ID, res.Items[0].ID)

	_, err = svc.Query(ctx, "u1", QueryRequest{Sort: models.SortSpec{Key: "weight"}})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestMoveItemAndDeletePrunesOrder(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()
	a := mustCreate(t, svc, "u1", ItemInput{Name: "Alpha"})
	b := mustCreate(t, svc, "u1", ItemInput{Name: "Bravo"})
	c := mustCreate(t, svc, "u1", ItemInput{Name: "Charlie"})

	order, err := svc.MoveItem(ctx, "u1", c.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, order)

	order, err = svc.MoveItem(ctx, "u1", a.ID, 99)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, order)

	_, err = svc.MoveItem(ctx, "u1", "ghost", 0)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.DeleteItem(ctx, "u1", b.ID))
	stored, err := svc.GetOrder(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID}, stored)

	assert.ErrorIs(t, svc.DeleteItem(ctx, "u1", b.ID), ErrNotFound)

	require.NoError(t, svc.ResetOrder(ctx, "u1"))
	stored, err = svc.GetOrder(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSaveOrder_DropsBlanksAndRepeats(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ids, err := svc.SaveOrder(context.Background(), "u1", []string{"b", "", "a", "b", " c "})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, ids)
}

func TestStatsCacheInvalidation(t *testing.T) {
	svc, _ := newTestService(t, Options{StatsTTL: time.Hour})
	ctx := context.Background()
	mustCreate(t, svc, "u1", ItemInput{Name: "Keys", RFID: "A", IsEssential: true})

	stats, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Missing)

	_, err = svc.Scan(ctx, "u1", []string{"A"}, "")
	require.NoError(t, err)

	stats, err = svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Detected)
	assert.Equal(t, 100, stats.CompletionPercent)
}

func TestStatsCache_SkipsSupersededResult(t *testing.T) {
	svc, _ := newTestService(t, Options{StatsTTL: time.Hour})
	ctx := context.Background()
	mustCreate(t, svc, "u1", ItemInput{Name: "Keys", RFID: "A"})

	// A summary computed before a mutation lands must not be cached.
	gen := svc.statsGen("u1")
	stale := models.Stats{Total: 1, Missing: 1}
	_, err := svc.Scan(ctx, "u1", []string{"A"}, "")
	require.NoError(t, err)
	svc.cacheStats("u1", gen, &stale)

	stats, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Detected)
	assert.Equal(t, 0, stats.Missing)

	// Results for the current generation are cached.
	svc.cacheStats("u1", svc.statsGen("u1"), &stale)
	stats, err = svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Missing)
}

func TestScan_RateLimited(t *testing.T) {
	svc, _ := newTestService(t, Options{ScanRate: 0.001, ScanBurst: 1})
	ctx := context.Background()

	_, err := svc.Scan(ctx, "u1", nil, "")
	require.NoError(t, err)
	_, err = svc.Scan(ctx, "u1", nil, "")
	assert.ErrorIs(t, err, ErrRateLimited)

	// Limits are per user.
	_, err = svc.Scan(ctx, "u2", nil, "")
	assert.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(svc.Metrics().Scans))
}

func TestUpdateTag(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()
	item := mustCreate(t, svc, "u1", ItemInput{Name: "Keys", RFID: "A"})

	got, err := svc.UpdateTag(ctx, "u1", "A", models.ItemStatusDetected, "desk")
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, "desk", got.Location)

	_, err = svc.UpdateTag(ctx, "u1", "Z", models.ItemStatusDetected, "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateTag(ctx, "u1", "A", "gone", "")
	assert.ErrorIs(t, err, ErrInvalidItem)

	n, err := svc.ResetStatuses(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFilterPresets(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	list, err := svc.ListFilterPresets(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].BuiltIn)

	p, err := svc.SaveFilterPreset(ctx, "u1", "Electronics To Find!",
		models.FilterSpec{Categories: []string{"electronics"}, Statuses: []models.ItemStatus{models.ItemStatusMissing}},
		models.SortSpec{})
	require.NoError(t, err)
	assert.Equal(t, "electronics-to-find", p.ID)
	assert.Equal(t, models.SortByName, p.Sort.Key)

	got, err := svc.GetFilterPreset(ctx, "u1", "electronics-to-find")
	require.NoError(t, err)
	assert.Equal(t, []string{"electronics"}, got.Filter.Categories)

	_, err = svc.SaveFilterPreset(ctx, "u1", "Missing Items", models.FilterSpec{}, models.SortSpec{})
	assert.ErrorIs(t, err, ErrInvalidPreset)
	_, err = svc.SaveFilterPreset(ctx, "u1", "Bad Dates", models.FilterSpec{DateFrom: "yesterday"}, models.SortSpec{})
	assert.ErrorIs(t, err, ErrInvalidPreset)
	_, err = svc.SaveFilterPreset(ctx, "u1", "!!!", models.FilterSpec{}, models.SortSpec{})
	assert.ErrorIs(t, err, ErrInvalidPreset)

	assert.ErrorIs(t, svc.DeleteFilterPreset(ctx, "u1", "essential-items"), ErrInvalidPreset)
	assert.NoError(t, svc.DeleteFilterPreset(ctx, "u1", "electronics-to-find"))
	assert.ErrorIs(t, svc.DeleteFilterPreset(ctx, "u1", "electronics-to-find"), ErrNotFound)
}

func TestApplyEventPreset(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	items, err := svc.ApplyEventPreset(ctx, "u1", "beach", []string{"Sunscreen"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.ItemStatusMissing, items[0].Status)

	_, err = svc.ApplyEventPreset(ctx, "u1", "beach", []string{"Snowboard"})
	assert.ErrorIs(t, err, ErrInvalidPreset)

	_, err = svc.ApplyEventPreset(ctx, "u1", "moon-landing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReminders(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()
	item := mustCreate(t, svc, "u1", ItemInput{Name: "Bike"})

	r, err := svc.CreateReminder(ctx, "u1", ReminderInput{
		Title: "Oil chain", Type: models.ReminderMaintenance, Frequency: models.FrequencyWeekly, ItemID: item.ID,
	})
	require.NoError(t, err)
	assert.True(t, r.IsActive)
	assert.True(t, r.NextDue.Equal(fixedNow.AddDate(0, 0, 7)))

	_, err = svc.CreateReminder(ctx, "u1", ReminderInput{Title: "x", Frequency: models.FrequencyCustom})
	assert.ErrorIs(t, err, ErrInvalidReminder)
	_, err = svc.CreateReminder(ctx, "u1", ReminderInput{Title: "x", Frequency: models.FrequencyDaily, ItemID: "ghost"})
	assert.ErrorIs(t, err, ErrInvalidReminder)

	daily := models.FrequencyDaily
	off := false
	updated, err := svc.UpdateReminder(ctx, "u1", r.ID, ReminderPatch{Frequency: &daily, IsActive: &off})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.True(t, updated.NextDue.Equal(fixedNow.AddDate(0, 0, 1)))

	svc.ReminderFired(ctx, *updated)
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.Metrics().RemindersFired.WithLabelValues("maintenance")))

	require.NoError(t, svc.DeleteReminder(ctx, "u1", r.ID))
	assert.ErrorIs(t, svc.DeleteReminder(ctx, "u1", r.ID), ErrNotFound)
}
