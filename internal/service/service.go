// Package service provides the HTTP API and business logic for Radar.
package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/fentz26/radar/internal/audit"
	"github.com/fentz26/radar/internal/models"
	"github.com/fentz26/radar/internal/query"
	"github.com/fentz26/radar/internal/store"
)

// DefaultCollection is the manual-order key used for the main item list.
const DefaultCollection = "items"

var defaultSort = models.SortSpec{Key: models.SortByName, Direction: models.SortAsc}

// OrderStore persists manual orders keyed by (user, collection).
type OrderStore interface {
	GetOrder(ctx context.Context, userID, collection string) ([]string, error)
	SaveOrder(ctx context.Context, userID, collection string, ids []string) error
	DeleteOrder(ctx context.Context, userID, collection string) error
}

// Options tunes a Service. Zero values pick defaults.
type Options struct {
	Orders          OrderStore
	Log             logrus.FieldLogger
	Metrics         *Metrics
	StatsTTL        time.Duration
	ScanRate        float64
	ScanBurst       int
	DefaultPageSize int
}

// Service provides Radar's business logic on top of the store.
type Service struct {
	store   *store.Store
	orders  OrderStore
	audit   *audit.Recorder
	log     logrus.FieldLogger
	metrics *Metrics
	stats   *cache.Cache

	statsMu   sync.Mutex
	statsGens map[string]uint64

	pageSize  int
	scanRate  rate.Limit
	scanBurst int
	limitMu   sync.Mutex
	limiters  map[string]*rate.Limiter

	now func() time.Time
}

// NewService creates a service. Orders default to the SQLite store.
func NewService(s *store.Store, rec *audit.Recorder, opts Options) *Service {
	if opts.Orders == nil {
		opts.Orders = s
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.StatsTTL <= 0 {
		opts.StatsTTL = 30 * time.Second
	}
	if opts.ScanRate <= 0 {
		opts.ScanRate = 2
	}
	if opts.ScanBurst <= 0 {
		opts.ScanBurst = 5
	}
	if opts.DefaultPageSize == 0 {
		opts.DefaultPageSize = query.DefaultPageSize
	}
	return &Service{
		store:     s,
		orders:    opts.Orders,
		audit:     rec,
		log:       opts.Log,
		metrics:   opts.Metrics,
		stats:     cache.New(opts.StatsTTL, 2*opts.StatsTTL),
		statsGens: make(map[string]uint64),
		pageSize:  opts.DefaultPageSize,
		scanRate:  rate.Limit(opts.ScanRate),
		scanBurst: opts.ScanBurst,
		limiters:  make(map[string]*rate.Limiter),
		now:       time.Now,
	}
}

// Metrics returns the service's collectors.
func (s *Service) Metrics() *Metrics {
	return s.metrics
}

// DefaultPageSize is the page size used when a query does not name one.
func (s *Service) DefaultPageSize() int {
	return s.pageSize
}

func (s *Service) record(ctx context.Context, action string, inputs any, userID, itemID string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, action, inputs, "success", userID, itemID, "")
}

// changed drops cached aggregates after a mutation.
func (s *Service) changed(userID, action string) {
	s.statsMu.Lock()
	s.statsGens[userID]++
	s.stats.Delete(userID)
	s.statsMu.Unlock()
	if action != "" {
		s.metrics.ItemMutations.WithLabelValues(action).Inc()
	}
}

// --- Item Operations ---

// ItemInput carries the fields of a new item.
type ItemInput struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	RFID        string            `json:"rfid"`
	Category    string            `json:"category"`
	IsEssential bool              `json:"is_essential"`
	Status      models.ItemStatus `json:"status"`
	Location    string            `json:"location"`
}

// ItemPatch carries the fields to change on an item. Nil fields are kept.
type ItemPatch struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	RFID        *string            `json:"rfid,omitempty"`
	Category    *string            `json:"category,omitempty"`
	IsEssential *bool              `json:"is_essential,omitempty"`
	Status      *models.ItemStatus `json:"status,omitempty"`
	Location    *string            `json:"location,omitempty"`
}

func validateItem(item *models.Item) error {
	item.Name = strings.TrimSpace(item.Name)
	item.Category = strings.TrimSpace(item.Category)
	item.RFID = strings.TrimSpace(item.RFID)
	if item.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	if item.Status == "" {
		item.Status = models.ItemStatusMissing
	}
	if _, err := models.ParseItemStatus(string(item.Status)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	return nil
}

// checkTag rejects an rfid already carried by another of the user's items.
func (s *Service) checkTag(ctx context.Context, userID, rfid, selfID string) error {
	if rfid == "" {
		return nil
	}
	other, err := s.store.FindItemByRFID(ctx, userID, rfid)
	if err != nil {
		return err
	}
	if other != nil && other.ID != selfID {
		return fmt.Errorf("%w: %s is on %q", ErrDuplicateTag, rfid, other.Name)
	}
	return nil
}

// CreateItem validates and stores a new item.
func (s *Service) CreateItem(ctx context.Context, userID string, in ItemInput) (*models.Item, error) {
	item := models.Item{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		RFID:        in.RFID,
		Category:    in.Category,
		IsEssential: in.IsEssential,
		Status:      in.Status,
		Location:    in.Location,
	}
	if err := validateItem(&item); err != nil {
		return nil, err
	}
	if err := s.checkTag(ctx, userID, item.RFID, ""); err != nil {
		return nil, err
	}
	if item.Status == models.ItemStatusDetected {
		item.LastSeen = s.now().UTC()
	}

	created, err := s.store.CreateItem(ctx, item)
	if err != nil {
		return nil, err
	}
	s.changed(userID, "create")
	s.record(ctx, "item.create", map[string]string{"name": created.Name, "rfid": created.RFID}, userID, created.ID)
	return created, nil
}

// GetItem returns an item or ErrNotFound.
func (s *Service) GetItem(ctx context.Context, userID, id string) (*models.Item, error) {
	item, err := s.store.GetItem(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	return item, nil
}

// ListItems returns every item of a user.
func (s *Service) ListItems(ctx context.Context, userID string) ([]models.Item, error) {
	return s.store.ListItems(ctx, userID)
}

// UpdateItem applies a patch to an item.
func (s *Service) UpdateItem(ctx context.Context, userID, id string, patch ItemPatch) (*models.Item, error) {
	item, err := s.GetItem(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	prevStatus := item.Status
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.RFID != nil {
		item.RFID = *patch.RFID
	}
	if patch.Category != nil {
		item.Category = *patch.Category
	}
	if patch.IsEssential != nil {
		item.IsEssential = *patch.IsEssential
	}
	if patch.Status != nil {
		item.Status = *patch.Status
	}
	if patch.Location != nil {
		item.Location = *patch.Location
	}
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if err := s.checkTag(ctx, userID, item.RFID, item.ID); err != nil {
		return nil, err
	}
	if item.Status == models.ItemStatusDetected && prevStatus != models.ItemStatusDetected {
		item.LastSeen = s.now().UTC()
	}

	updated, err := s.store.UpdateItem(ctx, *item)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	s.changed(userID, "update")
	s.record(ctx, "item.update", patch, userID, id)
	return updated, nil
}

// DeleteItem removes an item and prunes it from the stored manual order.
func (s *Service) DeleteItem(ctx context.Context, userID, id string) error {
	deleted, err := s.store.DeleteItem(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}

	order, err := s.orders.GetOrder(ctx, userID, DefaultCollection)
	if err != nil {
		s.log.WithError(err).WithField("user", userID).Warn("load order after delete")
	} else if order != nil {
		pruned := make([]string, 0, len(order))
		for _, oid := range order {
			if oid != id {
				pruned = append(pruned, oid)
			}
		}
		if len(pruned) != len(order) {
			if err := s.orders.SaveOrder(ctx, userID, DefaultCollection, pruned); err != nil {
				s.log.WithError(err).WithField("user", userID).Warn("prune order after delete")
			}
		}
	}

	s.changed(userID, "delete")
	s.record(ctx, "item.delete", map[string]string{"id": id}, userID, id)
	return nil
}

// --- Query Operations ---

// QueryRequest describes one engine query.
type QueryRequest struct {
	Filter models.FilterSpec
	Sort   models.SortSpec
	Page   query.Page
	// Manual overlays the stored manual order on the sorted result.
	Manual bool
}

// Query runs the item query engine over the user's full record set.
func (s *Service) Query(ctx context.Context, userID string, req QueryRequest) (*query.Result, error) {
	key, err := models.ParseSortKey(string(req.Sort.Key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	dir, err := models.ParseSortDirection(string(req.Sort.Direction))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	req.Sort = models.SortSpec{Key: key, Direction: dir}

	items, err := s.store.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	var order query.ManualOrder
	if req.Manual {
		ids, err := s.orders.GetOrder(ctx, userID, DefaultCollection)
		if err != nil {
			return nil, err
		}
		order = ids
	}

	result := query.Run(items, req.Filter, req.Sort, order, req.Page)
	return &result, nil
}

// Snapshot is the full record set plus the stored manual order, for hosts
// that run the engine locally.
type Snapshot struct {
	Items []models.Item `json:"items"`
	Order []string      `json:"order"`
}

// Snapshot returns the user's items and stored order.
func (s *Service) Snapshot(ctx context.Context, userID string) (*Snapshot, error) {
	items, err := s.store.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetOrder(ctx, userID, DefaultCollection)
	if err != nil {
		return nil, err
	}
	if order == nil {
		order = []string{}
	}
	return &Snapshot{Items: items, Order: order}, nil
}

// Categories returns the distinct non-empty categories of the user's items.
func (s *Service) Categories(ctx context.Context, userID string) ([]string, error) {
	items, err := s.store.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	return query.DistinctCategories(items), nil
}

// Stats summarizes the user's items. Results are cached until the next mutation.
func (s *Service) Stats(ctx context.Context, userID string) (*models.Stats, error) {
	if cached, ok := s.stats.Get(userID); ok {
		return cached.(*models.Stats), nil
	}
	gen := s.statsGen(userID)
	items, err := s.store.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := query.Summarize(items)
	s.cacheStats(userID, gen, &stats)
	return &stats, nil
}

func (s *Service) statsGen(userID string) uint64 {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.statsGens[userID]
}

// cacheStats stores stats computed at generation gen, unless a mutation
// has happened since.
func (s *Service) cacheStats(userID string, gen uint64, stats *models.Stats) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	if s.statsGens[userID] != gen {
		return
	}
	s.stats.Set(userID, stats, cache.DefaultExpiration)
}

// --- Manual Order Operations ---

// GetOrder returns the stored manual order, empty when none.
func (s *Service) GetOrder(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.orders.GetOrder(ctx, userID, DefaultCollection)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// SaveOrder replaces the manual order. Blank and repeated ids are dropped.
func (s *Service) SaveOrder(ctx context.Context, userID string, ids []string) ([]string, error) {
	clean := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		clean = append(clean, id)
	}
	if err := s.orders.SaveOrder(ctx, userID, DefaultCollection, clean); err != nil {
		return nil, err
	}
	s.record(ctx, "order.save", clean, userID, "")
	return clean, nil
}

// ResetOrder deletes the stored manual order entirely.
func (s *Service) ResetOrder(ctx context.Context, userID string) error {
	if err := s.orders.DeleteOrder(ctx, userID, DefaultCollection); err != nil {
		return err
	}
	s.record(ctx, "order.reset", nil, userID, "")
	return nil
}

// MoveItem relocates id within the user's full display order (default
// sort with the stored order overlaid) and persists the result.
func (s *Service) MoveItem(ctx context.Context, userID, id string, index int) ([]string, error) {
	items, err := s.store.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	stored, err := s.orders.GetOrder(ctx, userID, DefaultCollection)
	if err != nil {
		return nil, err
	}

	base := query.IDs(query.Apply(items, models.FilterSpec{}, defaultSort, stored))
	if !slices.Contains(base, id) {
		return nil, ErrNotFound
	}
	moved := base.Move(id, index)

	if err := s.orders.SaveOrder(ctx, userID, DefaultCollection, moved); err != nil {
		return nil, err
	}
	s.record(ctx, "order.move", map[string]any{"id": id, "index": index}, userID, id)
	return moved, nil
}

// --- Scan Operations ---

func (s *Service) limiter(userID string) *rate.Limiter {
	s.limitMu.Lock()
	defer s.limitMu.Unlock()
	l, ok := s.limiters[userID]
	if !ok {
		l = rate.NewLimiter(s.scanRate, s.scanBurst)
		s.limiters[userID] = l
	}
	return l
}

// Scan applies a full reader sweep: listed tags become detected, every
// other tagged item becomes missing.
func (s *Service) Scan(ctx context.Context, userID string, tags []string, location string) (*store.ScanResult, error) {
	if !s.limiter(userID).Allow() {
		return nil, ErrRateLimited
	}

	res, err := s.store.ApplyScan(ctx, userID, tags, location, s.now())
	if err != nil {
		return nil, err
	}
	s.changed(userID, "")
	s.metrics.Scans.Inc()
	s.metrics.TagsScanned.WithLabelValues("detected").Add(float64(len(res.Detected)))
	s.metrics.TagsScanned.WithLabelValues("unknown").Add(float64(len(res.Unknown)))
	s.record(ctx, "scan", map[string]any{"tags": tags, "location": location}, userID, "")

	s.log.WithFields(logrus.Fields{
		"user":           userID,
		"detected":       len(res.Detected),
		"unknown":        len(res.Unknown),
		"marked_missing": res.MarkedMissing,
	}).Info("scan applied")
	return res, nil
}

// ResetStatuses marks every item of the user missing.
func (s *Service) ResetStatuses(ctx context.Context, userID string) (int, error) {
	n, err := s.store.ResetStatuses(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.changed(userID, "reset")
	s.record(ctx, "scan.reset", nil, userID, "")
	return n, nil
}

// UpdateTag sets the status of the item carrying tag.
func (s *Service) UpdateTag(ctx context.Context, userID, tag string, status models.ItemStatus, location string) (*models.Item, error) {
	if _, err := models.ParseItemStatus(string(status)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	item, err := s.store.UpdateRFIDStatus(ctx, userID, tag, status, location, s.now())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	s.changed(userID, "tag")
	s.record(ctx, "rfid.update", map[string]string{"tag": tag, "status": string(status)}, userID, item.ID)
	return item, nil
}
