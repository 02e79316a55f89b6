package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"

	"github.com/fentz26/radar/internal/models"
	"github.com/fentz26/radar/internal/presets"
	"github.com/fentz26/radar/internal/query"
)

// BuiltinFilterPresets are offered to every user and cannot be changed.
func BuiltinFilterPresets() []models.FilterPreset {
	return []models.FilterPreset{
		{
			ID:      "essential-items",
			Name:    "Essential Items",
			Filter:  models.FilterSpec{EssentialOnly: true},
			Sort:    models.SortSpec{Key: models.SortByName, Direction: models.SortAsc},
			BuiltIn: true,
		},
		{
			ID:      "missing-items",
			Name:    "Missing Items",
			Filter:  models.FilterSpec{Statuses: []models.ItemStatus{models.ItemStatusMissing}},
			Sort:    models.SortSpec{Key: models.SortByLastSeen, Direction: models.SortDesc},
			BuiltIn: true,
		},
	}
}

func builtinFilterPreset(id string) (models.FilterPreset, bool) {
	for _, p := range BuiltinFilterPresets() {
		if p.ID == id {
			return p, true
		}
	}
	return models.FilterPreset{}, false
}

// ListFilterPresets returns the built-ins followed by the user's saved presets.
func (s *Service) ListFilterPresets(ctx context.Context, userID string) ([]models.FilterPreset, error) {
	saved, err := s.store.ListFilterPresets(ctx, userID)
	if err != nil {
		return nil, err
	}
	return append(BuiltinFilterPresets(), saved...), nil
}

// GetFilterPreset looks a preset up by id among built-ins and saved presets.
func (s *Service) GetFilterPreset(ctx context.Context, userID, id string) (*models.FilterPreset, error) {
	if p, ok := builtinFilterPreset(id); ok {
		return &p, nil
	}
	all, err := s.store.ListFilterPresets(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

// SaveFilterPreset stores a named filter; its id is the slug of the name.
// Saving under an existing name replaces that preset.
func (s *Service) SaveFilterPreset(ctx context.Context, userID, name string, filter models.FilterSpec, sort models.SortSpec) (*models.FilterPreset, error) {
	name = strings.TrimSpace(name)
	id := slug.Make(name)
	if id == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidPreset)
	}
	if _, ok := builtinFilterPreset(id); ok {
		return nil, fmt.Errorf("%w: %q is a built-in preset", ErrInvalidPreset, name)
	}

	key, err := models.ParseSortKey(string(sort.Key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	dir, err := models.ParseSortDirection(string(sort.Direction))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	for _, st := range filter.Statuses {
		if _, err := models.ParseItemStatus(string(st)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
		}
	}
	if !query.ValidBound(filter.DateFrom) || !query.ValidBound(filter.DateTo) {
		return nil, fmt.Errorf("%w: unparsable date bound", ErrInvalidPreset)
	}

	saved, err := s.store.SaveFilterPreset(ctx, models.FilterPreset{
		ID:     id,
		UserID: userID,
		Name:   name,
		Filter: filter,
		Sort:   models.SortSpec{Key: key, Direction: dir},
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, "filter.save", saved, userID, "")
	return saved, nil
}

// DeleteFilterPreset removes a saved preset. Built-ins cannot be deleted.
func (s *Service) DeleteFilterPreset(ctx context.Context, userID, id string) error {
	if _, ok := builtinFilterPreset(id); ok {
		return fmt.Errorf("%w: built-in presets cannot be deleted", ErrInvalidPreset)
	}
	deleted, err := s.store.DeleteFilterPreset(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	s.record(ctx, "filter.delete", map[string]string{"id": id}, userID, "")
	return nil
}

// --- Event Presets ---

// EventPresets returns the built-in event checklist catalog.
func (s *Service) EventPresets() ([]presets.Preset, error) {
	return presets.All()
}

// EventPreset returns one catalog entry or ErrNotFound.
func (s *Service) EventPreset(id string) (*presets.Preset, error) {
	p, ok, err := presets.Get(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// ApplyEventPreset creates the named items of a preset (all when names is
// empty) as missing items of the user.
func (s *Service) ApplyEventPreset(ctx context.Context, userID, id string, names []string) ([]models.Item, error) {
	p, err := s.EventPreset(id)
	if err != nil {
		return nil, err
	}
	selected, err := p.Select(names)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}

	created := make([]models.Item, 0, len(selected))
	for _, it := range selected {
		item, err := s.store.CreateItem(ctx, models.Item{
			UserID:      userID,
			Name:        it.Name,
			Description: it.Description,
			Category:    it.Category,
			IsEssential: it.Essential,
			Status:      models.ItemStatusMissing,
		})
		if err != nil {
			return created, err
		}
		created = append(created, *item)
	}

	s.changed(userID, "")
	s.metrics.ItemMutations.WithLabelValues("create").Add(float64(len(created)))
	s.record(ctx, "preset.apply", map[string]any{"preset": id, "names": names}, userID, "")
	s.log.WithField("user", userID).WithField("preset", id).WithField("items", len(created)).Info("event preset applied")
	return created, nil
}
