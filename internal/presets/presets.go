// Package presets holds the built-in catalog of event packing checklists.
package presets

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var catalogYAML []byte

// Difficulty is a rough packing effort label.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Item is one checklist entry of a preset.
type Item struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Category    string `yaml:"category" json:"category"`
	Essential   bool   `yaml:"essential" json:"is_essential"`
}

// Preset is a named packing checklist for an event.
type Preset struct {
	ID                string     `yaml:"id" json:"id"`
	Name              string     `yaml:"name" json:"name"`
	Icon              string     `yaml:"icon" json:"icon"`
	Description       string     `yaml:"description" json:"description"`
	EstimatedDuration string     `yaml:"estimated_duration" json:"estimated_duration,omitempty"`
	Difficulty        Difficulty `yaml:"difficulty" json:"difficulty,omitempty"`
	Items             []Item     `yaml:"items" json:"items"`
}

type catalogFile struct {
	Presets []Preset `yaml:"presets"`
}

var (
	loadOnce sync.Once
	catalog  []Preset
	loadErr  error
)

// Parse decodes and validates a catalog document.
func Parse(data []byte) ([]Preset, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	seen := make(map[string]bool, len(file.Presets))
	for i, p := range file.Presets {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("preset %d is missing id", i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate preset id: %q", p.ID)
		}
		seen[p.ID] = true
		if len(p.Items) == 0 {
			return nil, fmt.Errorf("preset %q has no items", p.ID)
		}
		switch p.Difficulty {
		case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
		default:
			return nil, fmt.Errorf("preset %q has unknown difficulty %q", p.ID, p.Difficulty)
		}
	}
	return file.Presets, nil
}

func load() ([]Preset, error) {
	loadOnce.Do(func() {
		catalog, loadErr = Parse(catalogYAML)
	})
	return catalog, loadErr
}

// All returns every built-in preset in catalog order.
func All() ([]Preset, error) {
	all, err := load()
	if err != nil {
		return nil, err
	}
	return slices.Clone(all), nil
}

// Get returns the preset with id, or false when there is none.
func Get(id string) (Preset, bool, error) {
	all, err := load()
	if err != nil {
		return Preset{}, false, err
	}
	for _, p := range all {
		if p.ID == id {
			return p, true, nil
		}
	}
	return Preset{}, false, nil
}

// Categories returns the sorted set of item categories used by the catalog.
func Categories() ([]string, error) {
	all, err := load()
	if err != nil {
		return nil, err
	}
	var cats []string
	for _, p := range all {
		for _, it := range p.Items {
			if !slices.Contains(cats, it.Category) {
				cats = append(cats, it.Category)
			}
		}
	}
	slices.Sort(cats)
	return cats, nil
}

// Select returns the preset items whose names are listed, in preset order.
// An empty names list selects every item. Unknown names are an error.
func (p Preset) Select(names []string) ([]Item, error) {
	if len(names) == 0 {
		return slices.Clone(p.Items), nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(strings.TrimSpace(n))] = true
	}

	var picked []Item
	for _, it := range p.Items {
		key := strings.ToLower(it.Name)
		if want[key] {
			picked = append(picked, it)
			delete(want, key)
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for n := range want {
			missing = append(missing, n)
		}
		slices.Sort(missing)
		return nil, fmt.Errorf("preset %q has no item named %s", p.ID, strings.Join(missing, ", "))
	}
	return picked, nil
}

// EssentialCount returns how many items are marked essential.
func (p Preset) EssentialCount() int {
	n := 0
	for _, it := range p.Items {
		if it.Essential {
			n++
		}
	}
	return n
}
