// Package models defines the core domain types for Radar.
package models

import (
	"fmt"
	"time"
)

// ItemStatus is the last known RFID state of an item.
type ItemStatus string

const (
	ItemStatusDetected ItemStatus = "detected"
	ItemStatusMissing  ItemStatus = "missing"
)

// ParseItemStatus validates a status string.
func ParseItemStatus(s string) (ItemStatus, error) {
	switch ItemStatus(s) {
	case ItemStatusDetected, ItemStatusMissing:
		return ItemStatus(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Item is a tracked physical object carrying an RFID tag.
type Item struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	RFID        string     `json:"rfid"`
	Category    string     `json:"category"`
	IsEssential bool       `json:"is_essential"`
	Status      ItemStatus `json:"status"`
	LastSeen    time.Time  `json:"last_seen"`
	Location    string     `json:"location,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SortKey names the item attribute a listing is ordered by.
type SortKey string

const (
	SortByName      SortKey = "name"
	SortByCategory  SortKey = "category"
	SortByStatus    SortKey = "status"
	SortByLastSeen  SortKey = "lastSeen"
	SortByEssential SortKey = "essential"
)

// SortKeys lists every supported key in display order.
var SortKeys = []SortKey{SortByName, SortByCategory, SortByStatus, SortByLastSeen, SortByEssential}

// ParseSortKey validates a sort key string. Empty means name.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortByName, nil
	}
	for _, k := range SortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection validates a direction string. Empty means asc.
func ParseSortDirection(s string) (SortDirection, error) {
	switch SortDirection(s) {
	case "", SortAsc:
		return SortAsc, nil
	case SortDesc:
		return SortDesc, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// FilterSpec describes which items belong in a result.
// Empty Categories or Statuses impose no restriction on that dimension.
// DateFrom and DateTo are ISO 8601 instants or dates; empty means unbounded.
type FilterSpec struct {
	SearchText    string       `json:"search_text,omitempty"`
	Categories    []string     `json:"categories,omitempty"`
	Statuses      []ItemStatus `json:"statuses,omitempty"`
	EssentialOnly bool         `json:"essential_only,omitempty"`
	DateFrom      string       `json:"date_from,omitempty"`
	DateTo        string       `json:"date_to,omitempty"`
}

// SortSpec describes result ordering.
type SortSpec struct {
	Key       SortKey       `json:"key"`
	Direction SortDirection `json:"direction"`
}

// FilterPreset is a named, saved filter and sort combination.
type FilterPreset struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id,omitempty"`
	Name      string     `json:"name"`
	Filter    FilterSpec `json:"filter"`
	Sort      SortSpec   `json:"sort"`
	BuiltIn   bool       `json:"built_in,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ReminderType classifies what a reminder asks the user to do.
type ReminderType string

const (
	ReminderCheck       ReminderType = "check"
	ReminderMaintenance ReminderType = "maintenance"
	ReminderReplacement ReminderType = "replacement"
)

// ReminderFrequency controls how NextDue advances after a reminder fires.
type ReminderFrequency string

const (
	FrequencyDaily   ReminderFrequency = "daily"
	FrequencyWeekly  ReminderFrequency = "weekly"
	FrequencyMonthly ReminderFrequency = "monthly"
	FrequencyCustom  ReminderFrequency = "custom"
)

// Reminder is a recurring prompt, optionally tied to an item.
type Reminder struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id,omitempty"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Type        ReminderType      `json:"type"`
	Frequency   ReminderFrequency `json:"frequency"`
	Schedule    string            `json:"schedule,omitempty"` // cron expression, custom frequency only
	NextDue     time.Time         `json:"next_due"`
	IsActive    bool              `json:"is_active"`
	ItemID      string            `json:"item_id,omitempty"`
	LastFiredAt *time.Time        `json:"last_fired_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// AuditEntry records a state-mutating action.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	UserID     string    `json:"user_id,omitempty"`
	ItemID     string    `json:"item_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// CategoryCount is one row of the category breakdown.
type CategoryCount struct {
	Category   string `json:"category"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// Stats summarizes a record set for the dashboard.
type Stats struct {
	Total             int             `json:"total"`
	Detected          int             `json:"detected"`
	Missing           int             `json:"missing"`
	Essential         int             `json:"essential"`
	EssentialMissing  int             `json:"essential_missing"`
	CompletionPercent int             `json:"completion_percent"`
	Categories        []CategoryCount `json:"categories"`
	MissingEssential  []Item          `json:"missing_essential"`
	MissingOther      []Item          `json:"missing_other"`
}
