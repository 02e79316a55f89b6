package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fentz26/radar/internal/models"
)

// SaveFilterPreset inserts or replaces a user's filter preset keyed by preset.ID.
func (s *Store) SaveFilterPreset(ctx context.Context, preset models.FilterPreset) (*models.FilterPreset, error) {
	filter, err := json.Marshal(preset.Filter)
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}
	sort, err := json.Marshal(preset.Sort)
	if err != nil {
		return nil, fmt.Errorf("encode sort: %w", err)
	}
	preset.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO filter_presets (id, user_id, name, filter, sort, created_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, id) DO UPDATE SET name = excluded.name, filter = excluded.filter, sort = excluded.sort`,
		preset.ID, preset.UserID, preset.Name, string(filter), string(sort), preset.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("save filter preset: %w", err)
	}
	return &preset, nil
}

// ListFilterPresets returns a user's saved presets ordered by name.
func (s *Store) ListFilterPresets(ctx context.Context, userID string) ([]models.FilterPreset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, filter, sort, created_at FROM filter_presets WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("query filter presets: %w", err)
	}
	defer rows.Close()

	presets := []models.FilterPreset{}
	for rows.Next() {
		var p models.FilterPreset
		var filter, sort string
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &filter, &sort, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan filter preset: %w", err)
		}
		if err := json.Unmarshal([]byte(filter), &p.Filter); err != nil {
			return nil, fmt.Errorf("decode filter: %w", err)
		}
		if err := json.Unmarshal([]byte(sort), &p.Sort); err != nil {
			return nil, fmt.Errorf("decode sort: %w", err)
		}
		presets = append(presets, p)
	}
	return presets, rows.Err()
}

// DeleteFilterPreset removes a saved preset and reports whether it existed.
func (s *Store) DeleteFilterPreset(ctx context.Context, userID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM filter_presets WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return false, fmt.Errorf("delete filter preset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return n > 0, nil
}
