package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// GetOrder returns the persisted manual order for (user, collection), or nil when none is stored.
func (s *Store) GetOrder(ctx context.Context, userID, collection string) ([]string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT ids FROM item_orders WHERE user_id = ? AND collection = ?`, userID, collection,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	return ids, nil
}

// SaveOrder replaces the manual order for (user, collection).
func (s *Store) SaveOrder(ctx context.Context, userID, collection string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO item_orders (user_id, collection, ids, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, collection) DO UPDATE SET ids = excluded.ids, updated_at = excluded.updated_at`,
		userID, collection, string(raw), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}

// DeleteOrder removes the persisted manual order entirely.
func (s *Store) DeleteOrder(ctx context.Context, userID, collection string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM item_orders WHERE user_id = ? AND collection = ?`, userID, collection)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}
