package store

import (
	"context"
	"fmt"
	"time"

	"github.com/fentz26/radar/internal/models"
	"github.com/google/uuid"
)

// WriteAudit writes an audit entry.
func (s *Store) WriteAudit(ctx context.Context, action, inputsHash, outcome, userID, itemID, details string) (*models.AuditEntry, error) {
	entry := &models.AuditEntry{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		UserID:     userID,
		ItemID:     itemID,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit (id, action, inputs_hash, outcome, user_id, item_id, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, entry.InputsHash, entry.Outcome, entry.UserID, entry.ItemID, entry.Details, entry.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert audit: %w", err)
	}
	return entry, nil
}

// ListAudit returns the most recent audit entries for a user, newest first.
func (s *Store) ListAudit(ctx context.Context, userID string, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, inputs_hash, outcome, user_id, item_id, details, timestamp
		 FROM audit WHERE user_id = ? ORDER BY timestamp DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.InputsHash, &e.Outcome, &e.UserID, &e.ItemID, &e.Details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
