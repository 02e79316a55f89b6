package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fentz26/radar/internal/models"
	"github.com/google/uuid"
)

const reminderColumns = `id, user_id, title, description, type, frequency, schedule, next_due, is_active, item_id, last_fired_at, created_at`

func scanReminder(row rowScanner) (models.Reminder, error) {
	var r models.Reminder
	var itemID sql.NullString
	var lastFired sql.NullTime
	err := row.Scan(&r.ID, &r.UserID, &r.Title, &r.Description, &r.Type, &r.Frequency, &r.Schedule,
		&r.NextDue, &r.IsActive, &itemID, &lastFired, &r.CreatedAt)
	if err != nil {
		return r, err
	}
	if itemID.Valid {
		r.ItemID = itemID.String
	}
	if lastFired.Valid {
		t := lastFired.Time
		r.LastFiredAt = &t
	}
	return r, nil
}

func (s *Store) queryReminders(ctx context.Context, query string, args ...any) ([]models.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()

	reminders := []models.Reminder{}
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// CreateReminder inserts a reminder. ID and CreatedAt are assigned here.
func (s *Store) CreateReminder(ctx context.Context, r models.Reminder) (*models.Reminder, error) {
	r.ID = uuid.New().String()
	r.CreatedAt = time.Now().UTC()
	r.NextDue = r.NextDue.UTC().Truncate(time.Second)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (`+reminderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Title, r.Description, r.Type, r.Frequency, r.Schedule, r.NextDue,
		r.IsActive, nullString(r.ItemID), nil, r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}
	return &r, nil
}

// GetReminder retrieves a reminder, or nil, nil when absent.
func (s *Store) GetReminder(ctx context.Context, userID, id string) (*models.Reminder, error) {
	r, err := scanReminder(s.db.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE user_id = ? AND id = ?`, userID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query reminder: %w", err)
	}
	return &r, nil
}

// ListReminders returns a user's reminders ordered by next due time.
func (s *Store) ListReminders(ctx context.Context, userID string) ([]models.Reminder, error) {
	return s.queryReminders(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE user_id = ? ORDER BY next_due, id`, userID)
}

// DueReminders returns active reminders of every user due at or before now.
func (s *Store) DueReminders(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	return s.queryReminders(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE is_active = 1 AND next_due <= ? ORDER BY next_due, id`, now.UTC().Truncate(time.Second))
}

// UpdateReminder overwrites the mutable fields of a reminder. It returns nil, nil when absent.
func (s *Store) UpdateReminder(ctx context.Context, r models.Reminder) (*models.Reminder, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET title = ?, description = ?, type = ?, frequency = ?, schedule = ?, next_due = ?,
		 is_active = ?, item_id = ? WHERE user_id = ? AND id = ?`,
		r.Title, r.Description, r.Type, r.Frequency, r.Schedule, r.NextDue.UTC().Truncate(time.Second), r.IsActive,
		nullString(r.ItemID), r.UserID, r.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetReminder(ctx, r.UserID, r.ID)
}

// MarkReminderFired stamps last_fired_at and moves next_due forward.
func (s *Store) MarkReminderFired(ctx context.Context, id string, firedAt, nextDue time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET last_fired_at = ?, next_due = ? WHERE id = ?`,
		firedAt.UTC(), nextDue.UTC().Truncate(time.Second), id,
	)
	if err != nil {
		return fmt.Errorf("mark reminder fired: %w", err)
	}
	return nil
}

// DeleteReminder removes a reminder and reports whether it existed.
func (s *Store) DeleteReminder(ctx context.Context, userID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return false, fmt.Errorf("delete reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return n > 0, nil
}
