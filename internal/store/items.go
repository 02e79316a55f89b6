package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fentz26/radar/internal/models"
	"github.com/google/uuid"
)

const itemColumns = `id, user_id, name, description, rfid, category, is_essential, status, last_seen, location, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (models.Item, error) {
	var item models.Item
	var lastSeen sql.NullTime
	var location sql.NullString
	err := row.Scan(&item.ID, &item.UserID, &item.Name, &item.Description, &item.RFID, &item.Category,
		&item.IsEssential, &item.Status, &lastSeen, &location, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return item, err
	}
	if lastSeen.Valid {
		item.LastSeen = lastSeen.Time
	}
	if location.Valid {
		item.Location = location.String
	}
	return item, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// CreateItem inserts a new item owned by item.UserID. ID and timestamps are assigned here.
func (s *Store) CreateItem(ctx context.Context, item models.Item) (*models.Item, error) {
	now := time.Now().UTC()
	item.ID = uuid.New().String()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Status == "" {
		item.Status = models.ItemStatusMissing
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.UserID, item.Name, item.Description, item.RFID, item.Category, item.IsEssential,
		item.Status, nullTime(item.LastSeen), nullString(item.Location), item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return &item, nil
}

// GetItem retrieves an item by ID within a user's collection. It returns nil, nil when absent.
func (s *Store) GetItem(ctx context.Context, userID, id string) (*models.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE user_id = ? AND id = ?`, userID, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return &item, nil
}

// ListItems returns every item of a user in creation order.
func (s *Store) ListItems(ctx context.Context, userID string) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem overwrites the mutable fields of an item. It returns nil, nil when absent.
func (s *Store) UpdateItem(ctx context.Context, item models.Item) (*models.Item, error) {
	item.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, rfid = ?, category = ?, is_essential = ?, status = ?,
		 last_seen = ?, location = ?, updated_at = ? WHERE user_id = ? AND id = ?`,
		item.Name, item.Description, item.RFID, item.Category, item.IsEssential, item.Status,
		nullTime(item.LastSeen), nullString(item.Location), item.UpdatedAt, item.UserID, item.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetItem(ctx, item.UserID, item.ID)
}

// DeleteItem removes an item. It reports whether a row was deleted.
func (s *Store) DeleteItem(ctx context.Context, userID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return n > 0, nil
}

// FindItemByRFID returns the first item of a user carrying the tag, or nil, nil.
func (s *Store) FindItemByRFID(ctx context.Context, userID, rfid string) (*models.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE user_id = ? AND rfid = ? ORDER BY created_at LIMIT 1`, userID, rfid))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query item by rfid: %w", err)
	}
	return &item, nil
}

// UpdateRFIDStatus sets the status of the item carrying rfid and stamps
// last_seen. It returns nil, nil when no item carries the tag.
func (s *Store) UpdateRFIDStatus(ctx context.Context, userID, rfid string, status models.ItemStatus, location string, now time.Time) (*models.Item, error) {
	item, err := s.FindItemByRFID(ctx, userID, rfid)
	if err != nil || item == nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE items SET status = ?, last_seen = ?, location = ?, updated_at = ? WHERE id = ?`,
		status, now.UTC(), nullString(location), now.UTC(), item.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update rfid status: %w", err)
	}
	return s.GetItem(ctx, userID, item.ID)
}

// ScanResult summarizes a bulk scan.
type ScanResult struct {
	Detected      []string `json:"detected"`
	Unknown       []string `json:"unknown"`
	MarkedMissing int      `json:"marked_missing"`
}

// ApplyScan records a full reader sweep for a user in one transaction: every
// scanned tag that names an item becomes detected with last_seen = now, and
// every other tagged item of the user becomes missing.
func (s *Store) ApplyScan(ctx context.Context, userID string, tags []string, location string, now time.Time) (*ScanResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now = now.UTC()
	result := &ScanResult{Detected: []string{}, Unknown: []string{}}
	seen := make(map[string]bool, len(tags))
	var scanned []any

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		scanned = append(scanned, tag)

		res, err := tx.ExecContext(ctx,
			`UPDATE items SET status = ?, last_seen = ?, location = ?, updated_at = ? WHERE user_id = ? AND rfid = ?`,
			models.ItemStatusDetected, now, nullString(location), now, userID, tag,
		)
		if err != nil {
			return nil, fmt.Errorf("mark detected: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("check rows affected: %w", err)
		}
		if n == 0 {
			result.Unknown = append(result.Unknown, tag)
		} else {
			result.Detected = append(result.Detected, tag)
		}
	}

	query := `UPDATE items SET status = ?, updated_at = ? WHERE user_id = ? AND rfid != '' AND status != ?`
	args := []any{models.ItemStatusMissing, now, userID, models.ItemStatusMissing}
	if len(scanned) > 0 {
		query += ` AND rfid NOT IN (` + strings.TrimSuffix(strings.Repeat("?,", len(scanned)), ",") + `)`
		args = append(args, scanned...)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("mark missing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check rows affected: %w", err)
	}
	result.MarkedMissing = int(n)

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return result, nil
}

// ResetStatuses marks every item of a user missing and returns how many changed.
func (s *Store) ResetStatuses(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = ? WHERE user_id = ? AND status != ?`,
		models.ItemStatusMissing, time.Now().UTC(), userID, models.ItemStatusMissing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset statuses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return int(n), nil
}
