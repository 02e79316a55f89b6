package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fentz26/radar/internal/models"
	"github.com/fentz26/radar/internal/reminders"
)

// ReminderInput carries the fields of a new reminder. A zero NextDue
// schedules the first occurrence one period from now.
type ReminderInput struct {
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Type        models.ReminderType      `json:"type"`
	Frequency   models.ReminderFrequency `json:"frequency"`
	Schedule    string                   `json:"schedule"`
	NextDue     time.Time                `json:"next_due"`
	ItemID      string                   `json:"item_id"`
	IsActive    *bool                    `json:"is_active,omitempty"`
}

// ReminderPatch carries the reminder fields to change. Nil fields are kept.
type ReminderPatch struct {
	Title       *string                   `json:"title,omitempty"`
	Description *string                   `json:"description,omitempty"`
	Type        *models.ReminderType      `json:"type,omitempty"`
	Frequency   *models.ReminderFrequency `json:"frequency,omitempty"`
	Schedule    *string                   `json:"schedule,omitempty"`
	NextDue     *time.Time                `json:"next_due,omitempty"`
	ItemID      *string                   `json:"item_id,omitempty"`
	IsActive    *bool                     `json:"is_active,omitempty"`
}

func (s *Service) validateReminder(ctx context.Context, r *models.Reminder) error {
	r.Title = strings.TrimSpace(r.Title)
	r.Schedule = strings.TrimSpace(r.Schedule)
	if r.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidReminder)
	}
	if r.Type == "" {
		r.Type = models.ReminderCheck
	}
	if err := reminders.Validate(*r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReminder, err)
	}
	if r.ItemID != "" {
		item, err := s.store.GetItem(ctx, r.UserID, r.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("%w: unknown item %s", ErrInvalidReminder, r.ItemID)
		}
	}
	return nil
}

// CreateReminder validates and stores a reminder.
func (s *Service) CreateReminder(ctx context.Context, userID string, in ReminderInput) (*models.Reminder, error) {
	r := models.Reminder{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		Frequency:   in.Frequency,
		Schedule:    in.Schedule,
		ItemID:      in.ItemID,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if err := s.validateReminder(ctx, &r); err != nil {
		return nil, err
	}
	due, err := reminders.FirstDue(r, in.NextDue, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReminder, err)
	}
	r.NextDue = due

	created, err := s.store.CreateReminder(ctx, r)
	if err != nil {
		return nil, err
	}
	s.record(ctx, "reminder.create", in, userID, created.ItemID)
	return created, nil
}

// ListReminders returns the user's reminders by next due time.
func (s *Service) ListReminders(ctx context.Context, userID string) ([]models.Reminder, error) {
	return s.store.ListReminders(ctx, userID)
}

// UpdateReminder applies a patch. Changing the frequency or schedule
// without a NextDue reschedules from now.
func (s *Service) UpdateReminder(ctx context.Context, userID, id string, patch ReminderPatch) (*models.Reminder, error) {
	r, err := s.store.GetReminder(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNotFound
	}

	reschedule := false
	if patch.Title != nil {
		r.Title = *patch.Title
	}
	if patch.Description != nil {
		r.Description = *patch.Description
	}
	if patch.Type != nil {
		r.Type = *patch.Type
	}
	if patch.Frequency != nil && *patch.Frequency != r.Frequency {
		r.Frequency = *patch.Frequency
		reschedule = true
	}
	if patch.Schedule != nil && *patch.Schedule != r.Schedule {
		r.Schedule = *patch.Schedule
		reschedule = true
	}
	if patch.ItemID != nil {
		r.ItemID = *patch.ItemID
	}
	if patch.IsActive != nil {
		r.IsActive = *patch.IsActive
	}
	if err := s.validateReminder(ctx, r); err != nil {
		return nil, err
	}

	switch {
	case patch.NextDue != nil:
		r.NextDue = *patch.NextDue
	case reschedule:
		due, err := reminders.FirstDue(*r, time.Time{}, s.now().UTC())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidReminder, err)
		}
		r.NextDue = due
	}

	updated, err := s.store.UpdateReminder(ctx, *r)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	s.record(ctx, "reminder.update", patch, userID, updated.ItemID)
	return updated, nil
}

// DeleteReminder removes a reminder.
func (s *Service) DeleteReminder(ctx context.Context, userID, id string) error {
	deleted, err := s.store.DeleteReminder(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	s.record(ctx, "reminder.delete", map[string]string{"id": id}, userID, "")
	return nil
}

// ReminderFired is the scheduler callback for a reminder that came due.
func (s *Service) ReminderFired(ctx context.Context, r models.Reminder) {
	s.metrics.RemindersFired.WithLabelValues(string(r.Type)).Inc()
	s.record(ctx, "reminder.fire", map[string]string{"id": r.ID, "title": r.Title}, r.UserID, r.ItemID)
	s.log.WithFields(logrus.Fields{
		"user":     r.UserID,
		"reminder": r.ID,
		"title":    r.Title,
		"type":     r.Type,
		"next_due": r.NextDue.Format(time.RFC3339),
	}).Info("reminder due")
}
