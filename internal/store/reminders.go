package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ovoronin/hireloop/internal/screening"
)

// UpsertReminder records a pending reminder for the chat identity, replacing
// any previous one so at most a single reminder stays live per candidate.
func (s *Store) UpsertReminder(ctx context.Context, chatID int64, applicationID string, dueAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO reminders (chat_id, application_id, due_at) VALUES ($1, $2, $3)
		ON CONFLICT (chat_id) DO UPDATE SET application_id = EXCLUDED.application_id, due_at = EXCLUDED.due_at`,
		chatID, applicationID, dueAt)
	if err != nil {
		return fmt.Errorf("upsert reminder: %w", err)
	}
	return nil
}

func (s *Store) DeleteReminder(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE chat_id = $1`, chatID)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return nil
}

// PendingReminders returns all stored reminders so they can be re-armed
// after a process restart.
func (s *Store) PendingReminders(ctx context.Context) ([]screening.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chat_id, application_id, due_at FROM reminders`)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var items []screening.Reminder
	for rows.Next() {
		var r screening.Reminder
		if err := rows.Scan(&r.ChatID, &r.ApplicationID, &r.DueAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
