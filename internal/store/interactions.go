package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ovoronin/hireloop/internal/screening"
)

const interactionColumns = `id, candidate_id, application_id, vacancy_id, current_question_id, step, answers, state, consent, version, started_at, last_active, completed_at`

func (s *Store) CreateInteraction(ctx context.Context, i *screening.Interaction) error {
	if i.ID == "" {
		i.ID = newID()
	}
	now := time.Now().UTC()
	if i.StartedAt.IsZero() {
		i.StartedAt = now
	}
	if i.LastActive.IsZero() {
		i.LastActive = now
	}
	if i.State == "" {
		i.State = screening.InteractionStarted
	}
	i.Version = 1

	answers, err := encodeAnswers(i.Answers)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO interactions
		(id, candidate_id, application_id, vacancy_id, current_question_id, step, answers, state, consent, version, started_at, last_active, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		i.ID, i.CandidateID, i.ApplicationID, i.VacancyID, i.CurrentQuestionID, i.Step, answers,
		i.State, i.Consent, i.Version, i.StartedAt, i.LastActive, nullTime(i.CompletedAt))
	if err != nil {
		return fmt.Errorf("create interaction: %w", err)
	}
	return nil
}

func (s *Store) InteractionByApplication(ctx context.Context, applicationID string) (*screening.Interaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+interactionColumns+` FROM interactions WHERE application_id = $1`, applicationID)
	return scanInteraction(row)
}

func (s *Store) InteractionByID(ctx context.Context, id string) (*screening.Interaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+interactionColumns+` FROM interactions WHERE id = $1`, id)
	return scanInteraction(row)
}

// UpdateInteraction applies a partial update. Completed interactions are
// frozen and refuse further writes. The update is optimistic: it bumps the
// version column and fails with ErrVersionConflict when a concurrent writer
// got there first.
func (s *Store) UpdateInteraction(ctx context.Context, id string, upd screening.InteractionUpdate) error {
	current, err := s.InteractionByID(ctx, id)
	if err != nil {
		return err
	}
	if current.State == screening.InteractionCompleted {
		return screening.ErrFrozen
	}

	if upd.CurrentQuestionID != nil {
		current.CurrentQuestionID = *upd.CurrentQuestionID
	}
	if upd.Step != nil {
		current.Step = *upd.Step
	}
	if upd.Answers != nil {
		current.Answers = upd.Answers
	}
	if upd.State != nil {
		current.State = *upd.State
	}
	if upd.Consent != nil {
		current.Consent = *upd.Consent
	}
	if upd.LastActive != nil {
		current.LastActive = *upd.LastActive
	}
	if upd.CompletedAt != nil {
		current.CompletedAt = upd.CompletedAt
	}

	answers, err := encodeAnswers(current.Answers)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE interactions
		SET current_question_id = $1, step = $2, answers = $3, state = $4, consent = $5,
		    last_active = $6, completed_at = $7, version = version + 1
		WHERE id = $8 AND version = $9`,
		current.CurrentQuestionID, current.Step, answers, current.State, current.Consent,
		current.LastActive, nullTime(current.CompletedAt), id, current.Version)
	if err != nil {
		return fmt.Errorf("update interaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return screening.ErrVersionConflict
	}
	return nil
}

func (s *Store) DeleteInteraction(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM interactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete interaction: %w", err)
	}
	return nil
}

// ListIdleStarted returns started interactions whose last activity is older
// than the provided cutoff. Used by the abandoned-form sweep.
func (s *Store) ListIdleStarted(ctx context.Context, before time.Time) ([]screening.Interaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+interactionColumns+` FROM interactions
		WHERE state = $1 AND last_active < $2`, screening.InteractionStarted, before)
	if err != nil {
		return nil, fmt.Errorf("list idle interactions: %w", err)
	}
	defer rows.Close()

	var items []screening.Interaction
	for rows.Next() {
		i, err := scanInteractionRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *i)
	}
	return items, rows.Err()
}

// CompleteSubmission commits the submit hand-off atomically: the application
// flips active -> review and the interaction becomes completed and frozen.
// Returns ErrAlreadySubmitted when the application is no longer active, which
// makes submission idempotent against double taps.
func (s *Store) CompleteSubmission(ctx context.Context, applicationID, interactionID string, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submission tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE applications SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		screening.ApplicationReview, now, applicationID, screening.ApplicationActive)
	if err != nil {
		return fmt.Errorf("update application on submit: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return screening.ErrAlreadySubmitted
	}

	res, err = tx.ExecContext(ctx, `UPDATE interactions
		SET state = $1, completed_at = $2, last_active = $2, version = version + 1
		WHERE id = $3 AND state <> $1`,
		screening.InteractionCompleted, now, interactionID)
	if err != nil {
		return fmt.Errorf("complete interaction on submit: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return screening.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit submission tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInteraction(row *sql.Row) (*screening.Interaction, error) {
	i, err := scanInteractionFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, screening.ErrNotFound
	}
	return i, err
}

func scanInteractionRows(rows *sql.Rows) (*screening.Interaction, error) {
	return scanInteractionFrom(rows)
}

func scanInteractionFrom(row rowScanner) (*screening.Interaction, error) {
	var i screening.Interaction
	var answers string
	var completed sql.NullTime
	err := row.Scan(&i.ID, &i.CandidateID, &i.ApplicationID, &i.VacancyID, &i.CurrentQuestionID, &i.Step,
		&answers, &i.State, &i.Consent, &i.Version, &i.StartedAt, &i.LastActive, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan interaction: %w", err)
	}
	if i.Answers, err = decodeAnswers(answers); err != nil {
		return nil, err
	}
	i.CompletedAt = timePtr(completed)
	return &i, nil
}

func encodeAnswers(answers map[string]string) (string, error) {
	if answers == nil {
		answers = map[string]string{}
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("encode answers: %w", err)
	}
	return string(data), nil
}

func decodeAnswers(raw string) (map[string]string, error) {
	answers := map[string]string{}
	if raw == "" {
		return answers, nil
	}
	if err := json.Unmarshal([]byte(raw), &answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return answers, nil
}
