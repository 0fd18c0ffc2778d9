package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ovoronin/hireloop/internal/screening"
)

const applicationColumns = `id, candidate_id, vacancy_id, status, applied_at, updated_at`

func (s *Store) CreateApplication(ctx context.Context, a *screening.Application) error {
	if a.ID == "" {
		a.ID = newID()
	}
	now := time.Now().UTC()
	a.AppliedAt = now
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = screening.ApplicationActive
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO applications (id, candidate_id, vacancy_id, status, applied_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.CandidateID, a.VacancyID, a.Status, a.AppliedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (s *Store) ApplicationByID(ctx context.Context, id string) (*screening.Application, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
	return scanApplication(row)
}

// ActiveApplicationByCandidate returns the candidate's most recent active
// application.
func (s *Store) ActiveApplicationByCandidate(ctx context.Context, candidateID string) (*screening.Application, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications
		WHERE candidate_id = $1 AND status = $2 ORDER BY applied_at DESC LIMIT 1`,
		candidateID, screening.ApplicationActive)
	return scanApplication(row)
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, id string, status screening.ApplicationStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE applications SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return screening.ErrNotFound
	}
	return nil
}

func scanApplication(row *sql.Row) (*screening.Application, error) {
	var a screening.Application
	err := row.Scan(&a.ID, &a.CandidateID, &a.VacancyID, &a.Status, &a.AppliedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, screening.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan application: %w", err)
	}
	return &a, nil
}
