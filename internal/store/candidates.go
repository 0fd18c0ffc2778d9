package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ovoronin/hireloop/internal/screening"
)

const candidateColumns = `id, full_name, chat_id, city, citizenship, birth_date, relocation_ready, status, created_at, updated_at`

func (s *Store) CreateCandidate(ctx context.Context, c *screening.Candidate) error {
	if c.ID == "" {
		c.ID = newID()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = "pending"
	}

	var relocation sql.NullBool
	if c.RelocationReady != nil {
		relocation = sql.NullBool{Bool: *c.RelocationReady, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO candidates
		(id, full_name, chat_id, city, citizenship, birth_date, relocation_ready, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.FullName, c.ChatID, c.City, c.Citizenship, nullTime(c.BirthDate), relocation, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create candidate: %w", err)
	}
	return nil
}

func (s *Store) CandidateByID(ctx context.Context, id string) (*screening.Candidate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id)
	return scanCandidate(row)
}

func (s *Store) CandidateByChatID(ctx context.Context, chatID int64) (*screening.Candidate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE chat_id = $1`, chatID)
	return scanCandidate(row)
}

// SaveResumeProfile attaches the scraped resume summary to a candidate and
// refreshes the profile fields the scrape produced.
func (s *Store) SaveResumeProfile(ctx context.Context, candidateID string, data *screening.ResumeData) error {
	_, err := s.db.ExecContext(ctx, `UPDATE candidates SET resume_text = $1, updated_at = $2 WHERE id = $3`,
		data.Summary(), time.Now().UTC(), candidateID)
	if err != nil {
		return fmt.Errorf("save resume profile: %w", err)
	}
	return nil
}

func scanCandidate(row *sql.Row) (*screening.Candidate, error) {
	var c screening.Candidate
	var birth sql.NullTime
	var relocation sql.NullBool
	err := row.Scan(&c.ID, &c.FullName, &c.ChatID, &c.City, &c.Citizenship, &birth, &relocation, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, screening.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan candidate: %w", err)
	}
	c.BirthDate = timePtr(birth)
	if relocation.Valid {
		value := relocation.Bool
		c.RelocationReady = &value
	}
	return &c, nil
}
