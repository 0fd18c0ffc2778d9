package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ovoronin/hireloop/internal/screening"
)

// CreateToken issues a one-time registration token for the candidate.
func (s *Store) CreateToken(ctx context.Context, candidateID string) (string, error) {
	token := newID()
	_, err := s.db.ExecContext(ctx, `INSERT INTO registration_tokens (token, candidate_id, created_at) VALUES ($1, $2, $3)`,
		token, candidateID, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("create registration token: %w", err)
	}
	return token, nil
}

// ClaimToken consumes an unused registration token and links the chat
// identity to the candidate it was issued for.
func (s *Store) ClaimToken(ctx context.Context, token string, chatID int64) (*screening.Candidate, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer tx.Rollback()

	var candidateID string
	row := tx.QueryRowContext(ctx, `SELECT candidate_id FROM registration_tokens WHERE token = $1 AND used_at IS NULL`, token)
	if err := row.Scan(&candidateID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, screening.ErrNotFound
		}
		return nil, fmt.Errorf("load registration token: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE registration_tokens SET used_at = $1 WHERE token = $2`, now, token); err != nil {
		return nil, fmt.Errorf("consume registration token: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE candidates SET chat_id = $1, updated_at = $2 WHERE id = $3`, chatID, now, candidateID); err != nil {
		return nil, fmt.Errorf("link chat identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim tx: %w", err)
	}

	return s.CandidateByID(ctx, candidateID)
}
