package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ovoronin/hireloop/internal/screening"
)

func (s *Store) CreateResult(ctx context.Context, r *screening.AnalysisResult) error {
	if r.ID == "" {
		r.ID = newID()
	}
	if r.ProcessedAt.IsZero() {
		r.ProcessedAt = time.Now().UTC()
	}
	if r.Decision == "" {
		r.Decision = screening.DecisionPending
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO analysis_results (id, candidate_id, application_id, source, score, decision, summary, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, r.CandidateID, r.ApplicationID, r.Source, r.Score, r.Decision, r.Summary, r.ProcessedAt)
	if err != nil {
		return fmt.Errorf("create analysis result: %w", err)
	}
	return nil
}

func (s *Store) ResultsByApplication(ctx context.Context, applicationID string) ([]screening.AnalysisResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, candidate_id, application_id, source, score, decision, summary, processed_at
		FROM analysis_results WHERE application_id = $1 ORDER BY processed_at`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list analysis results: %w", err)
	}
	defer rows.Close()

	var items []screening.AnalysisResult
	for rows.Next() {
		var r screening.AnalysisResult
		if err := rows.Scan(&r.ID, &r.CandidateID, &r.ApplicationID, &r.Source, &r.Score, &r.Decision, &r.Summary, &r.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan analysis result: %w", err)
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func (s *Store) CreateNotification(ctx context.Context, n *screening.HRNotification) error {
	if n.ID == "" {
		n.ID = newID()
	}
	if n.Channel == "" {
		n.Channel = "telegram"
	}
	if n.Status == "" {
		n.Status = "sent"
	}
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO hr_notifications (id, candidate_id, channel, payload, status, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.CandidateID, n.Channel, n.Payload, n.Status, n.SentAt)
	if err != nil {
		return fmt.Errorf("create hr notification: %w", err)
	}
	return nil
}
