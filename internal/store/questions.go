package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ovoronin/hireloop/internal/screening"
)

func (s *Store) CreateQuestion(ctx context.Context, q *screening.Question) error {
	if q.ID == "" {
		q.ID = newID()
	}
	choices, err := encodeChoices(q.Choices)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO questions (id, vacancy_id, ord, text, format, choices, for_screening, screening_prompt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		q.ID, q.VacancyID, q.Order, q.Text, q.Format, choices, q.ForScreening, q.ScreeningPrompt)
	if err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

// QuestionsByVacancy returns the vacancy's question bank in persisted order.
func (s *Store) QuestionsByVacancy(ctx context.Context, vacancyID string) ([]screening.Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, vacancy_id, ord, text, format, choices, for_screening, screening_prompt
		FROM questions WHERE vacancy_id = $1 ORDER BY ord`, vacancyID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var items []screening.Question
	for rows.Next() {
		var q screening.Question
		var choices string
		if err := rows.Scan(&q.ID, &q.VacancyID, &q.Order, &q.Text, &q.Format, &choices, &q.ForScreening, &q.ScreeningPrompt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if q.Choices, err = decodeChoices(choices); err != nil {
			return nil, err
		}
		items = append(items, q)
	}
	return items, rows.Err()
}

func encodeChoices(choices []string) (string, error) {
	if len(choices) == 0 {
		return "", nil
	}
	data, err := json.Marshal(choices)
	if err != nil {
		return "", fmt.Errorf("encode choices: %w", err)
	}
	return string(data), nil
}

func decodeChoices(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var choices []string
	if err := json.Unmarshal([]byte(raw), &choices); err != nil {
		return nil, fmt.Errorf("decode choices: %w", err)
	}
	return choices, nil
}
