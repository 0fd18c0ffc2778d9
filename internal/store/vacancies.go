package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ovoronin/hireloop/internal/screening"
)

func (s *Store) CreateVacancy(ctx context.Context, v *screening.Vacancy) error {
	if v.ID == "" {
		v.ID = newID()
	}
	v.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `INSERT INTO vacancies (id, title, description, created_at) VALUES ($1, $2, $3, $4)`,
		v.ID, v.Title, v.Description, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("create vacancy: %w", err)
	}
	return nil
}

func (s *Store) VacancyByID(ctx context.Context, id string) (*screening.Vacancy, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, description, created_at FROM vacancies WHERE id = $1`, id)
	var v screening.Vacancy
	err := row.Scan(&v.ID, &v.Title, &v.Description, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, screening.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan vacancy: %w", err)
	}
	return &v, nil
}

func (s *Store) ListVacancies(ctx context.Context) ([]screening.Vacancy, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, description, created_at FROM vacancies ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list vacancies: %w", err)
	}
	defer rows.Close()

	var items []screening.Vacancy
	for rows.Next() {
		var v screening.Vacancy
		if err := rows.Scan(&v.ID, &v.Title, &v.Description, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vacancy: %w", err)
		}
		items = append(items, v)
	}
	return items, rows.Err()
}
