package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"assessment-engine/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AssessmentLoader loads assessment JSONB from Postgres.
type AssessmentLoader struct {
	pool *pgxpool.Pool
}

func NewAssessmentLoader(pool *pgxpool.Pool) *AssessmentLoader {
	return &AssessmentLoader{pool: pool}
}

func (l *AssessmentLoader) LoadAssessment(ctx context.Context, id string) (domain.Assessment, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM assessments WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Assessment{}, domain.ErrAssessmentNotFound
	}
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("load assessment: %w", err)
	}
	var a domain.Assessment
	if err := json.Unmarshal(raw, &a); err != nil {
		return domain.Assessment{}, fmt.Errorf("unmarshal assessment: %w", err)
	}
	return a, nil
}
