package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zombar/veracity/internal/models"
	"github.com/zombar/veracity/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// ErrNotFound is returned when no analysis matches the requested ID.
var ErrNotFound = errors.New("analysis not found")

// SaveAnalysis persists an analysis record, replacing any existing row with
// the same ID.
func (db *DB) SaveAnalysis(ctx context.Context, analysis *models.Analysis) error {
	ctx, span := tracing.StartSpan(ctx, "database.save_analysis",
		attribute.String("analysis.id", analysis.ID))
	defer span.End()

	resultJSON, err := json.Marshal(analysis.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO analyses (id, text, result, classification, truthfulness_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, analysis.ID, analysis.Text, string(resultJSON), string(analysis.Result.Classification),
		analysis.Result.TruthfulnessScore, analysis.CreatedAt, analysis.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	return nil
}

// GetAnalysis retrieves an analysis by ID
func (db *DB) GetAnalysis(ctx context.Context, id string) (*models.Analysis, error) {
	ctx, span := tracing.StartSpan(ctx, "database.get_analysis",
		attribute.String("analysis.id", id))
	defer span.End()

	var (
		text       string
		resultJSON string
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := db.conn.QueryRowContext(ctx, `
		SELECT text, result, created_at, updated_at
		FROM analyses
		WHERE id = ?
	`, id).Scan(&text, &resultJSON, &createdAt, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	var result models.Result
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &models.Analysis{
		ID:        id,
		Text:      text,
		Result:    result,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// ListAnalyses retrieves analyses with pagination, newest first
func (db *DB) ListAnalyses(ctx context.Context, limit, offset int) ([]*models.Analysis, error) {
	ctx, span := tracing.StartSpan(ctx, "database.list_analyses",
		attribute.Int("limit", limit), attribute.Int("offset", offset))
	defer span.End()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, text, result, created_at, updated_at
		FROM analyses
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	return scanAnalyses(rows)
}

// GetAnalysesByClassification retrieves analyses with the given stored
// classification, newest first.
func (db *DB) GetAnalysesByClassification(ctx context.Context, classification models.Classification) ([]*models.Analysis, error) {
	ctx, span := tracing.StartSpan(ctx, "database.get_analyses_by_classification",
		attribute.String("classification", string(classification)))
	defer span.End()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, text, result, created_at, updated_at
		FROM analyses
		WHERE classification = ?
		ORDER BY created_at DESC
	`, string(classification))
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses by classification: %w", err)
	}
	defer rows.Close()

	return scanAnalyses(rows)
}

// DeleteAnalysis deletes an analysis by ID
func (db *DB) DeleteAnalysis(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "database.delete_analysis",
		attribute.String("analysis.id", id))
	defer span.End()

	result, err := db.conn.ExecContext(ctx, "DELETE FROM analyses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteAnalysesOlderThan removes analyses created before the cutoff and
// returns the number of rows deleted. Used by the retention sweep.
func (db *DB) DeleteAnalysesOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "database.delete_analyses_older_than",
		attribute.String("cutoff", cutoff.Format(time.RFC3339)))
	defer span.End()

	result, err := db.conn.ExecContext(ctx, "DELETE FROM analyses WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired analyses: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

func scanAnalyses(rows *sql.Rows) ([]*models.Analysis, error) {
	var analyses []*models.Analysis
	for rows.Next() {
		var (
			id         string
			text       string
			resultJSON string
			createdAt  time.Time
			updatedAt  time.Time
		)

		if err := rows.Scan(&id, &text, &resultJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var result models.Result
		if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}

		analyses = append(analyses, &models.Analysis{
			ID:        id,
			Text:      text,
			Result:    result,
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return analyses, nil
}
