package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"hitstudio/internal/generation"
)

// Status is the recorded outcome of a generation.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusAbandoned Status = "abandoned"
)

// Generation is one submitted job as remembered locally.
type Generation struct {
	ID           int64     `json:"id"`
	JobID        string    `json:"job_id"`
	Prompt       string    `json:"prompt"`
	Duration     int       `json:"duration"`
	Model        string    `json:"model"`
	Temperature  float64   `json:"temperature"`
	Status       Status    `json:"status"`
	Progress     int       `json:"progress"`
	TrackID      string    `json:"track_id,omitempty"`
	ErrorMessage string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GenerationUpdate carries the mutable fields of a generation record.
type GenerationUpdate struct {
	Status       Status
	Progress     int
	TrackID      string
	ErrorMessage string
}

const generationColumns = "id, job_id, prompt, duration, model, temperature, status, progress, track_id, error_message, created_at, updated_at"

// RecordSubmission stores a job the backend accepted.
func (s *Store) RecordSubmission(ctx context.Context, jobID string, req generation.Request) (*Generation, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, errors.New("job id is required")
	}
	req = req.Normalized()
	timestamp := s.timestamp()
	_, err := s.execWithRetry(ctx,
		`INSERT INTO generations (
            job_id, prompt, duration, model, temperature, status, progress, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		jobID,
		req.Prompt,
		req.Duration,
		req.Model,
		req.Temperature,
		StatusSubmitted,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert generation: %w", err)
	}
	return s.GetGeneration(ctx, jobID)
}

// UpdateGeneration records progress or the outcome of a job. Progress is
// never lowered and a track id, once stored, is not replaced.
func (s *Store) UpdateGeneration(ctx context.Context, jobID string, update GenerationUpdate) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE generations
         SET status = ?, progress = MAX(progress, ?), track_id = COALESCE(track_id, ?),
             error_message = ?, updated_at = ?
         WHERE job_id = ?`,
		update.Status,
		update.Progress,
		nullableString(update.TrackID),
		nullableString(update.ErrorMessage),
		s.timestamp(),
		jobID,
	)
	if err != nil {
		return fmt.Errorf("update generation: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update generation: job %s not recorded", jobID)
	}
	return nil
}

// GetGeneration fetches a job by its backend id. It returns nil when the
// job was never recorded.
func (s *Store) GetGeneration(ctx context.Context, jobID string) (*Generation, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+generationColumns+` FROM generations WHERE job_id = ?`, jobID)
	gen, err := scanGeneration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get generation: %w", err)
	}
	return gen, nil
}

// FindByTrack returns the most recent job that produced trackID, or nil.
func (s *Store) FindByTrack(ctx context.Context, trackID string) (*Generation, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+generationColumns+` FROM generations WHERE track_id = ? ORDER BY id DESC LIMIT 1`, trackID)
	gen, err := scanGeneration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by track: %w", err)
	}
	return gen, nil
}

// ListGenerations returns recorded jobs newest first, optionally filtered by
// status. A non-positive limit returns everything.
func (s *Store) ListGenerations(ctx context.Context, limit int, statuses ...Status) ([]*Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, sqlLimit(limit))

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	var out []*Generation
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, gen)
	}
	return out, rows.Err()
}

func scanGeneration(scanner interface{ Scan(dest ...any) error }) (*Generation, error) {
	var (
		gen          Generation
		status       string
		trackID      sql.NullString
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&gen.ID,
		&gen.JobID,
		&gen.Prompt,
		&gen.Duration,
		&gen.Model,
		&gen.Temperature,
		&status,
		&gen.Progress,
		&trackID,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	gen.Status = Status(status)
	gen.TrackID = trackID.String
	gen.ErrorMessage = errorMessage.String
	if created, err := parseTimeString(createdRaw.String); err == nil {
		gen.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		gen.UpdatedAt = updated
	}
	return &gen, nil
}
