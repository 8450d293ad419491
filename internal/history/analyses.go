package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"hitstudio/internal/analysis"
	"hitstudio/internal/score"
)

// Analysis is one stored hit-potential report.
type Analysis struct {
	ID              int64              `json:"id"`
	TrackID         string             `json:"track_id"`
	OverallScore    float64            `json:"overall_score"`
	Tier            score.Tier         `json:"tier"`
	Categories      map[string]float64 `json:"category_scores"`
	Insights        []string           `json:"insights"`
	Recommendations []string           `json:"recommendations"`
	CreatedAt       time.Time          `json:"created_at"`
}

// LeaderboardEntry ranks a track by its best recorded score.
type LeaderboardEntry struct {
	Rank         int        `json:"rank"`
	TrackID      string     `json:"track_id"`
	BestScore    float64    `json:"best_score"`
	Tier         score.Tier `json:"tier"`
	Analyses     int        `json:"analyses"`
	Prompt       string     `json:"prompt,omitempty"`
	LastAnalyzed time.Time  `json:"last_analyzed"`
}

const analysisColumns = "id, track_id, overall_score, categories_json, insights_json, recommendations_json, created_at"

// RecordAnalysis stores a report.
func (s *Store) RecordAnalysis(ctx context.Context, report analysis.Report) (*Analysis, error) {
	trackID := strings.TrimSpace(report.TrackID)
	if trackID == "" {
		return nil, fmt.Errorf("record analysis: track id is required")
	}
	categories, err := marshalJSON(report.CategoryScores)
	if err != nil {
		return nil, fmt.Errorf("marshal categories: %w", err)
	}
	insights, err := marshalJSON(report.Insights)
	if err != nil {
		return nil, fmt.Errorf("marshal insights: %w", err)
	}
	recommendations, err := marshalJSON(report.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("marshal recommendations: %w", err)
	}

	timestamp := s.timestamp()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO analyses (
            track_id, overall_score, tier, categories_json, insights_json, recommendations_json, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		trackID,
		report.OverallScore,
		score.TierFor(report.OverallScore).Key,
		categories,
		insights,
		recommendations,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert analysis: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	created, _ := parseTimeString(timestamp)
	return &Analysis{
		ID:              id,
		TrackID:         trackID,
		OverallScore:    report.OverallScore,
		Tier:            score.TierFor(report.OverallScore),
		Categories:      report.CategoryScores,
		Insights:        report.Insights,
		Recommendations: report.Recommendations,
		CreatedAt:       created,
	}, nil
}

// ListAnalyses returns stored reports newest first. An empty trackID lists
// every track. A non-positive limit returns everything.
func (s *Store) ListAnalyses(ctx context.Context, trackID string, limit int) ([]*Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses`
	var args []any
	if trackID = strings.TrimSpace(trackID); trackID != "" {
		query += ` WHERE track_id = ?`
		args = append(args, trackID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, sqlLimit(limit))

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []*Analysis
	for rows.Next() {
		entry, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Leaderboard ranks analysed tracks by their best score, highest first.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT a.track_id, MAX(a.overall_score) AS best, COUNT(1), MAX(a.created_at),
                COALESCE((SELECT g.prompt FROM generations g WHERE g.track_id = a.track_id ORDER BY g.id DESC LIMIT 1), '')
         FROM analyses a
         GROUP BY a.track_id
         ORDER BY best DESC, a.track_id
         LIMIT ?`,
		sqlLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardEntry
	for rows.Next() {
		var (
			entry   LeaderboardEntry
			lastRaw sql.NullString
		)
		if err := rows.Scan(&entry.TrackID, &entry.BestScore, &entry.Analyses, &lastRaw, &entry.Prompt); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		entry.Rank = len(out) + 1
		entry.Tier = score.TierFor(entry.BestScore)
		if last, err := parseTimeString(lastRaw.String); err == nil {
			entry.LastAnalyzed = last
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func scanAnalysis(scanner interface{ Scan(dest ...any) error }) (*Analysis, error) {
	var (
		entry           Analysis
		categories      sql.NullString
		insights        sql.NullString
		recommendations sql.NullString
		createdRaw      sql.NullString
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.TrackID,
		&entry.OverallScore,
		&categories,
		&insights,
		&recommendations,
		&createdRaw,
	); err != nil {
		return nil, fmt.Errorf("scan analysis: %w", err)
	}
	if err := unmarshalJSON(categories, &entry.Categories); err != nil {
		return nil, fmt.Errorf("decode categories for analysis %d: %w", entry.ID, err)
	}
	if err := unmarshalJSON(insights, &entry.Insights); err != nil {
		return nil, fmt.Errorf("decode insights for analysis %d: %w", entry.ID, err)
	}
	if err := unmarshalJSON(recommendations, &entry.Recommendations); err != nil {
		return nil, fmt.Errorf("decode recommendations for analysis %d: %w", entry.ID, err)
	}
	entry.Tier = score.TierFor(entry.OverallScore)
	if created, err := parseTimeString(createdRaw.String); err == nil {
		entry.CreatedAt = created
	}
	return &entry, nil
}
