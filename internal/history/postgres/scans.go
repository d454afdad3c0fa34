package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glowteam/skinscan/internal/history"
	"github.com/glowteam/skinscan/internal/metrics"
)

// ScanRepository provides PostgreSQL-backed scan history.
type ScanRepository struct {
	pool *Pool
}

// NewScanRepository creates a new PostgreSQL scan repository.
func NewScanRepository(pool *Pool) *ScanRepository {
	return &ScanRepository{pool: pool}
}

var _ history.Store = (*ScanRepository)(nil)

const scanColumns = `id, captured_at, face_found, overall, scores,
	fingerprint, ahash, dhash, skin_age, summary, observations,
	stability_rating, refined`

// Save appends a record for the subject. Saving an already stored scan
// ID again is a no-op, so retried requests cannot duplicate history.
func (r *ScanRepository) Save(ctx context.Context, subjectKey string, m *metrics.SkinMetrics) error {
	scores, err := json.Marshal(m.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}

	var observations []byte
	if len(m.Observations) > 0 {
		if observations, err = json.Marshal(m.Observations); err != nil {
			return fmt.Errorf("marshal observations: %w", err)
		}
	}

	var rating sql.NullInt64
	if m.StabilityRating != nil {
		rating = sql.NullInt64{Int64: int64(*m.StabilityRating), Valid: true}
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO scans (id, subject_key, captured_at, face_found, overall, scores,
			fingerprint, ahash, dhash, skin_age, summary, observations,
			stability_rating, refined)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`,
		m.ID,
		history.NormalizeSubjectKey(subjectKey),
		time.UnixMilli(m.Timestamp).UTC(),
		m.FaceFound,
		m.Overall,
		scores,
		m.Fingerprint,
		m.AHash,
		m.DHash,
		m.SkinAge,
		m.Summary,
		observations,
		rating,
		m.Refined,
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}

// Recent returns up to limit records for the subject, newest first.
func (r *ScanRepository) Recent(ctx context.Context, subjectKey string, limit int) ([]*metrics.SkinMetrics, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+scanColumns+`
		FROM scans
		WHERE subject_key = $1
		ORDER BY captured_at DESC
		LIMIT $2
	`, history.NormalizeSubjectKey(subjectKey), limit)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	var out []*metrics.SkinMetrics
	for rows.Next() {
		m, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scans: %w", err)
	}
	return out, nil
}

// LatestWithin returns the newest record not older than the window, or
// nil when no anchor is available.
func (r *ScanRepository) LatestWithin(ctx context.Context, subjectKey string, window time.Duration) (*metrics.SkinMetrics, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+scanColumns+`
		FROM scans
		WHERE subject_key = $1 AND captured_at >= $2
		ORDER BY captured_at DESC
		LIMIT 1
	`, history.NormalizeSubjectKey(subjectKey), time.Now().Add(-window).UTC())
	if err != nil {
		return nil, fmt.Errorf("query latest scan: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRow(rows)
}

// scanRow maps one result row onto a record.
func scanRow(rows *sql.Rows) (*metrics.SkinMetrics, error) {
	var (
		m            metrics.SkinMetrics
		capturedAt   time.Time
		scores       []byte
		observations []byte
		rating       sql.NullInt64
	)

	err := rows.Scan(
		&m.ID,
		&capturedAt,
		&m.FaceFound,
		&m.Overall,
		&scores,
		&m.Fingerprint,
		&m.AHash,
		&m.DHash,
		&m.SkinAge,
		&m.Summary,
		&observations,
		&rating,
		&m.Refined,
	)
	if err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	m.Timestamp = capturedAt.UnixMilli()
	if err := json.Unmarshal(scores, &m.Scores); err != nil {
		return nil, fmt.Errorf("unmarshal scores: %w", err)
	}
	if len(observations) > 0 {
		if err := json.Unmarshal(observations, &m.Observations); err != nil {
			return nil, fmt.Errorf("unmarshal observations: %w", err)
		}
	}
	if rating.Valid {
		v := int(rating.Int64)
		m.StabilityRating = &v
	}
	return &m, nil
}
