// Package history persists finished scan records per subject, so later
// scans can anchor their stabilization on recent results and clients
// can chart score trends.
package history

import (
	"context"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/glowteam/skinscan/internal/metrics"
)

// Store persists scan records per subject.
type Store interface {
	// Save appends a record for the subject. The record's ID must be
	// unique; saving the same ID twice is a no-op.
	Save(ctx context.Context, subjectKey string, m *metrics.SkinMetrics) error

	// Recent returns up to limit records for the subject, newest first.
	Recent(ctx context.Context, subjectKey string, limit int) ([]*metrics.SkinMetrics, error)

	// LatestWithin returns the newest record not older than the window,
	// or nil when the subject has no usable anchor.
	LatestWithin(ctx context.Context, subjectKey string, window time.Duration) (*metrics.SkinMetrics, error)
}

// RemoveDiacritics removes diacritical marks from a string
// (e.g. "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeSubjectKey canonicalizes a client-supplied subject
// identifier. "Jana-Nováková" and "jana novakova" must hit the same
// history.
func NormalizeSubjectKey(key string) string {
	key = RemoveDiacritics(key)
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, "-", " ")
	return strings.Join(strings.Fields(key), " ")
}
