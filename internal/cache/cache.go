// Package cache provides the durable enrichment cache keyed by product identity.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/glamapp/product-recs/internal/model"
)

// DefaultMaxAgeDays is the staleness window applied when a caller passes 0.
const DefaultMaxAgeDays = 365

// Store defines the persistence interface for cached enrichments.
// Get returns (nil, nil) when no row exists or the row is older than the
// staleness window; stale rows are not deleted at read time. Set is an
// upsert, last write wins. Storage failures are returned, never swallowed:
// a silently broken cache would re-trigger every upstream fetch on every
// request.
type Store interface {
	Get(ctx context.Context, key string, maxAgeDays int) (*model.EnrichedProduct, error)
	Set(ctx context.Context, key string, value *model.EnrichedProduct, retrievedAt time.Time) error
	Delete(ctx context.Context, key string) error
	Prune(ctx context.Context, maxAgeDays int) (int, error)
	Migrate(ctx context.Context) error
	Close() error
}

// GenerateKey derives a deterministic fallback identity for a candidate
// that carries no explicit id: SHA-256 over the lowercased, trimmed
// brand/name/product_type joined with a fixed separator. Hash collisions
// between distinct logical products are an accepted risk.
func GenerateKey(c model.ProductCandidate) string {
	canonical := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(c.Brand)),
		strings.ToLower(strings.TrimSpace(c.Name)),
		strings.ToLower(strings.TrimSpace(c.ProductType)),
	}, "||")
	h := sha256.Sum256([]byte(canonical))
	return fmt.Sprintf("%x", h)
}

// Key resolves the candidate's cache identity: the explicit id when
// present, else the derived key.
func Key(c model.ProductCandidate) string {
	if c.ID != "" {
		return c.ID
	}
	return GenerateKey(c)
}

func normalizeMaxAge(maxAgeDays int) int {
	if maxAgeDays <= 0 {
		return DefaultMaxAgeDays
	}
	return maxAgeDays
}
