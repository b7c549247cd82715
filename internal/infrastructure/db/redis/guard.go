package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const resolutionTTL = 24 * time.Hour

// ResolutionGuard records fully committed report resolutions in Redis so that
// a retried resolve call can be told apart from a lost race.
// Key format: resolved:<report_id>
type ResolutionGuard struct {
	client *redis.Client
}

// NewResolutionGuard creates a ResolutionGuard wrapping the given Redis client.
func NewResolutionGuard(client *redis.Client) *ResolutionGuard {
	return &ResolutionGuard{client: client}
}

// Completed reports whether this report's resolution fully committed,
// including its audit entry.
func (g *ResolutionGuard) Completed(ctx context.Context, reportID string) (bool, error) {
	n, err := g.client.Exists(ctx, g.key(reportID)).Result()
	if err != nil {
		return false, fmt.Errorf("resolution guard check: %w", err)
	}
	return n > 0, nil
}

// MarkCompleted records the resolution as fully committed (expires after
// resolutionTTL; the database remains the source of truth beyond that).
func (g *ResolutionGuard) MarkCompleted(ctx context.Context, reportID string) error {
	return g.client.Set(ctx, g.key(reportID), "1", resolutionTTL).Err()
}

func (g *ResolutionGuard) key(reportID string) string {
	return fmt.Sprintf("resolved:%s", reportID)
}
