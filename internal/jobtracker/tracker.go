// Package jobtracker keeps operator-facing job metadata in Redis, keyed
// job:<id>. It is a convenience cache for the admin API; the record store
// stays the source of truth for lifecycle state.
package jobtracker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Tracker records job submissions and completions.
type Tracker struct {
	rdb *redis.Client
	log *logrus.Logger
}

// New connects to Redis and verifies the connection.
func New(addr string, log *logrus.Logger) (*Tracker, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}
	return &Tracker{rdb: rdb, log: log}, nil
}

func jobKey(jobID string) string {
	return fmt.Sprintf("job:%s", jobID)
}

// TrackSubmission stores the metadata of a freshly submitted job.
func (t *Tracker) TrackSubmission(ctx context.Context, jobID, recordID, inputURI string) error {
	err := t.rdb.HSet(ctx, jobKey(jobID), map[string]interface{}{
		"record_id":    recordID,
		"input_uri":    inputURI,
		"state":        "processing",
		"submitted_at": time.Now().UTC().Format(time.RFC3339),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to store job metadata for %s: %w", jobID, err)
	}
	return nil
}

// MarkFinished updates the tracked state when a completion notification
// arrives. Missing keys are created rather than rejected; the tracker must
// never be the reason a reconciliation fails.
func (t *Tracker) MarkFinished(ctx context.Context, jobID, state string) error {
	err := t.rdb.HSet(ctx, jobKey(jobID), map[string]interface{}{
		"state":       state,
		"finished_at": time.Now().UTC().Format(time.RFC3339),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to update job metadata for %s: %w", jobID, err)
	}
	return nil
}

// Get returns the tracked metadata for a job, or an empty map when the job is
// unknown.
func (t *Tracker) Get(ctx context.Context, jobID string) (map[string]string, error) {
	data, err := t.rdb.HGetAll(ctx, jobKey(jobID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read job metadata for %s: %w", jobID, err)
	}
	return data, nil
}

// Close releases the Redis connection.
func (t *Tracker) Close() error {
	return t.rdb.Close()
}
