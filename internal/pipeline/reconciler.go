package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Disfractal/cloud-reel-vault/models"
)

// CompletionNotification is the payload the transcoding service publishes
// when a job finishes. Delivered at least once, in no particular order.
type CompletionNotification struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Failed reports whether the notification describes a failed job.
func (n CompletionNotification) Failed() bool {
	switch strings.ToUpper(n.Status) {
	case "FAILED", "ERROR":
		return true
	}
	return false
}

// Reconciler finalizes record lifecycle state from completion notifications.
type Reconciler struct {
	store   RecordStore
	tracker Tracker
	log     *logrus.Logger
}

func NewReconciler(store RecordStore, tracker Tracker, log *logrus.Logger) *Reconciler {
	return &Reconciler{store: store, tracker: tracker, log: log}
}

// HandleCompletion looks up every record referencing the notification's job
// id and moves it to its final state. Zero matches is a warning, not an
// error: the record may have been deleted, or this is a duplicate delivery
// for an already-finalized job, and erroring would only cause redelivery
// storms. Reapplying the same notification is a no-op.
func (r *Reconciler) HandleCompletion(ctx context.Context, n CompletionNotification) error {
	if n.JobID == "" {
		r.log.Warn("Completion notification without job id, ignoring")
		return nil
	}

	log := r.log.WithField("job_id", n.JobID)

	records, err := r.store.ByJobID(ctx, n.JobID)
	if err != nil {
		return fmt.Errorf("failed to look up records for job %s: %w", n.JobID, err)
	}
	if len(records) == 0 {
		log.Warn("No records reference completed job; duplicate notification or deleted record")
		return nil
	}

	final := models.EncodingStateComplete
	if n.Failed() {
		final = models.EncodingStateFailed
	}

	var errs []error
	for _, rec := range records {
		recLog := log.WithField("record_id", rec.ID)

		// A terminal state is never overwritten: duplicate or contradictory
		// late notifications lose to whichever outcome landed first.
		if rec.EncodingState != nil && rec.EncodingState.Terminal() {
			recLog.Debug("Record already finalized")
			continue
		}

		err := r.store.Patch(ctx, rec.ID.String(), map[string]interface{}{
			models.FieldEncodingState: string(final),
		})
		if err != nil {
			recLog.WithError(err).Error("Failed to finalize record")
			errs = append(errs, err)
			continue
		}
		recLog.WithField("encoding_state", final).Info("Record encoding finalized")
	}

	if err := r.tracker.MarkFinished(ctx, n.JobID, string(final)); err != nil {
		log.WithError(err).Warn("Failed to update job tracker")
	}

	return errors.Join(errs...)
}
