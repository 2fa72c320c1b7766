package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Disfractal/cloud-reel-vault/internal/store"
	"github.com/Disfractal/cloud-reel-vault/internal/transcode"
	"github.com/Disfractal/cloud-reel-vault/internal/urlutil"
	"github.com/Disfractal/cloud-reel-vault/models"
)

// RecordStore is the slice of the document store the pipeline uses.
type RecordStore interface {
	Get(ctx context.Context, id string) (*models.AutoModel, error)
	Patch(ctx context.Context, id string, fields map[string]interface{}) error
	PatchIfJobUnset(ctx context.Context, id string, fields map[string]interface{}) (bool, error)
	ByJobID(ctx context.Context, jobID string) ([]models.AutoModel, error)
}

// Tracker mirrors job metadata for operator visibility. Tracking failures are
// logged, never allowed to fail a transition.
type Tracker interface {
	TrackSubmission(ctx context.Context, jobID, recordID, inputURI string) error
	MarkFinished(ctx context.Context, jobID, state string) error
}

// Handler moves records through the encoding lifecycle in response to
// record-change events. It is stateless; every invocation works only from the
// delivered snapshots and the record store.
type Handler struct {
	store     RecordStore
	builder   *transcode.Builder
	submitter transcode.Submitter
	tracker   Tracker
	log       *logrus.Logger
}

func NewHandler(store RecordStore, builder *transcode.Builder, submitter transcode.Submitter, tracker Tracker, log *logrus.Logger) *Handler {
	return &Handler{
		store:     store,
		builder:   builder,
		submitter: submitter,
		tracker:   tracker,
		log:       log,
	}
}

// HandleChange processes one record-change event. Errors are returned for the
// boundary to log; the record is left in a state from which a corrected
// re-write or a manual retry can make progress.
func (h *Handler) HandleChange(ctx context.Context, ev ChangeEvent) error {
	if ev.RecordID == "" {
		return fmt.Errorf("change event without record id")
	}

	switch Decide(ev.Before, ev.After) {
	case TransitionMarkInit:
		return h.markInit(ctx, ev)
	case TransitionSubmitJob:
		return h.submitJob(ctx, ev)
	default:
		return nil
	}
}

// markInit introduces the encoding state field. No job is submitted here; the
// write this performs is itself observed as the next change event, which
// keeps the submission transition idempotent and observable.
func (h *Handler) markInit(ctx context.Context, ev ChangeEvent) error {
	h.log.WithField("record_id", ev.RecordID).Info("New source video detected, marking encoding init")

	err := h.store.Patch(ctx, ev.RecordID, map[string]interface{}{
		models.FieldEncodingState: string(models.EncodingStateInit),
	})
	if errors.Is(err, store.ErrRecordNotFound) {
		h.log.WithField("record_id", ev.RecordID).Warn("Record vanished before init transition")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to mark record %s init: %w", ev.RecordID, err)
	}
	return nil
}

// submitJob performs the init -> processing transition: derive the source
// object, build and submit the job, then record the job id and new state in
// one narrow conditional patch.
func (h *Handler) submitJob(ctx context.Context, ev ChangeEvent) error {
	log := h.log.WithField("record_id", ev.RecordID)

	videoURL, _ := ev.After[models.FieldVideoURL].(string)
	object, ok := urlutil.ExtractObjectName(urlutil.StripQueryString(videoURL))
	if !ok {
		// Malformed input: fail the transition and leave the state alone so a
		// corrected re-write can retry.
		return fmt.Errorf("record %s has no usable source object in video url %q", ev.RecordID, videoURL)
	}

	// Re-read the record so a redelivered event cannot double-submit: the
	// stale snapshot predates the job id write, the fresh record does not.
	fresh, err := h.store.Get(ctx, ev.RecordID)
	if errors.Is(err, store.ErrRecordNotFound) {
		log.Warn("Record vanished before job submission")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to re-read record %s: %w", ev.RecordID, err)
	}
	if fresh.TranscoderJobID != nil {
		log.WithField("job_id", *fresh.TranscoderJobID).Debug("Job already submitted, skipping duplicate delivery")
		return nil
	}
	if fresh.EncodingState != nil && *fresh.EncodingState != models.EncodingStateInit {
		log.WithField("encoding_state", *fresh.EncodingState).Debug("Record no longer in init, skipping")
		return nil
	}

	req, err := h.builder.BuildJob(transcode.BuildInput{RecordID: ev.RecordID, SourceObject: object})
	if err != nil {
		return fmt.Errorf("failed to build job for record %s: %w", ev.RecordID, err)
	}

	jobID, err := h.submitter.SubmitJob(ctx, req)
	if err != nil {
		h.recordSubmissionFailure(ctx, ev.RecordID, fresh)
		return fmt.Errorf("job submission for record %s failed: %w", ev.RecordID, err)
	}

	updated, err := h.store.PatchIfJobUnset(ctx, ev.RecordID, map[string]interface{}{
		models.FieldEncodingState:   string(models.EncodingStateProcessing),
		models.FieldTranscoderJobID: jobID,
	})
	if err != nil {
		return fmt.Errorf("failed to record job %s on record %s: %w", jobID, ev.RecordID, err)
	}
	if !updated {
		// A concurrent transition won the conditional write. The duplicate
		// external job shares the same request id, so the service can
		// deduplicate it.
		log.WithField("job_id", jobID).Warn("Concurrent transition already recorded a job for this record")
		return nil
	}

	if err := h.tracker.TrackSubmission(ctx, jobID, ev.RecordID, req.InputURI); err != nil {
		log.WithError(err).Warn("Failed to track job submission")
	}

	log.WithFields(logrus.Fields{"job_id": jobID, "input_uri": req.InputURI}).Info("Transcoding job submitted")
	return nil
}

// recordSubmissionFailure moves the record to failed and bumps the attempt
// counter so operators can see stuck records and retry them.
func (h *Handler) recordSubmissionFailure(ctx context.Context, recordID string, fresh *models.AutoModel) {
	attempts := 1
	if fresh.EncodingAttempts != nil {
		attempts = *fresh.EncodingAttempts + 1
	}

	err := h.store.Patch(ctx, recordID, map[string]interface{}{
		models.FieldEncodingState:    string(models.EncodingStateFailed),
		models.FieldEncodingAttempts: attempts,
	})
	if err != nil {
		h.log.WithError(err).WithField("record_id", recordID).Error("Failed to record submission failure")
	}
}
