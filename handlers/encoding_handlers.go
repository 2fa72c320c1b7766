package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Disfractal/cloud-reel-vault/internal/store"
	"github.com/Disfractal/cloud-reel-vault/models"
	"github.com/Disfractal/cloud-reel-vault/utils"
)

// RetryEncoding resets a stuck or failed record back to init. The reset write
// flows through the change webhook and re-enters the state machine, which
// performs the actual resubmission.
func (h *ApplicationHandler) RetryEncoding(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid model ID format")
	}

	model, err := h.Models.Get(c.Context(), id.String())
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Model not found")
		}
		h.Logger.Errorf("Error fetching model %s: %v", id, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to fetch model")
	}

	if model.VideoURL == nil || *model.VideoURL == "" {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Model has no source video")
	}
	if model.EncodingState == nil {
		return utils.RespondWithError(c, fiber.StatusConflict, "Model has not entered the encoding lifecycle")
	}
	switch *model.EncodingState {
	case models.EncodingStateFailed, models.EncodingStateInit:
		// Retryable.
	default:
		return utils.RespondWithError(c, fiber.StatusConflict, "Encoding is not in a retryable state")
	}

	// Clearing the job id releases the record for resubmission; the failed
	// job is finished, so no second outstanding job can result.
	if err := h.Models.Patch(c.Context(), id.String(), map[string]interface{}{
		models.FieldEncodingState:   string(models.EncodingStateInit),
		models.FieldTranscoderJobID: nil,
	}); err != nil {
		h.Logger.Errorf("Error resetting encoding state for model %s: %v", id, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not reset encoding state")
	}

	h.Logger.WithField("record_id", id).Info("Encoding retry requested")
	return utils.RespondWithJSON(c, fiber.StatusAccepted, fiber.Map{
		"id":             id,
		"encoding_state": models.EncodingStateInit,
	})
}

// GetJob returns the tracked metadata for a transcoding job.
func (h *ApplicationHandler) GetJob(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if jobID == "" {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Job ID is required")
	}

	meta, err := h.Jobs.Get(c.Context(), jobID)
	if err != nil {
		h.Logger.Errorf("Error fetching job %s: %v", jobID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to fetch job")
	}
	if len(meta) == 0 {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Job not found")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, meta)
}
