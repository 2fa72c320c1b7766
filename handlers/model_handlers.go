package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Disfractal/cloud-reel-vault/internal/store"
	"github.com/Disfractal/cloud-reel-vault/models"
	"github.com/Disfractal/cloud-reel-vault/utils"
)

// CreateModelRequest defines the expected JSON structure for creating a model.
type CreateModelRequest struct {
	Name                string `json:"name" validate:"required"`
	MakeName            string `json:"make_name" validate:"required"`
	ProductionStartYear *int   `json:"production_start_year,omitempty" validate:"omitempty,gte=1880"`
	ProductionEndYear   *int   `json:"production_end_year,omitempty" validate:"omitempty,gte=1880"`
}

// ListModels returns all models for a make.
func (h *ApplicationHandler) ListModels(c *fiber.Ctx) error {
	makeID, err := uuid.Parse(c.Params("makeId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid make ID format")
	}

	// Confirm the make exists so a bad id is a 404, not an empty list.
	if _, err := h.Makes.Get(c.Context(), makeID.String()); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Make not found")
		}
		h.Logger.Errorf("Error checking make %s: %v", makeID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to check make")
	}

	modelsList, err := h.Models.ListByMake(c.Context(), makeID.String())
	if err != nil {
		h.Logger.Errorf("Error listing models for make %s: %v", makeID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to fetch models")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, modelsList)
}

// GetModel returns a single model by id.
func (h *ApplicationHandler) GetModel(c *fiber.Ctx) error {
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
	return utils.RespondWithJSON(c, fiber.StatusOK, model)
}

// CreateModel creates a new model under a make.
func (h *ApplicationHandler) CreateModel(c *fiber.Ctx) error {
	makeID, err := uuid.Parse(c.Params("makeId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid make ID format")
	}

	payload := new(CreateModelRequest)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Validation failed",
			"errors":  utils.FormatValidationErrors(err),
		})
	}

	now := time.Now()
	model := models.AutoModel{
		ID:                  uuid.New(),
		Name:                payload.Name,
		MakeID:              makeID,
		MakeName:            payload.MakeName,
		ProductionStartYear: payload.ProductionStartYear,
		ProductionEndYear:   payload.ProductionEndYear,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	created, err := h.Models.Create(c.Context(), model)
	if err != nil {
		h.Logger.Errorf("Error creating model: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not create model")
	}
	return utils.RespondWithJSON(c, fiber.StatusCreated, created)
}

// UpdateModel applies a partial update to a model's display fields. The
// encoding lifecycle fields belong to the pipeline and are stripped here.
func (h *ApplicationHandler) UpdateModel(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid model ID format")
	}

	fields := map[string]interface{}{}
	if err := c.BodyParser(&fields); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	delete(fields, "id")
	delete(fields, models.FieldEncodingState)
	delete(fields, models.FieldTranscoderJobID)
	delete(fields, models.FieldEncodingAttempts)

	if len(fields) == 0 {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "No updatable fields in request")
	}

	if err := h.Models.Patch(c.Context(), id.String(), fields); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Model not found")
		}
		h.Logger.Errorf("Error updating model %s: %v", id, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not update model")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"id": id})
}

// DeleteModel removes a model.
func (h *ApplicationHandler) DeleteModel(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid model ID format")
	}

	if err := h.Models.Delete(c.Context(), id.String()); err != nil {
		h.Logger.Errorf("Error deleting model %s: %v", id, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not delete model")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
