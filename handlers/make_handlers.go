package handlers

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Disfractal/cloud-reel-vault/internal/store"
	"github.com/Disfractal/cloud-reel-vault/models"
	"github.com/Disfractal/cloud-reel-vault/utils"
)

var validate = validator.New()

// CreateMakeRequest defines the expected JSON structure for creating a make.
type CreateMakeRequest struct {
	Name        string  `json:"name" validate:"required"`
	LogoImage   *string `json:"logo_image,omitempty"`
	HeroImage   *string `json:"hero_image,omitempty"`
	FoundedYear *int    `json:"founded_year,omitempty" validate:"omitempty,gte=1880"`
}

// ListMakes returns all makes.
func (h *ApplicationHandler) ListMakes(c *fiber.Ctx) error {
	makes, err := h.Makes.List(c.Context())
	if err != nil {
		h.Logger.Errorf("Error listing makes: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to fetch makes")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, makes)
}

// GetMake returns a single make by id.
func (h *ApplicationHandler) GetMake(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid make ID format")
	}

	mk, err := h.Makes.Get(c.Context(), id.String())
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Make not found")
		}
		h.Logger.Errorf("Error fetching make %s: %v", id, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to fetch make")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, mk)
}

// CreateMake creates a new make.
func (h *ApplicationHandler) CreateMake(c *fiber.Ctx) error {
	payload := new(CreateMakeRequest)
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
	mk := models.AutoMake{
		ID:          uuid.New(),
		Name:        payload.Name,
		LogoImage:   payload.LogoImage,
		HeroImage:   payload.HeroImage,
		FoundedYear: payload.FoundedYear,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := h.Makes.Create(c.Context(), mk)
	if err != nil {
		h.Logger.Errorf("Error creating make: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not create make")
	}
	return utils.RespondWithJSON(c, fiber.StatusCreated, created)
}

// UpdateMake applies a partial update to a make.
func (h *ApplicationHandler) UpdateMake(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid make ID format")
	}

	fields := map[string]interface{}{}
	if err := c.BodyParser(&fields); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	delete(fields, "id")

	if err := h.Makes.Patch(c.Context(), id.String(), fields); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return utils.RespondWithError(c, fiber.StatusNotFound, "Make not found")
		}
		h.Logger.Errorf("Error updating make %s: %v", id, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not update make")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"id": id})
}

// DeleteMake removes a make.
func (h *ApplicationHandler) DeleteMake(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid make ID format")
	}

	if err := h.Makes.Delete(c.Context(), id.String()); err != nil {
		h.Logger.Errorf("Error deleting make %s: %v", id, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not delete make")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
