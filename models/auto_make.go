package models

import (
	"time"

	"github.com/google/uuid"
)

// AutoMake represents a car manufacturer row in the database.
type AutoMake struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	LogoImage   *string   `json:"logo_image,omitempty"`
	HeroImage   *string   `json:"hero_image,omitempty"`
	FoundedYear *int      `json:"founded_year,omitempty"`
	Uppercase   *bool     `json:"uppercase,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
