package model

import (
	"time"

	"github.com/google/uuid"
)

// Paper represents a past-paper product: a named exam variant with a fixed
// question set and a time limit.
type Paper struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`    // paper family, e.g. "ENGAA"
	Variant          string    `json:"variant"` // e.g. "2019" or "Specimen"
	DisplayName      string    `json:"display_name"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	QuestionCount    int       `json:"question_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreatePaperRequest is the payload for creating a paper.
type CreatePaperRequest struct {
	Name             string `json:"name" binding:"required,min=2,max=50"`
	Variant          string `json:"variant" binding:"required,min=1,max=50"`
	DisplayName      string `json:"display_name" binding:"required,min=2,max=255"`
	TimeLimitMinutes int    `json:"time_limit_minutes" binding:"required,min=1,max=480"`
}

// UpdatePaperRequest is the payload for updating an existing paper.
type UpdatePaperRequest struct {
	Name             string `json:"name" binding:"omitempty,min=2,max=50"`
	Variant          string `json:"variant" binding:"omitempty,min=1,max=50"`
	DisplayName      string `json:"display_name" binding:"omitempty,min=2,max=255"`
	TimeLimitMinutes int    `json:"time_limit_minutes" binding:"omitempty,min=1,max=480"`
}
