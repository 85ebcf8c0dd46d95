package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Question represents one exam item belonging to a paper. Immutable once
// fetched; Section is derived from PartLabel at load time and is not stored.
type Question struct {
	ID            uuid.UUID       `json:"id"`
	PaperID       uuid.UUID       `json:"paper_id"`
	Number        int             `json:"number"` // display number within the paper
	PartLabel     string          `json:"part_label"`
	Text          string          `json:"text"`
	Options       json.RawMessage `json:"options"`
	CorrectChoice string          `json:"correct_choice,omitempty"`
	Section       string          `json:"section,omitempty"`
}

// AddQuestionRequest is the payload for adding a question to a paper.
type AddQuestionRequest struct {
	Number        int             `json:"number" binding:"required,min=1"`
	PartLabel     string          `json:"part_label" binding:"required,max=100"`
	Text          string          `json:"text" binding:"required,min=1,max=4000"`
	Options       json.RawMessage `json:"options" binding:"required"`
	CorrectChoice string          `json:"correct_choice" binding:"required,max=10"`
}
