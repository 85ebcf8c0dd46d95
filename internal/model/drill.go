package model

import (
	"time"

	"github.com/google/uuid"
)

// DrillItem is a question flagged during marking for future spaced-repetition
// review.
type DrillItem struct {
	ID            uuid.UUID  `json:"id"`
	UserID        int        `json:"user_id"`
	SessionID     *uuid.UUID `json:"session_id,omitempty"`
	QuestionID    uuid.UUID  `json:"question_id"`
	PaperName     string     `json:"paper_name"`
	Section       string     `json:"section"`
	Choice        *string    `json:"choice"`
	CorrectChoice string     `json:"correct_choice"`
	Explanation   string     `json:"explanation,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	DueAt         time.Time  `json:"due_at"`
	IntervalDays  int        `json:"interval_days"`
	Reps          int        `json:"reps"`
	CreatedAt     time.Time  `json:"created_at"`
}

// DrillItemInput is one item of a batch insert, derived from an answer slot
// flagged during a completed session.
type DrillItemInput struct {
	UserID        int        `json:"user_id"`
	SessionID     *uuid.UUID `json:"session_id,omitempty"`
	QuestionID    uuid.UUID  `json:"question_id" binding:"required"`
	PaperName     string     `json:"paper_name" binding:"required,max=50"`
	Section       string     `json:"section" binding:"required,max=100"`
	Choice        *string    `json:"choice"`
	CorrectChoice string     `json:"correct_choice" binding:"required,max=10"`
	Explanation   string     `json:"explanation" binding:"omitempty,max=4000"`
	Notes         string     `json:"notes" binding:"omitempty,max=4000"`
}

// BatchCreateDrillItemsRequest is the payload for batch-inserting drill items.
type BatchCreateDrillItemsRequest struct {
	Items []DrillItemInput `json:"items" binding:"required,min=1,dive"`
}

// DrillGrade is the outcome of reviewing a drill item.
type DrillGrade string

const (
	DrillGradeAgain DrillGrade = "again"
	DrillGradeGood  DrillGrade = "good"
	DrillGradeEasy  DrillGrade = "easy"
)

// GradeDrillItemRequest is the payload for grading a reviewed drill item.
type GradeDrillItemRequest struct {
	Grade DrillGrade `json:"grade" binding:"required,oneof=again good easy"`
}
