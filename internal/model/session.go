package model

import (
	"time"

	"github.com/google/uuid"
)

// Answer is the per-question answer record. One Answer per question slot,
// created empty at session start, mutated as the user interacts.
type Answer struct {
	Choice        *string `json:"choice"` // selected choice letter, nil if unanswered
	Notes         string  `json:"notes,omitempty"`
	MarkedCorrect string  `json:"marked_correct,omitempty"` // instructor override
	Explanation   string  `json:"explanation,omitempty"`
	AddToDrill    bool    `json:"add_to_drill"` // queue for spaced review on completion
}

// PaperSession is the persisted record of an attempt at a paper.
//
// All per-question slices are parallel arrays indexed by question slot and
// always have length equal to the question-range size.
type PaperSession struct {
	ID               uuid.UUID  `json:"id"`
	UserID           int        `json:"user_id"`
	PaperID          uuid.UUID  `json:"paper_id"`
	PaperName        string     `json:"paper_name"`
	Variant          string     `json:"variant"`
	DisplayName      string     `json:"display_name"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	QuestionStart    int        `json:"question_start"`
	QuestionEnd      int        `json:"question_end"`
	Sections         []string   `json:"sections"` // section names selected for this attempt, in order
	StartedAt        time.Time  `json:"started_at"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
	Notes            string     `json:"notes,omitempty"`

	Answers        []Answer `json:"answers"`
	PerQuestionSec []int    `json:"per_question_sec"`
	CorrectFlags   []*bool  `json:"correct_flags"` // nil = unknown
	GuessedFlags   []bool   `json:"guessed_flags"`
	ReviewFlags    []bool   `json:"review_flags"`
	MistakeTags    []string `json:"mistake_tags"`
	Visited        []bool   `json:"visited"`

	UpdatedAt time.Time `json:"updated_at"`
}

// QuestionRange returns the number of question slots.
func (s *PaperSession) QuestionRange() int {
	return s.QuestionEnd - s.QuestionStart + 1
}

// StartSessionRequest is the payload for starting a paper session.
type StartSessionRequest struct {
	PaperID             uuid.UUID `json:"paper_id" binding:"required"`
	TimeLimitMinutes    int       `json:"time_limit_minutes" binding:"required,min=1,max=480"`
	QuestionStart       int       `json:"question_start" binding:"required,min=1"`
	QuestionEnd         int       `json:"question_end" binding:"required,gtefield=QuestionStart"`
	Sections            []string  `json:"sections" binding:"omitempty,dive,min=1"`
	SectionCountdownSec int       `json:"section_countdown_sec" binding:"omitempty,min=0,max=600"`
}

// PatchSessionRequest carries a partial update to a running session. Every
// field except ID is optional; per-slot fields require Index.
type PatchSessionRequest struct {
	ID    uuid.UUID `json:"id" binding:"required"`
	Index *int      `json:"index" binding:"omitempty,min=0"`

	// Per-slot answer fields.
	Choice        *string `json:"choice"`
	AnswerNotes   *string `json:"answer_notes"`
	MarkedCorrect *string `json:"marked_correct"`
	Explanation   *string `json:"explanation"`
	AddToDrill    *bool   `json:"add_to_drill"`

	// Per-slot telemetry.
	Correct    *string `json:"correct" binding:"omitempty,oneof=unknown correct incorrect"`
	Guessed    *bool   `json:"guessed"`
	Review     *bool   `json:"review"`
	MistakeTag *string `json:"mistake_tag"`

	// Session-level fields.
	Notes        *string    `json:"notes"`
	Deadline     *time.Time `json:"deadline"`
	Navigate     *int       `json:"navigate" binding:"omitempty,min=0"`
	SectionIndex *int       `json:"section_index" binding:"omitempty,min=0"`
	Paused       *bool      `json:"paused"`
	EndedAt      *time.Time `json:"ended_at"`
}
