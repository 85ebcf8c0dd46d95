package model

import "time"

// PracticeSummary aggregates a user's practice history across all papers.
type PracticeSummary struct {
	TotalSessions     int `json:"total_sessions"`
	CompletedSessions int `json:"completed_sessions"`
	TotalQuestions    int `json:"total_questions"`
	TotalTimeSec      int `json:"total_time_sec"`
}

// PaperAccuracy is the marked accuracy for one paper family. Counts cover
// only slots that were explicitly marked; unmarked slots are excluded rather
// than guessed at.
type PaperAccuracy struct {
	PaperName    string  `json:"paper_name"`
	Marked       int     `json:"marked"`
	Correct      int     `json:"correct"`
	AccuracyPct  float64 `json:"accuracy_pct"`
	GuessedCount int     `json:"guessed_count"`
}

// MistakeTagCount is the frequency of one mistake tag across a user's marked
// sessions.
type MistakeTagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// SessionListItem is a compact view of a past session for history listings.
type SessionListItem struct {
	ID               string     `json:"id"`
	PaperName        string     `json:"paper_name"`
	Variant          string     `json:"variant"`
	DisplayName      string     `json:"display_name"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	QuestionStart    int        `json:"question_start"`
	QuestionEnd      int        `json:"question_end"`
	StartedAt        time.Time  `json:"started_at"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
