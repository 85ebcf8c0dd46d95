package handler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paperdrill/paperdrill-backend/internal/model"
	"github.com/paperdrill/paperdrill-backend/internal/session"
)

func snapWithQuestions(ended bool) *session.Snapshot {
	snap := &session.Snapshot{
		Questions: []model.Question{
			{
				ID:            uuid.New(),
				Number:        1,
				PartLabel:     "1A",
				Text:          "First",
				Options:       json.RawMessage(`["A","B","C","D"]`),
				CorrectChoice: "B",
			},
			{
				ID:            uuid.New(),
				Number:        2,
				PartLabel:     "1A",
				Text:          "Second",
				Options:       json.RawMessage(`["A","B","C","D"]`),
				CorrectChoice: "D",
			},
		},
	}
	if ended {
		t := time.Now()
		snap.EndedAt = &t
	}
	return snap
}

func TestRedactAnswerKeyRunningSession(t *testing.T) {
	snap := snapWithQuestions(false)

	got := redactAnswerKey(snap)

	for i, q := range got.Questions {
		if q.CorrectChoice != "" {
			t.Errorf("question %d: correct choice exposed while running: %q", i, q.CorrectChoice)
		}
	}
	if got.Questions[0].Text != "First" || got.Questions[1].Number != 2 {
		t.Error("redaction altered question content")
	}
}

func TestRedactAnswerKeyPreservesEndedSession(t *testing.T) {
	snap := snapWithQuestions(true)

	got := redactAnswerKey(snap)

	if got.Questions[0].CorrectChoice != "B" || got.Questions[1].CorrectChoice != "D" {
		t.Error("correct choices missing after session ended")
	}
}

func TestRedactAnswerKeyDoesNotMutateSnapshot(t *testing.T) {
	snap := snapWithQuestions(false)

	_ = redactAnswerKey(snap)

	if snap.Questions[0].CorrectChoice != "B" || snap.Questions[1].CorrectChoice != "D" {
		t.Error("stored snapshot lost its correct choices")
	}
}
