package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paperdrill/paperdrill-backend/internal/model"
	"github.com/rs/zerolog"
)

// ─── Fakes ─────────────────────────────────────────────────────────────────

type fakeQuestions struct {
	qs  []model.Question
	err error
}

func (f *fakeQuestions) ListByPaper(_ context.Context, _ uuid.UUID) ([]model.Question, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Question, len(f.qs))
	copy(out, f.qs)
	return out, nil
}

type fakeCache struct {
	saves   int
	deletes int
	failAll error
}

func (f *fakeCache) Save(_ context.Context, _ *Snapshot) error {
	f.saves++
	return f.failAll
}

func (f *fakeCache) Load(_ context.Context, _ uuid.UUID) (*Snapshot, error) {
	return nil, errors.New("not found")
}

func (f *fakeCache) Delete(_ context.Context, _ uuid.UUID) error {
	f.deletes++
	return f.failAll
}

type fakePersister struct {
	creates   int
	schedules int
	flushes   int
}

func (f *fakePersister) Create(_ *Snapshot)   { f.creates++ }
func (f *fakePersister) Schedule(_ *Snapshot) { f.schedules++ }
func (f *fakePersister) FlushNow(_ *Snapshot) { f.flushes++ }

type fakeDrills struct {
	batches [][]model.DrillItemInput
	err     error
}

func (f *fakeDrills) SubmitBatch(_ context.Context, items []model.DrillItemInput) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, items)
	return nil
}

// ─── Helpers ───────────────────────────────────────────────────────────────

type env struct {
	store     *Store
	questions *fakeQuestions
	cache     *fakeCache
	persister *fakePersister
	drills    *fakeDrills
	clock     *time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		questions: &fakeQuestions{},
		cache:     &fakeCache{},
		persister: &fakePersister{},
		drills:    &fakeDrills{},
	}
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	e.clock = &now
	e.store = NewStore(e.questions, e.cache, e.persister, e.drills, zerolog.Nop())
	e.store.now = func() time.Time { return *e.clock }
	return e
}

func (e *env) advance(d time.Duration) {
	*e.clock = e.clock.Add(d)
}

// engaaQuestions builds n section-1A ENGAA questions numbered from 1.
func engaaQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:            uuid.New(),
			Number:        i + 1,
			PartLabel:     "Section 1A",
			CorrectChoice: "A",
		}
	}
	return qs
}

func startSession(t *testing.T, e *env, cfg StartConfig) *Snapshot {
	t.Helper()
	if cfg.TimeLimitMinutes == 0 {
		cfg.TimeLimitMinutes = 60
	}
	if cfg.QuestionEnd == 0 {
		cfg.QuestionStart, cfg.QuestionEnd = 1, 20
	}
	if cfg.PaperName == "" {
		cfg.PaperName = "ENGAA"
	}
	cfg.UserID = 7
	cfg.PaperID = uuid.New()
	snap, err := e.store.Start(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return snap
}

func checkArrayLengths(t *testing.T, snap *Snapshot, want int) {
	t.Helper()
	lengths := map[string]int{
		"answers":          len(snap.Answers),
		"per_question_sec": len(snap.PerQuestionSec),
		"correct_flags":    len(snap.CorrectFlags),
		"guessed_flags":    len(snap.GuessedFlags),
		"review_flags":     len(snap.ReviewFlags),
		"mistake_tags":     len(snap.MistakeTags),
		"visited":          len(snap.Visited),
	}
	for name, got := range lengths {
		if got != want {
			t.Errorf("%s length = %d, want %d", name, got, want)
		}
	}
}

// ─── Tests ─────────────────────────────────────────────────────────────────

func TestStartInitializesArraysAndDeadline(t *testing.T) {
	e := newEnv(t)
	snap := startSession(t, e, StartConfig{TimeLimitMinutes: 60, QuestionStart: 1, QuestionEnd: 20})

	checkArrayLengths(t, snap, 20)

	rem, err := e.store.RemainingTime(snap.ID)
	if err != nil {
		t.Fatalf("RemainingTime: %v", err)
	}
	if rem < 3599 || rem > 3600 {
		t.Errorf("remaining = %ds, want ~3600", rem)
	}

	if e.persister.creates != 1 {
		t.Errorf("persister creates = %d, want 1", e.persister.creates)
	}
}

func TestStartRejectsInvalidRange(t *testing.T) {
	e := newEnv(t)
	_, err := e.store.Start(context.Background(), StartConfig{
		TimeLimitMinutes: 60,
		QuestionStart:    10,
		QuestionEnd:      5,
	})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("err = %v, want ErrInvalidRange", err)
	}
}

func TestStartSurvivesCacheFailure(t *testing.T) {
	e := newEnv(t)
	e.cache.failAll = errors.New("redis down")

	snap := startSession(t, e, StartConfig{})
	if _, err := e.store.Get(snap.ID); err != nil {
		t.Fatalf("session not live after cache failure: %v", err)
	}
}

func TestLoadQuestionsResizesOnMismatch(t *testing.T) {
	e := newEnv(t)
	e.questions.qs = engaaQuestions(12) // configured for 20, only 12 exist

	snap := startSession(t, e, StartConfig{QuestionStart: 1, QuestionEnd: 20})
	snap, err := e.store.LoadQuestions(context.Background(), snap.ID)
	if err != nil {
		t.Fatalf("LoadQuestions: %v", err)
	}

	if got := snap.QuestionRange(); got != 12 {
		t.Errorf("range = %d, want 12", got)
	}
	checkArrayLengths(t, snap, 12)
}

func TestLoadQuestionsFiltersAndOrdersBySelection(t *testing.T) {
	e := newEnv(t)
	// 1-4 in section 1A, 5-8 in section 2; select section 2 first.
	var qs []model.Question
	for i := 1; i <= 8; i++ {
		label := "Section 1A"
		if i > 4 {
			label = "Section 2"
		}
		qs = append(qs, model.Question{ID: uuid.New(), Number: i, PartLabel: label})
	}
	e.questions.qs = qs

	snap := startSession(t, e, StartConfig{
		QuestionStart: 1,
		QuestionEnd:   8,
		Sections:      []string{"Advanced Physics", "Mathematics and Physics"},
	})
	snap, err := e.store.LoadQuestions(context.Background(), snap.ID)
	if err != nil {
		t.Fatalf("LoadQuestions: %v", err)
	}

	if len(snap.Questions) != 8 {
		t.Fatalf("questions = %d, want 8", len(snap.Questions))
	}
	// Section 2 questions (5-8) must come first per selection order.
	if snap.Questions[0].Number != 5 || snap.Questions[3].Number != 8 {
		t.Errorf("selection order not applied: first four = %d..%d", snap.Questions[0].Number, snap.Questions[3].Number)
	}

	if len(snap.SectionBuckets) != 2 {
		t.Fatalf("buckets = %d, want 2", len(snap.SectionBuckets))
	}
	seen := make(map[int]int)
	for _, b := range snap.SectionBuckets {
		for _, slot := range b.Slots {
			seen[slot]++
		}
	}
	if len(seen) != 8 {
		t.Errorf("buckets cover %d slots, want 8", len(seen))
	}
	for slot, n := range seen {
		if n != 1 {
			t.Errorf("slot %d appears %d times in buckets", slot, n)
		}
	}
}

func TestSetChoiceOverwritesSingleSlot(t *testing.T) {
	e := newEnv(t)
	snap := startSession(t, e, StartConfig{})

	b, c := "B", "C"
	if _, err := e.store.SetChoice(snap.ID, 3, &b); err != nil {
		t.Fatalf("SetChoice: %v", err)
	}
	after, err := e.store.SetChoice(snap.ID, 3, &c)
	if err != nil {
		t.Fatalf("SetChoice: %v", err)
	}

	for i, ans := range after.Answers {
		if i == 3 {
			if ans.Choice == nil || *ans.Choice != "C" {
				t.Errorf("slot 3 choice = %v, want C", ans.Choice)
			}
			continue
		}
		if ans.Choice != nil {
			t.Errorf("slot %d choice = %q, want unanswered", i, *ans.Choice)
		}
	}
}

func TestMutatorsAreCopyOnWrite(t *testing.T) {
	e := newEnv(t)
	before := startSession(t, e, StartConfig{})

	g := true
	after, err := e.store.SetGuessedFlag(before.ID, 4, g)
	if err != nil {
		t.Fatalf("SetGuessedFlag: %v", err)
	}

	if before.GuessedFlags[4] {
		t.Error("mutation leaked into the prior snapshot")
	}
	if !after.GuessedFlags[4] {
		t.Error("new snapshot missing the mutation")
	}
	for i, f := range after.GuessedFlags {
		if i != 4 && f {
			t.Errorf("slot %d guessed unexpectedly", i)
		}
	}
}

func TestMutatorIgnoresOutOfRangeSlot(t *testing.T) {
	e := newEnv(t)
	snap := startSession(t, e, StartConfig{})

	if _, err := e.store.SetMistakeTag(snap.ID, 99, "algebra"); err != nil {
		t.Fatalf("out-of-range mutator returned error: %v", err)
	}
	if _, err := e.store.SetMistakeTag(snap.ID, -1, "algebra"); err != nil {
		t.Fatalf("negative slot returned error: %v", err)
	}
}

func TestNavigateMarksVisited(t *testing.T) {
	e := newEnv(t)
	snap := startSession(t, e, StartConfig{})

	after, err := e.store.NavigateTo(snap.ID, 6)
	if err != nil {
		t.Fatalf("NavigateTo: %v", err)
	}
	if after.CurrentIndex != 6 {
		t.Errorf("cursor = %d, want 6", after.CurrentIndex)
	}
	if !after.Visited[6] {
		t.Error("slot 6 not marked visited")
	}
}

func TestIncrementTimeDoesNotSchedulePersist(t *testing.T) {
	e := newEnv(t)
	snap := startSession(t, e, StartConfig{})
	base := e.persister.schedules

	for i := 0; i < 5; i++ {
		if _, err := e.store.IncrementTime(snap.ID, 2); err != nil {
			t.Fatalf("IncrementTime: %v", err)
		}
	}

	after, _ := e.store.Get(snap.ID)
	if after.PerQuestionSec[2] != 5 {
		t.Errorf("slot 2 elapsed = %ds, want 5", after.PerQuestionSec[2])
	}
	if e.persister.schedules != base {
		t.Errorf("ticks scheduled %d persists, want 0", e.persister.schedules-base)
	}
}

func TestEndIsIdempotent(t *testing.T) {
	e := newEnv(t)
	e.questions.qs = engaaQuestions(20)
	snap := startSession(t, e, StartConfig{})
	if _, err := e.store.LoadQuestions(context.Background(), snap.ID); err != nil {
		t.Fatalf("LoadQuestions: %v", err)
	}

	endedAt := e.clock.Add(30 * time.Minute)
	first, err := e.store.End(context.Background(), snap.ID, endedAt)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	second, err := e.store.End(context.Background(), snap.ID, endedAt.Add(time.Hour))
	if err != nil {
		t.Fatalf("repeated End: %v", err)
	}

	if e.persister.flushes != 1 {
		t.Errorf("flushes = %d, want 1 (ended once)", e.persister.flushes)
	}
	if !first.EndedAt.Equal(*second.EndedAt) {
		t.Errorf("second End changed ended_at: %v vs %v", first.EndedAt, second.EndedAt)
	}
	if e.cache.deletes < 2 {
		t.Errorf("cache deletes = %d, want one per End call", e.cache.deletes)
	}
}

func TestEndSubmitsFlaggedAnswers(t *testing.T) {
	e := newEnv(t)
	e.questions.qs = engaaQuestions(20)
	snap := startSession(t, e, StartConfig{})
	if _, err := e.store.LoadQuestions(context.Background(), snap.ID); err != nil {
		t.Fatalf("LoadQuestions: %v", err)
	}

	b := "B"
	if _, err := e.store.SetChoice(snap.ID, 2, &b); err != nil {
		t.Fatal(err)
	}
	if _, err := e.store.SetDrillFlag(snap.ID, 2, true); err != nil {
		t.Fatal(err)
	}
	if _, err := e.store.SetDrillFlag(snap.ID, 7, true); err != nil {
		t.Fatal(err)
	}

	if _, err := e.store.End(context.Background(), snap.ID, *e.clock); err != nil {
		t.Fatalf("End: %v", err)
	}

	if len(e.drills.batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(e.drills.batches))
	}
	items := e.drills.batches[0]
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].Choice == nil || *items[0].Choice != "B" {
		t.Errorf("first item choice = %v, want B", items[0].Choice)
	}
	if items[0].CorrectChoice != "A" {
		t.Errorf("first item correct choice = %q, want A", items[0].CorrectChoice)
	}
}

func TestEndWithoutFlagsSubmitsNothing(t *testing.T) {
	e := newEnv(t)
	e.questions.qs = engaaQuestions(20)
	snap := startSession(t, e, StartConfig{})
	if _, err := e.store.LoadQuestions(context.Background(), snap.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := e.store.End(context.Background(), snap.ID, *e.clock); err != nil {
		t.Fatalf("End: %v", err)
	}
	if len(e.drills.batches) != 0 {
		t.Errorf("batches = %d, want 0", len(e.drills.batches))
	}
}

func TestPauseResumePreservesSectionRemainingTime(t *testing.T) {
	e := newEnv(t)
	e.questions.qs = engaaQuestions(20)
	snap := startSession(t, e, StartConfig{TimeLimitMinutes: 60, QuestionStart: 1, QuestionEnd: 20})
	if _, err := e.store.LoadQuestions(context.Background(), snap.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.store.CalculateSectionTimeLimits(snap.ID); err != nil {
		t.Fatal(err)
	}

	e.advance(10 * time.Second)
	before, err := e.store.SectionRemainingTime(snap.ID, 0)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.store.Pause(snap.ID); err != nil {
		t.Fatal(err)
	}

	// Wall clock runs on while paused.
	e.advance(2 * time.Hour)

	during, err := e.store.SectionRemainingTime(snap.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := before - during; diff < -1 || diff > 1 {
		t.Errorf("remaining drifted while paused: before=%d during=%d", before, during)
	}

	if _, err := e.store.Resume(snap.ID); err != nil {
		t.Fatal(err)
	}
	after, err := e.store.SectionRemainingTime(snap.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if diff := before - after; diff < -1 || diff > 1 {
		t.Errorf("remaining changed across pause/resume: before=%d after=%d", before, after)
	}
}

func TestResumeShiftsOverallDeadline(t *testing.T) {
	e := newEnv(t)
	snap := startSession(t, e, StartConfig{TimeLimitMinutes: 60, QuestionStart: 1, QuestionEnd: 20})

	remBefore, _ := e.store.RemainingTime(snap.ID)

	if _, err := e.store.Pause(snap.ID); err != nil {
		t.Fatal(err)
	}
	e.advance(30 * time.Minute)
	if _, err := e.store.Resume(snap.ID); err != nil {
		t.Fatal(err)
	}

	remAfter, _ := e.store.RemainingTime(snap.ID)
	if diff := remBefore - remAfter; diff < -1 || diff > 1 {
		t.Errorf("overall remaining changed across pause: before=%d after=%d", remBefore, remAfter)
	}
}

func TestSectionTimeLimitsProportionalSplit(t *testing.T) {
	e := newEnv(t)
	// 1-4 in 1A, 5-8 in 1B, 9-20 in section 2.
	var qs []model.Question
	for i := 1; i <= 20; i++ {
		label := "Section 1A"
		switch {
		case i > 8:
			label = "Section 2"
		case i > 4:
			label = "Section 1B"
		}
		qs = append(qs, model.Question{ID: uuid.New(), Number: i, PartLabel: label})
	}
	e.questions.qs = qs

	snap := startSession(t, e, StartConfig{TimeLimitMinutes: 60, QuestionStart: 1, QuestionEnd: 20})
	if _, err := e.store.LoadQuestions(context.Background(), snap.ID); err != nil {
		t.Fatal(err)
	}
	snap, err := e.store.CalculateSectionTimeLimits(snap.ID)
	if err != nil {
		t.Fatal(err)
	}

	total := 0
	for _, tm := range snap.SectionTimers {
		total += tm.LimitSec
	}
	if total != 3600 {
		t.Errorf("section limits sum to %ds, want 3600", total)
	}
	// 12 of 20 questions live in section 2: it must get the largest share.
	last := snap.SectionTimers[len(snap.SectionTimers)-1]
	if last.LimitSec != 3600*12/20 {
		t.Errorf("section 2 limit = %ds, want %d", last.LimitSec, 3600*12/20)
	}
}

func TestGetUnknownSession(t *testing.T) {
	e := newEnv(t)
	if _, err := e.store.Get(uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}
