package period

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/prdly/service-api-go/internal/period/entity"
)

// fakeStore is an in-memory Store for exercising the cycle state machine.
type fakeStore struct {
	cycles   map[int64]*entity.PeriodCycle
	moods    []entity.Mood
	symptoms []entity.Symptom
	typicals map[int64]*entity.TypicalCycle
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cycles:   map[int64]*entity.PeriodCycle{},
		typicals: map[int64]*entity.TypicalCycle{},
	}
}

func (f *fakeStore) OpenCycle(_ context.Context, userID int64) (*entity.PeriodCycle, error) {
	for _, c := range f.cycles {
		if c.UserID == userID && c.To == nil {
			cp := *c
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) GetCycle(_ context.Context, id int64) (*entity.PeriodCycle, error) {
	c, ok := f.cycles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) CreateCycle(_ context.Context, c *entity.PeriodCycle) error {
	cp := *c
	f.cycles[c.ID] = &cp
	return nil
}

func (f *fakeStore) CloseCycle(_ context.Context, id int64, to time.Time) error {
	c, ok := f.cycles[id]
	if !ok {
		return sql.ErrNoRows
	}
	t := to
	c.To = &t
	return nil
}

func (f *fakeStore) ClosedCycles(_ context.Context, userID int64, n int) ([]entity.PeriodCycle, error) {
	var out []entity.PeriodCycle
	for _, c := range f.cycles {
		if c.UserID == userID && c.To != nil {
			out = append(out, *c)
		}
	}
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (f *fakeStore) CreateMood(_ context.Context, m *entity.Mood) error {
	f.moods = append(f.moods, *m)
	return nil
}

func (f *fakeStore) CreateSymptom(_ context.Context, s *entity.Symptom) error {
	f.symptoms = append(f.symptoms, *s)
	return nil
}

func (f *fakeStore) MoodsByCycle(_ context.Context, cycleID int64) ([]entity.Mood, error) {
	var out []entity.Mood
	for _, m := range f.moods {
		if m.CycleID == cycleID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) SymptomsByCycle(_ context.Context, cycleID int64) ([]entity.Symptom, error) {
	var out []entity.Symptom
	for _, s := range f.symptoms {
		if s.CycleID == cycleID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) MoodsByUser(_ context.Context, userID int64) ([]entity.Mood, error) {
	var out []entity.Mood
	for _, m := range f.moods {
		if c, ok := f.cycles[m.CycleID]; ok && c.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) Typical(_ context.Context, userID int64) (*entity.TypicalCycle, error) {
	t, ok := f.typicals[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) CreateTypical(_ context.Context, t *entity.TypicalCycle) error {
	cp := *t
	f.typicals[t.UserID] = &cp
	return nil
}

func (f *fakeStore) UpdateTypical(_ context.Context, t *entity.TypicalCycle) error {
	cp := *t
	f.typicals[t.UserID] = &cp
	return nil
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestStartCycleFirstEver(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store)

	from := date("2024-01-01")
	c, err := svc.StartCycle(ctx, 1, from)
	if err != nil {
		t.Fatalf("start cycle: %v", err)
	}
	if !c.From.Equal(from) {
		t.Fatalf("from = %v, want %v", c.From, from)
	}
	if want := from.AddDate(0, 0, 28); !c.PredictedTo.Equal(want) {
		t.Fatalf("predictedTo = %v, want %v", c.PredictedTo, want)
	}
	if _, ok := store.typicals[1]; ok {
		t.Fatal("typical cycle should not be created before a cycle closes")
	}
}

func TestStartCycleClosesOpenAndUpdatesTypical(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store)

	first, err := svc.StartCycle(ctx, 1, date("2024-01-01"))
	if err != nil {
		t.Fatalf("start first cycle: %v", err)
	}
	second, err := svc.StartCycle(ctx, 1, date("2024-01-29"))
	if err != nil {
		t.Fatalf("start second cycle: %v", err)
	}

	closed := store.cycles[first.ID]
	if closed.To == nil {
		t.Fatal("first cycle should be closed")
	}
	if !closed.To.Equal(date("2024-01-29")) {
		t.Fatalf("to = %v, want 2024-01-29", closed.To)
	}

	// span is 28 days, old estimate defaults to 28: round((28+28)/2) = 28
	typ := store.typicals[1]
	if typ == nil {
		t.Fatal("typical cycle should be created on first close")
	}
	if typ.CycleLength != 28 {
		t.Fatalf("cycleLength = %d, want 28", typ.CycleLength)
	}
	if want := date("2024-01-29").AddDate(0, 0, 28); !second.PredictedTo.Equal(want) {
		t.Fatalf("predictedTo = %v, want %v", second.PredictedTo, want)
	}

	// only one open cycle remains
	open := 0
	for _, c := range store.cycles {
		if c.To == nil {
			open++
		}
	}
	if open != 1 {
		t.Fatalf("open cycles = %d, want 1", open)
	}
}

func TestStartCycleSmoothsExistingEstimate(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.typicals[1] = &entity.TypicalCycle{ID: 99, UserID: 1, CycleLength: 30, Regularity: true}
	svc := NewService(store)

	if _, err := svc.StartCycle(ctx, 1, date("2024-03-01")); err != nil {
		t.Fatalf("start first cycle: %v", err)
	}
	// 24-day span: round((30+24)/2) = 27
	if _, err := svc.StartCycle(ctx, 1, date("2024-03-25")); err != nil {
		t.Fatalf("start second cycle: %v", err)
	}
	if got := store.typicals[1].CycleLength; got != 27 {
		t.Fatalf("cycleLength = %d, want 27", got)
	}
}

func TestRecordMood(t *testing.T) {
	ctx := context.Background()

	t.Run("no open cycle", func(t *testing.T) {
		svc := NewService(newFakeStore())
		if _, err := svc.RecordMood(ctx, 1, "happy", time.Now(), nil); err != ErrNoOpenCycle {
			t.Fatalf("err = %v, want ErrNoOpenCycle", err)
		}
	})

	t.Run("invalid option", func(t *testing.T) {
		store := newFakeStore()
		svc := NewService(store)
		if _, err := svc.StartCycle(ctx, 1, date("2024-01-01")); err != nil {
			t.Fatalf("start cycle: %v", err)
		}
		if _, err := svc.RecordMood(ctx, 1, "melancholic", time.Now(), nil); err != ErrInvalidMood {
			t.Fatalf("err = %v, want ErrInvalidMood", err)
		}
	})

	t.Run("open cycle", func(t *testing.T) {
		store := newFakeStore()
		svc := NewService(store)
		c, err := svc.StartCycle(ctx, 1, date("2024-01-01"))
		if err != nil {
			t.Fatalf("start cycle: %v", err)
		}
		m, err := svc.RecordMood(ctx, 1, "happy", time.Now(), nil)
		if err != nil {
			t.Fatalf("record mood: %v", err)
		}
		if m.CycleID != c.ID {
			t.Fatalf("cycleId = %d, want %d", m.CycleID, c.ID)
		}
	})

	t.Run("explicit cycle of another user", func(t *testing.T) {
		store := newFakeStore()
		svc := NewService(store)
		c, err := svc.StartCycle(ctx, 2, date("2024-01-01"))
		if err != nil {
			t.Fatalf("start cycle: %v", err)
		}
		if _, err := svc.RecordMood(ctx, 1, "happy", time.Now(), &c.ID); err != ErrNotFound {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestRecordSymptomRequiresOpenCycle(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeStore())
	if _, err := svc.RecordSymptom(ctx, 1, "cramps", 2, time.Now()); err != ErrNoOpenCycle {
		t.Fatalf("err = %v, want ErrNoOpenCycle", err)
	}
}

func TestCurrent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store)

	if _, err := svc.Current(ctx, 1); err != ErrNoOpenCycle {
		t.Fatalf("err = %v, want ErrNoOpenCycle", err)
	}

	c, err := svc.StartCycle(ctx, 1, date("2024-01-01"))
	if err != nil {
		t.Fatalf("start cycle: %v", err)
	}
	if _, err := svc.RecordMood(ctx, 1, "tired", time.Now(), nil); err != nil {
		t.Fatalf("record mood: %v", err)
	}
	if _, err := svc.RecordSymptom(ctx, 1, "cramps", 1, time.Now()); err != nil {
		t.Fatalf("record symptom: %v", err)
	}

	detail, err := svc.Current(ctx, 1)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if detail.Cycle.ID != c.ID {
		t.Fatalf("cycle id = %d, want %d", detail.Cycle.ID, c.ID)
	}
	if len(detail.Moods) != 1 || len(detail.Symptoms) != 1 {
		t.Fatalf("moods=%d symptoms=%d, want 1 and 1", len(detail.Moods), len(detail.Symptoms))
	}
}

func TestUpsertTypical(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store)

	length := 30
	created, err := svc.UpsertTypical(ctx, 1, &length, nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.CycleLength != 30 || !created.Regularity || created.MostCommonSymptom != "" {
		t.Fatalf("created = %+v, want length 30 and defaults", created)
	}

	symptom := "cramps"
	updated, err := svc.UpsertTypical(ctx, 1, nil, nil, &symptom)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CycleLength != 30 {
		t.Fatalf("cycleLength = %d, want 30 (unchanged)", updated.CycleLength)
	}
	if updated.MostCommonSymptom != "cramps" {
		t.Fatalf("mostCommonSymptom = %q, want cramps", updated.MostCommonSymptom)
	}
}

func TestIsMoodOption(t *testing.T) {
	for _, m := range MoodOptions {
		if !IsMoodOption(m) {
			t.Fatalf("%q should be accepted", m)
		}
	}
	if IsMoodOption("bored") {
		t.Fatal("bored should be rejected")
	}
}
