package period

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/prdly/service-api-go/internal/period/entity"
	"github.com/prdly/service-api-go/pkg/database"
	"github.com/prdly/service-api-go/pkg/utilities"
)

// MoodOptions is the fixed set of accepted mood values.
var MoodOptions = []string{"happy", "sad", "angry", "tired", "hungry", "excited", "relaxed", "stressed"}

// IsMoodOption reports whether mood is one of the accepted values.
func IsMoodOption(mood string) bool {
	for _, m := range MoodOptions {
		if m == mood {
			return true
		}
	}
	return false
}

// defaultCycleLength is assumed before any cycle has been closed.
const defaultCycleLength = 28

// Store is the repository capability set the service needs.
type Store interface {
	OpenCycle(ctx context.Context, userID int64) (*entity.PeriodCycle, error)
	GetCycle(ctx context.Context, id int64) (*entity.PeriodCycle, error)
	CreateCycle(ctx context.Context, c *entity.PeriodCycle) error
	CloseCycle(ctx context.Context, id int64, to time.Time) error
	ClosedCycles(ctx context.Context, userID int64, n int) ([]entity.PeriodCycle, error)
	CreateMood(ctx context.Context, m *entity.Mood) error
	CreateSymptom(ctx context.Context, s *entity.Symptom) error
	MoodsByCycle(ctx context.Context, cycleID int64) ([]entity.Mood, error)
	SymptomsByCycle(ctx context.Context, cycleID int64) ([]entity.Symptom, error)
	MoodsByUser(ctx context.Context, userID int64) ([]entity.Mood, error)
	Typical(ctx context.Context, userID int64) (*entity.TypicalCycle, error)
	CreateTypical(ctx context.Context, t *entity.TypicalCycle) error
	UpdateTypical(ctx context.Context, t *entity.TypicalCycle) error
}

var (
	ErrNoOpenCycle = errors.New("no active period cycle")
	ErrInvalidMood = errors.New("invalid mood option")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("cycle already open")
)

// Service owns the cycle state machine: NoCycle -> Open -> Closed -> new Open.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// StartCycle opens a new cycle starting at from. An existing open cycle is
// closed first with to = from, and the typical cycle length is updated to
// round((old + spanDays) / 2), old defaulting to 28 when no estimate exists
// yet. The new cycle's predicted end is from plus the current estimate.
func (s *Service) StartCycle(ctx context.Context, userID int64, from time.Time) (*entity.PeriodCycle, error) {
	cycleLength := defaultCycleLength
	typ, err := s.store.Typical(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if typ != nil {
		cycleLength = typ.CycleLength
	}

	open, err := s.store.OpenCycle(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if open != nil {
		span := int(from.Sub(open.From).Hours() / 24)
		cycleLength = int(math.Round(float64(cycleLength+span) / 2))
		if err := s.store.CloseCycle(ctx, open.ID, from); err != nil {
			return nil, err
		}
		if typ == nil {
			t := &entity.TypicalCycle{ID: utilities.NewID(), UserID: userID, CycleLength: cycleLength, Regularity: true}
			if err := s.store.CreateTypical(ctx, t); err != nil {
				return nil, err
			}
		} else {
			typ.CycleLength = cycleLength
			if err := s.store.UpdateTypical(ctx, typ); err != nil {
				return nil, err
			}
		}
	}

	c := &entity.PeriodCycle{
		ID:          utilities.NewID(),
		UserID:      userID,
		From:        from,
		PredictedTo: from.AddDate(0, 0, cycleLength),
	}
	if err := s.store.CreateCycle(ctx, c); err != nil {
		if database.IsUniqueViolation(err) {
			// a concurrent request opened a cycle between close and create
			return nil, ErrConflict
		}
		return nil, err
	}
	return c, nil
}

// RecordMood appends a mood entry. Without an explicit cycleID the user's
// open cycle is required; an explicit cycleID permits back-dated entries
// against closed cycles the user owns.
func (s *Service) RecordMood(ctx context.Context, userID int64, mood string, at time.Time, cycleID *int64) (*entity.Mood, error) {
	if !IsMoodOption(mood) {
		return nil, ErrInvalidMood
	}
	target, err := s.resolveCycle(ctx, userID, cycleID)
	if err != nil {
		return nil, err
	}
	m := &entity.Mood{ID: utilities.NewID(), CycleID: target.ID, Mood: mood, RecordedAt: at}
	if err := s.store.CreateMood(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordSymptom appends a symptom entry against the open cycle. The symptom
// text is free-form.
func (s *Service) RecordSymptom(ctx context.Context, userID int64, symptom string, flowType int, at time.Time) (*entity.Symptom, error) {
	open, err := s.store.OpenCycle(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoOpenCycle
		}
		return nil, err
	}
	sym := &entity.Symptom{ID: utilities.NewID(), CycleID: open.ID, Symptom: symptom, FlowType: flowType, RecordedAt: at}
	if err := s.store.CreateSymptom(ctx, sym); err != nil {
		return nil, err
	}
	return sym, nil
}

func (s *Service) resolveCycle(ctx context.Context, userID int64, cycleID *int64) (*entity.PeriodCycle, error) {
	if cycleID == nil {
		open, err := s.store.OpenCycle(ctx, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNoOpenCycle
			}
			return nil, err
		}
		return open, nil
	}
	c, err := s.store.GetCycle(ctx, *cycleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if c.UserID != userID {
		return nil, ErrNotFound
	}
	return c, nil
}

// Current returns the open cycle joined with its moods and symptoms.
func (s *Service) Current(ctx context.Context, userID int64) (*entity.CycleDetail, error) {
	open, err := s.store.OpenCycle(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoOpenCycle
		}
		return nil, err
	}
	return s.detail(ctx, open)
}

// Previous returns the n most recent closed cycles with their moods and
// symptoms, newest-first.
func (s *Service) Previous(ctx context.Context, userID int64, n int) ([]entity.CycleDetail, error) {
	cycles, err := s.store.ClosedCycles(ctx, userID, n)
	if err != nil {
		return nil, err
	}
	details := make([]entity.CycleDetail, 0, len(cycles))
	for i := range cycles {
		d, err := s.detail(ctx, &cycles[i])
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	return details, nil
}

func (s *Service) detail(ctx context.Context, c *entity.PeriodCycle) (*entity.CycleDetail, error) {
	moods, err := s.store.MoodsByCycle(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	symptoms, err := s.store.SymptomsByCycle(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &entity.CycleDetail{Cycle: *c, Moods: moods, Symptoms: symptoms}, nil
}

// Typical returns the user's rolling estimate.
func (s *Service) Typical(ctx context.Context, userID int64) (*entity.TypicalCycle, error) {
	typ, err := s.store.Typical(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return typ, nil
}

// UpsertTypical creates or patches the rolling estimate. On update, nil
// fields leave the stored values unchanged; on create, omitted fields take
// the defaults.
func (s *Service) UpsertTypical(ctx context.Context, userID int64, cycleLength *int, regularity *bool, mostCommonSymptom *string) (*entity.TypicalCycle, error) {
	typ, err := s.store.Typical(ctx, userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		t := &entity.TypicalCycle{ID: utilities.NewID(), UserID: userID, CycleLength: defaultCycleLength, Regularity: true}
		if cycleLength != nil {
			t.CycleLength = *cycleLength
		}
		if regularity != nil {
			t.Regularity = *regularity
		}
		if mostCommonSymptom != nil {
			t.MostCommonSymptom = *mostCommonSymptom
		}
		if err := s.store.CreateTypical(ctx, t); err != nil {
			return nil, err
		}
		return t, nil
	}
	if cycleLength != nil {
		typ.CycleLength = *cycleLength
	}
	if regularity != nil {
		typ.Regularity = *regularity
	}
	if mostCommonSymptom != nil {
		typ.MostCommonSymptom = *mostCommonSymptom
	}
	if err := s.store.UpdateTypical(ctx, typ); err != nil {
		return nil, err
	}
	return typ, nil
}

// MoodsForUser lists every mood the user recorded, newest-first.
func (s *Service) MoodsForUser(ctx context.Context, userID int64) ([]entity.Mood, error) {
	return s.store.MoodsByUser(ctx, userID)
}
