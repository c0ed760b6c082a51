package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/prdly/service-api-go/internal/period/entity"
)

// PeriodRepo provides data access for cycles, moods, symptoms and the
// typical-cycle estimate using sqlx.
type PeriodRepo struct {
	db *sqlx.DB
}

func NewPeriodRepo(db *sqlx.DB) *PeriodRepo { return &PeriodRepo{db: db} }

// EnsureTables creates the period tables if not exists (idempotent).
// The partial unique index on (user_id) WHERE to_date IS NULL backs the
// one-open-cycle invariant so concurrent cycle starts fail instead of
// leaving two open rows.
func (r *PeriodRepo) EnsureTables(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS period_cycles (
  id BIGINT PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  from_date TIMESTAMPTZ NOT NULL,
  predicted_to TIMESTAMPTZ NOT NULL,
  to_date TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_period_cycles_open ON period_cycles (user_id) WHERE to_date IS NULL;
CREATE INDEX IF NOT EXISTS idx_period_cycles_user ON period_cycles (user_id);
CREATE TABLE IF NOT EXISTS typical_cycles (
  id BIGINT PRIMARY KEY,
  user_id BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
  cycle_length INT NOT NULL DEFAULT 28,
  regularity BOOLEAN NOT NULL DEFAULT true,
  most_common_symptom TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS moods (
  id BIGINT PRIMARY KEY,
  cycle_id BIGINT NOT NULL REFERENCES period_cycles(id) ON DELETE CASCADE,
  mood TEXT NOT NULL,
  recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_moods_cycle ON moods (cycle_id);
CREATE TABLE IF NOT EXISTS symptoms (
  id BIGINT PRIMARY KEY,
  cycle_id BIGINT NOT NULL REFERENCES period_cycles(id) ON DELETE CASCADE,
  symptom TEXT NOT NULL DEFAULT '',
  flow_type INT NOT NULL DEFAULT 0,
  recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_symptoms_cycle ON symptoms (cycle_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// OpenCycle returns the user's open cycle or sql.ErrNoRows.
func (r *PeriodRepo) OpenCycle(ctx context.Context, userID int64) (*entity.PeriodCycle, error) {
	const q = `SELECT id, user_id, from_date, predicted_to, to_date FROM period_cycles WHERE user_id=$1 AND to_date IS NULL`
	var row entity.PeriodCycle
	if err := r.db.GetContext(ctx, &row, q, userID); err != nil {
		return nil, err
	}
	return &row, nil
}

// GetCycle fetches a cycle by id.
func (r *PeriodRepo) GetCycle(ctx context.Context, id int64) (*entity.PeriodCycle, error) {
	const q = `SELECT id, user_id, from_date, predicted_to, to_date FROM period_cycles WHERE id=$1`
	var row entity.PeriodCycle
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateCycle inserts a new open cycle.
func (r *PeriodRepo) CreateCycle(ctx context.Context, c *entity.PeriodCycle) error {
	const q = `INSERT INTO period_cycles (id, user_id, from_date, predicted_to) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, q, c.ID, c.UserID, c.From, c.PredictedTo)
	return err
}

// CloseCycle records the end date of a cycle.
func (r *PeriodRepo) CloseCycle(ctx context.Context, id int64, to time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE period_cycles SET to_date=$2 WHERE id=$1`, id, to)
	return err
}

// ClosedCycles returns the n most recent closed cycles, newest-first.
func (r *PeriodRepo) ClosedCycles(ctx context.Context, userID int64, n int) ([]entity.PeriodCycle, error) {
	const q = `SELECT id, user_id, from_date, predicted_to, to_date FROM period_cycles
		WHERE user_id=$1 AND to_date IS NOT NULL ORDER BY from_date DESC LIMIT $2`
	var rows []entity.PeriodCycle
	if err := r.db.SelectContext(ctx, &rows, q, userID, n); err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateMood appends a mood entry.
func (r *PeriodRepo) CreateMood(ctx context.Context, m *entity.Mood) error {
	const q = `INSERT INTO moods (id, cycle_id, mood, recorded_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, q, m.ID, m.CycleID, m.Mood, m.RecordedAt)
	return err
}

// CreateSymptom appends a symptom entry.
func (r *PeriodRepo) CreateSymptom(ctx context.Context, s *entity.Symptom) error {
	const q = `INSERT INTO symptoms (id, cycle_id, symptom, flow_type, recorded_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, q, s.ID, s.CycleID, s.Symptom, s.FlowType, s.RecordedAt)
	return err
}

// MoodsByCycle lists a cycle's moods, newest-first.
func (r *PeriodRepo) MoodsByCycle(ctx context.Context, cycleID int64) ([]entity.Mood, error) {
	const q = `SELECT id, cycle_id, mood, recorded_at FROM moods WHERE cycle_id=$1 ORDER BY recorded_at DESC`
	var rows []entity.Mood
	if err := r.db.SelectContext(ctx, &rows, q, cycleID); err != nil {
		return nil, err
	}
	return rows, nil
}

// SymptomsByCycle lists a cycle's symptoms, newest-first.
func (r *PeriodRepo) SymptomsByCycle(ctx context.Context, cycleID int64) ([]entity.Symptom, error) {
	const q = `SELECT id, cycle_id, symptom, flow_type, recorded_at FROM symptoms WHERE cycle_id=$1 ORDER BY recorded_at DESC`
	var rows []entity.Symptom
	if err := r.db.SelectContext(ctx, &rows, q, cycleID); err != nil {
		return nil, err
	}
	return rows, nil
}

// MoodsByUser lists every mood the user recorded across all cycles,
// newest-first.
func (r *PeriodRepo) MoodsByUser(ctx context.Context, userID int64) ([]entity.Mood, error) {
	const q = `SELECT m.id, m.cycle_id, m.mood, m.recorded_at FROM moods m
		JOIN period_cycles c ON c.id = m.cycle_id
		WHERE c.user_id=$1 ORDER BY m.recorded_at DESC`
	var rows []entity.Mood
	if err := r.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, err
	}
	return rows, nil
}

// Typical returns the user's typical-cycle row or sql.ErrNoRows.
func (r *PeriodRepo) Typical(ctx context.Context, userID int64) (*entity.TypicalCycle, error) {
	const q = `SELECT id, user_id, cycle_length, regularity, most_common_symptom FROM typical_cycles WHERE user_id=$1`
	var row entity.TypicalCycle
	if err := r.db.GetContext(ctx, &row, q, userID); err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateTypical inserts the lazily created typical-cycle row.
func (r *PeriodRepo) CreateTypical(ctx context.Context, t *entity.TypicalCycle) error {
	const q = `INSERT INTO typical_cycles (id, user_id, cycle_length, regularity, most_common_symptom) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, q, t.ID, t.UserID, t.CycleLength, t.Regularity, t.MostCommonSymptom)
	return err
}

// UpdateTypical overwrites the user's typical-cycle estimate.
func (r *PeriodRepo) UpdateTypical(ctx context.Context, t *entity.TypicalCycle) error {
	const q = `UPDATE typical_cycles SET cycle_length=$2, regularity=$3, most_common_symptom=$4 WHERE user_id=$1`
	_, err := r.db.ExecContext(ctx, q, t.UserID, t.CycleLength, t.Regularity, t.MostCommonSymptom)
	return err
}
