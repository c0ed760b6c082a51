package entity

import "time"

// PeriodCycle is one tracked cycle. A row with a null To is the user's open
// cycle; at most one may exist per user, enforced by a partial unique index.
type PeriodCycle struct {
	ID          int64      `db:"id" json:"id"`
	UserID      int64      `db:"user_id" json:"userId"`
	From        time.Time  `db:"from_date" json:"from"`
	PredictedTo time.Time  `db:"predicted_to" json:"predictedTo"`
	To          *time.Time `db:"to_date" json:"to,omitempty"`
}

// TypicalCycle is the per-user rolling estimate, created lazily on first
// update or first closed cycle.
type TypicalCycle struct {
	ID                int64  `db:"id" json:"id"`
	UserID            int64  `db:"user_id" json:"userId"`
	CycleLength       int    `db:"cycle_length" json:"cycleLength"`
	Regularity        bool   `db:"regularity" json:"regularity"`
	MostCommonSymptom string `db:"most_common_symptom" json:"mostCommonSymptom"`
}

// Mood is a timestamped mood entry attached to a cycle. Append-only.
type Mood struct {
	ID         int64     `db:"id" json:"id"`
	CycleID    int64     `db:"cycle_id" json:"cycleId"`
	Mood       string    `db:"mood" json:"mood"`
	RecordedAt time.Time `db:"recorded_at" json:"date"`
}

// Symptom is a timestamped symptom entry attached to a cycle. Append-only.
// FlowType: 0 none, 1 light, 2 medium, 3 heavy.
type Symptom struct {
	ID         int64     `db:"id" json:"id"`
	CycleID    int64     `db:"cycle_id" json:"cycleId"`
	Symptom    string    `db:"symptom" json:"symptom"`
	FlowType   int       `db:"flow_type" json:"flowType"`
	RecordedAt time.Time `db:"recorded_at" json:"date"`
}

// CycleDetail joins a cycle with its moods and symptoms, newest-first.
type CycleDetail struct {
	Cycle    PeriodCycle `json:"periodCycleInfo"`
	Moods    []Mood      `json:"moods"`
	Symptoms []Symptom   `json:"symptoms"`
}
