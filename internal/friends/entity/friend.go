package entity

import (
	periodentity "github.com/prdly/service-api-go/internal/period/entity"
)

// Friendship is a directed row representing a logically symmetric edge.
// A unique index on the ordered pair prevents the reverse duplicate.
type Friendship struct {
	ID       int64 `db:"id" json:"id"`
	UserID   int64 `db:"user_id" json:"userId"`
	FriendID int64 `db:"friend_id" json:"friendId"`
}

// Beast is the exclusive closest-friend edge. Each user participates in at
// most one.
type Beast struct {
	ID       int64 `db:"id" json:"id"`
	UserID   int64 `db:"user_id" json:"userId"`
	FriendID int64 `db:"friend_id" json:"friendId"`
}

// BeastStats is the read-side projection of the closest friend's state.
type BeastStats struct {
	Username      string                     `json:"username"`
	CycleDay      *int                       `json:"cycleDay,omitempty"`
	Cycle         *periodentity.PeriodCycle  `json:"cycle,omitempty"`
	LatestMood    *periodentity.Mood         `json:"latestMood,omitempty"`
	LatestSymptom *periodentity.Symptom      `json:"latestSymptom,omitempty"`
	Typical       *periodentity.TypicalCycle `json:"typicalCycle,omitempty"`
}
