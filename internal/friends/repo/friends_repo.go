package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/prdly/service-api-go/internal/friends/entity"
	periodentity "github.com/prdly/service-api-go/internal/period/entity"
)

// FriendsRepo provides data access for friendship and closest-friend edges
// using sqlx.
type FriendsRepo struct {
	db *sqlx.DB
}

func NewFriendsRepo(db *sqlx.DB) *FriendsRepo { return &FriendsRepo{db: db} }

// EnsureTables creates the edge tables if not exists (idempotent).
// The unique index on the ordered friendship pair rejects the reverse
// duplicate at the storage layer. The two unique indexes on beasts back the
// at-most-one-edge-per-user invariant together with the service pre-check.
func (r *FriendsRepo) EnsureTables(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS friendships (
  id BIGINT PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  friend_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_friendships_pair
  ON friendships (LEAST(user_id, friend_id), GREATEST(user_id, friend_id));
CREATE TABLE IF NOT EXISTS beasts (
  id BIGINT PRIMARY KEY,
  user_id BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
  friend_id BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// FriendshipExists reports whether an edge exists in either direction.
func (r *FriendsRepo) FriendshipExists(ctx context.Context, userID, friendID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM friendships
		WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, q, userID, friendID); err != nil {
		return false, err
	}
	return exists, nil
}

// CreateFriendship inserts a friendship edge.
func (r *FriendsRepo) CreateFriendship(ctx context.Context, f *entity.Friendship) error {
	const q = `INSERT INTO friendships (id, user_id, friend_id) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, q, f.ID, f.UserID, f.FriendID)
	return err
}

// FriendNames returns the counterpart username for every edge touching the
// subject.
func (r *FriendsRepo) FriendNames(ctx context.Context, userID int64) ([]string, error) {
	const q = `SELECT u.username FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.user_id=$1 THEN f.friend_id ELSE f.user_id END
		WHERE f.user_id=$1 OR f.friend_id=$1
		ORDER BY u.username`
	var names []string
	if err := r.db.SelectContext(ctx, &names, q, userID); err != nil {
		return nil, err
	}
	return names, nil
}

// HasBeast reports whether the user participates in a closest-friend edge
// on either side.
func (r *FriendsRepo) HasBeast(ctx context.Context, userID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM beasts WHERE user_id=$1 OR friend_id=$1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, q, userID); err != nil {
		return false, err
	}
	return exists, nil
}

// CreateBeast inserts a closest-friend edge.
func (r *FriendsRepo) CreateBeast(ctx context.Context, b *entity.Beast) error {
	const q = `INSERT INTO beasts (id, user_id, friend_id) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, q, b.ID, b.UserID, b.FriendID)
	return err
}

// BeastOf returns the id and username of the user's closest friend, or
// sql.ErrNoRows when no edge exists.
func (r *FriendsRepo) BeastOf(ctx context.Context, userID int64) (int64, string, error) {
	const q = `SELECT u.id, u.username FROM beasts b
		JOIN users u ON u.id = CASE WHEN b.user_id=$1 THEN b.friend_id ELSE b.user_id END
		WHERE b.user_id=$1 OR b.friend_id=$1`
	var row struct {
		ID       int64  `db:"id"`
		Username string `db:"username"`
	}
	if err := r.db.GetContext(ctx, &row, q, userID); err != nil {
		return 0, "", err
	}
	return row.ID, row.Username, nil
}

// OpenCycleOf returns the user's open cycle or nil when none exists.
func (r *FriendsRepo) OpenCycleOf(ctx context.Context, userID int64) (*periodentity.PeriodCycle, error) {
	const q = `SELECT id, user_id, from_date, predicted_to, to_date FROM period_cycles
		WHERE user_id=$1 AND to_date IS NULL`
	var row periodentity.PeriodCycle
	if err := r.db.GetContext(ctx, &row, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// LatestMoodOf returns the user's most recent mood entry or nil.
func (r *FriendsRepo) LatestMoodOf(ctx context.Context, userID int64) (*periodentity.Mood, error) {
	const q = `SELECT m.id, m.cycle_id, m.mood, m.recorded_at FROM moods m
		JOIN period_cycles c ON c.id = m.cycle_id
		WHERE c.user_id=$1 ORDER BY m.recorded_at DESC LIMIT 1`
	var row periodentity.Mood
	if err := r.db.GetContext(ctx, &row, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// LatestSymptomOf returns the user's most recent symptom entry or nil.
func (r *FriendsRepo) LatestSymptomOf(ctx context.Context, userID int64) (*periodentity.Symptom, error) {
	const q = `SELECT s.id, s.cycle_id, s.symptom, s.flow_type, s.recorded_at FROM symptoms s
		JOIN period_cycles c ON c.id = s.cycle_id
		WHERE c.user_id=$1 ORDER BY s.recorded_at DESC LIMIT 1`
	var row periodentity.Symptom
	if err := r.db.GetContext(ctx, &row, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// TypicalOf returns the user's typical-cycle row or nil.
func (r *FriendsRepo) TypicalOf(ctx context.Context, userID int64) (*periodentity.TypicalCycle, error) {
	const q = `SELECT id, user_id, cycle_length, regularity, most_common_symptom FROM typical_cycles WHERE user_id=$1`
	var row periodentity.TypicalCycle
	if err := r.db.GetContext(ctx, &row, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
