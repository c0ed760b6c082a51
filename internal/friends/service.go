package friends

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/prdly/service-api-go/internal/friends/entity"
	periodentity "github.com/prdly/service-api-go/internal/period/entity"
	"github.com/prdly/service-api-go/internal/session"
	userentity "github.com/prdly/service-api-go/internal/user/entity"
	"github.com/prdly/service-api-go/pkg/database"
	"github.com/prdly/service-api-go/pkg/utilities"
)

// Store is the repository capability set the service needs.
type Store interface {
	FriendshipExists(ctx context.Context, userID, friendID int64) (bool, error)
	CreateFriendship(ctx context.Context, f *entity.Friendship) error
	FriendNames(ctx context.Context, userID int64) ([]string, error)
	HasBeast(ctx context.Context, userID int64) (bool, error)
	CreateBeast(ctx context.Context, b *entity.Beast) error
	BeastOf(ctx context.Context, userID int64) (int64, string, error)
	OpenCycleOf(ctx context.Context, userID int64) (*periodentity.PeriodCycle, error)
	LatestMoodOf(ctx context.Context, userID int64) (*periodentity.Mood, error)
	LatestSymptomOf(ctx context.Context, userID int64) (*periodentity.Symptom, error)
	TypicalOf(ctx context.Context, userID int64) (*periodentity.TypicalCycle, error)
}

// Directory resolves usernames to accounts. Implemented by the user
// repository.
type Directory interface {
	GetByUsername(ctx context.Context, username string) (*userentity.User, error)
}

var (
	ErrNotFound = errors.New("target not found")
	ErrConflict = errors.New("edge already exists")
	ErrSelf     = errors.New("cannot befriend yourself")
)

// Service owns friendship edges and the exclusive closest-friend edge.
type Service struct {
	store Store
	users Directory
}

func NewService(store Store, users Directory) *Service {
	return &Service{store: store, users: users}
}

func (s *Service) resolve(ctx context.Context, userID int64, friendName string) (*userentity.User, error) {
	target, err := s.users.GetByUsername(ctx, friendName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if target.ID == userID {
		return nil, ErrSelf
	}
	return target, nil
}

// AddFriend inserts a friendship edge towards the named user. An edge in
// either direction counts as a duplicate; the ordered-pair unique index
// catches the race the pre-check leaves open.
func (s *Service) AddFriend(ctx context.Context, userID int64, friendName string) (*entity.Friendship, error) {
	target, err := s.resolve(ctx, userID, friendName)
	if err != nil {
		return nil, err
	}
	exists, err := s.store.FriendshipExists(ctx, userID, target.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict
	}
	f := &entity.Friendship{ID: utilities.NewID(), UserID: userID, FriendID: target.ID}
	if err := s.store.CreateFriendship(ctx, f); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return f, nil
}

// ListFriends returns the counterpart usernames for every edge touching the
// subject. Passing a target other than the actor requires admin.
func (s *Service) ListFriends(ctx context.Context, actor *session.Identity, targetID *int64) ([]string, error) {
	subject := actor.ID
	if targetID != nil && *targetID != actor.ID {
		if !actor.Admin {
			return nil, session.ErrForbidden
		}
		subject = *targetID
	}
	return s.store.FriendNames(ctx, subject)
}

// AddBeast inserts the exclusive closest-friend edge. Either party already
// participating in one is a conflict. There is no removal path.
func (s *Service) AddBeast(ctx context.Context, userID int64, friendName string) (*entity.Beast, error) {
	target, err := s.resolve(ctx, userID, friendName)
	if err != nil {
		return nil, err
	}
	for _, id := range []int64{userID, target.ID} {
		taken, err := s.store.HasBeast(ctx, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrConflict
		}
	}
	b := &entity.Beast{ID: utilities.NewID(), UserID: userID, FriendID: target.ID}
	if err := s.store.CreateBeast(ctx, b); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return b, nil
}

// Beast returns the username of the user's closest friend.
func (s *Service) Beast(ctx context.Context, userID int64) (string, error) {
	_, name, err := s.store.BeastOf(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return name, nil
}

// BeastStats joins the closest friend's open cycle, latest mood, latest
// symptom and typical-cycle row. CycleDay is whole days since the open
// cycle started.
func (s *Service) BeastStats(ctx context.Context, userID int64) (*entity.BeastStats, error) {
	beastID, name, err := s.store.BeastOf(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	stats := &entity.BeastStats{Username: name}
	if stats.Cycle, err = s.store.OpenCycleOf(ctx, beastID); err != nil {
		return nil, err
	}
	if stats.Cycle != nil {
		day := int(time.Since(stats.Cycle.From).Hours() / 24)
		stats.CycleDay = &day
	}
	if stats.LatestMood, err = s.store.LatestMoodOf(ctx, beastID); err != nil {
		return nil, err
	}
	if stats.LatestSymptom, err = s.store.LatestSymptomOf(ctx, beastID); err != nil {
		return nil, err
	}
	if stats.Typical, err = s.store.TypicalOf(ctx, beastID); err != nil {
		return nil, err
	}
	return stats, nil
}
