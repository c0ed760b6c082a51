package user

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/prdly/service-api-go/internal/session"
	"github.com/prdly/service-api-go/internal/user/entity"
	"github.com/prdly/service-api-go/pkg/database"
)

// PasswordHasher defines the minimal hashing interface. The hash itself is
// treated as an opaque one-way value everywhere else.
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Store is the repository capability set the service needs.
type Store interface {
	Create(ctx context.Context, u *entity.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	List(ctx context.Context) ([]entity.User, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

var (
	ErrConflict = errors.New("username already taken")
	ErrNotFound = errors.New("user not found")
)

// Service orchestrates account registration and credential checks.
type Service struct {
	store  Store
	hasher PasswordHasher
}

func NewService(store Store, hasher PasswordHasher) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &Service{store: store, hasher: hasher}
}

// Register creates an account. Requesting the admin flag requires an admin
// actor; plain signups pass a nil actor. Duplicate usernames surface as
// ErrConflict via the unique constraint, not a read-check.
func (s *Service) Register(ctx context.Context, username, password string, isAdmin bool, actor *session.Identity) (int64, error) {
	if isAdmin && (actor == nil || !actor.Admin) {
		return 0, session.ErrForbidden
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return 0, err
	}
	u := &entity.User{Username: username, PasswordHash: hash, IsAdmin: isAdmin}
	id, err := s.store.Create(ctx, u)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return 0, ErrConflict
		}
		return 0, err
	}
	return id, nil
}

// VerifyCredentials authenticates a username/password pair. Unknown users
// and wrong passwords both map to session.ErrUnauthorized to avoid user
// enumeration.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (*session.Identity, error) {
	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrUnauthorized
		}
		return nil, err
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, session.ErrUnauthorized
	}
	return &session.Identity{ID: u.ID, Admin: u.IsAdmin, Username: u.Username}, nil
}

// List returns all accounts. Admin-only; the route enforces the role.
func (s *Service) List(ctx context.Context) ([]entity.User, error) {
	return s.store.List(ctx)
}

// Delete removes an account by id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
