package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrUnauthorized = errors.New("authorization failed")
	ErrForbidden    = errors.New("access denied")
)

// Identity is the verified claim set carried by a bearer token.
type Identity struct {
	ID       int64  `json:"id"`
	Admin    bool   `json:"admin"`
	Username string `json:"username"`
}

// TokenService signs and verifies bearer tokens against a process-wide
// secret. Tokens are never persisted; they expire per the embedded TTL and
// are not revocable server-side.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token carrying the identity and an expiry claim.
func (s *TokenService) Issue(id Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      id.ID,
		"admin":    id.Admin,
		"username": id.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify parses a signed token and recovers the identity embedded at issue
// time. Any parse, signature or expiry failure maps to ErrUnauthorized.
func (s *TokenService) Verify(token string) (*Identity, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnauthorized
		}
		return s.secret, nil
	})
	if err != nil || !t.Valid {
		return nil, ErrUnauthorized
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return nil, ErrUnauthorized
	}
	admin, _ := claims["admin"].(bool)
	username, _ := claims["username"].(string)
	return &Identity{ID: int64(sub), Admin: admin, Username: username}, nil
}
