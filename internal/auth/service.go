package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clinicdesk/clinic-queue-engine/internal/clinic"
)

// ErrInvalidCredentials covers unknown users, wrong passwords, and
// deactivated accounts alike, so login failures don't reveal which.
var ErrInvalidCredentials = errors.New("invalid username or password")

// UserSource is the slice of the store the login flow needs.
type UserSource interface {
	GetUserByUsername(ctx context.Context, username string) (*clinic.User, error)
}

type Service struct {
	users  UserSource
	secret string
	ttl    time.Duration

	// Now is the token clock, pinned in tests.
	Now func() time.Time
}

func NewService(users UserSource, secret string, ttl time.Duration) *Service {
	return &Service{users: users, secret: secret, ttl: ttl, Now: time.Now}
}

// Login verifies credentials and returns a signed session token plus
// the user record (password hash cleared).
func (s *Service) Login(ctx context.Context, username, password string) (string, *clinic.User, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, clinic.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !u.IsActive {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := IssueToken(s.secret, s.ttl, u, s.Now())
	if err != nil {
		return "", nil, err
	}

	out := *u
	out.PasswordHash = ""
	return token, &out, nil
}

// Verify parses a bearer token into an actor.
func (s *Service) Verify(raw string) (*Actor, error) {
	return ParseToken(s.secret, raw)
}

// HashPassword is used by the seeder and user provisioning.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
