package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-queue-engine/internal/clinic"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	jwt.RegisteredClaims
	Username     string      `json:"username"`
	Role         clinic.Role `json:"role"`
	DoctorID     *uuid.UUID  `json:"doctor_id,omitempty"`
	DepartmentID *uuid.UUID  `json:"department_id,omitempty"`
}

// IssueToken signs a session token for an authenticated user.
func IssueToken(secret string, ttl time.Duration, u *clinic.User, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username:     u.Username,
		Role:         u.Role,
		DoctorID:     u.DoctorID,
		DepartmentID: u.DepartmentID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a session token and rebuilds the actor.
func ParseToken(secret, raw string) (*Actor, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Actor{
		UserID:       userID,
		Username:     claims.Username,
		Role:         claims.Role,
		DoctorID:     claims.DoctorID,
		DepartmentID: claims.DepartmentID,
	}, nil
}
