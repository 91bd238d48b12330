package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/peopleops/hrhub/internal/domain/user"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUserInactive = errors.New("user is inactive")
)

type Claims struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	EmployeeID string `json:"employee_id,omitempty"`
	JTI        string `json:"jti"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Mint signs a claim set for an authenticated user. employeeID may be empty
// when the user has no linked employee record.
func (m *Manager) Mint(u user.User, employeeID string) (token string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	expiresAt = now.Add(m.ttl)

	claims := Claims{
		UserID:     u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		EmployeeID: employeeID,
		JTI:        uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Subject:   u.ID,
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)

	return
}

func (m *Manager) ParseAndValidate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256

		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Keep this small interface so tests can fake it easily.
type UserSource interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// Verifier validates a token cryptographically and then re-reads the user
// row, so a user deactivated after the token was minted is rejected on the
// next request, not only at the next login.
type Verifier struct {
	jwt   *Manager
	users UserSource
}

func NewVerifier(jwtManager *Manager, users UserSource) *Verifier {
	return &Verifier{jwt: jwtManager, users: users}
}

func (v *Verifier) Verify(ctx context.Context, tokenStr string) (user.User, *Claims, error) {
	claims, err := v.jwt.ParseAndValidate(tokenStr)

	if err != nil {
		return user.User{}, nil, err
	}

	u, err := v.users.GetByID(ctx, claims.UserID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, nil, ErrInvalidToken
		}
		return user.User{}, nil, err
	}

	if !u.IsActive {
		return user.User{}, nil, ErrUserInactive
	}

	return u, claims, nil
}
