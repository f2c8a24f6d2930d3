package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/store"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
)

// Sentinel errors for account operations.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrForbidden          = errors.New("operation requires admin role")
)

// Accounts persists user records.
type Accounts interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreditTokens(ctx context.Context, userID uuid.UUID, amount float64) (float64, error)
}

// Claims are the JWT claims issued at login.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service handles registration, login and token administration.
type Service struct {
	accounts  Accounts
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewService creates a new user Service.
func NewService(accounts Accounts, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{
		accounts:  accounts,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// Register creates a new user account with zero tokens.
func (s *Service) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	slog.Info("user registered", "user_id", u.ID)
	return u, nil
}

// Login verifies the credentials and returns a signed JWT.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.accounts.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a JWT, returning its claims.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

// Balance returns the user's current token balance.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (float64, error) {
	u, err := s.accounts.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return u.Tokens, nil
}

// Recharge credits tokens to a user. Only admins may call it.
func (s *Service) Recharge(ctx context.Context, adminID uuid.UUID, email string, amount float64) (float64, error) {
	admin, err := s.accounts.GetUser(ctx, adminID)
	if err != nil {
		return 0, err
	}
	if !admin.IsAdmin() {
		return 0, ErrForbidden
	}
	if amount <= 0 {
		return 0, fmt.Errorf("recharge amount must be positive")
	}

	target, err := s.accounts.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return 0, err
	}

	balance, err := s.accounts.CreditTokens(ctx, target.ID, amount)
	if err != nil {
		return 0, err
	}

	slog.Info("tokens recharged", "admin_id", adminID, "user_id", target.ID, "amount", amount)
	return balance, nil
}
