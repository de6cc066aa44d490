package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"civiceye/backend/internal/models"
	"civiceye/backend/internal/storage"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Registration struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=6"`
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone"`
}

// Session is returned after a successful register or login.
type Session struct {
	Token   string          `json:"token"`
	Profile *models.Profile `json:"profile"`
}

type Accounts struct {
	storage         storage.Storage
	tokens          *TokenIssuer
	registrationKey string
	logger          *zap.Logger
}

func NewAccounts(s storage.Storage, tokens *TokenIssuer, registrationKey string, logger *zap.Logger) *Accounts {
	return &Accounts{storage: s, tokens: tokens, registrationKey: registrationKey, logger: logger}
}

func (a *Accounts) Tokens() *TokenIssuer { return a.tokens }

// Register creates a citizen account and signs it in.
func (a *Accounts) Register(ctx context.Context, reg Registration) (*Session, error) {
	p, err := a.create(ctx, reg, models.RoleCitizen)
	if err != nil {
		return nil, err
	}
	return a.session(p)
}

// RegisterAdmin creates an admin account when the registration key matches.
func (a *Accounts) RegisterAdmin(ctx context.Context, reg Registration, key string) (*Session, error) {
	if a.registrationKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(a.registrationKey)) != 1 {
		a.logger.Warn("Admin registration rejected", zap.String("email", reg.Email))
		return nil, ErrInvalidRegistrationKey
	}
	p, err := a.create(ctx, reg, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return a.session(p)
}

// CreateUser lets an admin create an account with any role.
func (a *Accounts) CreateUser(ctx context.Context, actor Principal, reg Registration, role models.Role) (*models.Profile, error) {
	if err := Require(actor.Role, PermManageUsers); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	return a.create(ctx, reg, role)
}

// SetRole changes a user's role.
func (a *Accounts) SetRole(ctx context.Context, actor Principal, userID string, role models.Role) error {
	if err := Require(actor.Role, PermManageUsers); err != nil {
		return err
	}
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}
	return a.storage.UpdateUserRole(ctx, userID, role)
}

func (a *Accounts) ListUsers(ctx context.Context, actor Principal) ([]models.UserSummary, error) {
	if err := Require(actor.Role, PermManageUsers); err != nil {
		return nil, err
	}
	return a.storage.ListUsers(ctx)
}

func (a *Accounts) Login(ctx context.Context, email, password string) (*Session, error) {
	p, err := a.storage.GetProfileByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return a.session(p)
}

func (a *Accounts) create(ctx context.Context, reg Registration, role models.Role) (*models.Profile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	p := &models.Profile{
		Email:        normalizeEmail(reg.Email),
		FullName:     strings.TrimSpace(reg.FullName),
		Phone:        reg.Phone,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := a.storage.CreateProfile(ctx, p); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	a.logger.Info("Account created", zap.String("user_id", p.ID), zap.String("role", string(p.Role)))
	return p, nil
}

func (a *Accounts) session(p *models.Profile) (*Session, error) {
	token, err := a.tokens.Issue(p)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, Profile: p}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
