package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"procurement-service/internal/models"
	"procurement-service/internal/store"
	"procurement-service/internal/util"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is not confirmed")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWeakPassword       = errors.New("password must be at least 8 characters and not all digits")
	ErrInvalidUserType    = errors.New("type must be shop or buyer")
)

// AuthStore is the persistence surface the auth service needs.
type AuthStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	ActivateUser(ctx context.Context, userID int64) error
	CreateConfirmToken(ctx context.Context, token *models.ConfirmToken) error
	GetConfirmToken(ctx context.Context, email, token string) (*models.ConfirmToken, error)
	DeleteConfirmToken(ctx context.Context, token string) error
}

// TokenStore holds issued auth tokens with a TTL.
type TokenStore interface {
	SetAuthToken(ctx context.Context, token string, userID int64, ttl time.Duration) error
	GetAuthToken(ctx context.Context, token string) (int64, error)
	DeleteAuthToken(ctx context.Context, token string) error
}

type AuthService struct {
	store    AuthStore
	tokens   TokenStore
	tokenTTL time.Duration
	logger   *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(s AuthStore, tokens TokenStore, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		store:    s,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   util.GetLogger(),
	}
}

// RegisterRequest carries the fields accepted at registration.
type RegisterRequest struct {
	Email                string `json:"email" binding:"required,email"`
	Password             string `json:"password" binding:"required"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Company              string `json:"company"`
	Position             string `json:"position"`
	Type                 string `json:"type"`
}

// ValidatePassword enforces the minimum password policy.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	if strings.Trim(password, "0123456789") == "" {
		return ErrWeakPassword
	}
	return nil
}

// ValidateUserType checks the account capability string.
func ValidateUserType(userType string) error {
	if userType != models.UserTypeShop && userType != models.UserTypeBuyer {
		return ErrInvalidUserType
	}
	return nil
}

// Register creates an inactive account and returns it together with the
// email confirmation token. The caller is responsible for getting the token
// to the user.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, string, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Register")
	defer span.End()

	if req.Password != req.PasswordConfirmation {
		return nil, "", ErrPasswordMismatch
	}
	if err := ValidatePassword(req.Password); err != nil {
		return nil, "", err
	}
	if req.Type == "" {
		req.Type = models.UserTypeBuyer
	}
	if err := ValidateUserType(req.Type); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Company:      req.Company,
		Position:     req.Position,
		Type:         req.Type,
		Active:       false,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token := &models.ConfirmToken{Token: uuid.New().String(), UserID: user.ID}
	if err := s.store.CreateConfirmToken(ctx, token); err != nil {
		return nil, "", fmt.Errorf("failed to create confirm token: %w", err)
	}

	util.RegistrationsTotal.Inc()
	s.logger.Info("user registered",
		zap.Int64("user_id", user.ID),
		zap.String("email", user.Email),
		zap.String("type", user.Type))

	return user, token.Token, nil
}

// ConfirmAccount activates an account given its email and confirmation
// token. The token is single use.
func (s *AuthService) ConfirmAccount(ctx context.Context, email, token string) error {
	ctx, span := util.StartSpan(ctx, "AuthService.ConfirmAccount")
	defer span.End()

	ct, err := s.store.GetConfirmToken(ctx, email, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to look up confirm token: %w", err)
	}

	if err := s.store.ActivateUser(ctx, ct.UserID); err != nil {
		return fmt.Errorf("failed to activate user: %w", err)
	}
	if err := s.store.DeleteConfirmToken(ctx, token); err != nil {
		return fmt.Errorf("failed to delete confirm token: %w", err)
	}

	s.logger.Info("account confirmed", zap.Int64("user_id", ct.UserID))
	return nil
}

// Login checks credentials and issues an auth token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			util.LoginsTotal.WithLabelValues("failure").Inc()
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		util.LoginsTotal.WithLabelValues("failure").Inc()
		return "", ErrInvalidCredentials
	}
	if !user.Active {
		util.LoginsTotal.WithLabelValues("inactive").Inc()
		return "", ErrAccountInactive
	}

	token := uuid.New().String()
	if err := s.tokens.SetAuthToken(ctx, token, user.ID, s.tokenTTL); err != nil {
		return "", fmt.Errorf("failed to store auth token: %w", err)
	}

	util.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	return token, nil
}

// Authenticate resolves an auth token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.GetAuthToken(ctx, token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// Details returns the account profile.
func (s *AuthService) Details(ctx context.Context, userID int64) (*models.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// DetailsUpdate carries the optional profile fields of a details update.
type DetailsUpdate struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	Password  *string `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Company   *string `json:"company"`
	Position  *string `json:"position"`
}

// UpdateDetails applies the provided profile fields. A new password goes
// through the same policy as registration.
func (s *AuthService) UpdateDetails(ctx context.Context, userID int64, upd DetailsUpdate) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.UpdateDetails")
	defer span.End()

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if upd.Email != nil {
		user.Email = *upd.Email
	}
	if upd.Password != nil {
		if err := ValidatePassword(*upd.Password); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if upd.FirstName != nil {
		user.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		user.LastName = *upd.LastName
	}
	if upd.Company != nil {
		user.Company = *upd.Company
	}
	if upd.Position != nil {
		user.Position = *upd.Position
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}
