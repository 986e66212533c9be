package services

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"travel-server/auth"
	"travel-server/logger"
	"travel-server/models"
	"travel-server/store"
	"travel-server/utils/errors"
)

type AuthService struct {
	users   UserStore
	tokens  *auth.TokenManager
	locator Locator
	now     func() time.Time
}

func NewAuthService(users UserStore, tokens *auth.TokenManager, locator Locator) *AuthService {
	return &AuthService{
		users:   users,
		tokens:  tokens,
		locator: locator,
		now:     time.Now,
	}
}

type Registration struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Location  *models.LocationData
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expiresAt"`
}

var errEmailTaken = errors.ErrForbidden.WithMessage("User already exists")

// Register creates a user and returns its id.
func (s *AuthService) Register(ctx context.Context, r Registration) (string, error) {
	email := auth.NormalizeEmail(r.Email)

	_, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return "", errEmailTaken
	case !isNotFound(err):
		return "", dbError(err, "failed to look up user")
	}

	hash, err := auth.HashPassword(r.Password)
	if err != nil {
		return "", errors.Wrap(err, "HASH_ERROR", "failed to hash password", http.StatusInternalServerError)
	}
	if err := resolveLocation(ctx, s.locator, r.Location, s.now()); err != nil {
		return "", err
	}

	now := s.now()
	user := &models.User{
		ID:        primitive.NewObjectID(),
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     email,
		Password:  hash,
		Location:  r.Location,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if stderrors.Is(err, store.ErrDuplicate) {
			return "", errEmailTaken
		}
		return "", dbError(err, "failed to create user")
	}

	logger.Log.Info("user registered", zap.String("user_id", user.ID.Hex()))
	return user.ID.Hex(), nil
}

// Login checks the credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	invalid := errors.NewAPIError("INVALID_CREDENTIALS", "Invalid email or password", http.StatusUnauthorized)

	user, err := s.users.GetUserByEmail(ctx, auth.NormalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, invalid
		}
		return nil, dbError(err, "failed to look up user")
	}
	if err := auth.CheckPassword(user.Password, password); err != nil {
		return nil, invalid
	}

	token, exp, err := s.tokens.Issue(user.ID.Hex(), user.Email)
	if err != nil {
		return nil, errors.Wrap(err, "JWT_ERROR", "Failed to generate token", http.StatusInternalServerError)
	}
	return &LoginResult{Token: token, ID: user.ID.Hex(), ExpiresAt: exp}, nil
}
