package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"travel-server/models"
	"travel-server/utils/errors"
)

const searchLimit = 50

type UserService struct {
	users   UserStore
	cache   UserCache
	locator Locator
	now     func() time.Time
}

// NewUserService builds the profile service. cache and locator may be nil.
func NewUserService(users UserStore, cache UserCache, locator Locator) *UserService {
	return &UserService{
		users:   users,
		cache:   cache,
		locator: locator,
		now:     time.Now,
	}
}

// GetUser returns the public profile, served from the cache when possible.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.SecureUser, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if u, ok := s.cache.Get(ctx, oid.Hex()); ok {
			userCacheLookups.WithLabelValues("hit").Inc()
			return u, nil
		}
		userCacheLookups.WithLabelValues("miss").Inc()
	}

	user, err := s.users.GetUserByID(ctx, oid)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.ErrNotFound.WithMessage("User not found")
		}
		return nil, dbError(err, "failed to load user")
	}
	secure := user.Secure()
	if s.cache != nil {
		s.cache.Set(ctx, secure)
	}
	return &secure, nil
}

// SearchUsers finds public profiles by name or bio.
func (s *UserService) SearchUsers(ctx context.Context, query string) ([]models.SecureUser, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.ErrInvalidInput.WithMessage("query is required")
	}
	users, err := s.users.SearchUsers(ctx, query, searchLimit)
	if err != nil {
		return nil, dbError(err, "failed to search users")
	}
	if users == nil {
		users = []models.SecureUser{}
	}
	return users, nil
}

// UpdateProfile patches the profile of id. Only the user themself may do so.
func (s *UserService) UpdateProfile(ctx context.Context, actorID, id string, p models.ProfileUpdate) error {
	oid, err := s.authorize(actorID, id)
	if err != nil {
		return err
	}
	if err := s.users.UpdateProfile(ctx, oid, p); err != nil {
		if isNotFound(err) {
			return errors.ErrNotFound.WithMessage("User not found")
		}
		return dbError(err, "failed to update user")
	}
	s.invalidate(ctx, oid.Hex())
	return nil
}

// UpdateLocation stores a new home location, geocoding it when needed.
func (s *UserService) UpdateLocation(ctx context.Context, actorID, id string, loc models.LocationData) error {
	oid, err := s.authorize(actorID, id)
	if err != nil {
		return err
	}
	if err := resolveLocation(ctx, s.locator, &loc, s.now()); err != nil {
		return err
	}
	if err := s.users.UpdateLocation(ctx, oid, loc); err != nil {
		if isNotFound(err) {
			return errors.ErrNotFound.WithMessage("User not found")
		}
		return dbError(err, "failed to update location")
	}
	s.invalidate(ctx, oid.Hex())
	return nil
}

func (s *UserService) authorize(actorID, id string) (primitive.ObjectID, error) {
	parsed, err := parseID(id)
	if err != nil {
		return parsed, err
	}
	if actorID == "" || actorID != parsed.Hex() {
		return parsed, errors.ErrUnauthorized
	}
	return parsed, nil
}

func (s *UserService) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		s.cache.Delete(ctx, id)
	}
}
