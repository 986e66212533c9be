// Package services holds the application logic for users, events and
// message threads. Services depend on the small interfaces below so tests
// can swap the Mongo stores, Redis and the maps client for fakes.
package services

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"travel-server/models"
	"travel-server/store"
	"travel-server/utils/errors"
)

type ThreadStore interface {
	GetThreadByID(ctx context.Context, id primitive.ObjectID) (*models.MessageThread, error)
	FindThread(ctx context.Context, l models.ThreadLookup) (*models.MessageThread, error)
	CreateThread(ctx context.Context, thread *models.MessageThread) error
	SaveThread(ctx context.Context, thread *models.MessageThread) error
	ListThreadsForUser(ctx context.Context, userID string) ([]models.MessageThread, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	GetParticipantProfiles(ctx context.Context, ids []primitive.ObjectID) ([]models.ParticipantProfile, error)
	SearchUsers(ctx context.Context, query string, limit int) ([]models.SecureUser, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, p models.ProfileUpdate) error
	UpdateLocation(ctx context.Context, id primitive.ObjectID, loc models.LocationData) error
}

type EventStore interface {
	CreateEvent(ctx context.Context, event *models.UserEvent) error
	GetEventByID(ctx context.Context, id primitive.ObjectID) (*models.UserEvent, error)
	GetEventsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.UserEvent, error)
	UpdateEventDetails(ctx context.Context, id primitive.ObjectID, d models.EventDetails) error
	ListEvents(ctx context.Context, q models.EventQuery) ([]models.UserEvent, error)
	AddParticipant(ctx context.Context, id primitive.ObjectID, p models.EventParticipant) (bool, error)
	RemoveParticipant(ctx context.Context, id primitive.ObjectID, userID string) (bool, error)
}

// Locator geocodes addresses and resolves timezones. *maps.Client satisfies it.
type Locator interface {
	Geocode(ctx context.Context, address string) (*models.LocationData, error)
	Timezone(ctx context.Context, coords models.Coords, at time.Time) (*models.Timezone, error)
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := store.ParseID(id)
	if err != nil {
		return primitive.NilObjectID, errors.ErrInvalidObjectID
	}
	return oid, nil
}

func dbError(err error, message string) error {
	return errors.Wrap(err, "DB_ERROR", message, http.StatusInternalServerError)
}

func isNotFound(err error) bool {
	return stderrors.Is(err, store.ErrNotFound)
}
