// Package handlers translates HTTP requests into service calls.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"travel-server/middleware"
	"travel-server/models"
	"travel-server/services"
	"travel-server/utils/errors"
	"travel-server/validation"
)

const maxBodyBytes = 1 << 20

type ThreadService interface {
	CreateThreadAndPostMessage(ctx context.Context, initiator string, recipients []string, body string) (*models.MessageThread, error)
	PostMessageToThread(ctx context.Context, threadID, senderID, content string) (*models.MessageThread, error)
	MarkThreadAsRead(ctx context.Context, threadID, userID string) (*models.MessageThread, error)
	RemoveRecipientFromThread(ctx context.Context, threadID, userID string) (*models.MessageThread, error)
	ListThreadsForUser(ctx context.Context, userID string, unreadOnly bool) ([]models.MessageThread, error)
}

type EventService interface {
	RegisterUserForEvent(ctx context.Context, eventID, userID string) error
	UnregisterUserForEvent(ctx context.Context, eventID, userID string) error
	ListParticipants(ctx context.Context, eventID string) (*services.Participants, error)
	GetEvent(ctx context.Context, eventID string) (*models.UserEvent, error)
	CreateEvent(ctx context.Context, creatorID string, d models.EventDetails) (*models.UserEvent, error)
	UpdateEvent(ctx context.Context, eventID string, d models.EventDetails) error
	ListEvents(ctx context.Context, q models.EventQuery) ([]models.UserEvent, error)
	ListUserEvents(ctx context.Context, userID string, q models.EventQuery) ([]models.UserEvent, error)
	NearbyEvents(ctx context.Context, c models.Coords, radiusKm float64) ([]services.NearbyEvent, error)
}

type UserService interface {
	GetUser(ctx context.Context, id string) (*models.SecureUser, error)
	SearchUsers(ctx context.Context, query string) ([]models.SecureUser, error)
	UpdateProfile(ctx context.Context, actorID, id string, p models.ProfileUpdate) error
	UpdateLocation(ctx context.Context, actorID, id string, loc models.LocationData) error
}

type AuthService interface {
	Register(ctx context.Context, r services.Registration) (string, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

type validatable interface {
	Validate() validation.Result
}

// decode reads a JSON body into v and validates it, writing the error
// response itself. It reports whether the handler should continue.
func decode(w http.ResponseWriter, r *http.Request, v validatable) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil && err != io.EOF {
		middleware.WriteError(w, errors.ErrInvalidInput.WithMessage("Invalid JSON body"))
		return false
	}
	if err := v.Validate().Err(); err != nil {
		middleware.WriteError(w, err)
		return false
	}
	return true
}

// sessionUser returns the caller's id or writes a 401.
func sessionUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	s, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return "", false
	}
	return s.UserID, true
}

func message(w http.ResponseWriter, status int, msg string) {
	middleware.WriteJSON(w, status, map[string]string{"message": msg})
}

// eventQuery parses timeline and paging parameters.
func eventQuery(r *http.Request) (models.EventQuery, error) {
	q := r.URL.Query()
	out := models.EventQuery{Timeline: models.Timeline(q.Get("timeline"))}
	if out.Timeline == "" {
		out.Timeline = models.TimelineAll
	}
	if !out.Timeline.Valid() {
		return out, errors.ErrInvalidInput.WithMessage("timeline must be upcoming, past or all")
	}
	var err error
	if out.Page, err = intParam(q.Get("page")); err != nil {
		return out, errors.ErrInvalidInput.WithMessage("page must be a positive integer")
	}
	if out.PageSize, err = intParam(q.Get("pageSize")); err != nil {
		return out, errors.ErrInvalidInput.WithMessage("pageSize must be a positive integer")
	}
	return out, nil
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, errors.ErrInvalidInput
	}
	return n, nil
}
