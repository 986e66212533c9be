package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"travel-server/middleware"
	"travel-server/models"
	"travel-server/services"
	"travel-server/utils/errors"
	"travel-server/validation"
)

type EventHandler struct {
	events EventService
}

func NewEventHandler(events EventService) *EventHandler {
	return &EventHandler{events: events}
}

type NearbyEventsResponse struct {
	Events []services.NearbyEvent `json:"events"`
	Count  int                    `json:"count"`
	Lat    float64                `json:"lat"`
	Lng    float64                `json:"lng"`
	Radius float64                `json:"radius"`
}

// Register handles PATCH /events/{id}/register.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req validation.ParticipantRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.events.RegisterUserForEvent(r.Context(), mux.Vars(r)["id"], req.UserID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	message(w, http.StatusOK, "User registered")
}

// Unregister handles PATCH /events/{id}/unregister.
func (h *EventHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	var req validation.ParticipantRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.events.UnregisterUserForEvent(r.Context(), mux.Vars(r)["id"], req.UserID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	message(w, http.StatusOK, "User unregistered")
}

// Participants handles GET /events/{id}/participants.
func (h *EventHandler) Participants(w http.ResponseWriter, r *http.Request) {
	out, err := h.events.ListParticipants(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEvent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, event)
}

func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q, err := eventQuery(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	events, err := h.events.ListEvents(r.Context(), q)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, events)
}

// CreateEvent handles POST /events; the caller becomes the host.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(w, r)
	if !ok {
		return
	}
	var req validation.EventRequest
	if !decode(w, r, &req) {
		return
	}
	event, err := h.events.CreateEvent(r.Context(), userID, req.Details())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, event)
}

// UpdateEvent handles PATCH /events/{id}.
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	if _, ok := sessionUser(w, r); !ok {
		return
	}
	var req validation.EventRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.events.UpdateEvent(r.Context(), mux.Vars(r)["id"], req.Details()); err != nil {
		middleware.WriteError(w, err)
		return
	}
	message(w, http.StatusOK, "Event updated")
}

// Nearby handles GET /events/nearby?lat=&lng=&radius= (radius in km).
func (h *EventHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput.WithMessage("lat is required"))
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput.WithMessage("lng is required"))
		return
	}
	coords := models.Coords{Lat: lat, Lng: lng}
	if !coords.Valid() {
		middleware.WriteError(w, errors.ErrInvalidInput.WithMessage("coordinates are out of range"))
		return
	}
	radius := services.DefaultNearbyRadiusKm
	if v := q.Get("radius"); v != "" {
		radius, err = strconv.ParseFloat(v, 64)
		if err != nil || radius <= 0 {
			middleware.WriteError(w, errors.ErrInvalidInput.WithMessage("radius must be a positive number"))
			return
		}
	}

	events, err := h.events.NearbyEvents(r.Context(), coords, radius)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, NearbyEventsResponse{
		Events: events,
		Count:  len(events),
		Lat:    lat,
		Lng:    lng,
		Radius: radius,
	})
}
