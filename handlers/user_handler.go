package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"travel-server/middleware"
	"travel-server/validation"
)

type UserHandler struct {
	users  UserService
	events EventService
}

func NewUserHandler(users UserService, events EventService) *UserHandler {
	return &UserHandler{users: users, events: events}
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, user)
}

// Search handles GET /users/search?query=.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.SearchUsers(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, users)
}

// UpdateProfile handles PATCH /users/{id}.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(w, r)
	if !ok {
		return
	}
	var req validation.ProfileRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.users.UpdateProfile(r.Context(), userID, mux.Vars(r)["id"], req.Update()); err != nil {
		middleware.WriteError(w, err)
		return
	}
	message(w, http.StatusOK, "User updated")
}

// UpdateLocation handles PATCH /users/{id}/location.
func (h *UserHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(w, r)
	if !ok {
		return
	}
	var req validation.LocationRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.users.UpdateLocation(r.Context(), userID, mux.Vars(r)["id"], *req.Location); err != nil {
		middleware.WriteError(w, err)
		return
	}
	message(w, http.StatusOK, "Location updated")
}

// Events handles GET /users/{id}/events.
func (h *UserHandler) Events(w http.ResponseWriter, r *http.Request) {
	q, err := eventQuery(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	events, err := h.events.ListUserEvents(r.Context(), mux.Vars(r)["id"], q)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, events)
}
