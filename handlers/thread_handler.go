package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"travel-server/middleware"
	"travel-server/utils/errors"
	"travel-server/validation"
)

type ThreadHandler struct {
	threads ThreadService
}

func NewThreadHandler(threads ThreadService) *ThreadHandler {
	return &ThreadHandler{threads: threads}
}

// CreateThread handles POST /threads.
func (h *ThreadHandler) CreateThread(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(w, r)
	if !ok {
		return
	}
	var req validation.CreateThreadRequest
	if !decode(w, r, &req) {
		return
	}
	if !strings.EqualFold(req.Initiator, userID) {
		middleware.WriteError(w, errors.ErrForbidden.WithMessage("Initiator must be the signed-in user"))
		return
	}

	thread, err := h.threads.CreateThreadAndPostMessage(r.Context(), req.Initiator, req.Recipients, req.Message)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, map[string]string{
		"status": "success",
		"id":     thread.ID.Hex(),
	})
}

// ListThreads handles GET /threads[?unread=true].
func (h *ThreadHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(w, r)
	if !ok {
		return
	}
	unread := r.URL.Query().Get("unread") == "true"

	threads, err := h.threads.ListThreadsForUser(r.Context(), userID, unread)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, threads)
}

// PostMessage handles PUT /threads/{id}.
func (h *ThreadHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(w, r)
	if !ok {
		return
	}
	var req validation.PostMessageRequest
	if !decode(w, r, &req) {
		return
	}

	thread, err := h.threads.PostMessageToThread(r.Context(), mux.Vars(r)["id"], userID, req.Content)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, thread)
}

// MarkRead handles PATCH /threads/{id}/read.
func (h *ThreadHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(w, r)
	if !ok {
		return
	}
	thread, err := h.threads.MarkThreadAsRead(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, thread)
}

// Leave handles PATCH /threads/{id}, removing the caller from the thread.
func (h *ThreadHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUser(w, r)
	if !ok {
		return
	}
	thread, err := h.threads.RemoveRecipientFromThread(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, thread)
}
