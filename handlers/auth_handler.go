package handlers

import (
	"net/http"

	"travel-server/middleware"
	"travel-server/services"
	"travel-server/validation"
)

type AuthHandler struct {
	auth AuthService
}

func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req validation.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	userID, err := h.auth.Register(r.Context(), services.Registration{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Location:  req.Location,
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	message(w, http.StatusCreated, userID)
}

func (h *AuthHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var req validation.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, res)
}
