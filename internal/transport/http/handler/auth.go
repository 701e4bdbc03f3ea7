package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-otp-api/internal/application/auth"
	"github.com/go-otp-api/internal/pkg/validate"
	"github.com/go-otp-api/internal/transport/http/middleware"
)

// AuthHandler handles the passwordless authentication endpoints.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// RequestCodeRequest is the body for POST /v1/auth/request-code.
type RequestCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RedeemCodeRequest is the body for POST /v1/auth/redeem-code.
type RedeemCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req RequestCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := h.svc.RequestCode(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "code sent"})
}

func (h *AuthHandler) RedeemCode(w http.ResponseWriter, r *http.Request) {
	var req RedeemCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	bearer, user, err := h.svc.RedeemCode(r.Context(), req.Email, req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{AccessToken: bearer, TokenType: "bearer", User: user})
}

// Me echoes the authenticated identity; it exists so clients can check a
// stored token without a domain call.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, identity)
}
