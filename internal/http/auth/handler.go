package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/backoffice/internal/auth"
	"github.com/MrJamesThe3rd/backoffice/internal/http/respond"
)

type Handler struct {
	svc *auth.Service
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/login", h.login)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Enabled() {
		respond.Message(w, http.StatusNotFound, "authentication is disabled")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.svc.Login(req.Username, req.Password)
	if err != nil {
		slog.Warn("login failed", "username", req.Username)
		respond.Message(w, http.StatusUnauthorized, err.Error())

		return
	}

	respond.JSON(w, http.StatusOK, loginResponse{Token: token})
}

// Require rejects requests without a valid bearer token. It lets everything through when no
// signing secret is configured.
func (h *Handler) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.svc.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			respond.Message(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		if _, err := h.svc.Verify(token); err != nil {
			respond.Message(w, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}
