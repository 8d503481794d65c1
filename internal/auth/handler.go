package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"

	"github.com/pointdash/pointdash/internal/store"
)

const minPasswordLen = 8

// requestError is a client mistake; its text is returned as is.
type requestError string

func (e requestError) Error() string { return string(e) }

type Handler struct {
	service *Service
	log     *slog.Logger
}

func NewHandler(service *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{service: service, log: log}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

func (r registerRequest) validate() error {
	if r.Email == "" || r.Password == "" || r.DisplayName == "" {
		return requestError("email, password, and displayName are required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return requestError("invalid email address")
	}
	if len(r.Password) < minPasswordLen {
		return requestError(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) validate() error {
	if r.Email == "" || r.Password == "" {
		return requestError("email and password are required")
	}
	return nil
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, "register", err)
		return
	}
	result, err := h.service.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		h.writeError(w, "register", err)
		return
	}
	h.log.Info("user registered", "user", result.User.ID)
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, "login", err)
		return
	}
	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, "get user", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func decode(r *http.Request, req interface{ validate() error }) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return requestError("invalid request body")
	}
	return req.validate()
}

// errorStatus maps service and store errors to a status and client message.
func errorStatus(err error) (int, string) {
	var reqErr requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, string(reqErr)
	case errors.Is(err, ErrEmailTaken), errors.Is(err, store.ErrConflict):
		return http.StatusConflict, ErrEmailTaken.Error()
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrInvalidCredentials.Error()
	case errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized, ErrInvalidToken.Error()
	case errors.Is(err, ErrUserNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, ErrUserNotFound.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.log.Error(op+" failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
