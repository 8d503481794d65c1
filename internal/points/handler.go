package points

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pointdash/pointdash/internal/auth"
	"github.com/pointdash/pointdash/internal/dataset"
	"github.com/pointdash/pointdash/internal/history"
	"github.com/pointdash/pointdash/internal/typeid"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the handler on an authenticated router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/points", h.List).Methods("GET")
	r.HandleFunc("/points", h.Replace).Methods("PUT")
	r.HandleFunc("/points", h.Create).Methods("POST")
	r.HandleFunc("/points/undo", h.Undo).Methods("POST")
	r.HandleFunc("/points/redo", h.Redo).Methods("POST")
	r.HandleFunc("/points/{pointId}", h.Update).Methods("PATCH")
	r.HandleFunc("/points/{pointId}", h.Delete).Methods("DELETE")
}

type listResponse struct {
	Points []dataset.Point `json:"points"`
	Seq    int64           `json:"seq"`
}

type replaceRequest struct {
	Points []dataset.Point `json:"points"`
}

type createRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type updateRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	points, seq, err := h.service.List(r.Context(), userID)
	if err != nil {
		slog.Error("list points failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Points: points, Seq: seq})
}

func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req replaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Points == nil {
		req.Points = []dataset.Point{}
	}

	u, err := h.service.Replace(r.Context(), userID, req.Points, "")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Points: u.Points, Seq: u.Seq})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	p := dataset.Point{ID: typeid.NewPointID(), X: req.X, Y: req.Y}
	u, err := h.service.Add(r.Context(), userID, p, "")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, u.Op.After)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	pointID := mux.Vars(r)["pointId"]

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.X == nil && req.Y == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "x or y is required"})
		return
	}

	points, _, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	p, ok := dataset.Find(points, pointID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "point not found"})
		return
	}
	if req.X != nil {
		p.X = *req.X
	}
	if req.Y != nil {
		p.Y = *req.Y
	}

	u, err := h.service.Edit(r.Context(), userID, p, "")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, u.Op.After)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	pointID := mux.Vars(r)["pointId"]

	if _, err := h.service.Delete(r.Context(), userID, pointID, ""); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	u, err := h.service.Undo(r.Context(), userID, "")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Points: u.Points, Seq: u.Seq})
}

func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	u, err := h.service.Redo(r.Context(), userID, "")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Points: u.Points, Seq: u.Seq})
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, history.ErrPointNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "point not found"})
	case errors.Is(err, history.ErrDuplicatePoint):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "point already exists"})
	case errors.Is(err, history.ErrNothingToUndo), errors.Is(err, history.ErrNothingToRedo):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrInvalidPoints):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("points request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
