package handler

import (
	"area-picker/internal/model"
	"area-picker/internal/service"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// maxBodyBytes bounds request bodies; a point fits in well under a kilobyte.
const maxBodyBytes = 1 << 16

type AreaService interface {
	Areas(ctx context.Context) []model.ServiceArea
	Area(ctx context.Context, id string) (model.ServiceArea, bool)
	CheckLocation(ctx context.Context, req model.LocationRequest) (model.LocationResponse, error)
	SubmitSelection(ctx context.Context, req model.SelectionRequest) (model.SelectionPayload, error)
	HealthCheck(ctx context.Context) *service.HealthError
}

type Handler struct {
	logger  *logrus.Logger
	service AreaService
}

func NewHandler(logger *logrus.Logger, svc AreaService) *Handler {
	return &Handler{
		logger:  logger,
		service: svc,
	}
}

func (h *Handler) AreasHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": h.service.Areas(r.Context()),
	})
}

func (h *Handler) AreaByIDHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/areas/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "area not found")
		return
	}

	area, ok := h.service.Area(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, "area not found")
		return
	}
	writeJSON(w, http.StatusOK, area)
}

func (h *Handler) LocationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var body pointBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.logger.WithError(err).Info("Invalid request body in LocationHandler")
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req, err := body.locationRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.CheckLocation(r.Context(), req)
	if errors.Is(err, service.ErrInvalidCoordinate) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("CheckLocation failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SelectionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var body pointBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.logger.WithError(err).Info("Invalid request body in SelectionHandler")
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	loc, err := body.locationRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := model.SelectionRequest{LocationRequest: loc, ChatID: body.ChatID}

	payload, err := h.service.SubmitSelection(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, payload)
	case errors.Is(err, service.ErrInvalidCoordinate), errors.Is(err, service.ErrMissingChatID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNoMatch):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.WithError(err).Error("SubmitSelection failed")
		writeError(w, http.StatusServiceUnavailable, "selection could not be queued")
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	body := struct {
		Status string `json:"status"`
		Redis  string `json:"redis"`
	}{Status: "ok", Redis: "ok"}

	if herr := h.service.HealthCheck(r.Context()); herr != nil {
		h.logger.WithError(herr).Warn("health check degraded")
		body.Status = "degraded"
		if herr.RedisError != nil {
			body.Redis = "error"
		}
	}

	writeJSON(w, http.StatusOK, body)
}

var (
	errMissingCoordinate = errors.New("lat and lng are required")
	errTrailingData      = errors.New("unexpected data after JSON object")
)

// pointBody is the wire form of a point request. Pointers tell a missing lat/lng from 0.
type pointBody struct {
	UserID    int64    `json:"user_id"`
	ChatID    int64    `json:"chat_id"`
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lng"`
}

func (b pointBody) locationRequest() (model.LocationRequest, error) {
	if b.Latitude == nil || b.Longitude == nil {
		return model.LocationRequest{}, errMissingCoordinate
	}
	return model.LocationRequest{
		UserID:    b.UserID,
		Latitude:  *b.Latitude,
		Longitude: *b.Longitude,
	}, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
