package handler

import (
	"area-picker/internal/model"
	"area-picker/internal/service"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

type fakeAreaService struct {
	healthErr   *service.HealthError
	areas       []model.ServiceArea
	checkResp   model.LocationResponse
	checkErr    error
	submitted   *model.SelectionRequest
	submitResp  model.SelectionPayload
	submitErr   error
	lastRequest model.LocationRequest
}

func (f *fakeAreaService) Areas(ctx context.Context) []model.ServiceArea {
	return f.areas
}

func (f *fakeAreaService) Area(ctx context.Context, id string) (model.ServiceArea, bool) {
	for _, a := range f.areas {
		if a.ID == id {
			return a, true
		}
	}
	return model.ServiceArea{}, false
}

func (f *fakeAreaService) CheckLocation(ctx context.Context, req model.LocationRequest) (model.LocationResponse, error) {
	f.lastRequest = req
	return f.checkResp, f.checkErr
}

func (f *fakeAreaService) SubmitSelection(ctx context.Context, req model.SelectionRequest) (model.SelectionPayload, error) {
	f.submitted = &req
	return f.submitResp, f.submitErr
}

func (f *fakeAreaService) HealthCheck(ctx context.Context) *service.HealthError {
	return f.healthErr
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestHealthHandler_OK(t *testing.T) {
	svc := &fakeAreaService{
		healthErr: nil,
	}
	h := NewHandler(newTestLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/health", nil)
	w := httptest.NewRecorder()

	h.HealthHandler(w, req)

	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, res.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
		Redis  string `json:"redis"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}

	if body.Status != "ok" || body.Redis != "ok" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHealthHandler_Degraded(t *testing.T) {
	svc := &fakeAreaService{
		healthErr: &service.HealthError{
			RedisError: errors.New("redis error"),
		},
	}
	h := NewHandler(newTestLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/health", nil)
	w := httptest.NewRecorder()

	h.HealthHandler(w, req)

	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, res.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
		Redis  string `json:"redis"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}

	if body.Status != "degraded" || body.Redis != "error" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestAreasHandler_List(t *testing.T) {
	svc := &fakeAreaService{
		areas: []model.ServiceArea{
			{ID: "a", Name: "A", RadiusMeters: 100},
			{ID: "b", Name: "B", RadiusMeters: 200},
		},
	}
	h := NewHandler(newTestLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/areas", nil)
	w := httptest.NewRecorder()

	h.AreasHandler(w, req)

	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, res.StatusCode)
	}

	var body struct {
		Items []model.ServiceArea `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body.Items) != 2 || body.Items[0].ID != "a" || body.Items[1].ID != "b" {
		t.Fatalf("unexpected items: %+v", body.Items)
	}
}

func TestAreaByIDHandler(t *testing.T) {
	svc := &fakeAreaService{
		areas: []model.ServiceArea{{ID: "meram", Name: "Meram"}},
	}
	h := NewHandler(newTestLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/areas/meram", nil)
	w := httptest.NewRecorder()
	h.AreaByIDHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var got model.ServiceArea
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if got.Name != "Meram" {
		t.Fatalf("unexpected area: %+v", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/areas/unknown", nil)
	w = httptest.NewRecorder()
	h.AreaByIDHandler(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestAreasHandler_WrongMethod(t *testing.T) {
	h := NewHandler(newTestLogger(), &fakeAreaService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/areas", nil)
	w := httptest.NewRecorder()

	h.AreasHandler(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, w.Code)
	}
	if w.Header().Get("Allow") != http.MethodGet {
		t.Fatalf("unexpected Allow header %q", w.Header().Get("Allow"))
	}
}

func TestLocationHandler_Matched(t *testing.T) {
	area := model.ServiceArea{ID: "merkez", Name: "Konya Merkez", Color: "#e74c3c"}
	svc := &fakeAreaService{
		checkResp: model.LocationResponse{Latitude: 37.8746, Longitude: 32.4932, Matched: true, Area: &area},
	}
	h := NewHandler(newTestLogger(), svc)

	body := `{"user_id":5,"lat":37.8746,"lng":32.4932}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/location/check", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.LocationHandler(w, req)

	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, res.StatusCode)
	}
	if svc.lastRequest.UserID != 5 || svc.lastRequest.Latitude != 37.8746 || svc.lastRequest.Longitude != 32.4932 {
		t.Fatalf("request was not passed correctly to service: %+v", svc.lastRequest)
	}

	var got model.LocationResponse
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !got.Matched || got.Area == nil || got.Area.ID != "merkez" {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestLocationHandler_InvalidJSON(t *testing.T) {
	h := NewHandler(newTestLogger(), &fakeAreaService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/location/check", strings.NewReader(`{"lat":`))
	w := httptest.NewRecorder()

	h.LocationHandler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestLocationHandler_InvalidCoordinate(t *testing.T) {
	svc := &fakeAreaService{checkErr: service.ErrInvalidCoordinate}
	h := NewHandler(newTestLogger(), svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/location/check", strings.NewReader(`{"lat":100,"lng":0}`))
	w := httptest.NewRecorder()

	h.LocationHandler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestSelectionHandler(t *testing.T) {
	payload := model.SelectionPayload{
		Latitude:    37.8746,
		Longitude:   32.4932,
		AreaID:      "merkez",
		AreaName:    "Konya Merkez",
		AreaColor:   "#e74c3c",
		Coordinates: "37.874600, 32.493200",
	}

	tests := []struct {
		name       string
		submitErr  error
		wantStatus int
	}{
		{name: "accepted", wantStatus: http.StatusAccepted},
		{name: "no match", submitErr: service.ErrNoMatch, wantStatus: http.StatusUnprocessableEntity},
		{name: "invalid coordinate", submitErr: service.ErrInvalidCoordinate, wantStatus: http.StatusBadRequest},
		{name: "queue down", submitErr: errors.New("redis down"), wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAreaService{submitResp: payload, submitErr: tt.submitErr}
			h := NewHandler(newTestLogger(), svc)

			body := `{"user_id":1,"chat_id":77,"lat":37.8746,"lng":32.4932}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/selection", strings.NewReader(body))
			w := httptest.NewRecorder()

			h.SelectionHandler(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d, body=%s", tt.wantStatus, w.Code, w.Body.String())
			}
			if svc.submitted == nil || svc.submitted.ChatID != 77 || svc.submitted.UserID != 1 {
				t.Fatalf("selection was not passed correctly to service: %+v", svc.submitted)
			}
			if tt.submitErr != nil {
				return
			}

			var got model.SelectionPayload
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if got != payload {
				t.Fatalf("unexpected payload: %+v", got)
			}
		})
	}
}

func TestRoutes_AccessMiddleware(t *testing.T) {
	h := NewHandler(newTestLogger(), &fakeAreaService{})
	srv := httptest.NewServer(AccessMiddleware(newTestLogger())(h.Routes()))
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/v1/system/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, res.StatusCode)
	}

	res, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	data, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if !strings.Contains(string(data), "areapicker_http_request_duration_ms") {
		t.Fatalf("metrics output misses request histogram")
	}
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"/api/v1/areas":          "/api/v1/areas",
		"/api/v1/areas/meram":    "/api/v1/areas/{id}",
		"/api/v1/selection":      "/api/v1/selection",
		"/favicon.ico":           "other",
		"/api/v1/location/check": "/api/v1/location/check",
	}
	for path, want := range tests {
		if got := routeLabel(path); got != want {
			t.Errorf("routeLabel(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestLocationHandler_RejectsBadBodies(t *testing.T) {
	tests := map[string]string{
		"empty object":  `{}`,
		"only user":     `{"user_id":1}`,
		"missing lng":   `{"lat":0}`,
		"missing lat":   `{"lng":0}`,
		"unknown field": `{"lat":1,"lng":2,"radius":5}`,
		"trailing data": `{"lat":1,"lng":2}{"lat":3,"lng":4}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			svc := &fakeAreaService{checkResp: model.LocationResponse{Matched: true}}
			h := NewHandler(newTestLogger(), svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/location/check", strings.NewReader(body))
			w := httptest.NewRecorder()

			h.LocationHandler(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d, body=%s", http.StatusBadRequest, w.Code, w.Body.String())
			}
		})
	}
}

func TestLocationHandler_ZeroPointIsAccepted(t *testing.T) {
	svc := &fakeAreaService{}
	h := NewHandler(newTestLogger(), svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/location/check", strings.NewReader(`{"lat":0,"lng":0}`))
	w := httptest.NewRecorder()

	h.LocationHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("explicit (0,0) must be checked, got status %d", w.Code)
	}
}

func TestSelectionHandler_RejectsBadBodies(t *testing.T) {
	tests := map[string]string{
		"empty object":  `{}`,
		"only chat":     `{"user_id":1,"chat_id":2}`,
		"missing lat":   `{"chat_id":2,"lng":0}`,
		"unknown field": `{"lat":1,"lng":2,"area_id":"merkez"}`,
		"trailing data": `{"lat":1,"lng":2} x`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			svc := &fakeAreaService{}
			h := NewHandler(newTestLogger(), svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/selection", strings.NewReader(body))
			w := httptest.NewRecorder()

			h.SelectionHandler(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d, body=%s", http.StatusBadRequest, w.Code, w.Body.String())
			}
			if svc.submitted != nil {
				t.Fatalf("bad body must not reach the service")
			}
		})
	}
}

func TestSelectionHandler_MissingChatID(t *testing.T) {
	svc := &fakeAreaService{submitErr: service.ErrMissingChatID}
	h := NewHandler(newTestLogger(), svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/selection", strings.NewReader(`{"lat":37.8746,"lng":32.4932}`))
	w := httptest.NewRecorder()

	h.SelectionHandler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}
