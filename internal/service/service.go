package service

import (
	"area-picker/internal/areas"
	"area-picker/internal/geo"
	"area-picker/internal/metrics"
	"area-picker/internal/model"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidCoordinate = errors.New("coordinate is out of range")
	ErrNoMatch           = errors.New("point is outside of service areas")
	ErrMissingChatID     = errors.New("chat_id is required")
)

// Queue is the outbound buffer between the HTTP layer and the webhook worker.
type Queue interface {
	PushWebhookTask(ctx context.Context, task model.WebhookPayload) error
	Ping(ctx context.Context) error
}

type HealthError struct {
	RedisError error
}

func (e *HealthError) Error() string {
	return fmt.Sprintf("redis: %v", e.RedisError)
}

type AreaService struct {
	areas         []model.ServiceArea
	queue         Queue
	logger        *logrus.Logger
	requireChatID bool
}

type Option func(*AreaService)

// WithRequiredChatID rejects selections without a chat id. Needed when the host
// delivers into the user's chat.
func WithRequiredChatID() Option {
	return func(s *AreaService) {
		s.requireChatID = true
	}
}

// NewAreaService takes ownership of areas; the slice must not be modified afterwards.
func NewAreaService(areas []model.ServiceArea, queue Queue, logger *logrus.Logger, opts ...Option) *AreaService {
	s := &AreaService{
		areas:  areas,
		queue:  queue,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AreaService) Areas(ctx context.Context) []model.ServiceArea {
	out := make([]model.ServiceArea, len(s.areas))
	copy(out, s.areas)
	return out
}

func (s *AreaService) Area(ctx context.Context, id string) (model.ServiceArea, bool) {
	return areas.Lookup(s.areas, id)
}

func (s *AreaService) match(point model.Coordinate) (model.MatchResult, error) {
	if !point.Valid() {
		return model.MatchResult{Point: point}, ErrInvalidCoordinate
	}

	return geo.Match(point, s.areas), nil
}

func (s *AreaService) CheckLocation(ctx context.Context, req model.LocationRequest) (model.LocationResponse, error) {
	res, err := s.match(req.Point())
	if err != nil {
		return model.LocationResponse{}, err
	}

	metrics.LocationChecksTotal.Inc()
	if res.Matched() {
		metrics.MatchesTotal.WithLabelValues(res.Area.ID).Inc()
	} else {
		metrics.NoMatchTotal.Inc()
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": req.UserID,
		"point":   res.Point.String(),
		"matched": res.Matched(),
	}).Debug("location checked")

	return model.LocationResponse{
		Latitude:  res.Point.Latitude,
		Longitude: res.Point.Longitude,
		Matched:   res.Matched(),
		Area:      res.Area,
		DistanceM: res.Distance,
	}, nil
}

// SubmitSelection matches the point again on the server and queues the host message.
func (s *AreaService) SubmitSelection(ctx context.Context, req model.SelectionRequest) (model.SelectionPayload, error) {
	if s.requireChatID && req.ChatID == 0 {
		return model.SelectionPayload{}, ErrMissingChatID
	}

	res, err := s.match(req.Point())
	if err != nil {
		return model.SelectionPayload{}, err
	}
	if !res.Matched() {
		s.logger.WithFields(logrus.Fields{
			"user_id": req.UserID,
			"point":   res.Point.String(),
		}).Info("selection rejected: point outside of service areas")
		return model.SelectionPayload{}, ErrNoMatch
	}

	payload, err := model.NewSelectionPayload(res)
	if err != nil {
		return model.SelectionPayload{}, err
	}

	task := model.WebhookPayload{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		ChatID:    req.ChatID,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.queue.PushWebhookTask(ctx, task); err != nil {
		s.logger.WithError(err).WithField("task_id", task.ID).Error("failed to queue selection")
		return model.SelectionPayload{}, fmt.Errorf("queue selection: %w", err)
	}
	metrics.SelectionsQueuedTotal.Inc()

	s.logger.WithFields(logrus.Fields{
		"task_id": task.ID,
		"user_id": req.UserID,
		"area_id": payload.AreaID,
	}).Info("selection queued")

	return payload, nil
}

func (s *AreaService) HealthCheck(ctx context.Context) *HealthError {
	if err := s.queue.Ping(ctx); err != nil {
		return &HealthError{RedisError: err}
	}
	return nil
}
