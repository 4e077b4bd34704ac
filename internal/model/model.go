package model

import (
	"errors"
	"fmt"
	"time"
)

type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Valid reports whether the coordinate lies in the WGS84 degree ranges.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// String formats the coordinate with 6 decimal places, e.g. "37.874600, 32.493200".
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude)
}

type ServiceArea struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Center       Coordinate `json:"center"`
	RadiusMeters float64    `json:"radius_m"`
	Color        string     `json:"color"`
}

// MatchResult is the outcome of testing a point against the area table.
// Area is nil when no area contains the point.
type MatchResult struct {
	Point    Coordinate
	Area     *ServiceArea
	Distance float64
}

func (m MatchResult) Matched() bool {
	return m.Area != nil
}

type LocationRequest struct {
	UserID    int64   `json:"user_id"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

func (r LocationRequest) Point() Coordinate {
	return Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}
}

type LocationResponse struct {
	Latitude  float64      `json:"lat"`
	Longitude float64      `json:"lng"`
	Matched   bool         `json:"matched"`
	Area      *ServiceArea `json:"area,omitempty"`
	DistanceM float64      `json:"distance_m"`
}

type SelectionRequest struct {
	LocationRequest
	ChatID int64 `json:"chat_id"`
}

// SelectionPayload is the message the host platform receives for a confirmed point.
type SelectionPayload struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lng"`
	AreaID      string  `json:"area_id"`
	AreaName    string  `json:"area_name"`
	AreaColor   string  `json:"area_color"`
	Coordinates string  `json:"coordinates"`
}

var ErrNotMatched = errors.New("match result has no area")

func NewSelectionPayload(res MatchResult) (SelectionPayload, error) {
	if !res.Matched() {
		return SelectionPayload{}, ErrNotMatched
	}
	return SelectionPayload{
		Latitude:    res.Point.Latitude,
		Longitude:   res.Point.Longitude,
		AreaID:      res.Area.ID,
		AreaName:    res.Area.Name,
		AreaColor:   res.Area.Color,
		Coordinates: res.Point.String(),
	}, nil
}

// WebhookPayload is the queue envelope around a selection waiting for delivery.
type WebhookPayload struct {
	ID        string           `json:"id"`
	UserID    int64            `json:"user_id"`
	ChatID    int64            `json:"chat_id,omitempty"`
	Payload   SelectionPayload `json:"payload"`
	Attempts  int              `json:"attempts"`
	CreatedAt time.Time        `json:"created_at"`
}
