package areas

import (
	"area-picker/internal/model"
	"errors"
	"fmt"
)

// Order matters: the first area containing a point wins, so smaller areas go first.
var table = []model.ServiceArea{
	{
		ID:           "merkez",
		Name:         "Konya Merkez",
		Center:       model.Coordinate{Latitude: 37.8746, Longitude: 32.4932},
		RadiusMeters: 2000,
		Color:        "#e74c3c",
	},
	{
		ID:           "selcuklu",
		Name:         "Selçuklu",
		Center:       model.Coordinate{Latitude: 37.9250, Longitude: 32.4950},
		RadiusMeters: 5000,
		Color:        "#3498db",
	},
	{
		ID:           "meram",
		Name:         "Meram",
		Center:       model.Coordinate{Latitude: 37.8400, Longitude: 32.4300},
		RadiusMeters: 5000,
		Color:        "#2ecc71",
	},
	{
		ID:           "karatay",
		Name:         "Karatay",
		Center:       model.Coordinate{Latitude: 37.8750, Longitude: 32.5450},
		RadiusMeters: 4500,
		Color:        "#f39c12",
	},
}

// Table returns a copy of the built-in service area table.
func Table() []model.ServiceArea {
	out := make([]model.ServiceArea, len(table))
	copy(out, table)
	return out
}

var (
	ErrEmptyID         = errors.New("area id is empty")
	ErrDuplicateID     = errors.New("duplicate area id")
	ErrInvalidRadius   = errors.New("area radius must be positive")
	ErrInvalidLocation = errors.New("area center is out of range")
)

func Validate(list []model.ServiceArea) error {
	seen := make(map[string]struct{}, len(list))
	for i, a := range list {
		if a.ID == "" {
			return fmt.Errorf("area #%d: %w", i, ErrEmptyID)
		}
		if _, ok := seen[a.ID]; ok {
			return fmt.Errorf("area %q: %w", a.ID, ErrDuplicateID)
		}
		seen[a.ID] = struct{}{}

		if !(a.RadiusMeters > 0) {
			return fmt.Errorf("area %q: %w", a.ID, ErrInvalidRadius)
		}
		if !a.Center.Valid() {
			return fmt.Errorf("area %q: %w", a.ID, ErrInvalidLocation)
		}
	}
	return nil
}

func Lookup(list []model.ServiceArea, id string) (model.ServiceArea, bool) {
	for _, a := range list {
		if a.ID == id {
			return a, true
		}
	}
	return model.ServiceArea{}, false
}
