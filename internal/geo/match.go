package geo

import "area-picker/internal/model"

// Match returns the first area, in table order, whose circle contains point.
// The boundary is inclusive. Overlapping areas are resolved by table order only.
func Match(point model.Coordinate, areas []model.ServiceArea) model.MatchResult {
	for i := range areas {
		d := Distance(point, areas[i].Center)
		if d <= areas[i].RadiusMeters {
			area := areas[i]
			return model.MatchResult{Point: point, Area: &area, Distance: d}
		}
	}
	return model.MatchResult{Point: point}
}
