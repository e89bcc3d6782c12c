package models

import (
	"gorm.io/gorm"
)

// Waypoint is a surveyed point on a route.
// Seq gives the order along the route; Chainage is metres from KP 0.
type Waypoint struct {
	gorm.Model

	Name     string  `json:"name"`
	Seq      int     `json:"seq" gorm:"index:idx_route_seq,priority:2"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Chainage float64 `json:"chainage"`

	RouteID uint `json:"route_id" gorm:"index:idx_route_seq,priority:1"`
}
