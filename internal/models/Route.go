package models

import (
	"gorm.io/gorm"
)

// Route is a pipeline centreline (mainline or spur) that fixes are projected onto.
// A route has many waypoints ordered by Seq.
type Route struct {
	gorm.Model

	Name        string `json:"name" gorm:"uniqueIndex;not null" binding:"required"`
	Description string `json:"description"`

	// Centreline as WKB LINESTRING M (x=lon, y=lat, m=chainage).
	Geometry []byte `gorm:"type:bytea" json:"-"`

	Waypoints []Waypoint `gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"waypoints,omitempty"`
}
