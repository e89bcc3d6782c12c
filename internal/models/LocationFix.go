package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LocationFix is a GPS fix received on the live feed, stored with the
// projection it produced.
type LocationFix struct {
	gorm.Model
	RouteID        uint           `json:"route_id" gorm:"index"`
	DeviceID       string         `json:"device_id" gorm:"index"`
	Latitude       float64        `json:"latitude"`
	Longitude      float64        `json:"longitude"`
	Accuracy       float64        `json:"accuracy"` // GPS accuracy in meters
	Chainage       float64        `json:"chainage"`
	OffRouteMetres float64        `json:"off_route_metres"`
	Confidence     string         `json:"confidence"` // "onRoute", "nearRoute", "offRoute"
	Projection     datatypes.JSON `json:"projection" gorm:"type:jsonb"`
	EventType      string         `json:"event_type"` // "initial", "move", "periodic"
	Timestamp      time.Time      `json:"timestamp"`
}
