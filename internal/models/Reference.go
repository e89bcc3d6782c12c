package models

import "gorm.io/gorm"

// DesignSpecSegment is a row of the wall-thickness design table.
type DesignSpecSegment struct {
	gorm.Model
	StationStartMetres float64 `json:"station_start_metres"`
	StationEndMetres   float64 `json:"station_end_metres"`
	MinWallThicknessMm float64 `json:"min_wall_thickness_mm"`
	Grade              string  `json:"grade"`
	Reason             string  `json:"reason"`
}

// PupConfig is a row of the minimum pup length table.
type PupConfig struct {
	gorm.Model
	MinDiameterInches     float64 `json:"min_diameter_inches"`
	MaxDiameterInches     float64 `json:"max_diameter_inches"`
	MinUsableLengthMetres float64 `json:"min_usable_length_metres"`
}
