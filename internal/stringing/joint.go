// Package stringing keeps the ledger of pipe joints strung along the
// right-of-way and performs traceable cuts of joints into pup pieces.
package stringing

import "errors"

var (
	ErrJointNotFound            = errors.New("joint not found")
	ErrInvalidCutTarget         = errors.New("joint cannot be cut")
	ErrInvalidCutLength         = errors.New("invalid cut length")
	ErrInvalidDisposition       = errors.New("invalid piece disposition")
	ErrTraceabilityNotConfirmed = errors.New("heat number transfer not confirmed")
	ErrJointNotRemovable        = errors.New("joint cannot be removed")
)

// JointStatus is where a joint sits in its lifecycle.
type JointStatus string

const (
	StatusStrung    JointStatus = "Strung"    // in place, counted
	StatusConsumed  JointStatus = "Consumed"  // cut into two pieces
	StatusInventory JointStatus = "Inventory" // banked, reusable
	StatusScrap     JointStatus = "Scrap"     // below minimum usable length
)

// LocationType records where a piece physically went.
type LocationType string

const (
	LocationDitch     LocationType = "Ditch"
	LocationPupBank   LocationType = "Pup Bank"
	LocationInventory LocationType = "Inventory"
	LocationScrap     LocationType = "Scrap"
)

// ParseLocationType accepts the display names plus "PupBank".
func ParseLocationType(s string) (LocationType, bool) {
	switch s {
	case string(LocationDitch):
		return LocationDitch, true
	case string(LocationPupBank), "PupBank":
		return LocationPupBank, true
	case string(LocationInventory):
		return LocationInventory, true
	case string(LocationScrap):
		return LocationScrap, true
	}
	return "", false
}

// Joint is one physical length of pipe, original or cut.
type Joint struct {
	ID              string       `json:"id"`
	JointNumber     string       `json:"joint_number"`
	HeatNumber      string       `json:"heat_number"`
	StationKP       string       `json:"station_kp"` // empty for unplaced pieces
	PipeSize        string       `json:"pipe_size"`
	WallThicknessMm float64      `json:"wall_thickness_mm"`
	CoatingType     string       `json:"coating_type"`
	LengthMetres    float64      `json:"length_metres"`
	Status          JointStatus  `json:"status"`
	LocationType    LocationType `json:"location_type"`
	ParentJointID   string       `json:"parent_joint_id,omitempty"`
	IsPup           bool         `json:"is_pup"`
	PupDesignation  string       `json:"pup_designation,omitempty"` // "A" or "B"
}

// JointInput is what an inspector enters for a strung joint.
type JointInput struct {
	JointNumber     string  `json:"joint_number"`
	HeatNumber      string  `json:"heat_number"`
	StationKP       string  `json:"station_kp"`
	PipeSize        string  `json:"pipe_size"`
	WallThicknessMm float64 `json:"wall_thickness_mm"`
	CoatingType     string  `json:"coating_type"`
	LengthMetres    float64 `json:"length_metres"`
}

// DesignSpecSegment maps a station range to its minimum wall thickness.
type DesignSpecSegment struct {
	StationStartMetres float64 `json:"station_start_metres"`
	StationEndMetres   float64 `json:"station_end_metres"`
	MinWallThicknessMm float64 `json:"min_wall_thickness_mm"`
	Grade              string  `json:"grade"`
	Reason             string  `json:"reason"` // e.g. "road crossing", "class 3 location"
}

// Covers reports whether the chainage falls inside the segment, inclusive.
func (s DesignSpecSegment) Covers(chainage float64) bool {
	return s.StationStartMetres <= chainage && chainage <= s.StationEndMetres
}

// PupConfig sets the minimum usable pup length for a nominal diameter range.
type PupConfig struct {
	MinDiameterInches     float64 `json:"min_diameter_inches"`
	MaxDiameterInches     float64 `json:"max_diameter_inches"`
	MinUsableLengthMetres float64 `json:"min_usable_length_metres"`
}

// DefaultMinUsableLengthMetres applies when no PupConfig matches.
const DefaultMinUsableLengthMetres = 1.5
