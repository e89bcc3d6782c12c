// Package route projects GPS fixes onto a pipeline centreline and reports the
// position as chainage (metres from KP 0).
package route

import (
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
)

var (
	// ErrInvalidRoute is returned when a waypoint list cannot describe a route.
	ErrInvalidRoute = errors.New("invalid route")
	// ErrInvalidInput is returned for NaN or infinite coordinates.
	ErrInvalidInput = errors.New("invalid coordinate")
)

// Confidence bands, in metres off the centreline.
const (
	OnRouteMaxMetres   = 30.0
	NearRouteMaxMetres = 500.0
)

// ConfidenceBand classifies how far a fix sits from the right-of-way.
type ConfidenceBand string

const (
	OnRoute   ConfidenceBand = "onRoute"
	NearRoute ConfidenceBand = "nearRoute"
	OffRoute  ConfidenceBand = "offRoute"
)

// Classify returns the band for an off-route distance.
func Classify(offRouteMetres float64) ConfidenceBand {
	switch {
	case offRouteMetres <= OnRouteMaxMetres:
		return OnRoute
	case offRouteMetres <= NearRouteMaxMetres:
		return NearRoute
	default:
		return OffRoute
	}
}

// Waypoint is a named point on the centreline with its chainage.
type Waypoint struct {
	Name      string  `json:"name" yaml:"name"`
	Latitude  float64 `json:"lat" yaml:"lat"`
	Longitude float64 `json:"lon" yaml:"lon"`
	Chainage  float64 `json:"kp" yaml:"kp"` // metres from KP 0
}

// Segment identifies the two waypoints bounding a projection.
type Segment struct {
	Index int      `json:"index"` // index of Start in the waypoint list
	Start Waypoint `json:"start"`
	End   Waypoint `json:"end"`
}

// ProjectionResult is computed per fix and never cached.
type ProjectionResult struct {
	ChainageMetres         float64        `json:"chainage_metres"`
	OffRouteDistanceMetres float64        `json:"off_route_metres"`
	Segment                Segment        `json:"segment"`
	Confidence             ConfidenceBand `json:"confidence"`
	T                      float64        `json:"t"` // clamped position along Segment, 0..1
}

// Projector holds an immutable route. It is safe for concurrent use.
type Projector struct {
	line  *geom.LineString // XYM: x=lon, y=lat, m=chainage
	names []string
}

// NewProjector validates waypoints and builds a projector.
func NewProjector(waypoints []Waypoint) (*Projector, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 waypoints, got %d", ErrInvalidRoute, len(waypoints))
	}

	coords := make([]geom.Coord, len(waypoints))
	names := make([]string, len(waypoints))
	for i, w := range waypoints {
		if err := checkWaypoint(w); err != nil {
			return nil, fmt.Errorf("%w: waypoint %d (%s): %v", ErrInvalidRoute, i, w.Name, err)
		}
		if i > 0 && w.Chainage < waypoints[i-1].Chainage {
			return nil, fmt.Errorf("%w: chainage decreases at waypoint %d (%s): %.3f < %.3f",
				ErrInvalidRoute, i, w.Name, w.Chainage, waypoints[i-1].Chainage)
		}
		coords[i] = geom.Coord{w.Longitude, w.Latitude, w.Chainage}
		names[i] = w.Name
	}

	line, err := geom.NewLineString(geom.XYM).SetCoords(coords)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoute, err)
	}
	return &Projector{line: line, names: names}, nil
}

// NewProjectorFromLineString builds a projector from stored XYM geometry.
// names may be nil.
func NewProjectorFromLineString(line *geom.LineString, names []string) (*Projector, error) {
	if line == nil || line.Layout() != geom.XYM {
		return nil, fmt.Errorf("%w: geometry must be an XYM LineString", ErrInvalidRoute)
	}
	waypoints := make([]Waypoint, line.NumCoords())
	for i := range waypoints {
		c := line.Coord(i)
		waypoints[i] = Waypoint{Longitude: c[0], Latitude: c[1], Chainage: c[2]}
		if i < len(names) {
			waypoints[i].Name = names[i]
		}
	}
	return NewProjector(waypoints)
}

func checkWaypoint(w Waypoint) error {
	for _, v := range []float64{w.Latitude, w.Longitude, w.Chainage} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("non-finite value")
		}
	}
	if w.Latitude < -90 || w.Latitude > 90 || w.Longitude < -180 || w.Longitude > 180 {
		return errors.New("coordinate out of range")
	}
	if w.Chainage < 0 {
		return errors.New("negative chainage")
	}
	return nil
}

// Project finds the closest point on the route to (lat, lon).
//
// The closest point on each segment is found in the unprojected lon/lat
// plane and then measured with haversine. This is accurate at the scale of
// pipeline segments (kilometres) but not for continental-length segments.
func (p *Projector) Project(lat, lon float64) (ProjectionResult, error) {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return ProjectionResult{}, fmt.Errorf("%w: (%v, %v)", ErrInvalidInput, lat, lon)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ProjectionResult{}, fmt.Errorf("%w: (%v, %v) out of range", ErrInvalidInput, lat, lon)
	}

	best := ProjectionResult{OffRouteDistanceMetres: math.Inf(1)}
	bestIdx := 0
	for i := 0; i < p.line.NumCoords()-1; i++ {
		a, b := p.line.Coord(i), p.line.Coord(i+1)
		t := closestT(a, b, lon, lat)
		cx := a[0] + t*(b[0]-a[0])
		cy := a[1] + t*(b[1]-a[1])
		d := Haversine(lat, lon, cy, cx)
		// strict < keeps the first (lowest chainage) segment on ties
		if d < best.OffRouteDistanceMetres {
			best.OffRouteDistanceMetres = d
			best.ChainageMetres = a[2] + t*(b[2]-a[2])
			best.T = t
			bestIdx = i
		}
	}

	best.Segment = Segment{Index: bestIdx, Start: p.waypoint(bestIdx), End: p.waypoint(bestIdx + 1)}
	best.Confidence = Classify(best.OffRouteDistanceMetres)
	return best, nil
}

// closestT returns the clamped parameter of the point on a->b nearest (x, y).
func closestT(a, b geom.Coord, x, y float64) float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	len2 := dx*dx + dy*dy
	if len2 == 0 {
		return 0
	}
	t := ((x-a[0])*dx + (y-a[1])*dy) / len2
	return math.Max(0, math.Min(1, t))
}

func (p *Projector) waypoint(i int) Waypoint {
	c := p.line.Coord(i)
	return Waypoint{Name: p.names[i], Longitude: c[0], Latitude: c[1], Chainage: c[2]}
}

// Waypoints returns a copy of the route's waypoints in order.
func (p *Projector) Waypoints() []Waypoint {
	out := make([]Waypoint, p.line.NumCoords())
	for i := range out {
		out[i] = p.waypoint(i)
	}
	return out
}

// StartChainage is the chainage of the first waypoint.
func (p *Projector) StartChainage() float64 { return p.line.Coord(0)[2] }

// EndChainage is the chainage of the last waypoint.
func (p *Projector) EndChainage() float64 { return p.line.Coord(p.line.NumCoords() - 1)[2] }

// Geometry returns the XYM LineString backing the projector. Callers must not
// modify it.
func (p *Projector) Geometry() *geom.LineString { return p.line }

// LineString returns a 2D copy of the centreline, suitable for GeoJSON.
func (p *Projector) LineString() *geom.LineString {
	coords := make([]geom.Coord, p.line.NumCoords())
	for i := range coords {
		c := p.line.Coord(i)
		coords[i] = geom.Coord{c[0], c[1]}
	}
	return geom.NewLineString(geom.XY).MustSetCoords(coords)
}

// LengthMetres is the surveyed haversine length of the centreline, which can
// differ from EndChainage-StartChainage when the chainage was set from
// design drawings.
func (p *Projector) LengthMetres() float64 {
	var total float64
	for i := 0; i < p.line.NumCoords()-1; i++ {
		a, b := p.line.Coord(i), p.line.Coord(i+1)
		total += Haversine(a[1], a[0], b[1], b[0])
	}
	return total
}

// EarthRadiusMetres is the mean radius used by Haversine.
const EarthRadiusMetres = 6371000

// Haversine calculates the great-circle distance between two points in metres.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMetres * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
