package repository

import (
	"fmt"
	"sort"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"

	"pipeline_tracker/internal/models"
	"pipeline_tracker/internal/route"
	"pipeline_tracker/internal/stringing"
)

// ProjectorFor builds a projector from a stored route. The WKB centreline is
// used when present; otherwise the waypoint rows are.
func ProjectorFor(r models.Route) (*route.Projector, error) {
	wps := make([]models.Waypoint, len(r.Waypoints))
	copy(wps, r.Waypoints)
	sort.SliceStable(wps, func(i, j int) bool { return wps[i].Seq < wps[j].Seq })

	names := make([]string, len(wps))
	for i, w := range wps {
		names[i] = w.Name
	}

	if len(r.Geometry) > 0 {
		g, err := wkb.Unmarshal(r.Geometry)
		if err != nil {
			return nil, fmt.Errorf("route %d geometry: %w", r.ID, err)
		}
		line, ok := g.(*geom.LineString)
		if !ok {
			return nil, fmt.Errorf("route %d geometry: %w: got %T", r.ID, route.ErrInvalidRoute, g)
		}
		return route.NewProjectorFromLineString(line, names)
	}

	waypoints := make([]route.Waypoint, len(wps))
	for i, w := range wps {
		waypoints[i] = route.Waypoint{Name: w.Name, Latitude: w.Lat, Longitude: w.Lng, Chainage: w.Chainage}
	}
	return route.NewProjector(waypoints)
}

func waypointRows(routeID uint, waypoints []route.Waypoint) []models.Waypoint {
	rows := make([]models.Waypoint, len(waypoints))
	for i, w := range waypoints {
		rows[i] = models.Waypoint{
			Name:     w.Name,
			Seq:      i,
			Lat:      w.Latitude,
			Lng:      w.Longitude,
			Chainage: w.Chainage,
			RouteID:  routeID,
		}
	}
	return rows
}

func jointToModel(reportID string, seq int, j stringing.Joint) models.PipeJoint {
	m := models.PipeJoint{
		ID:              j.ID,
		ReportID:        reportID,
		Seq:             seq,
		JointNumber:     j.JointNumber,
		HeatNumber:      j.HeatNumber,
		StationKP:       j.StationKP,
		PipeSize:        j.PipeSize,
		WallThicknessMm: j.WallThicknessMm,
		CoatingType:     j.CoatingType,
		LengthMetres:    j.LengthMetres,
		Status:          string(j.Status),
		LocationType:    string(j.LocationType),
		IsPup:           j.IsPup,
		PupDesignation:  j.PupDesignation,
	}
	if j.ParentJointID != "" {
		parent := j.ParentJointID
		m.ParentJointID = &parent
	}
	return m
}

func jointFromModel(m models.PipeJoint) stringing.Joint {
	j := stringing.Joint{
		ID:              m.ID,
		JointNumber:     m.JointNumber,
		HeatNumber:      m.HeatNumber,
		StationKP:       m.StationKP,
		PipeSize:        m.PipeSize,
		WallThicknessMm: m.WallThicknessMm,
		CoatingType:     m.CoatingType,
		LengthMetres:    m.LengthMetres,
		Status:          stringing.JointStatus(m.Status),
		LocationType:    stringing.LocationType(m.LocationType),
		IsPup:           m.IsPup,
		PupDesignation:  m.PupDesignation,
	}
	if m.ParentJointID != nil {
		j.ParentJointID = *m.ParentJointID
	}
	return j
}

func specToModel(s stringing.DesignSpecSegment) models.DesignSpecSegment {
	return models.DesignSpecSegment{
		StationStartMetres: s.StationStartMetres,
		StationEndMetres:   s.StationEndMetres,
		MinWallThicknessMm: s.MinWallThicknessMm,
		Grade:              s.Grade,
		Reason:             s.Reason,
	}
}

func specFromModel(m models.DesignSpecSegment) stringing.DesignSpecSegment {
	return stringing.DesignSpecSegment{
		StationStartMetres: m.StationStartMetres,
		StationEndMetres:   m.StationEndMetres,
		MinWallThicknessMm: m.MinWallThicknessMm,
		Grade:              m.Grade,
		Reason:             m.Reason,
	}
}

func pupToModel(p stringing.PupConfig) models.PupConfig {
	return models.PupConfig{
		MinDiameterInches:     p.MinDiameterInches,
		MaxDiameterInches:     p.MaxDiameterInches,
		MinUsableLengthMetres: p.MinUsableLengthMetres,
	}
}

func pupFromModel(m models.PupConfig) stringing.PupConfig {
	return stringing.PupConfig{
		MinDiameterInches:     m.MinDiameterInches,
		MaxDiameterInches:     m.MaxDiameterInches,
		MinUsableLengthMetres: m.MinUsableLengthMetres,
	}
}
