package repository

import (
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom/encoding/wkb"
	"gorm.io/gorm"

	"pipeline_tracker/internal/models"
	"pipeline_tracker/internal/route"
	"pipeline_tracker/internal/stringing"
)

var spur = []route.Waypoint{
	{Name: "Clover Bar Tie-in", Latitude: 53.5870, Longitude: -113.3420, Chainage: 0},
	{Name: "Fort Saskatchewan", Latitude: 53.7128, Longitude: -113.2133, Chainage: 16359},
	{Name: "Bruderheim Valve", Latitude: 53.8050, Longitude: -112.9300, Chainage: 37618},
}

func TestProjectorForWaypointRows(t *testing.T) {
	rows := waypointRows(3, spur)
	// rows may come back in any order
	rows[0], rows[2] = rows[2], rows[0]

	p, err := ProjectorFor(models.Route{Waypoints: rows})
	require.NoError(t, err)
	assert.Equal(t, spur, p.Waypoints())
	for _, row := range rows {
		assert.Equal(t, uint(3), row.RouteID)
	}
}

func TestProjectorForGeometry(t *testing.T) {
	p, err := route.NewProjector(spur)
	require.NoError(t, err)
	geometry, err := wkb.Marshal(p.Geometry(), binary.LittleEndian)
	require.NoError(t, err)

	got, err := ProjectorFor(models.Route{Geometry: geometry, Waypoints: waypointRows(1, spur)})
	require.NoError(t, err)
	assert.Equal(t, spur, got.Waypoints())

	_, err = ProjectorFor(models.Route{Geometry: []byte{1, 2, 3}})
	assert.Error(t, err)
}

func TestProjectorForEmptyRoute(t *testing.T) {
	_, err := ProjectorFor(models.Route{})
	assert.ErrorIs(t, err, route.ErrInvalidRoute)
}

func TestJointModelRoundTrip(t *testing.T) {
	for _, j := range []stringing.Joint{
		{ID: "p", JointNumber: "J-1", HeatNumber: "H1", StationKP: "5+250", PipeSize: `24"`, WallThicknessMm: 9.5,
			CoatingType: "FBE", LengthMetres: 12.19, Status: stringing.StatusConsumed, LocationType: stringing.LocationDitch},
		{ID: "b", JointNumber: "J-1-B", HeatNumber: "H1", LengthMetres: 4.19, Status: stringing.StatusInventory,
			LocationType: stringing.LocationPupBank, ParentJointID: "p", IsPup: true, PupDesignation: "B"},
	} {
		m := jointToModel("report-1", 4, j)
		assert.Equal(t, "report-1", m.ReportID)
		assert.Equal(t, 4, m.Seq)
		assert.Equal(t, j.ParentJointID == "", m.ParentJointID == nil)
		assert.Equal(t, j, jointFromModel(m))
	}
}

func TestReferenceModelRoundTrip(t *testing.T) {
	s := stringing.DesignSpecSegment{StationStartMetres: 5000, StationEndMetres: 5400, MinWallThicknessMm: 12.7, Grade: "X70", Reason: "highway crossing"}
	assert.Equal(t, s, specFromModel(specToModel(s)))

	p := stringing.PupConfig{MinDiameterInches: 16, MaxDiameterInches: 30, MinUsableLengthMetres: 1.5}
	assert.Equal(t, p, pupFromModel(pupToModel(p)))
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translate(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})), ErrDuplicate)

	other := errors.New("boom")
	assert.Equal(t, other, translate(other))
	assert.NotErrorIs(t, translate(&pq.Error{Code: "23503"}), ErrDuplicate)
}
