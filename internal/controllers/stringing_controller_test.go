package controllers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipeline_tracker/internal/stringing"
)

func stringingRouter(store JointStore) *gin.Engine {
	sc := NewStringingController(store)
	r := gin.New()
	report := r.Group("/reports/:reportId")
	report.GET("/joints", sc.ListJoints)
	report.POST("/joints", sc.AddJoint)
	report.DELETE("/joints/:jointId", sc.RemoveJoint)
	report.GET("/joints/:jointId/findings", sc.JointFindings)
	report.POST("/joints/:jointId/cut", sc.CutJoint)
	report.GET("/summary", sc.Summary)
	r.GET("/reference/design-spec", sc.GetDesignSpec)
	r.PUT("/reference/design-spec", sc.PutDesignSpec)
	r.GET("/reference/pup-config", sc.GetPupConfig)
	r.PUT("/reference/pup-config", sc.PutPupConfig)
	return r
}

type addJointResponse struct {
	Joint    stringing.Joint     `json:"joint"`
	Findings []stringing.Finding `json:"findings"`
}

func addJoint(t *testing.T, r *gin.Engine, report string, in stringing.JointInput) addJointResponse {
	t.Helper()
	rec := perform(t, r, http.MethodPost, "/reports/"+report+"/joints", in)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body addJointResponse
	decode(t, rec, &body)
	return body
}

var j100 = stringing.JointInput{
	JointNumber:     "J-100",
	HeatNumber:      "HT-88213",
	StationKP:       "5+250",
	PipeSize:        `24"`,
	WallThicknessMm: 9.5,
	CoatingType:     "FBE",
	LengthMetres:    12.19,
}

func TestAddJointReturnsFindings(t *testing.T) {
	store := newMemJointStore()
	store.specs = []stringing.DesignSpecSegment{
		{StationStartMetres: 5000, StationEndMetres: 5400, MinWallThicknessMm: 12.7, Grade: "X70", Reason: "highway crossing"},
	}
	r := stringingRouter(store)

	first := addJoint(t, r, "r1", stringing.JointInput{JointNumber: "J-1", StationKP: "1+000", WallThicknessMm: 9.5})
	assert.NotNil(t, first.Findings)
	assert.Empty(t, first.Findings)
	assert.Equal(t, stringing.StatusStrung, first.Joint.Status)

	second := addJoint(t, r, "r1", j100)
	require.Len(t, second.Findings, 1)
	assert.Equal(t, stringing.FindingWallThicknessMismatch, second.Findings[0].Kind)

	dup := addJoint(t, r, "r1", stringing.JointInput{JointNumber: "J-1"})
	require.Len(t, dup.Findings, 1)
	assert.Equal(t, stringing.FindingDuplicateJointNumber, dup.Findings[0].Kind)

	// reports are independent ledgers
	other := addJoint(t, r, "r2", stringing.JointInput{JointNumber: "J-1"})
	assert.Empty(t, other.Findings)

	assert.Len(t, store.reports["r1"], 3)
	assert.Len(t, store.reports["r2"], 1)

	rec := perform(t, r, http.MethodGet, "/reports/r1/joints/"+first.Joint.ID+"/findings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var findings struct {
		Findings []stringing.Finding `json:"findings"`
	}
	decode(t, rec, &findings)
	assert.Len(t, findings.Findings, 1)

	assert.Equal(t, http.StatusNotFound, perform(t, r, http.MethodGet, "/reports/r1/joints/nope/findings", nil).Code)
}

func TestAddJointRejectsBadPayload(t *testing.T) {
	r := stringingRouter(newMemJointStore())
	assert.Equal(t, http.StatusBadRequest, perform(t, r, http.MethodPost, "/reports/r1/joints", gin.H{"length_metres": "long"}).Code)
	assert.Equal(t, http.StatusBadRequest, perform(t, r, http.MethodPost, "/reports/r1/joints", gin.H{"length_metres": -3}).Code)
}

type cutResponse struct {
	Cut     stringing.CutResult `json:"cut"`
	Warning string              `json:"warning"`
}

func TestCutJointEndpoint(t *testing.T) {
	store := newMemJointStore()
	r := stringingRouter(store)
	j := addJoint(t, r, "r1", j100).Joint

	rec := perform(t, r, http.MethodPost, "/reports/r1/joints/"+j.ID+"/cut", gin.H{
		"cut_length_metres":      8.0,
		"piece_a_disposition":    "Ditch",
		"traceability_confirmed": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body cutResponse
	decode(t, rec, &body)
	assert.Equal(t, "J-100-A", body.Cut.PieceA.JointNumber)
	assert.Equal(t, stringing.StatusInventory, body.Cut.PieceB.Status)
	assert.Empty(t, body.Warning)

	saved := store.reports["r1"]
	require.Len(t, saved, 3)
	assert.Equal(t, stringing.StatusConsumed, saved[0].Status)

	// the parent is consumed now
	rec = perform(t, r, http.MethodPost, "/reports/r1/joints/"+j.ID+"/cut", gin.H{
		"cut_length_metres": 2.0, "piece_a_disposition": "Ditch", "traceability_confirmed": true,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCutJointScrapWarning(t *testing.T) {
	r := stringingRouter(newMemJointStore())
	j := addJoint(t, r, "r1", j100).Joint

	rec := perform(t, r, http.MethodPost, "/reports/r1/joints/"+j.ID+"/cut", gin.H{
		"cut_length_metres":      11.0,
		"piece_a_disposition":    "Pup Bank",
		"traceability_confirmed": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body cutResponse
	decode(t, rec, &body)
	assert.True(t, body.Cut.ScrapWarning)
	assert.Equal(t, stringing.StatusScrap, body.Cut.PieceB.Status)
	assert.Equal(t, stringing.LocationPupBank, body.Cut.PieceA.LocationType)
	assert.Contains(t, body.Warning, "J-100-B")
}

func TestCutJointErrors(t *testing.T) {
	store := newMemJointStore()
	r := stringingRouter(store)
	j := addJoint(t, r, "r1", j100).Joint
	path := "/reports/r1/joints/" + j.ID + "/cut"

	for name, tc := range map[string]struct {
		path string
		body gin.H
		code int
	}{
		"unconfirmed":    {path, gin.H{"cut_length_metres": 6.0, "piece_a_disposition": "Ditch"}, http.StatusUnprocessableEntity},
		"too long":       {path, gin.H{"cut_length_metres": 12.19, "piece_a_disposition": "Ditch", "traceability_confirmed": true}, http.StatusUnprocessableEntity},
		"scrap":          {path, gin.H{"cut_length_metres": 6.0, "piece_a_disposition": "Scrap", "traceability_confirmed": true}, http.StatusUnprocessableEntity},
		"unknown place":  {path, gin.H{"cut_length_metres": 6.0, "piece_a_disposition": "Truck", "traceability_confirmed": true}, http.StatusUnprocessableEntity},
		"missing length": {path, gin.H{"piece_a_disposition": "Ditch", "traceability_confirmed": true}, http.StatusBadRequest},
		"missing joint":  {"/reports/r1/joints/nope/cut", gin.H{"cut_length_metres": 6.0, "piece_a_disposition": "Ditch", "traceability_confirmed": true}, http.StatusNotFound},
	} {
		rec := perform(t, r, http.MethodPost, tc.path, tc.body)
		assert.Equal(t, tc.code, rec.Code, name)
	}

	require.Len(t, store.reports["r1"], 1)
	assert.Equal(t, stringing.StatusStrung, store.reports["r1"][0].Status)
}

func TestRemoveJointEndpoint(t *testing.T) {
	store := newMemJointStore()
	r := stringingRouter(store)
	a := addJoint(t, r, "r1", stringing.JointInput{JointNumber: "J-1", LengthMetres: 12}).Joint
	b := addJoint(t, r, "r1", stringing.JointInput{JointNumber: "J-2", LengthMetres: 12}).Joint

	assert.Equal(t, http.StatusOK, perform(t, r, http.MethodDelete, "/reports/r1/joints/"+a.ID, nil).Code)
	assert.Len(t, store.reports["r1"], 1)
	assert.Equal(t, http.StatusNotFound, perform(t, r, http.MethodDelete, "/reports/r1/joints/"+a.ID, nil).Code)

	rec := perform(t, r, http.MethodPost, "/reports/r1/joints/"+b.ID+"/cut", gin.H{
		"cut_length_metres": 6.0, "piece_a_disposition": "Ditch", "traceability_confirmed": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusConflict, perform(t, r, http.MethodDelete, "/reports/r1/joints/"+b.ID, nil).Code)
}

func TestSummaryEndpoint(t *testing.T) {
	r := stringingRouter(newMemJointStore())
	addJoint(t, r, "r1", stringing.JointInput{JointNumber: "J-1", StationKP: "5+238", LengthMetres: 12})
	addJoint(t, r, "r1", stringing.JointInput{JointNumber: "J-2", StationKP: "5+262", LengthMetres: 12})

	rec := perform(t, r, http.MethodGet, "/reports/r1/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Totals       stringing.Totals `json:"totals"`
		StationRange string           `json:"station_range"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 2, body.Totals.StrungCount)
	assert.Equal(t, "5+238 - 5+262", body.StationRange)

	rec = perform(t, r, http.MethodGet, "/reports/empty/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body.StationRange = "x"
	decode(t, rec, &body)
	assert.Empty(t, body.StationRange)
}

func TestReferenceTables(t *testing.T) {
	store := newMemJointStore()
	r := stringingRouter(store)

	rec := perform(t, r, http.MethodGet, "/reference/design-spec", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"segments":[]}`, rec.Body.String())

	seg := stringing.DesignSpecSegment{StationStartMetres: 0, StationEndMetres: 1000, MinWallThicknessMm: 9.5, Grade: "X70", Reason: "class 1"}
	rec = perform(t, r, http.MethodPut, "/reference/design-spec", gin.H{"segments": []stringing.DesignSpecSegment{seg}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []stringing.DesignSpecSegment{seg}, store.specs)

	bad := seg
	bad.StationEndMetres = -1
	rec = perform(t, r, http.MethodPut, "/reference/design-spec", gin.H{"segments": []stringing.DesignSpecSegment{bad}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	pup := stringing.PupConfig{MinDiameterInches: 16, MaxDiameterInches: 30, MinUsableLengthMetres: 1.5}
	rec = perform(t, r, http.MethodPut, "/reference/pup-config", gin.H{"pups": []stringing.PupConfig{pup}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = perform(t, r, http.MethodGet, "/reference/pup-config", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Pups    []stringing.PupConfig `json:"pups"`
		Default float64               `json:"default_min_usable_length_metres"`
	}
	decode(t, rec, &body)
	assert.Equal(t, []stringing.PupConfig{pup}, body.Pups)
	assert.Equal(t, stringing.DefaultMinUsableLengthMetres, body.Default)

	rec = perform(t, r, http.MethodPut, "/reference/pup-config", gin.H{"pups": []gin.H{{"min_diameter_inches": 30, "max_diameter_inches": 16, "min_usable_length_metres": 1}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
