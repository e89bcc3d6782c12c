package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pipeline_tracker/internal/chainage"
	"pipeline_tracker/internal/repository"
	"pipeline_tracker/internal/stringing"
)

// JointStore persists each report's stringing ledger and the shared
// reference tables it is validated against.
type JointStore interface {
	ListJoints(ctx context.Context, reportID string) ([]stringing.Joint, error)
	SaveJoints(ctx context.Context, reportID string, joints []stringing.Joint) error
	DeleteJoint(ctx context.Context, reportID, jointID string) error
	DesignSpec(ctx context.Context) ([]stringing.DesignSpecSegment, error)
	PupConfig(ctx context.Context) ([]stringing.PupConfig, error)
	ReplaceDesignSpec(ctx context.Context, segments []stringing.DesignSpecSegment) error
	ReplacePupConfig(ctx context.Context, pups []stringing.PupConfig) error
}

// StringingController serves the stringing log. Each request loads the
// report's ledger, applies one operation and saves it while holding the
// report's lock, so the duplicate check and cuts see a consistent ledger.
type StringingController struct {
	store JointStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStringingController(store JointStore) *StringingController {
	return &StringingController{store: store, locks: make(map[string]*sync.Mutex)}
}

func (sc *StringingController) lockReport(reportID string) func() {
	sc.mu.Lock()
	l, ok := sc.locks[reportID]
	if !ok {
		l = &sync.Mutex{}
		sc.locks[reportID] = l
	}
	sc.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (sc *StringingController) load(ctx context.Context, reportID string) (*stringing.Inventory, error) {
	joints, err := sc.store.ListJoints(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("load joints: %w", err)
	}
	specs, err := sc.store.DesignSpec(ctx)
	if err != nil {
		return nil, fmt.Errorf("load design spec: %w", err)
	}
	pups, err := sc.store.PupConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load pup config: %w", err)
	}
	return stringing.Restore(joints, specs, pups), nil
}

// loadOrFail writes a 500 when the ledger cannot be loaded.
func (sc *StringingController) loadOrFail(c *gin.Context, reportID string) (*stringing.Inventory, bool) {
	inv, err := sc.load(c.Request.Context(), reportID)
	if err != nil {
		logrus.WithError(err).WithField("report_id", reportID).Error("Failed to load stringing ledger")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stringing log"})
		return nil, false
	}
	return inv, true
}

func (sc *StringingController) saveOrFail(c *gin.Context, reportID string, inv *stringing.Inventory) bool {
	if err := sc.store.SaveJoints(c.Request.Context(), reportID, inv.Joints()); err != nil {
		logrus.WithError(err).WithField("report_id", reportID).Error("Failed to save stringing ledger")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save stringing log"})
		return false
	}
	return true
}

// jointStatusCode maps ledger errors onto HTTP statuses.
func jointStatusCode(err error) int {
	switch {
	case errors.Is(err, stringing.ErrJointNotFound):
		return http.StatusNotFound
	case errors.Is(err, stringing.ErrInvalidCutTarget), errors.Is(err, stringing.ErrJointNotRemovable):
		return http.StatusConflict
	case errors.Is(err, stringing.ErrInvalidCutLength),
		errors.Is(err, stringing.ErrInvalidDisposition),
		errors.Is(err, stringing.ErrTraceabilityNotConfirmed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// ListJoints returns the report's ledger in log order.
func (sc *StringingController) ListJoints(c *gin.Context) {
	reportID := c.Param("reportId")
	inv, ok := sc.loadOrFail(c, reportID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"joints": inv.Joints()})
}

// AddJoint logs a strung joint and returns it with any advisory findings.
func (sc *StringingController) AddJoint(c *gin.Context) {
	reportID := c.Param("reportId")

	var input stringing.JointInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid joint: " + err.Error()})
		return
	}
	if input.LengthMetres < 0 || input.WallThicknessMm < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "length and wall thickness cannot be negative"})
		return
	}

	unlock := sc.lockReport(reportID)
	defer unlock()

	inv, ok := sc.loadOrFail(c, reportID)
	if !ok {
		return
	}
	joint := inv.AddJoint(input)
	findings := inv.ValidateJoint(joint)
	if !sc.saveOrFail(c, reportID, inv) {
		return
	}

	logrus.WithFields(logrus.Fields{
		"report_id":    reportID,
		"joint_id":     joint.ID,
		"joint_number": joint.JointNumber,
		"station":      joint.StationKP,
		"findings":     len(findings),
	}).Info("Joint strung")
	c.JSON(http.StatusCreated, gin.H{"joint": joint, "findings": nonNil(findings)})
}

// RemoveJoint deletes a joint logged in error.
func (sc *StringingController) RemoveJoint(c *gin.Context) {
	reportID, jointID := c.Param("reportId"), c.Param("jointId")

	unlock := sc.lockReport(reportID)
	defer unlock()

	inv, ok := sc.loadOrFail(c, reportID)
	if !ok {
		return
	}
	if err := inv.RemoveJoint(jointID); err != nil {
		c.JSON(jointStatusCode(err), gin.H{"error": err.Error()})
		return
	}
	if err := sc.store.DeleteJoint(c.Request.Context(), reportID, jointID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		logrus.WithError(err).WithFields(logrus.Fields{"report_id": reportID, "joint_id": jointID}).Error("RemoveJoint: delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove joint"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Joint removed"})
}

// JointFindings re-validates a stored joint against the current ledger.
func (sc *StringingController) JointFindings(c *gin.Context) {
	reportID, jointID := c.Param("reportId"), c.Param("jointId")
	inv, ok := sc.loadOrFail(c, reportID)
	if !ok {
		return
	}
	findings, err := inv.Validate(jointID)
	if err != nil {
		c.JSON(jointStatusCode(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"findings": nonNil(findings)})
}

// CutJoint splits a strung joint into pieces A and B.
func (sc *StringingController) CutJoint(c *gin.Context) {
	reportID, jointID := c.Param("reportId"), c.Param("jointId")

	var input struct {
		CutLengthMetres       *float64 `json:"cut_length_metres" binding:"required"`
		PieceADisposition     string   `json:"piece_a_disposition"`
		TraceabilityConfirmed bool     `json:"traceability_confirmed"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cut: " + err.Error()})
		return
	}
	disposition, ok := stringing.ParseLocationType(input.PieceADisposition)
	if !ok {
		disposition = stringing.LocationType(input.PieceADisposition)
	}

	unlock := sc.lockReport(reportID)
	defer unlock()

	inv, ok := sc.loadOrFail(c, reportID)
	if !ok {
		return
	}
	res, err := inv.CutJoint(stringing.CutRequest{
		JointID:               jointID,
		CutLengthMetres:       *input.CutLengthMetres,
		PieceADisposition:     disposition,
		TraceabilityConfirmed: input.TraceabilityConfirmed,
	})
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"report_id": reportID, "joint_id": jointID}).Warn("CutJoint: rejected")
		c.JSON(jointStatusCode(err), gin.H{"error": err.Error()})
		return
	}
	if !sc.saveOrFail(c, reportID, inv) {
		return
	}

	resp := gin.H{"cut": res}
	if res.ScrapWarning {
		resp["warning"] = fmt.Sprintf("Remainder %s is %.2f m, below the %.2f m minimum for %s; marked as scrap.",
			res.PieceB.JointNumber, res.PieceB.LengthMetres, res.MinUsableLengthMetres, res.Parent.PipeSize)
	}
	logrus.WithFields(logrus.Fields{
		"report_id":    reportID,
		"joint_number": res.Parent.JointNumber,
		"heat_number":  res.Parent.HeatNumber,
		"piece_a":      fmt.Sprintf("%.3f", res.PieceA.LengthMetres),
		"piece_b":      fmt.Sprintf("%.3f", res.PieceB.LengthMetres),
		"scrap":        res.ScrapWarning,
	}).Info("Joint cut")
	c.JSON(http.StatusOK, resp)
}

// Summary returns the ledger rollup for the daily report.
func (sc *StringingController) Summary(c *gin.Context) {
	reportID := c.Param("reportId")
	inv, ok := sc.loadOrFail(c, reportID)
	if !ok {
		return
	}
	totals := inv.Totals()
	stations := ""
	if totals.PlacedStationsCount > 0 {
		stations = chainage.FormatRange(totals.FirstStationMetres, totals.LastStationMetres)
	}
	c.JSON(http.StatusOK, gin.H{"report_id": reportID, "totals": totals, "station_range": stations})
}

// GetDesignSpec returns the wall-thickness design table.
func (sc *StringingController) GetDesignSpec(c *gin.Context) {
	segments, err := sc.store.DesignSpec(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("GetDesignSpec: database error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load design spec"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"segments": nonNil(segments)})
}

// PutDesignSpec replaces the wall-thickness design table.
func (sc *StringingController) PutDesignSpec(c *gin.Context) {
	var input struct {
		Segments []stringing.DesignSpecSegment `json:"segments"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for i, s := range input.Segments {
		if s.StationStartMetres < 0 || s.StationEndMetres < s.StationStartMetres || s.MinWallThicknessMm <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("segment %d: need 0 <= start <= end and a positive wall thickness", i)})
			return
		}
	}
	if err := sc.store.ReplaceDesignSpec(c.Request.Context(), input.Segments); err != nil {
		logrus.WithError(err).Error("PutDesignSpec: database error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save design spec"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"segments": nonNil(input.Segments)})
}

// GetPupConfig returns the minimum pup length table.
func (sc *StringingController) GetPupConfig(c *gin.Context) {
	pups, err := sc.store.PupConfig(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("GetPupConfig: database error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load pup config"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pups": nonNil(pups), "default_min_usable_length_metres": stringing.DefaultMinUsableLengthMetres})
}

// PutPupConfig replaces the minimum pup length table.
func (sc *StringingController) PutPupConfig(c *gin.Context) {
	var input struct {
		Pups []stringing.PupConfig `json:"pups"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for i, p := range input.Pups {
		if p.MinDiameterInches <= 0 || p.MaxDiameterInches < p.MinDiameterInches || p.MinUsableLengthMetres <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("pup %d: need 0 < min <= max diameter and a positive length", i)})
			return
		}
	}
	if err := sc.store.ReplacePupConfig(c.Request.Context(), input.Pups); err != nil {
		logrus.WithError(err).Error("PutPupConfig: database error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save pup config"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pups": nonNil(input.Pups)})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
