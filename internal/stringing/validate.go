package stringing

import (
	"fmt"
	"strings"

	"pipeline_tracker/internal/chainage"
)

// FindingKind names an advisory validation problem.
type FindingKind string

const (
	FindingDuplicateJointNumber  FindingKind = "duplicate_joint_number"
	FindingWallThicknessMismatch FindingKind = "wall_thickness_mismatch"
)

// Finding is surfaced to the inspector; it never blocks a save.
type Finding struct {
	Kind    FindingKind        `json:"kind"`
	JointID string             `json:"joint_id"`
	Message string             `json:"message"`
	Segment *DesignSpecSegment `json:"segment,omitempty"`
}

// ValidateJoint checks j against the rest of the ledger and the design spec.
// j need not be in the ledger yet.
func (inv *Inventory) ValidateJoint(j Joint) []Finding {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.validate(j)
}

// Validate checks a joint already in the ledger.
func (inv *Inventory) Validate(id string) ([]Finding, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	i, ok := inv.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJointNotFound, id)
	}
	return inv.validate(inv.joints[i]), nil
}

func (inv *Inventory) validate(j Joint) []Finding {
	var findings []Finding

	if number := strings.TrimSpace(j.JointNumber); number != "" {
		for _, other := range inv.joints {
			if other.ID != j.ID && other.Status == StatusStrung && strings.TrimSpace(other.JointNumber) == number {
				findings = append(findings, Finding{
					Kind:    FindingDuplicateJointNumber,
					JointID: j.ID,
					Message: fmt.Sprintf("joint number %s is already strung", number),
				})
				break
			}
		}
	}

	if kp, ok := stationOf(j); ok {
		for _, seg := range inv.specs {
			if !seg.Covers(kp) {
				continue
			}
			if j.WallThicknessMm < seg.MinWallThicknessMm {
				seg := seg
				findings = append(findings, Finding{
					Kind:    FindingWallThicknessMismatch,
					JointID: j.ID,
					Message: fmt.Sprintf("wall thickness %.2f mm is below the %.2f mm required at %s (%s, grade %s)",
						j.WallThicknessMm, seg.MinWallThicknessMm, chainage.Format(kp), seg.Reason, seg.Grade),
					Segment: &seg,
				})
			}
			break
		}
	}

	return findings
}

func stationOf(j Joint) (float64, bool) {
	if j.StationKP == "" {
		return 0, false
	}
	return chainage.Parse(j.StationKP)
}
