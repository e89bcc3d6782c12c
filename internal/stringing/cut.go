package stringing

import (
	"fmt"
	"math"
)

// CutRequest asks for a joint to be cut into a piece of CutLengthMetres
// (piece A) and the remainder (piece B).
type CutRequest struct {
	JointID           string       `json:"joint_id"`
	CutLengthMetres   float64      `json:"cut_length_metres"`
	PieceADisposition LocationType `json:"piece_a_disposition"`
	// TraceabilityConfirmed is the crew's confirmation that the heat number
	// has been transferred onto the remainder piece.
	TraceabilityConfirmed bool `json:"traceability_confirmed"`
}

// CutResult holds the consumed parent and its two pieces.
type CutResult struct {
	Parent                Joint   `json:"parent"`
	PieceA                Joint   `json:"piece_a"`
	PieceB                Joint   `json:"piece_b"`
	MinUsableLengthMetres float64 `json:"min_usable_length_metres"`
	ScrapWarning          bool    `json:"scrap_warning"`
}

// CutJoint splits a strung joint. Nothing changes unless every check passes.
func (inv *Inventory) CutJoint(req CutRequest) (CutResult, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if !req.TraceabilityConfirmed {
		return CutResult{}, ErrTraceabilityNotConfirmed
	}
	i, ok := inv.index[req.JointID]
	if !ok {
		return CutResult{}, fmt.Errorf("%w: %s", ErrJointNotFound, req.JointID)
	}
	parent := inv.joints[i]
	switch {
	case parent.Status != StatusStrung:
		return CutResult{}, fmt.Errorf("%w: %s is %s", ErrInvalidCutTarget, parent.JointNumber, parent.Status)
	case parent.IsPup:
		// one level of cutting keeps the heat trail short
		return CutResult{}, fmt.Errorf("%w: %s is already a pup", ErrInvalidCutTarget, parent.JointNumber)
	}
	c := req.CutLengthMetres
	if math.IsNaN(c) || c <= 0 || c >= parent.LengthMetres {
		return CutResult{}, fmt.Errorf("%w: %.3f m must be between 0 and %.3f m",
			ErrInvalidCutLength, c, parent.LengthMetres)
	}
	switch req.PieceADisposition {
	case LocationDitch, LocationPupBank, LocationInventory:
	default:
		return CutResult{}, fmt.Errorf("%w: %q", ErrInvalidDisposition, req.PieceADisposition)
	}

	pieceLength, remainder := split(parent.LengthMetres, c)
	minUsable := minUsableLength(inv.pups, parent.PipeSize)

	pieceA := Joint{
		ID:              inv.newID(),
		JointNumber:     parent.JointNumber + "-A",
		HeatNumber:      parent.HeatNumber,
		StationKP:       parent.StationKP,
		PipeSize:        parent.PipeSize,
		WallThicknessMm: parent.WallThicknessMm,
		CoatingType:     parent.CoatingType,
		LengthMetres:    pieceLength,
		Status:          StatusStrung,
		LocationType:    req.PieceADisposition,
		ParentJointID:   parent.ID,
		IsPup:           true,
		PupDesignation:  "A",
	}
	pieceB := Joint{
		ID:              inv.newID(),
		JointNumber:     parent.JointNumber + "-B",
		HeatNumber:      parent.HeatNumber,
		PipeSize:        parent.PipeSize,
		WallThicknessMm: parent.WallThicknessMm,
		CoatingType:     parent.CoatingType,
		LengthMetres:    remainder,
		Status:          StatusInventory,
		LocationType:    LocationPupBank,
		ParentJointID:   parent.ID,
		IsPup:           true,
		PupDesignation:  "B",
	}
	scrap := remainder < minUsable
	if scrap {
		pieceB.Status = StatusScrap
		pieceB.LocationType = LocationScrap
	}

	inv.joints[i].Status = StatusConsumed
	inv.append(pieceA)
	inv.append(pieceB)

	return CutResult{
		Parent:                inv.joints[i],
		PieceA:                pieceA,
		PieceB:                pieceB,
		MinUsableLengthMetres: minUsable,
		ScrapWarning:          scrap,
	}, nil
}

// split divides total into a piece of about part and a remainder whose sum is
// exactly total. The remainder is nudged by an ulp at a time first; when the
// sum can only round past total, the cut piece takes the one-ulp correction
// instead, which total-(total-part) makes exact.
func split(total, part float64) (piece, remainder float64) {
	remainder = total - part
	for i := 0; i < 4; i++ {
		if part+remainder == total {
			return part, remainder
		}
		if part+remainder < total {
			remainder = math.Nextafter(remainder, math.Inf(1))
		} else {
			remainder = math.Nextafter(remainder, math.Inf(-1))
		}
	}
	if part+remainder == total {
		return part, remainder
	}
	remainder = total - part
	return total - remainder, remainder
}
