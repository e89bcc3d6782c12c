package stringing

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Inventory is the joint ledger for one report. Joints are kept in log
// order. Every method is atomic with respect to the others.
type Inventory struct {
	mu     sync.Mutex
	joints []Joint
	index  map[string]int
	specs  []DesignSpecSegment
	pups   []PupConfig
	newID  func() string
}

// Option configures an Inventory.
type Option func(*Inventory)

// WithIDGenerator replaces the uuid generator, mainly for tests.
func WithIDGenerator(gen func() string) Option {
	return func(inv *Inventory) { inv.newID = gen }
}

// NewInventory returns an empty ledger validated against specs and pups.
// Both tables are read-only to the ledger.
func NewInventory(specs []DesignSpecSegment, pups []PupConfig, opts ...Option) *Inventory {
	inv := &Inventory{
		index: make(map[string]int),
		specs: specs,
		pups:  pups,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Restore rebuilds a ledger from stored joints, preserving their order.
func Restore(joints []Joint, specs []DesignSpecSegment, pups []PupConfig, opts ...Option) *Inventory {
	inv := NewInventory(specs, pups, opts...)
	for _, j := range joints {
		inv.append(j)
	}
	return inv
}

func (inv *Inventory) append(j Joint) {
	inv.index[j.ID] = len(inv.joints)
	inv.joints = append(inv.joints, j)
}

// AddJoint logs a newly strung joint. The joint number is not checked here;
// ValidateJoint reports problems without blocking the add.
func (inv *Inventory) AddJoint(in JointInput) Joint {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	j := Joint{
		ID:              inv.newID(),
		JointNumber:     strings.TrimSpace(in.JointNumber),
		HeatNumber:      strings.TrimSpace(in.HeatNumber),
		StationKP:       strings.TrimSpace(in.StationKP),
		PipeSize:        strings.TrimSpace(in.PipeSize),
		WallThicknessMm: in.WallThicknessMm,
		CoatingType:     in.CoatingType,
		LengthMetres:    in.LengthMetres,
		Status:          StatusStrung,
		LocationType:    LocationDitch,
	}
	inv.append(j)
	return j
}

// RemoveJoint deletes a joint logged in error. Joints that were cut, and
// pieces produced by a cut, stay for the audit trail.
func (inv *Inventory) RemoveJoint(id string) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	i, ok := inv.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJointNotFound, id)
	}
	j := inv.joints[i]
	if j.Status != StatusStrung || j.ParentJointID != "" {
		return fmt.Errorf("%w: %s is %s", ErrJointNotRemovable, j.JointNumber, describe(j))
	}

	inv.joints = append(inv.joints[:i], inv.joints[i+1:]...)
	delete(inv.index, id)
	for k := i; k < len(inv.joints); k++ {
		inv.index[inv.joints[k].ID] = k
	}
	return nil
}

func describe(j Joint) string {
	if j.ParentJointID != "" {
		return "a cut piece"
	}
	return strings.ToLower(string(j.Status))
}

// Joint returns a joint by id.
func (inv *Inventory) Joint(id string) (Joint, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	i, ok := inv.index[id]
	if !ok {
		return Joint{}, false
	}
	return inv.joints[i], true
}

// Joints returns a copy of the ledger in log order.
func (inv *Inventory) Joints() []Joint {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	out := make([]Joint, len(inv.joints))
	copy(out, inv.joints)
	return out
}

// MinUsableLength is the shortest piece of pipeSize worth keeping.
func (inv *Inventory) MinUsableLength(pipeSize string) float64 {
	return minUsableLength(inv.pups, pipeSize)
}

// Totals is the ledger rollup shown on the daily report.
type Totals struct {
	StrungCount         int     `json:"strung_count"`
	StrungMetres        float64 `json:"strung_metres"`
	PupCount            int     `json:"pup_count"`
	InventoryCount      int     `json:"inventory_count"`
	InventoryMetres     float64 `json:"inventory_metres"`
	ScrapCount          int     `json:"scrap_count"`
	ScrapMetres         float64 `json:"scrap_metres"`
	ConsumedCount       int     `json:"consumed_count"`
	FirstStationMetres  float64 `json:"first_station_metres"`
	LastStationMetres   float64 `json:"last_station_metres"`
	PlacedStationsCount int     `json:"placed_stations_count"`
}

// Totals sums lengths by status. Consumed joints are not counted as pipe:
// their pieces carry the length.
func (inv *Inventory) Totals() Totals {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	var t Totals
	for _, j := range inv.joints {
		switch j.Status {
		case StatusStrung:
			t.StrungCount++
			t.StrungMetres += j.LengthMetres
			if kp, ok := stationOf(j); ok {
				if t.PlacedStationsCount == 0 || kp < t.FirstStationMetres {
					t.FirstStationMetres = kp
				}
				if t.PlacedStationsCount == 0 || kp > t.LastStationMetres {
					t.LastStationMetres = kp
				}
				t.PlacedStationsCount++
			}
		case StatusInventory:
			t.InventoryCount++
			t.InventoryMetres += j.LengthMetres
		case StatusScrap:
			t.ScrapCount++
			t.ScrapMetres += j.LengthMetres
		case StatusConsumed:
			t.ConsumedCount++
		}
		if j.IsPup {
			t.PupCount++
		}
	}
	return t
}
