package models

import (
	"time"

	"gorm.io/gorm"
)

// PipeJoint is a row of a report's stringing log.
type PipeJoint struct {
	ID              string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	ReportID        string         `gorm:"index:idx_report_seq,priority:1;not null" json:"report_id"`
	Seq             int            `gorm:"index:idx_report_seq,priority:2" json:"seq"` // log order
	JointNumber     string         `gorm:"index" json:"joint_number"`
	HeatNumber      string         `json:"heat_number"`
	StationKP       string         `json:"station_kp"`
	PipeSize        string         `json:"pipe_size"`
	WallThicknessMm float64        `json:"wall_thickness_mm"`
	CoatingType     string         `json:"coating_type"`
	LengthMetres    float64        `json:"length_metres"`
	Status          string         `gorm:"not null" json:"status"`
	LocationType    string         `json:"location_type"`
	ParentJointID   *string        `gorm:"type:varchar(36);index" json:"parent_joint_id,omitempty"`
	IsPup           bool           `json:"is_pup"`
	PupDesignation  string         `gorm:"type:varchar(1)" json:"pup_designation,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PipeJoint) TableName() string {
	return "pipe_joints"
}
