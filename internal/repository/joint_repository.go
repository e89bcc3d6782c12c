package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pipeline_tracker/internal/models"
	"pipeline_tracker/internal/stringing"
)

type JointRepository struct {
	db *gorm.DB
}

func NewJointRepository(db *gorm.DB) *JointRepository {
	return &JointRepository{db: db}
}

// ListJoints returns a report's ledger in log order.
func (r *JointRepository) ListJoints(ctx context.Context, reportID string) ([]stringing.Joint, error) {
	var rows []models.PipeJoint
	if err := r.db.WithContext(ctx).Where("report_id = ?", reportID).Order("seq").Find(&rows).Error; err != nil {
		return nil, err
	}
	joints := make([]stringing.Joint, len(rows))
	for i, row := range rows {
		joints[i] = jointFromModel(row)
	}
	return joints, nil
}

// SaveJoints upserts the whole ledger; position in the slice becomes Seq.
func (r *JointRepository) SaveJoints(ctx context.Context, reportID string, joints []stringing.Joint) error {
	if len(joints) == 0 {
		return nil
	}
	rows := make([]models.PipeJoint, len(joints))
	for i, j := range joints {
		rows[i] = jointToModel(reportID, i, j)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
	})
}

func (r *JointRepository) DeleteJoint(ctx context.Context, reportID, jointID string) error {
	res := r.db.WithContext(ctx).Where("report_id = ? AND id = ?", reportID, jointID).Delete(&models.PipeJoint{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *JointRepository) DesignSpec(ctx context.Context) ([]stringing.DesignSpecSegment, error) {
	var rows []models.DesignSpecSegment
	if err := r.db.WithContext(ctx).Order("station_start_metres, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]stringing.DesignSpecSegment, len(rows))
	for i, row := range rows {
		out[i] = specFromModel(row)
	}
	return out, nil
}

func (r *JointRepository) PupConfig(ctx context.Context) ([]stringing.PupConfig, error) {
	var rows []models.PupConfig
	if err := r.db.WithContext(ctx).Order("min_diameter_inches, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]stringing.PupConfig, len(rows))
	for i, row := range rows {
		out[i] = pupFromModel(row)
	}
	return out, nil
}

// ReplaceDesignSpec swaps the whole design table.
func (r *JointRepository) ReplaceDesignSpec(ctx context.Context, segments []stringing.DesignSpecSegment) error {
	rows := make([]models.DesignSpecSegment, len(segments))
	for i, s := range segments {
		rows[i] = specToModel(s)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("1 = 1").Delete(&models.DesignSpecSegment{}).Error; err != nil {
			return fmt.Errorf("clear design spec: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// ReplacePupConfig swaps the whole pup table.
func (r *JointRepository) ReplacePupConfig(ctx context.Context, pups []stringing.PupConfig) error {
	rows := make([]models.PupConfig, len(pups))
	for i, p := range pups {
		rows[i] = pupToModel(p)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("1 = 1").Delete(&models.PupConfig{}).Error; err != nil {
			return fmt.Errorf("clear pup config: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}
