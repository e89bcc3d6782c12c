package repository

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom/encoding/wkb"
	"gorm.io/gorm"

	"pipeline_tracker/internal/models"
	"pipeline_tracker/internal/route"
)

type RouteRepository struct {
	db *gorm.DB
}

func NewRouteRepository(db *gorm.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// CreateRoute validates the waypoints, then stores the route, its WKB
// centreline and waypoint rows in one transaction.
func (r *RouteRepository) CreateRoute(ctx context.Context, name, description string, waypoints []route.Waypoint) (models.Route, error) {
	proj, err := route.NewProjector(waypoints)
	if err != nil {
		return models.Route{}, err
	}
	geometry, err := wkb.Marshal(proj.Geometry(), binary.LittleEndian)
	if err != nil {
		return models.Route{}, fmt.Errorf("encode geometry: %w", err)
	}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return models.Route{}, tx.Error
	}

	rt := models.Route{Name: name, Description: description, Geometry: geometry}
	if err := tx.Create(&rt).Error; err != nil {
		tx.Rollback()
		return models.Route{}, translate(err)
	}

	rows := waypointRows(rt.ID, waypoints)
	if err := tx.Create(&rows).Error; err != nil {
		tx.Rollback()
		return models.Route{}, fmt.Errorf("create waypoints: %w", translate(err))
	}

	if err := tx.Commit().Error; err != nil {
		return models.Route{}, err
	}

	rt.Waypoints = rows
	return rt, nil
}

func (r *RouteRepository) GetRoute(ctx context.Context, id uint) (models.Route, error) {
	var rt models.Route
	err := r.db.WithContext(ctx).
		Preload("Waypoints", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		First(&rt, id).Error
	return rt, translate(err)
}

func (r *RouteRepository) ListRoutes(ctx context.Context) ([]models.Route, error) {
	var routes []models.Route
	err := r.db.WithContext(ctx).
		Preload("Waypoints", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		Order("id").
		Find(&routes).Error
	return routes, translate(err)
}

// DeleteRoute removes a route and its waypoints.
func (r *RouteRepository) DeleteRoute(ctx context.Context, id uint) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	// hard delete so the route name can be reused
	if err := tx.Unscoped().Where("route_id = ?", id).Delete(&models.Waypoint{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("delete waypoints: %w", err)
	}

	res := tx.Unscoped().Delete(&models.Route{}, id)
	if res.Error != nil {
		tx.Rollback()
		return fmt.Errorf("delete route: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return ErrNotFound
	}

	return tx.Commit().Error
}

func (r *RouteRepository) RecordFix(ctx context.Context, fix *models.LocationFix) error {
	return r.db.WithContext(ctx).Create(fix).Error
}

// SeedFixtures stores each bundled reference route that is not present yet.
func (r *RouteRepository) SeedFixtures(ctx context.Context) error {
	for _, name := range route.FixtureNames() {
		def, err := route.Fixture(name)
		if err != nil {
			return err
		}

		var existing models.Route
		err = r.db.WithContext(ctx).Where("name = ?", def.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		rt, err := r.CreateRoute(ctx, def.Name, def.Description, def.Waypoints)
		if err != nil && !errors.Is(err, ErrDuplicate) {
			return fmt.Errorf("seed %s: %w", def.Name, err)
		}
		logrus.WithFields(logrus.Fields{"route": def.Name, "route_id": rt.ID}).Info("Seeded reference route")
	}
	return nil
}
