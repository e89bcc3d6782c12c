package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"pipeline_tracker/internal/models"
	"pipeline_tracker/internal/repository"
	"pipeline_tracker/internal/route"
	"pipeline_tracker/internal/stringing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memRouteStore struct {
	mu     sync.Mutex
	nextID uint
	routes map[uint]models.Route
	fixes  []models.LocationFix
}

func newMemRouteStore() *memRouteStore {
	return &memRouteStore{routes: make(map[uint]models.Route)}
}

func (s *memRouteStore) CreateRoute(_ context.Context, name, description string, waypoints []route.Waypoint) (models.Route, error) {
	if _, err := route.NewProjector(waypoints); err != nil {
		return models.Route{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rt := range s.routes {
		if rt.Name == name {
			return models.Route{}, fmt.Errorf("insert route: %w", repository.ErrDuplicate)
		}
	}
	s.nextID++
	rt := models.Route{Name: name, Description: description}
	rt.ID = s.nextID
	for i, w := range waypoints {
		rt.Waypoints = append(rt.Waypoints, models.Waypoint{Name: w.Name, Seq: i, Lat: w.Latitude, Lng: w.Longitude, Chainage: w.Chainage, RouteID: rt.ID})
	}
	s.routes[rt.ID] = rt
	return rt, nil
}

func (s *memRouteStore) GetRoute(_ context.Context, id uint) (models.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.routes[id]
	if !ok {
		return models.Route{}, repository.ErrNotFound
	}
	return rt, nil
}

func (s *memRouteStore) ListRoutes(_ context.Context) ([]models.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Route, 0, len(s.routes))
	for id := uint(1); id <= s.nextID; id++ {
		if rt, ok := s.routes[id]; ok {
			out = append(out, rt)
		}
	}
	return out, nil
}

func (s *memRouteStore) DeleteRoute(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.routes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.routes, id)
	return nil
}

func (s *memRouteStore) RecordFix(_ context.Context, fix *models.LocationFix) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixes = append(s.fixes, *fix)
	return nil
}

func (s *memRouteStore) recorded() []models.LocationFix {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LocationFix(nil), s.fixes...)
}

type memJointStore struct {
	mu      sync.Mutex
	reports map[string][]stringing.Joint
	specs   []stringing.DesignSpecSegment
	pups    []stringing.PupConfig
}

func newMemJointStore() *memJointStore {
	return &memJointStore{reports: make(map[string][]stringing.Joint)}
}

func (s *memJointStore) ListJoints(_ context.Context, reportID string) ([]stringing.Joint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stringing.Joint(nil), s.reports[reportID]...), nil
}

func (s *memJointStore) SaveJoints(_ context.Context, reportID string, joints []stringing.Joint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[reportID] = append([]stringing.Joint(nil), joints...)
	return nil
}

func (s *memJointStore) DeleteJoint(_ context.Context, reportID, jointID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	joints := s.reports[reportID]
	for i, j := range joints {
		if j.ID == jointID {
			s.reports[reportID] = append(joints[:i:i], joints[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memJointStore) DesignSpec(_ context.Context) ([]stringing.DesignSpecSegment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stringing.DesignSpecSegment(nil), s.specs...), nil
}

func (s *memJointStore) PupConfig(_ context.Context) ([]stringing.PupConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stringing.PupConfig(nil), s.pups...), nil
}

func (s *memJointStore) ReplaceDesignSpec(_ context.Context, segments []stringing.DesignSpecSegment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.specs = append([]stringing.DesignSpecSegment(nil), segments...)
	return nil
}

func (s *memJointStore) ReplacePupConfig(_ context.Context, pups []stringing.PupConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pups = append([]stringing.PupConfig(nil), pups...)
	return nil
}

func perform(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
