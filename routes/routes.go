// Package routes is the typed client for the backend's /Routes endpoints.
package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/fleetwatch/go-fleet-client/api"
)

type Status string

const (
	StatusPlanned   Status = "planned"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Route struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	VehicleID *string    `json:"vehicleId,omitempty"`
	DriverID  *string    `json:"driverId,omitempty"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}

// Position is a recorded point along a route's tracking trace.
type Position struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Speed      float64   `json:"speed"`
	RecordedAt time.Time `json:"recordedAt"`
}

type UpsertRequest struct {
	Name      string  `json:"name"`
	VehicleID *string `json:"vehicleId,omitempty"`
	DriverID  *string `json:"driverId,omitempty"`
}

type statusRequest struct {
	Status Status `json:"status"`
}

type Service struct {
	api *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{api: client}
}

func (s *Service) List(ctx context.Context) ([]Route, error) {
	var out []Route
	if err := s.api.Do(ctx, http.MethodGet, "/Routes", nil, &out); err != nil {
		return nil, errors.Wrap(err, "[routes.List]")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Route, error) {
	var out Route
	if err := s.api.Do(ctx, http.MethodGet, routePath(id), nil, &out); err != nil {
		return nil, errors.Wrap(err, "[routes.Get]")
	}
	return &out, nil
}

func (s *Service) Create(ctx context.Context, request UpsertRequest) (*Route, error) {
	var out Route
	if err := s.api.Do(ctx, http.MethodPost, "/Routes", request, &out); err != nil {
		return nil, errors.Wrap(err, "[routes.Create]")
	}
	return &out, nil
}

func (s *Service) Update(ctx context.Context, id string, request UpsertRequest) (*Route, error) {
	var out Route
	if err := s.api.Do(ctx, http.MethodPut, routePath(id), request, &out); err != nil {
		return nil, errors.Wrap(err, "[routes.Update]")
	}
	return &out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.api.Do(ctx, http.MethodDelete, routePath(id), nil, nil); err != nil {
		return errors.Wrap(err, "[routes.Delete]")
	}
	return nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) error {
	if err := s.api.Do(ctx, http.MethodPatch, routePath(id)+"/status", statusRequest{Status: status}, nil); err != nil {
		return errors.Wrap(err, "[routes.UpdateStatus]")
	}
	return nil
}

// Positions returns the recorded tracking trace for a route.
func (s *Service) Positions(ctx context.Context, id string) ([]Position, error) {
	var out []Position
	if err := s.api.Do(ctx, http.MethodGet, routePath(id)+"/positions", nil, &out); err != nil {
		return nil, errors.Wrap(err, "[routes.Positions]")
	}
	return out, nil
}

func routePath(id string) string {
	return fmt.Sprintf("/Routes/%s", url.PathEscape(id))
}
