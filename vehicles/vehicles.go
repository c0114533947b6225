// Package vehicles is the typed client for the backend's /Vehicles
// endpoints.
package vehicles

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/fleetwatch/go-fleet-client/api"
)

// Status is the operational status of a vehicle.
type Status string

const (
	StatusActive      Status = "active"
	StatusInactive    Status = "inactive"
	StatusMaintenance Status = "maintenance"
)

// Location is a recorded vehicle position.
type Location struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RecordedAt time.Time `json:"recordedAt"`
}

type Vehicle struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PlateNumber string    `json:"plateNumber"`
	Model       string    `json:"model"`
	Capacity    int       `json:"capacity"`
	Status      Status    `json:"status"`
	Location    *Location `json:"location,omitempty"`
	DriverID    *string   `json:"driverId,omitempty"`
}

// UpsertRequest is the create/update payload.
type UpsertRequest struct {
	Name        string `json:"name"`
	PlateNumber string `json:"plateNumber"`
	Model       string `json:"model"`
	Capacity    int    `json:"capacity"`
}

type statusRequest struct {
	Status Status `json:"status"`
}

// Service wraps the request pipeline for vehicle operations. Every call may
// refresh the token pair or terminate the session as a pipeline side effect.
type Service struct {
	api *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{api: client}
}

func (s *Service) List(ctx context.Context) ([]Vehicle, error) {
	var out []Vehicle
	if err := s.api.Do(ctx, http.MethodGet, "/Vehicles", nil, &out); err != nil {
		return nil, errors.Wrap(err, "[vehicles.List]")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Vehicle, error) {
	var out Vehicle
	if err := s.api.Do(ctx, http.MethodGet, vehiclePath(id), nil, &out); err != nil {
		return nil, errors.Wrap(err, "[vehicles.Get]")
	}
	return &out, nil
}

func (s *Service) Create(ctx context.Context, request UpsertRequest) (*Vehicle, error) {
	var out Vehicle
	if err := s.api.Do(ctx, http.MethodPost, "/Vehicles", request, &out); err != nil {
		return nil, errors.Wrap(err, "[vehicles.Create]")
	}
	return &out, nil
}

func (s *Service) Update(ctx context.Context, id string, request UpsertRequest) (*Vehicle, error) {
	var out Vehicle
	if err := s.api.Do(ctx, http.MethodPut, vehiclePath(id), request, &out); err != nil {
		return nil, errors.Wrap(err, "[vehicles.Update]")
	}
	return &out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.api.Do(ctx, http.MethodDelete, vehiclePath(id), nil, nil); err != nil {
		return errors.Wrap(err, "[vehicles.Delete]")
	}
	return nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) error {
	if err := s.api.Do(ctx, http.MethodPatch, vehiclePath(id)+"/status", statusRequest{Status: status}, nil); err != nil {
		return errors.Wrap(err, "[vehicles.UpdateStatus]")
	}
	return nil
}

// UpdateLocation reports a vehicle position.
func (s *Service) UpdateLocation(ctx context.Context, id string, location Location) error {
	if err := s.api.Do(ctx, http.MethodPost, vehiclePath(id)+"/location", location, nil); err != nil {
		return errors.Wrap(err, "[vehicles.UpdateLocation]")
	}
	return nil
}

func vehiclePath(id string) string {
	return fmt.Sprintf("/Vehicles/%s", url.PathEscape(id))
}
