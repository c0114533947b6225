// Package drivers is the typed client for the backend's /Drivers endpoints.
package drivers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/fleetwatch/go-fleet-client/api"
)

type Driver struct {
	ID            string  `json:"id"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Phone         string  `json:"phone"`
	LicenseNumber string  `json:"licenseNumber"`
	VehicleID     *string `json:"vehicleId,omitempty"`
	IsActive      bool    `json:"isActive"`
}

type UpsertRequest struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Phone         string `json:"phone"`
	LicenseNumber string `json:"licenseNumber"`
}

type assignVehicleRequest struct {
	VehicleID string `json:"vehicleId"`
}

type Service struct {
	api *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{api: client}
}

func (s *Service) List(ctx context.Context) ([]Driver, error) {
	var out []Driver
	if err := s.api.Do(ctx, http.MethodGet, "/Drivers", nil, &out); err != nil {
		return nil, errors.Wrap(err, "[drivers.List]")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Driver, error) {
	var out Driver
	if err := s.api.Do(ctx, http.MethodGet, driverPath(id), nil, &out); err != nil {
		return nil, errors.Wrap(err, "[drivers.Get]")
	}
	return &out, nil
}

func (s *Service) Create(ctx context.Context, request UpsertRequest) (*Driver, error) {
	var out Driver
	if err := s.api.Do(ctx, http.MethodPost, "/Drivers", request, &out); err != nil {
		return nil, errors.Wrap(err, "[drivers.Create]")
	}
	return &out, nil
}

func (s *Service) Update(ctx context.Context, id string, request UpsertRequest) (*Driver, error) {
	var out Driver
	if err := s.api.Do(ctx, http.MethodPut, driverPath(id), request, &out); err != nil {
		return nil, errors.Wrap(err, "[drivers.Update]")
	}
	return &out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.api.Do(ctx, http.MethodDelete, driverPath(id), nil, nil); err != nil {
		return errors.Wrap(err, "[drivers.Delete]")
	}
	return nil
}

// AssignVehicle pairs a driver with a vehicle.
func (s *Service) AssignVehicle(ctx context.Context, id, vehicleID string) error {
	if err := s.api.Do(ctx, http.MethodPost, driverPath(id)+"/assign-vehicle", assignVehicleRequest{VehicleID: vehicleID}, nil); err != nil {
		return errors.Wrap(err, "[drivers.AssignVehicle]")
	}
	return nil
}

// UnassignVehicle releases the driver's current vehicle.
func (s *Service) UnassignVehicle(ctx context.Context, id string) error {
	if err := s.api.Do(ctx, http.MethodPost, driverPath(id)+"/unassign-vehicle", nil, nil); err != nil {
		return errors.Wrap(err, "[drivers.UnassignVehicle]")
	}
	return nil
}

func driverPath(id string) string {
	return fmt.Sprintf("/Drivers/%s", url.PathEscape(id))
}
