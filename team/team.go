// Package team is the typed client for the backend's /Users endpoints:
// listing application users, the caller's team, and administrator role and
// status updates.
package team

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/fleetwatch/go-fleet-client/api"
	"github.com/fleetwatch/go-fleet-client/identity"
)

type Member struct {
	ID        string        `json:"id"`
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
	UserName  string        `json:"userName"`
	Email     string        `json:"email"`
	Role      identity.Role `json:"role"`
	IsActive  *bool         `json:"isActive,omitempty"`
	DriverID  *string       `json:"driverId,omitempty"`
}

type statusRequest struct {
	IsActive bool `json:"isActive"`
}

type Service struct {
	api *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{api: client}
}

func (s *Service) List(ctx context.Context) ([]Member, error) {
	var out []Member
	if err := s.api.Do(ctx, http.MethodGet, "/Users", nil, &out); err != nil {
		return nil, errors.Wrap(err, "[team.List]")
	}
	return out, nil
}

// MyTeam returns the users managed by the caller.
func (s *Service) MyTeam(ctx context.Context) ([]Member, error) {
	var out []Member
	if err := s.api.Do(ctx, http.MethodGet, "/Users/my-team", nil, &out); err != nil {
		return nil, errors.Wrap(err, "[team.MyTeam]")
	}
	return out, nil
}

// SetRole assigns a canonical role to a user. Administrator-only.
func (s *Service) SetRole(ctx context.Context, id string, role identity.Role) error {
	path := fmt.Sprintf("/Users/%s/roles/%s", url.PathEscape(id), url.PathEscape(string(role)))
	if err := s.api.Do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return errors.Wrap(err, "[team.SetRole]")
	}
	return nil
}

// SetStatus activates or deactivates a user. Administrator-only.
func (s *Service) SetStatus(ctx context.Context, id string, active bool) error {
	path := fmt.Sprintf("/Users/%s/status", url.PathEscape(id))
	if err := s.api.Do(ctx, http.MethodPatch, path, statusRequest{IsActive: active}, nil); err != nil {
		return errors.Wrap(err, "[team.SetStatus]")
	}
	return nil
}
