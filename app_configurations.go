package aci

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// ListAppConfigurationsParams filters GET /app-configurations.
type ListAppConfigurationsParams struct {
	AppNames []string `json:"app_names,omitempty"`
	Limit    *int     `json:"limit,omitempty"`
	Offset   *int     `json:"offset,omitempty"`
}

func (p ListAppConfigurationsParams) values() url.Values {
	q := url.Values{}
	for _, name := range p.AppNames {
		q.Add("app_names", name)
	}
	setInt(q, "limit", p.Limit)
	setInt(q, "offset", p.Offset)
	return q
}

// AppConfigurationCreate is the body of POST /app-configurations.
type AppConfigurationCreate struct {
	AppName                 string         `json:"app_name"`
	SecurityScheme          SecurityScheme `json:"security_scheme"`
	SecuritySchemeOverrides map[string]any `json:"security_scheme_overrides,omitempty"`
	// AllFunctionsEnabled defaults to true when nil.
	AllFunctionsEnabled *bool    `json:"all_functions_enabled,omitempty"`
	EnabledFunctions    []string `json:"enabled_functions,omitempty"`
}

// AppConfigurationsService manages the project's app configurations.
type AppConfigurationsService struct {
	t *transport
}

// List returns the app configurations matching params.
func (s *AppConfigurationsService) List(ctx context.Context, params ListAppConfigurationsParams) ([]AppConfiguration, error) {
	if err := validateInput(schemaAppConfigurationsList, params); err != nil {
		return nil, err
	}
	var out []AppConfiguration
	if err := s.t.do(ctx, request{method: http.MethodGet, path: "/app-configurations", query: params.values()}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the configuration of appName, or nil without error when it does not exist.
func (s *AppConfigurationsService) Get(ctx context.Context, appName string) (*AppConfiguration, error) {
	if appName == "" {
		return nil, validationError("app name is required")
	}
	var out AppConfiguration
	err := s.t.do(ctx, request{method: http.MethodGet, path: "/app-configurations/" + url.PathEscape(appName)}, &out)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Create configures an app for the project.
func (s *AppConfigurationsService) Create(ctx context.Context, params AppConfigurationCreate) (*AppConfiguration, error) {
	if params.AllFunctionsEnabled == nil {
		enabled := true
		params.AllFunctionsEnabled = &enabled
	}
	if err := validateInput(schemaAppConfigurationCreate, params); err != nil {
		return nil, err
	}
	var out AppConfiguration
	if err := s.t.do(ctx, request{method: http.MethodPost, path: "/app-configurations", body: params}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the configuration of appName.
func (s *AppConfigurationsService) Delete(ctx context.Context, appName string) error {
	if appName == "" {
		return validationError("app name is required")
	}
	return s.t.do(ctx, request{method: http.MethodDelete, path: "/app-configurations/" + url.PathEscape(appName)}, nil)
}
