package aci

import (
	"context"
	"net/http"
	"net/url"
)

// SearchAppsParams filters GET /apps/search.
type SearchAppsParams struct {
	Intent           string   `json:"intent,omitempty"`
	AllowedAppsOnly  bool     `json:"allowed_apps_only,omitempty"`
	IncludeFunctions bool     `json:"include_functions,omitempty"`
	Categories       []string `json:"categories,omitempty"`
	Limit            *int     `json:"limit,omitempty"`
	Offset           *int     `json:"offset,omitempty"`
}

func (p SearchAppsParams) values() url.Values {
	q := url.Values{}
	if p.Intent != "" {
		q.Set("intent", p.Intent)
	}
	if p.AllowedAppsOnly {
		q.Set("allowed_apps_only", "true")
	}
	if p.IncludeFunctions {
		q.Set("include_functions", "true")
	}
	for _, c := range p.Categories {
		q.Add("categories", c)
	}
	setInt(q, "limit", p.Limit)
	setInt(q, "offset", p.Offset)
	return q
}

// AppsService searches and describes apps.
type AppsService struct {
	t *transport
}

// Search returns apps matching params.
func (s *AppsService) Search(ctx context.Context, params SearchAppsParams) ([]App, error) {
	if err := validateInput(schemaAppsSearch, params); err != nil {
		return nil, err
	}
	var out []App
	if err := s.t.do(ctx, request{method: http.MethodGet, path: "/apps/search", query: params.values()}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one app with its functions.
func (s *AppsService) Get(ctx context.Context, appName string) (*AppDetails, error) {
	if appName == "" {
		return nil, validationError("app name is required")
	}
	var out AppDetails
	if err := s.t.do(ctx, request{method: http.MethodGet, path: "/apps/" + url.PathEscape(appName)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
