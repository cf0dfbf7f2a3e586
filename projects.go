package aci

import (
	"context"
	"net/http"
	"net/url"
)

// ProjectsService manages project agents.
type ProjectsService struct {
	t *transport
}

// UpdateAgentAllowedApps replaces the apps an agent of a project may use.
// Pass an empty, non-nil slice to revoke all apps.
func (s *ProjectsService) UpdateAgentAllowedApps(ctx context.Context, projectID, agentID string, allowedApps []string) (*ProjectAgent, error) {
	input := struct {
		ProjectID   string   `json:"project_id"`
		AgentID     string   `json:"agent_id"`
		AllowedApps []string `json:"allowed_apps"`
	}{projectID, agentID, allowedApps}
	if err := validateInput(schemaProjectsAllowedApps, input); err != nil {
		return nil, err
	}
	req := request{
		method: http.MethodPatch,
		path:   "/projects/" + url.PathEscape(projectID) + "/agents/" + url.PathEscape(agentID),
		body:   map[string][]string{"allowed_apps": allowedApps},
	}
	var out ProjectAgent
	if err := s.t.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
