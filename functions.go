package aci

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// SearchFunctionsParams filters GET /functions/search. Nil Limit and Offset use the service defaults.
type SearchFunctionsParams struct {
	AppNames    []string `json:"app_names,omitempty"`
	Intent      string   `json:"intent,omitempty"`
	AllowedOnly bool     `json:"allowed_only,omitempty"`
	Format      Format   `json:"format,omitempty"`
	Limit       *int     `json:"limit,omitempty"`
	Offset      *int     `json:"offset,omitempty"`
}

func (p SearchFunctionsParams) values() url.Values {
	q := url.Values{}
	for _, name := range p.AppNames {
		q.Add("app_names", name)
	}
	if p.Intent != "" {
		q.Set("intent", p.Intent)
	}
	if p.AllowedOnly {
		q.Set("allowed_only", "true")
	}
	if p.Format != "" {
		q.Set("format", p.Format.wire())
	}
	setInt(q, "limit", p.Limit)
	setInt(q, "offset", p.Offset)
	return q
}

// ExecuteParams is the input of a function execution.
type ExecuteParams struct {
	FunctionName string `json:"function_name"`
	// FunctionParameters are the arguments of the function. Nil is sent as an empty object.
	FunctionParameters   map[string]any `json:"function_parameters"`
	LinkedAccountOwnerID string         `json:"linked_account_owner_id"`
}

type executeBody struct {
	FunctionInput        map[string]any `json:"function_input"`
	LinkedAccountOwnerID string         `json:"linked_account_owner_id"`
}

// FunctionsService searches, describes and executes functions.
type FunctionsService struct {
	t *transport
}

// Search returns the definitions of functions matching params, rendered in params.Format.
func (s *FunctionsService) Search(ctx context.Context, params SearchFunctionsParams) ([]FunctionDefinition, error) {
	params.Format = Format(params.Format.wire())
	if err := validateInput(schemaFunctionsSearch, params); err != nil {
		return nil, err
	}
	var out []FunctionDefinition
	if err := s.t.do(ctx, request{method: http.MethodGet, path: "/functions/search", query: params.values()}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDefinition returns the definition of one function. An empty format means FormatOpenAI.
func (s *FunctionsService) GetDefinition(ctx context.Context, functionName string, format Format) (FunctionDefinition, error) {
	if format == "" {
		format = FormatOpenAI
	}
	input := struct {
		FunctionName string `json:"function_name"`
		Format       string `json:"format"`
	}{functionName, format.wire()}
	if err := validateInput(schemaFunctionsDefinition, input); err != nil {
		return nil, err
	}
	var out FunctionDefinition
	req := request{
		method: http.MethodGet,
		path:   "/functions/" + url.PathEscape(functionName) + "/definition",
		query:  url.Values{"format": {input.Format}},
	}
	if err := s.t.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Execute runs a function with the credentials of the owner's linked account.
// A result with Success == false is returned without error.
func (s *FunctionsService) Execute(ctx context.Context, params ExecuteParams) (*FunctionExecutionResult, error) {
	if params.FunctionParameters == nil {
		params.FunctionParameters = map[string]any{}
	}
	if err := validateInput(schemaFunctionsExecute, params); err != nil {
		return nil, err
	}
	req := request{
		method: http.MethodPost,
		path:   "/functions/" + url.PathEscape(params.FunctionName) + "/execute",
		body: executeBody{
			FunctionInput:        params.FunctionParameters,
			LinkedAccountOwnerID: params.LinkedAccountOwnerID,
		},
	}
	var out FunctionExecutionResult
	if err := s.t.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func setInt(q url.Values, key string, v *int) {
	if v != nil {
		q.Set(key, strconv.Itoa(*v))
	}
}

// Int returns a pointer to v, for the optional Limit and Offset fields.
func Int(v int) *int { return &v }
