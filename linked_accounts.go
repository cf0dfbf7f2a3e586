package aci

import (
	"context"
	"net/http"
	"net/url"
)

// DefaultAfterOAuth2LinkRedirectURL is where the OAuth2 flow returns the user when no URL is given.
const DefaultAfterOAuth2LinkRedirectURL = "https://platform.aci.dev"

// LinkAccountParams is the input of Link.
type LinkAccountParams struct {
	AppName              string         `json:"app_name"`
	LinkedAccountOwnerID string         `json:"linked_account_owner_id"`
	SecurityScheme       SecurityScheme `json:"security_scheme"`
	// APIKey is required for SecuritySchemeAPIKey and ignored otherwise.
	APIKey string `json:"api_key,omitempty"`
	// AfterOAuth2LinkRedirectURL applies to SecuritySchemeOAuth2 only.
	AfterOAuth2LinkRedirectURL string `json:"after_oauth2_link_redirect_url,omitempty"`
}

// LinkResult is the outcome of Link: either *LinkedAccountResult or *OAuth2RedirectResult.
type LinkResult interface {
	linkResult()
}

// LinkedAccountResult is returned for api_key and no_auth links: the account exists now.
type LinkedAccountResult struct {
	Account LinkedAccount
}

// OAuth2RedirectResult is returned for oauth2 links: the end user must open URL to finish linking.
type OAuth2RedirectResult struct {
	URL string
}

func (*LinkedAccountResult) linkResult()  {}
func (*OAuth2RedirectResult) linkResult() {}

// ListLinkedAccountsParams filters GET /linked-accounts.
type ListLinkedAccountsParams struct {
	AppName              string `json:"app_name,omitempty"`
	LinkedAccountOwnerID string `json:"linked_account_owner_id,omitempty"`
}

// LinkedAccountsService links end-user accounts to apps and manages them.
type LinkedAccountsService struct {
	t *transport
}

// Link links an owner's account to an app with the given security scheme.
func (s *LinkedAccountsService) Link(ctx context.Context, params LinkAccountParams) (LinkResult, error) {
	if err := validateInput(schemaLinkedAccountsLink, params); err != nil {
		return nil, err
	}
	switch params.SecurityScheme {
	case SecuritySchemeAPIKey:
		body := struct {
			AppName              string `json:"app_name"`
			LinkedAccountOwnerID string `json:"linked_account_owner_id"`
			APIKey               string `json:"api_key"`
		}{params.AppName, params.LinkedAccountOwnerID, params.APIKey}
		return s.create(ctx, "/linked-accounts/api-key", body)
	case SecuritySchemeNoAuth:
		body := struct {
			AppName              string `json:"app_name"`
			LinkedAccountOwnerID string `json:"linked_account_owner_id"`
		}{params.AppName, params.LinkedAccountOwnerID}
		return s.create(ctx, "/linked-accounts/no-auth", body)
	default:
		redirect := params.AfterOAuth2LinkRedirectURL
		if redirect == "" {
			redirect = DefaultAfterOAuth2LinkRedirectURL
		}
		q := url.Values{}
		q.Set("app_name", params.AppName)
		q.Set("linked_account_owner_id", params.LinkedAccountOwnerID)
		q.Set("after_oauth2_link_redirect_url", redirect)
		var out struct {
			URL string `json:"url"`
		}
		if err := s.t.do(ctx, request{method: http.MethodGet, path: "/linked-accounts/oauth2", query: q}, &out); err != nil {
			return nil, err
		}
		return &OAuth2RedirectResult{URL: out.URL}, nil
	}
}

func (s *LinkedAccountsService) create(ctx context.Context, path string, body any) (LinkResult, error) {
	var out LinkedAccount
	if err := s.t.do(ctx, request{method: http.MethodPost, path: path, body: body}, &out); err != nil {
		return nil, err
	}
	return &LinkedAccountResult{Account: out}, nil
}

// List returns linked accounts matching params.
func (s *LinkedAccountsService) List(ctx context.Context, params ListLinkedAccountsParams) ([]LinkedAccount, error) {
	if err := validateInput(schemaLinkedAccountsList, params); err != nil {
		return nil, err
	}
	q := url.Values{}
	if params.AppName != "" {
		q.Set("app_name", params.AppName)
	}
	if params.LinkedAccountOwnerID != "" {
		q.Set("linked_account_owner_id", params.LinkedAccountOwnerID)
	}
	var out []LinkedAccount
	if err := s.t.do(ctx, request{method: http.MethodGet, path: "/linked-accounts", query: q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one linked account.
func (s *LinkedAccountsService) Get(ctx context.Context, linkedAccountID string) (*LinkedAccount, error) {
	return s.account(ctx, http.MethodGet, linkedAccountID, "")
}

// Enable enables a linked account.
func (s *LinkedAccountsService) Enable(ctx context.Context, linkedAccountID string) (*LinkedAccount, error) {
	return s.account(ctx, http.MethodPost, linkedAccountID, "/enable")
}

// Disable disables a linked account; functions can no longer run with its credentials.
func (s *LinkedAccountsService) Disable(ctx context.Context, linkedAccountID string) (*LinkedAccount, error) {
	return s.account(ctx, http.MethodPost, linkedAccountID, "/disable")
}

// Delete removes a linked account.
func (s *LinkedAccountsService) Delete(ctx context.Context, linkedAccountID string) error {
	if linkedAccountID == "" {
		return validationError("linked account id is required")
	}
	return s.t.do(ctx, request{method: http.MethodDelete, path: "/linked-accounts/" + url.PathEscape(linkedAccountID)}, nil)
}

func (s *LinkedAccountsService) account(ctx context.Context, method, id, suffix string) (*LinkedAccount, error) {
	if id == "" {
		return nil, validationError("linked account id is required")
	}
	var out LinkedAccount
	if err := s.t.do(ctx, request{method: method, path: "/linked-accounts/" + url.PathEscape(id) + suffix}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
