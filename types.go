package aci

// SecurityScheme is the authentication mode of an app configuration or linked account.
type SecurityScheme string

const (
	SecuritySchemeAPIKey SecurityScheme = "api_key"
	SecuritySchemeOAuth2 SecurityScheme = "oauth2"
	SecuritySchemeNoAuth SecurityScheme = "no_auth"
)

// FunctionDefinition is a function definition returned by the service. Its
// shape depends on the requested Format, so it is kept as a decoded JSON object.
type FunctionDefinition map[string]any

// Name returns the function name for any of the four formats.
func (d FunctionDefinition) Name() string {
	if fn, ok := d["function"].(map[string]any); ok {
		if name, ok := fn["name"].(string); ok {
			return name
		}
	}
	name, _ := d["name"].(string)
	return name
}

// FunctionExecutionResult is the outcome of a remote execution. Success == false
// is an application-level result, not an error.
type FunctionExecutionResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FunctionSummary is a function listed inside an app.
type FunctionSummary struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// App is an app returned by app search.
type App struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Categories  []string          `json:"categories"`
	Functions   []FunctionSummary `json:"functions,omitempty"`
}

// AppDetails is a single app with its function definitions.
type AppDetails struct {
	App
	SecuritySchemes []SecurityScheme `json:"security_schemes,omitempty"`
}

// AppConfiguration is a project's configuration of an app.
type AppConfiguration struct {
	ID                  string         `json:"id,omitempty"`
	ProjectID           string         `json:"project_id,omitempty"`
	AppName             string         `json:"app_name"`
	SecurityScheme      SecurityScheme `json:"security_scheme"`
	Enabled             bool           `json:"enabled"`
	AllFunctionsEnabled bool           `json:"all_functions_enabled"`
	EnabledFunctions    []string       `json:"enabled_functions,omitempty"`
	CreatedAt           string         `json:"created_at"`
	UpdatedAt           string         `json:"updated_at"`
}

// SecurityCredentials holds the secret material of a linked account, when the service returns it.
type SecurityCredentials struct {
	AccessToken string `json:"access_token,omitempty"`
	SecretKey   string `json:"secret_key,omitempty"`
}

// LinkedAccount binds an end user (the owner) to an app under one security scheme.
type LinkedAccount struct {
	ID                   string               `json:"id"`
	ProjectID            string               `json:"project_id"`
	AppName              string               `json:"app_name"`
	LinkedAccountOwnerID string               `json:"linked_account_owner_id"`
	SecurityScheme       SecurityScheme       `json:"security_scheme"`
	Enabled              bool                 `json:"enabled"`
	CreatedAt            string               `json:"created_at"`
	UpdatedAt            string               `json:"updated_at"`
	SecurityCredentials  *SecurityCredentials `json:"security_credentials,omitempty"`
}

// ProjectAgent is an agent of a project with the apps it may use.
type ProjectAgent struct {
	ID          string   `json:"id"`
	AllowedApps []string `json:"allowed_apps"`
}
