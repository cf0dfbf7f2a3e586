package aci

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema ids of the operation inputs checked before a request is sent.
const (
	schemaFunctionsSearch        = "functions.search"
	schemaFunctionsDefinition    = "functions.get_definition"
	schemaFunctionsExecute       = "functions.execute"
	schemaAppsSearch             = "apps.search"
	schemaAppConfigurationsList  = "app_configurations.list"
	schemaAppConfigurationCreate = "app_configurations.create"
	schemaLinkedAccountsLink     = "linked_accounts.link"
	schemaLinkedAccountsList     = "linked_accounts.list"
	schemaProjectsAllowedApps    = "projects.update_agent_allowed_apps"
)

const schemaBaseURL = "https://schemas.aci.dev/client/"

//go:embed schemas/*.json
var schemaFiles embed.FS

// inputSchemas compiles every embedded schema once.
var inputSchemas = sync.OnceValues(func() (map[string]*jsonschema.Schema, error) {
	entries, err := schemaFiles.ReadDir("schemas")
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		data, err := schemaFiles.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, err
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", e.Name(), err)
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		if err := c.AddResource(schemaBaseURL+e.Name(), doc); err != nil {
			return nil, fmt.Errorf("schema %s: %w", e.Name(), err)
		}
		ids = append(ids, id)
	}
	out := make(map[string]*jsonschema.Schema, len(ids))
	for _, id := range ids {
		sch, err := c.Compile(schemaBaseURL + id + ".json")
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", id, err)
		}
		out[id] = sch
	}
	return out, nil
})

// validateInput checks input (any JSON-marshalable value) against the schema
// registered under schemaID. Failures are *Error with KindValidation and no status.
func validateInput(schemaID string, input any) error {
	schemas, err := inputSchemas()
	if err != nil {
		return &Error{Kind: KindUnknown, Message: "cannot load input schemas", Err: err}
	}
	sch, ok := schemas[schemaID]
	if !ok {
		panic("aci: unknown input schema " + schemaID)
	}
	data, err := json.Marshal(input)
	if err != nil {
		return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
	}
	if err := sch.Validate(inst); err != nil {
		return &Error{Kind: KindValidation, Message: validationMessage(err), Err: err}
	}
	return nil
}

// validationMessage flattens a multi-line schema error into one line.
func validationMessage(err error) string {
	lines := strings.Split(strings.TrimSpace(err.Error()), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[i]), "-"))
	}
	return "invalid input: " + strings.Join(lines, "; ")
}
