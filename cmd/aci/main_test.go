package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gopkg.in/yaml.v3"

	"github.com/skosovsky/aci"
	"github.com/skosovsky/aci/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func run(t *testing.T, srv *testutil.Server, args ...string) (string, error) {
	t.Helper()
	t.Setenv(aci.APIKeyEnv, "")
	t.Setenv("ACI_BASE_URL", "")
	var hc *http.Client
	if srv != nil {
		hc = srv.Client()
		args = append(args, "--base-url", srv.URL, "--api-key", "test-key")
	}
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr, hc)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestMetaSchema(t *testing.T) {
	out, err := run(t, nil, "meta", "schema", "--format", "ANTHROPIC")
	require.NoError(t, err)
	var schemas []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schemas))
	require.Len(t, schemas, 2)
	assert.Equal(t, aci.SearchFunctionsName, schemas[0]["name"])
	assert.Contains(t, schemas[1], "input_schema")
}

func TestMetaSchema_YAML(t *testing.T) {
	out, err := run(t, nil, "meta", "schema", "-o", "yaml")
	require.NoError(t, err)
	var schemas []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &schemas))
	require.Len(t, schemas, 2)
	assert.Equal(t, "function", schemas[0]["type"])
	fn, ok := schemas[1]["function"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, aci.ExecuteFunctionName, fn["name"])
}

func TestMetaSchema_BadFormat(t *testing.T) {
	_, err := run(t, nil, "meta", "schema", "--format", "gemini")
	require.ErrorIs(t, err, aci.ErrValidation)
}

func TestFunctionsSearch(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.On(http.MethodGet, "/functions/search", testutil.JSON(http.StatusOK, []map[string]any{{"name": "GMAIL__SEND"}}))

	out, err := run(t, srv, "functions", "search", "--intent", "email", "--app", "GMAIL", "--app", "OUTLOOK", "--limit", "5", "--format", "basic", "--allowed-only")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"GMAIL__SEND"}]`, out)

	req, ok := srv.Last()
	require.True(t, ok)
	assert.Equal(t, "test-key", req.Header.Get("x-api-key"))
	assert.Equal(t, "aci-cli/"+aci.Version, req.Header.Get("User-Agent"))
	assert.Equal(t, []string{"GMAIL", "OUTLOOK"}, req.Query["app_names"])
	assert.Equal(t, "5", req.Query.Get("limit"))
	assert.False(t, req.Query.Has("offset"))
	assert.Equal(t, "basic", req.Query.Get("format"))
	assert.Equal(t, "true", req.Query.Get("allowed_only"))
}

func TestFunctionsExecute(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.On(http.MethodPost, "/functions/GITHUB__STAR/execute", testutil.JSON(http.StatusOK, map[string]any{"success": true}))

	out, err := run(t, srv, "functions", "execute", "GITHUB__STAR", "--owner", "user-1", "--args", `{"repo":"aci"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, out)
	req, _ := srv.Last()
	assert.JSONEq(t, `{"function_input":{"repo":"aci"},"linked_account_owner_id":"user-1"}`, string(req.Body))
}

func TestFunctionsExecute_BadArgs(t *testing.T) {
	srv := testutil.NewServer(t)
	_, err := run(t, srv, "functions", "execute", "F", "--owner", "o", "--args", "[1]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--args must be a JSON object")
	assert.Empty(t, srv.Requests())
}

func TestFunctionsExecute_OwnerRequired(t *testing.T) {
	srv := testutil.NewServer(t)
	_, err := run(t, srv, "functions", "execute", "F")
	require.Error(t, err)
	assert.Empty(t, srv.Requests())
}

func TestMissingAPIKey(t *testing.T) {
	_, err := run(t, nil, "apps", "get", "GMAIL", "--base-url", "http://127.0.0.1:1")
	require.ErrorIs(t, err, aci.ErrMissingAPIKey)
}

func TestConfigFile(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.On(http.MethodGet, "/apps/GMAIL", testutil.JSON(http.StatusOK, map[string]any{"name": "GMAIL", "categories": []string{"email"}}))
	path := filepath.Join(t.TempDir(), "aci.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api-key: file-key\nbase-url: "+srv.URL+"\noutput: yaml\n"), 0o600))

	t.Setenv(aci.APIKeyEnv, "")
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr, srv.Client())
	cmd.SetArgs([]string{"apps", "get", "GMAIL", "--config", path})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	req, _ := srv.Last()
	assert.Equal(t, "file-key", req.Header.Get("x-api-key"))
	assert.Contains(t, stdout.String(), "name: GMAIL")
}

func TestLinkedAccountsList(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.On(http.MethodGet, "/linked-accounts", testutil.JSON(http.StatusOK, []map[string]any{{"id": "la_1", "enabled": true}}))

	out, err := run(t, srv, "linked-accounts", "list", "--owner", "user-1")
	require.NoError(t, err)
	var accounts []aci.LinkedAccount
	require.NoError(t, json.Unmarshal([]byte(out), &accounts))
	require.Len(t, accounts, 1)
	assert.True(t, accounts[0].Enabled)
	req, _ := srv.Last()
	assert.Equal(t, "user-1", req.Query.Get("linked_account_owner_id"))
}

func TestAPIErrorSurfaces(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.On(http.MethodGet, "/apps/NOPE", testutil.JSON(http.StatusNotFound, map[string]any{"message": "app NOPE not found"}))
	_, err := run(t, srv, "apps", "get", "NOPE")
	require.ErrorIs(t, err, aci.ErrNotFound)
	assert.Equal(t, "not found error: app NOPE not found", err.Error())
}

func TestWriteOutput_Unsupported(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, writeOutput(&buf, "xml", map[string]int{"a": 1}))
}
