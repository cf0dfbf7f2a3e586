package aciopenai

import (
	"context"
	"net/http"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/skosovsky/aci"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCaller struct {
	calls  []aci.FunctionCall
	result any
	err    error
}

func (f *fakeCaller) HandleFunctionCall(_ context.Context, call aci.FunctionCall) (any, error) {
	f.calls = append(f.calls, call)
	return f.result, f.err
}

func TestMetaTools(t *testing.T) {
	tools := MetaTools()
	require.Len(t, tools, 2)
	assert.Equal(t, openai.ToolTypeFunction, tools[0].Type)
	assert.Equal(t, aci.SearchFunctionsName, tools[0].Function.Name)
	assert.Equal(t, aci.ExecuteFunctionName, tools[1].Function.Name)
	params, ok := tools[1].Function.Parameters.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"function_name", "function_arguments"}, params["required"])
}

func TestTools(t *testing.T) {
	defs := []aci.FunctionDefinition{{
		"type": "function",
		"function": map[string]any{
			"name":        "GMAIL__SEND",
			"description": "Send an email",
			"parameters":  map[string]any{"type": "object"},
		},
	}}
	tools, err := Tools(defs)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "GMAIL__SEND", tools[0].Function.Name)
	assert.Equal(t, "Send an email", tools[0].Function.Description)
	assert.Equal(t, map[string]any{"type": "object"}, tools[0].Function.Parameters)

	_, err = Tools([]aci.FunctionDefinition{{"name": "X", "input_schema": map[string]any{}}})
	require.ErrorIs(t, err, ErrNotOpenAITool)
}

func TestHandler_Handle(t *testing.T) {
	caller := &fakeCaller{result: &aci.FunctionExecutionResult{Success: true, Data: map[string]any{"id": "m1"}}}
	h := NewHandler(caller, "user-1", WithAllowedOnly())

	msg, err := h.Handle(context.Background(), openai.ToolCall{
		ID:   "call_1",
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      aci.ExecuteFunctionName,
			Arguments: `{"function_name":"GMAIL__SEND","function_arguments":{"to":"a@b.c"}}`,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, openai.ChatMessageRoleTool, msg.Role)
	assert.Equal(t, "call_1", msg.ToolCallID)
	assert.JSONEq(t, `{"success":true,"data":{"id":"m1"}}`, msg.Content)

	require.Len(t, caller.calls, 1)
	assert.Equal(t, aci.FunctionCall{
		Name:                 aci.ExecuteFunctionName,
		Arguments:            map[string]any{"function_name": "GMAIL__SEND", "function_arguments": map[string]any{"to": "a@b.c"}},
		LinkedAccountOwnerID: "user-1",
		AllowedOnly:          true,
		Format:               aci.FormatOpenAI,
	}, caller.calls[0])
}

func TestHandler_MalformedArgumentsGoBackToModel(t *testing.T) {
	caller := &fakeCaller{}
	h := NewHandler(caller, "user-1")

	msg, err := h.Handle(context.Background(), openai.ToolCall{ID: "c", Function: openai.FunctionCall{Name: aci.SearchFunctionsName, Arguments: `{"intent":`}})
	require.NoError(t, err)
	assert.Contains(t, msg.Content, `"error"`)
	assert.Empty(t, caller.calls)

	caller.err = &aci.Error{Kind: aci.KindValidation, Message: "limit must be >= 1"}
	msg, err = h.Handle(context.Background(), openai.ToolCall{ID: "c2", Function: openai.FunctionCall{Name: aci.SearchFunctionsName, Arguments: `{"limit":0}`}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"validation error: limit must be >= 1"}`, msg.Content)
	assert.Equal(t, "c2", msg.ToolCallID)
}

func TestHandler_EmptyArguments(t *testing.T) {
	caller := &fakeCaller{result: []aci.FunctionDefinition{}}
	h := NewHandler(caller, "u")
	msg, err := h.Handle(context.Background(), openai.ToolCall{ID: "c", Function: openai.FunctionCall{Name: aci.SearchFunctionsName}})
	require.NoError(t, err)
	assert.Equal(t, "[]", msg.Content)
	require.Len(t, caller.calls, 1)
	assert.Equal(t, map[string]any{}, caller.calls[0].Arguments)
}

func TestHandler_HandleAllStopsOnError(t *testing.T) {
	caller := &fakeCaller{err: &aci.Error{Kind: aci.KindServer, Message: "down", StatusCode: http.StatusServiceUnavailable}}
	h := NewHandler(caller, "u")
	msgs, err := h.HandleAll(context.Background(), []openai.ToolCall{
		{ID: "a", Function: openai.FunctionCall{Name: "X", Arguments: `{}`}},
		{ID: "b", Function: openai.FunctionCall{Name: "Y", Arguments: `{}`}},
	})
	require.ErrorIs(t, err, aci.ErrServer)
	assert.Empty(t, msgs)
	assert.Len(t, caller.calls, 1)
}

type fakeBatchCaller struct {
	fakeCaller
	batches [][]aci.FunctionCall
	results []aci.CallResult
}

func (f *fakeBatchCaller) HandleFunctionCalls(_ context.Context, calls []aci.FunctionCall) []aci.CallResult {
	f.batches = append(f.batches, calls)
	return f.results
}

func TestHandler_HandleAllBatch(t *testing.T) {
	caller := &fakeBatchCaller{results: []aci.CallResult{
		{Result: &aci.FunctionExecutionResult{Success: true}},
		{Err: &aci.Error{Kind: aci.KindValidation, Message: "function_name: required"}},
	}}
	h := NewHandler(caller, "u")

	msgs, err := h.HandleAll(context.Background(), []openai.ToolCall{
		{ID: "a", Function: openai.FunctionCall{Name: "X", Arguments: `{"q":1}`}},
		{ID: "bad", Function: openai.FunctionCall{Name: "Y", Arguments: `not json`}},
		{ID: "c", Function: openai.FunctionCall{Name: aci.ExecuteFunctionName, Arguments: `{}`}},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"a", "bad", "c"}, []string{msgs[0].ToolCallID, msgs[1].ToolCallID, msgs[2].ToolCallID})
	assert.JSONEq(t, `{"success":true}`, msgs[0].Content)
	assert.Contains(t, msgs[1].Content, "arguments are not a JSON object")
	assert.JSONEq(t, `{"error":"validation error: function_name: required"}`, msgs[2].Content)

	require.Len(t, caller.batches, 1)
	require.Len(t, caller.batches[0], 2)
	assert.Equal(t, "X", caller.batches[0][0].Name)
	assert.Equal(t, aci.ExecuteFunctionName, caller.batches[0][1].Name)
	assert.Empty(t, caller.calls, "single-call path is not used")
}

func TestHandler_HandleAllBatchFailure(t *testing.T) {
	caller := &fakeBatchCaller{results: []aci.CallResult{
		{Err: &aci.Error{Kind: aci.KindAuthentication, Message: "bad key", StatusCode: http.StatusUnauthorized}},
	}}
	h := NewHandler(caller, "u")
	_, err := h.HandleAll(context.Background(), []openai.ToolCall{{ID: "a", Function: openai.FunctionCall{Name: "X"}}})
	require.ErrorIs(t, err, aci.ErrAuthentication)
	assert.Contains(t, err.Error(), "tool call a (X)")
}
