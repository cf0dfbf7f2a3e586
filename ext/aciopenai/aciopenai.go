// Package aciopenai connects aci meta functions to the OpenAI chat-completions
// API of github.com/sashabaranov/go-openai: it registers the meta functions as
// tools and turns the model's tool calls into tool messages.
package aciopenai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/skosovsky/aci"
)

// ErrNotOpenAITool is returned by Tools for a definition that is not in the openai format.
var ErrNotOpenAITool = errors.New("aciopenai: definition is not an openai tool")

// Caller handles one function call; *aci.Client implements it.
type Caller interface {
	HandleFunctionCall(ctx context.Context, call aci.FunctionCall) (any, error)
}

// MetaTools returns ACI_SEARCH_FUNCTIONS and ACI_EXECUTE_FUNCTION as OpenAI tools.
func MetaTools() []openai.Tool {
	metas := aci.MetaFunctions()
	tools := make([]openai.Tool, 0, len(metas))
	for _, m := range metas {
		s := m.Schema()
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.Parameters,
			},
		})
	}
	return tools
}

// Tools converts definitions fetched with aci.FormatOpenAI into OpenAI tools,
// for agents that register app functions directly instead of the meta functions.
func Tools(defs []aci.FunctionDefinition) ([]openai.Tool, error) {
	tools := make([]openai.Tool, 0, len(defs))
	for i, def := range defs {
		data, err := json.Marshal(def)
		if err != nil {
			return nil, fmt.Errorf("definition %d: %w", i, err)
		}
		var tool openai.Tool
		if err := json.Unmarshal(data, &tool); err != nil {
			return nil, fmt.Errorf("definition %d: %w", i, err)
		}
		if tool.Type != openai.ToolTypeFunction || tool.Function == nil || tool.Function.Name == "" {
			return nil, fmt.Errorf("definition %d: %w", i, ErrNotOpenAITool)
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

// Handler answers tool calls of one end user.
type Handler struct {
	caller      Caller
	ownerID     string
	allowedOnly bool
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithAllowedOnly limits searches to functions the agent is allowed to use.
func WithAllowedOnly() HandlerOption {
	return func(h *Handler) {
		h.allowedOnly = true
	}
}

// NewHandler returns a Handler executing functions with the linked accounts of ownerID.
func NewHandler(caller Caller, ownerID string, opts ...HandlerOption) *Handler {
	h := &Handler{caller: caller, ownerID: ownerID}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle runs one tool call and returns the tool message to append to the conversation.
// Malformed arguments produce a tool message with an "error" field so the model can
// correct itself; any other failure is returned as error.
func (h *Handler) Handle(ctx context.Context, call openai.ToolCall) (openai.ChatCompletionMessage, error) {
	args, err := decodeArguments(call.Function.Arguments)
	if err != nil {
		return toolMessage(call.ID, errorContent(err))
	}
	result, err := h.caller.HandleFunctionCall(ctx, h.functionCall(call.Function.Name, args))
	return h.message(call, result, err)
}

// BatchCaller handles the parallel calls of one model turn; *aci.Client implements it.
type BatchCaller interface {
	HandleFunctionCalls(ctx context.Context, calls []aci.FunctionCall) []aci.CallResult
}

// HandleAll answers every tool call of one assistant message, returning the
// tool messages in call order. When the caller is a BatchCaller the calls run
// concurrently, otherwise one after another. The first failure that is not an
// input error is returned.
func (h *Handler) HandleAll(ctx context.Context, calls []openai.ToolCall) ([]openai.ChatCompletionMessage, error) {
	batch, ok := h.caller.(BatchCaller)
	if !ok {
		msgs := make([]openai.ChatCompletionMessage, 0, len(calls))
		for _, call := range calls {
			msg, err := h.Handle(ctx, call)
			if err != nil {
				return msgs, err
			}
			msgs = append(msgs, msg)
		}
		return msgs, nil
	}

	msgs := make([]openai.ChatCompletionMessage, len(calls))
	pending := make([]aci.FunctionCall, 0, len(calls))
	index := make([]int, 0, len(calls))
	for i, call := range calls {
		args, err := decodeArguments(call.Function.Arguments)
		if err != nil {
			if msgs[i], err = toolMessage(call.ID, errorContent(err)); err != nil {
				return nil, err
			}
			continue
		}
		pending = append(pending, h.functionCall(call.Function.Name, args))
		index = append(index, i)
	}
	for j, res := range batch.HandleFunctionCalls(ctx, pending) {
		call := calls[index[j]]
		msg, err := h.message(call, res.Result, res.Err)
		if err != nil {
			return nil, err
		}
		msgs[index[j]] = msg
	}
	return msgs, nil
}

func (h *Handler) functionCall(name string, args map[string]any) aci.FunctionCall {
	return aci.FunctionCall{
		Name:                 name,
		Arguments:            args,
		LinkedAccountOwnerID: h.ownerID,
		AllowedOnly:          h.allowedOnly,
		Format:               aci.FormatOpenAI,
	}
}

// message turns the outcome of call into a tool message; input errors go back to the model.
func (h *Handler) message(call openai.ToolCall, result any, err error) (openai.ChatCompletionMessage, error) {
	if aci.IsInputError(err) {
		return toolMessage(call.ID, errorContent(err))
	}
	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("tool call %s (%s): %w", call.ID, call.Function.Name, err)
	}
	return toolMessage(call.ID, result)
}

func decodeArguments(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %w", err)
	}
	return args, nil
}

func errorContent(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

func toolMessage(callID string, content any) (openai.ChatCompletionMessage, error) {
	data, err := json.Marshal(content)
	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("encode tool result: %w", err)
	}
	return openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Content:    string(data),
		ToolCallID: callID,
	}, nil
}
