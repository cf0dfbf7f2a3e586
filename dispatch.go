package aci

import (
	"context"
	"encoding/json"
)

// FunctionCall is one function call produced by an LLM.
type FunctionCall struct {
	// Name is a meta function name or the name of an app function to execute directly.
	Name      string
	Arguments map[string]any
	// LinkedAccountOwnerID selects whose linked account credentials run the function.
	LinkedAccountOwnerID string
	// AllowedOnly limits search results to enabled functions of apps the agent may use.
	AllowedOnly bool
	// Format of the definitions returned by a search.
	Format Format
}

// FunctionSearcher is the search side of the functions API.
type FunctionSearcher interface {
	Search(ctx context.Context, params SearchFunctionsParams) ([]FunctionDefinition, error)
}

// FunctionExecutor is the execute side of the functions API.
type FunctionExecutor interface {
	Execute(ctx context.Context, params ExecuteParams) (*FunctionExecutionResult, error)
}

// Dispatcher routes function calls to search or execution. It holds no
// per-call state and is safe for concurrent use.
type Dispatcher struct {
	searcher     FunctionSearcher
	executor     FunctionExecutor
	validateArgs bool
}

// NewDispatcher returns a Dispatcher over the given collaborators.
// When validateArgs is true, meta-function arguments are checked against their schemas first.
func NewDispatcher(searcher FunctionSearcher, executor FunctionExecutor, validateArgs bool) *Dispatcher {
	return &Dispatcher{searcher: searcher, executor: executor, validateArgs: validateArgs}
}

// Handle executes call and returns what the underlying API returned:
//   - ACI_SEARCH_FUNCTIONS: []FunctionDefinition
//   - ACI_EXECUTE_FUNCTION and any other name: *FunctionExecutionResult
//
// Errors from the functions API are returned unchanged.
func (d *Dispatcher) Handle(ctx context.Context, call FunctionCall) (any, error) {
	switch call.Name {
	case SearchFunctionsName:
		defs, err := d.search(ctx, call)
		if err != nil {
			return nil, err
		}
		return defs, nil
	case ExecuteFunctionName:
		res, err := d.executeMeta(ctx, call)
		if err != nil {
			return nil, err
		}
		return res, nil
	default:
		res, err := d.executor.Execute(ctx, ExecuteParams{
			FunctionName:         call.Name,
			FunctionParameters:   call.Arguments,
			LinkedAccountOwnerID: call.LinkedAccountOwnerID,
		})
		if err != nil {
			return nil, err
		}
		return res, nil
	}
}

func (d *Dispatcher) search(ctx context.Context, call FunctionCall) ([]FunctionDefinition, error) {
	if d.validateArgs {
		if err := SearchFunctions.ValidateArguments(call.Arguments); err != nil {
			return nil, err
		}
	}
	params, err := decodeSearchArguments(call.Arguments)
	if err != nil {
		return nil, err
	}
	params.AllowedOnly = call.AllowedOnly
	params.Format = call.Format
	return d.searcher.Search(ctx, params)
}

func (d *Dispatcher) executeMeta(ctx context.Context, call FunctionCall) (*FunctionExecutionResult, error) {
	args := NormalizeExecuteArguments(call.Arguments)
	if d.validateArgs {
		if err := ExecuteFunction.ValidateArguments(args); err != nil {
			return nil, err
		}
	}
	name, ok := args["function_name"].(string)
	if !ok && args["function_name"] != nil {
		return nil, validationError("%s: function_name must be a string", ExecuteFunctionName)
	}
	var fnArgs map[string]any
	switch v := args["function_arguments"].(type) {
	case map[string]any:
		fnArgs = v
	case nil:
	default:
		return nil, validationError("%s: function_arguments must be an object", ExecuteFunctionName)
	}
	return d.executor.Execute(ctx, ExecuteParams{
		FunctionName:         name,
		FunctionParameters:   fnArgs,
		LinkedAccountOwnerID: call.LinkedAccountOwnerID,
	})
}

// decodeSearchArguments maps LLM search arguments (intent, limit, offset, app_names)
// onto SearchFunctionsParams. Unknown keys are ignored.
func decodeSearchArguments(args map[string]any) (SearchFunctionsParams, error) {
	var params SearchFunctionsParams
	if len(args) == 0 {
		return params, nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return params, &Error{Kind: KindValidation, Message: err.Error(), Err: err}
	}
	var raw struct {
		AppNames []string `json:"app_names"`
		Intent   string   `json:"intent"`
		Limit    *int     `json:"limit"`
		Offset   *int     `json:"offset"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return params, &Error{Kind: KindValidation, Message: SearchFunctionsName + ": " + err.Error(), Err: err}
	}
	params.AppNames = raw.AppNames
	params.Intent = raw.Intent
	params.Limit = raw.Limit
	params.Offset = raw.Offset
	return params, nil
}
