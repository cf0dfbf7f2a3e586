package aci

import (
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// Names of the meta functions an LLM can call to discover and run other functions.
const (
	SearchFunctionsName = "ACI_SEARCH_FUNCTIONS"
	ExecuteFunctionName = "ACI_EXECUTE_FUNCTION"
)

// MetaFunction is a client-side function definition that HandleFunctionCall
// routes to the functions API instead of executing a remote app function.
type MetaFunction struct {
	schema   FunctionSchema
	resolved func() (*jsonschema.Resolved, error)
}

func newMetaFunction(schema FunctionSchema) *MetaFunction {
	m := &MetaFunction{schema: schema}
	m.resolved = sync.OnceValues(func() (*jsonschema.Resolved, error) {
		return compileRawSchema(m.schema.Parameters)
	})
	return m
}

// SearchFunctions lets an LLM find executable functions relevant to an intent.
var SearchFunctions = newMetaFunction(FunctionSchema{
	Name:        SearchFunctionsName,
	Description: "This function allows you to find relevant executable functions and their schemas that can help complete your tasks.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"intent": map[string]any{
				"type":        "string",
				"description": "Use this to find relevant functions you might need. Returned results will be sorted by relevance to the intent.",
			},
			"limit": map[string]any{
				"type":        "integer",
				"default":     100,
				"description": "The maximum number of functions to return from the search per response.",
				"minimum":     1,
			},
			"offset": map[string]any{
				"type":        "integer",
				"default":     0,
				"minimum":     0,
				"description": "Pagination offset.",
			},
		},
		"required":             []any{},
		"additionalProperties": false,
	},
})

// ExecuteFunction lets an LLM run a function previously found with SearchFunctions.
var ExecuteFunction = newMetaFunction(FunctionSchema{
	Name:        ExecuteFunctionName,
	Description: "Execute a specific retrieved function. Provide the executable function name, and the required function parameters for that function.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"function_name": map[string]any{
				"type":        "string",
				"description": "The name of the function to execute",
			},
			"function_arguments": map[string]any{
				"type":                 "object",
				"description":          "A dictionary containing key-value pairs of input parameters required by the specified function. If the function requires no parameters, provide an empty object.",
				"additionalProperties": true,
			},
		},
		"required":             []any{"function_name", "function_arguments"},
		"additionalProperties": false,
	},
})

// MetaFunctions returns the search and execute meta functions, in that order.
func MetaFunctions() []*MetaFunction {
	return []*MetaFunction{SearchFunctions, ExecuteFunction}
}

// FormattedMetaFunctions renders both meta functions for tool registration with an LLM.
func FormattedMetaFunctions(format Format) []FormattedSchema {
	out := make([]FormattedSchema, 0, 2)
	for _, m := range MetaFunctions() {
		out = append(out, m.ToFormattedSchema(format))
	}
	return out
}

// Name returns the function name the LLM calls.
func (m *MetaFunction) Name() string { return m.schema.Name }

// Schema returns a deep copy of the raw schema; callers may mutate it freely.
func (m *MetaFunction) Schema() FunctionSchema {
	return FunctionSchema{
		Name:        m.schema.Name,
		Description: m.schema.Description,
		Parameters:  cloneJSONMap(m.schema.Parameters),
	}
}

// ToFormattedSchema renders the schema in format (see ToFormattedSchema).
func (m *MetaFunction) ToFormattedSchema(format Format) FormattedSchema {
	return ToFormattedSchema(m.Schema(), format)
}

// ValidateArguments checks decoded JSON arguments against the parameter schema.
// Failures are *Error with KindValidation.
func (m *MetaFunction) ValidateArguments(args map[string]any) error {
	resolved, err := m.resolved()
	if err != nil {
		return &Error{Kind: KindUnknown, Message: "cannot compile schema of " + m.schema.Name, Err: err}
	}
	var v any = args
	if args == nil {
		v = map[string]any{}
	}
	if err := resolved.Validate(v); err != nil {
		return &Error{Kind: KindValidation, Message: m.schema.Name + ": " + err.Error(), Err: err}
	}
	return nil
}

// NormalizeExecuteArguments repairs execute arguments an LLM emitted without
// nesting: {"function_name": "X", "a": 1} becomes
// {"function_name": "X", "function_arguments": {"a": 1}}. Arguments that
// already contain "function_arguments" are returned as is. The input is never
// mutated and applying the function twice yields the same result.
func NormalizeExecuteArguments(args map[string]any) map[string]any {
	if _, ok := args["function_arguments"]; ok {
		return args
	}
	rest := make(map[string]any, len(args))
	out := make(map[string]any, 2)
	for k, v := range args {
		if k == "function_name" {
			out[k] = v
			continue
		}
		rest[k] = v
	}
	out["function_arguments"] = rest
	return out
}
