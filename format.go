package aci

import (
	"fmt"
	"strings"
)

// Format selects the JSON shape a function definition is rendered into.
type Format string

const (
	FormatOpenAI          Format = "openai"
	FormatOpenAIResponses Format = "openai_responses"
	FormatAnthropic       Format = "anthropic"
	FormatBasic           Format = "basic"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatOpenAI, FormatOpenAIResponses, FormatAnthropic, FormatBasic}
}

// ParseFormat parses user input such as "OPENAI" or "anthropic". Empty input yields FormatOpenAI.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatOpenAI, nil
	}
	for _, f := range Formats() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", validationError("unsupported function definition format %q", s)
}

// wire returns the lower-case value sent to the service; empty stays empty.
func (f Format) wire() string {
	return strings.ToLower(string(f))
}

// FunctionSchema is the format-independent description of a callable function.
type FunctionSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// FormattedSchema is a FunctionSchema rendered for one LLM tool-calling convention.
// It is implemented only by the four *FunctionDefinition types of this package.
type FormattedSchema interface {
	Format() Format
}

// BasicFunctionDefinition has the same shape as FunctionSchema.
type BasicFunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// OpenAIFunction is the nested "function" object of an OpenAI chat-completions tool.
type OpenAIFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// OpenAIFunctionDefinition is an OpenAI chat-completions tool.
type OpenAIFunctionDefinition struct {
	Type     string         `json:"type"`
	Function OpenAIFunction `json:"function"`
}

// OpenAIResponsesFunctionDefinition is an OpenAI Responses API tool.
type OpenAIResponsesFunctionDefinition struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// AnthropicFunctionDefinition is an Anthropic Messages API tool.
type AnthropicFunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

func (BasicFunctionDefinition) Format() Format           { return FormatBasic }
func (OpenAIFunctionDefinition) Format() Format          { return FormatOpenAI }
func (OpenAIResponsesFunctionDefinition) Format() Format { return FormatOpenAIResponses }
func (AnthropicFunctionDefinition) Format() Format       { return FormatAnthropic }

// ToFormattedSchema renders schema in the given format; an empty format means FormatOpenAI.
// The conversion is pure. Parameters is shared, not copied.
// It panics on a format outside Formats(): the set is closed and callers pass constants.
func ToFormattedSchema(schema FunctionSchema, format Format) FormattedSchema {
	switch format {
	case FormatOpenAI, "":
		return OpenAIFunctionDefinition{
			Type: "function",
			Function: OpenAIFunction{
				Name:        schema.Name,
				Description: schema.Description,
				Parameters:  schema.Parameters,
			},
		}
	case FormatOpenAIResponses:
		return OpenAIResponsesFunctionDefinition{
			Type:        "function",
			Name:        schema.Name,
			Description: schema.Description,
			Parameters:  schema.Parameters,
		}
	case FormatAnthropic:
		return AnthropicFunctionDefinition{
			Name:        schema.Name,
			Description: schema.Description,
			InputSchema: schema.Parameters,
		}
	case FormatBasic:
		return BasicFunctionDefinition(schema)
	default:
		panic(fmt.Sprintf("aci: unsupported schema format %q", string(format)))
	}
}
