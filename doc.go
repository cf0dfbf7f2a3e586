// Package aci is a client for the ACI tool-calling platform: a hosted catalog
// of app functions that LLM agents discover and execute on behalf of end users.
//
// # Overview
//
// An agent is given two meta functions instead of the full catalog.
// ACI_SEARCH_FUNCTIONS finds functions by intent; ACI_EXECUTE_FUNCTION runs one
// of them with the linked account of an end user. HandleFunctionCall routes a
// model's tool call to the right REST operation and returns the result verbatim,
// so it can be fed back to the model.
//
// Pipeline: tool call from the LLM → Dispatcher (normalize, optional schema
// validation) → resource (input validation) → transport (retry, error mapping)
// → ACI API.
//
// # Key concepts
//
//   - Formats: function and meta-function schemas are rendered for openai,
//     openai_responses or anthropic tool definitions (see ToFormattedSchema).
//   - Error kinds: every failure is an *Error with a Kind; errors.Is matches the
//     sentinel of the kind (ErrNotFound, ErrRateLimit, ...). IsInputError tells
//     errors the model can correct apart from platform failures.
//   - Retries: 429, 5xx and connection failures are retried with exponential
//     backoff (RetryPolicy); the wait respects ctx.
//   - Partial success: HandleFunctionCalls runs parallel tool calls of one turn,
//     one failure does not cancel the others.
//
// # Example
//
//	client, err := aci.New(aci.Config{}) // API key from ACI_API_KEY
//	if err != nil { ... }
//	tools := aci.FormattedMetaFunctions(aci.FormatOpenAI)
//	// ... send tools to the model, then for each tool call:
//	result, err := client.HandleFunctionCall(ctx, aci.FunctionCall{
//	    Name:                 call.Name,
//	    Arguments:            call.Arguments,
//	    LinkedAccountOwnerID: "user-123",
//	    Format:               aci.FormatOpenAI,
//	})
package aci
