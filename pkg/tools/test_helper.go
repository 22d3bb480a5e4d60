package tools

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

// resultText returns the first text content block of a tool result.
func resultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

// IsErrorResult reports whether a CallToolResult carries an error.
func IsErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// AssertErrorResult fails the test when the result is not an error result.
func AssertErrorResult(t *testing.T, result *mcp.CallToolResult, message string) {
	t.Helper()
	if !IsErrorResult(result) {
		t.Error(message)
	}
}

// AssertSuccessResult fails the test when the result is an error result,
// including the tool's error text in the failure output.
func AssertSuccessResult(t *testing.T, result *mcp.CallToolResult, message string) {
	t.Helper()
	if IsErrorResult(result) {
		t.Errorf("%s. Got error: %s", message, resultText(result))
	}
}

// ParseResultJSON decodes the result's text content into out.
func ParseResultJSON(result *mcp.CallToolResult, out interface{}) error {
	text := resultText(result)
	if text == "" {
		return fmt.Errorf("result has no text content")
	}
	return json.Unmarshal([]byte(text), out)
}
