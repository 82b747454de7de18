package llms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToolInfoToDefinition(t *testing.T) {
	def := ConvertToolInfoToDefinition("test_tool", "A test tool", []interface{}{
		map[string]interface{}{"name": "param1", "type": "string", "description": "First parameter", "required": true},
		map[string]interface{}{"name": "param2", "type": "number", "description": "Second parameter", "required": false},
	})

	assert.Equal(t, "test_tool", def.Name)
	assert.Equal(t, "A test tool", def.Description)
	assert.Equal(t, "object", def.Parameters["type"])
	assert.Equal(t, []string{"param1"}, def.Parameters["required"])

	props, ok := def.Parameters["properties"].(map[string]interface{})
	assert.True(t, ok)
	assert.Contains(t, props, "param1")
	assert.Contains(t, props, "param2")
}

func TestConvertToolInfoToDefinition_Empty(t *testing.T) {
	def := ConvertToolInfoToDefinition("empty_tool", "Tool with no parameters", nil)

	assert.Equal(t, "empty_tool", def.Name)
	assert.Equal(t, []string{}, def.Parameters["required"])
}

func TestExtractToolCallsFromMessage(t *testing.T) {
	msg := Message{
		Role: "assistant",
		ToolCalls: []ToolCall{
			{ID: "call_1", Name: "search", Arguments: map[string]interface{}{"q": "go"}},
		},
	}

	calls := ExtractToolCallsFromMessage(msg)
	assert.Len(t, calls, 1)
	assert.Equal(t, "search", calls[0].Name)
}

func TestExtractToolCallsFromMessage_None(t *testing.T) {
	msg := Message{Role: "user", Content: "hello"}
	assert.Nil(t, ExtractToolCallsFromMessage(msg))
}
