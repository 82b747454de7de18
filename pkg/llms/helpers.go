package llms

// ExtractToolCallsFromMessage returns the tool calls attached to an
// assistant message, if any.
func ExtractToolCallsFromMessage(msg Message) []ToolCall {
	return msg.ToolCalls
}
