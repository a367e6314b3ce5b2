package adaptor

// ConvertResponseToMessage converts a Responses object into an Anthropic
// message envelope. Content comes from the assistant messages produced by
// ItemsToMessages; any derived system text is discarded.
func ConvertResponseToMessage(resp map[string]interface{}, opts ItemOptions) map[string]interface{} {
	items := asSlice(resp["output"])
	_, messages := ItemsToMessages(items, "", opts)

	content := []interface{}{}
	for _, msg := range messages {
		if asString(msg["role"]) == "assistant" {
			content = append(content, asSlice(msg["content"])...)
		}
	}

	id := asString(resp["id"])
	if id == "" {
		id = newID("msg")
	}
	model := asString(resp["model"])
	if model == "" {
		model = "unknown"
	}

	usage := map[string]interface{}{}
	if u := asMap(resp["usage"]); u != nil {
		usage["input_tokens"] = u["input_tokens"]
		usage["output_tokens"] = u["output_tokens"]
	}

	return map[string]interface{}{
		"id":            id,
		"type":          "message",
		"role":          "assistant",
		"content":       content,
		"model":         model,
		"stop_reason":   responseStopReason(resp),
		"stop_sequence": nil,
		"usage":         usage,
	}
}

// responseStopReason derives the Anthropic stop_reason from a Responses
// object: max_tokens cutoff wins, then a trailing tool call, then end_turn.
func responseStopReason(resp map[string]interface{}) string {
	if inc := asMap(resp["incomplete_details"]); asString(inc["reason"]) == "max_tokens" {
		return "max_tokens"
	}
	if out := asSlice(resp["output"]); len(out) > 0 {
		if isToolCallItem(asMap(out[len(out)-1])) {
			return "tool_use"
		}
	}
	return "end_turn"
}

func isToolCallItem(item map[string]interface{}) bool {
	switch asString(item["type"]) {
	case "function_call", "custom_tool_call":
		return true
	}
	return false
}
