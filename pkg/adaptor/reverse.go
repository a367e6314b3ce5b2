package adaptor

import "fmt"

// Mode selects how ConvertOpenAIToAnthropic interprets its input.
type Mode string

const (
	// ModeAuto sniffs the input shape.
	ModeAuto Mode = "auto"
	// ModeInput expects a responses.create input payload (string, message
	// object, or message list).
	ModeInput Mode = "input"
	// ModeResponse expects a full response object with an "output" list.
	ModeResponse Mode = "response"
	// ModeOutput expects a raw output item list.
	ModeOutput Mode = "output"
)

// ConvertOpenAIToAnthropic converts OpenAI Responses payloads into the
// Anthropic Messages request shape {"messages": ..., "system"?: ...}.
func ConvertOpenAIToAnthropic(data interface{}, mode Mode, opts ItemOptions) (map[string]interface{}, error) {
	if mode == "" {
		mode = ModeAuto
	}
	if mode == ModeAuto {
		detected, err := autoDetectMode(data)
		if err != nil {
			return nil, err
		}
		mode = detected
	}

	var (
		instructions string
		items        []interface{}
	)
	switch mode {
	case ModeResponse:
		resp := asMap(data)
		if resp == nil {
			return nil, fmt.Errorf("mode=response expects a response object with an output list")
		}
		out, ok := resp["output"].([]interface{})
		if !ok {
			return nil, fmt.Errorf("mode=response expects a response object with an output list")
		}
		instructions = asString(resp["instructions"])
		items = out
	case ModeOutput:
		out, ok := data.([]interface{})
		if !ok {
			return nil, fmt.Errorf("mode=output expects a list (response.output)")
		}
		items = out
	case ModeInput:
		normalized, err := normalizeInputToItems(data)
		if err != nil {
			return nil, err
		}
		items = normalized
	default:
		return nil, fmt.Errorf("mode must be one of: auto, input, response, output")
	}

	system, messages := ItemsToMessages(items, instructions, opts)
	out := map[string]interface{}{"messages": messages}
	if system != nil {
		out["system"] = system
	}
	return out, nil
}

func autoDetectMode(data interface{}) (Mode, error) {
	if m := asMap(data); m != nil {
		if _, ok := m["output"].([]interface{}); ok {
			return ModeResponse, nil
		}
		_, hasRole := m["role"]
		_, hasContent := m["content"]
		if hasRole && hasContent {
			return ModeInput, nil
		}
		return "", fmt.Errorf("could not auto-detect mode for provided data")
	}
	if list, ok := data.([]interface{}); ok {
		if len(list) > 0 {
			if first := asMap(list[0]); first != nil {
				switch asString(first["type"]) {
				case "message", "function_call", "reasoning", "custom_tool_call":
					return ModeOutput, nil
				}
				if _, ok := first["role"]; ok {
					return ModeInput, nil
				}
			}
		}
		return ModeOutput, nil
	}
	return "", fmt.Errorf("could not auto-detect mode for provided data")
}

// normalizeInputToItems widens the Responses input shorthand (bare string,
// single message, message list) into message items.
func normalizeInputToItems(data interface{}) ([]interface{}, error) {
	messageItem := func(role interface{}, content interface{}) map[string]interface{} {
		return map[string]interface{}{"type": "message", "role": role, "content": content}
	}
	textContent := func(text string) []interface{} {
		return []interface{}{map[string]interface{}{"type": "input_text", "text": text}}
	}

	switch d := data.(type) {
	case string:
		return []interface{}{messageItem("user", textContent(d))}, nil
	case map[string]interface{}:
		_, hasRole := d["role"]
		_, hasContent := d["content"]
		if hasRole && hasContent {
			return []interface{}{messageItem(d["role"], normalizeInputContent(d["content"]))}, nil
		}
	case []interface{}:
		var out []interface{}
		for _, raw := range d {
			if m := asMap(raw); m != nil {
				_, hasRole := m["role"]
				_, hasContent := m["content"]
				if hasRole && hasContent {
					out = append(out, messageItem(m["role"], normalizeInputContent(m["content"])))
				}
				continue
			}
			if s, ok := raw.(string); ok {
				out = append(out, messageItem("user", textContent(s)))
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported OpenAI input shape")
}

func normalizeInputContent(content interface{}) []interface{} {
	switch c := content.(type) {
	case nil:
		return []interface{}{}
	case string:
		return []interface{}{map[string]interface{}{"type": "input_text", "text": c}}
	case []interface{}:
		out := make([]interface{}, 0, len(c))
		for _, part := range c {
			if asMap(part) != nil {
				out = append(out, part)
			}
		}
		return out
	default:
		return []interface{}{map[string]interface{}{"type": "input_text", "text": stringify(c)}}
	}
}
