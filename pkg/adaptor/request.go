package adaptor

import (
	"errors"
	"strings"
)

// ErrInvalidRequest marks request payloads that are not JSON objects.
var ErrInvalidRequest = errors.New("request payload must be a JSON object")

// RequestOptions tune the Anthropic -> Responses request conversion.
type RequestOptions struct {
	// ImageURLObject selects the {"url": ...} object form for image parts
	// instead of a bare URL string. Some upstreams only accept one shape.
	ImageURLObject bool

	// Reasoning is deep-merged into the outgoing request's reasoning config.
	Reasoning map[string]interface{}
}

// ConvertAnthropicRequest converts an Anthropic Messages request into an
// OpenAI Responses request. Scalar knobs pass through when present with the
// expected type; messages are flattened into Responses input items.
func ConvertAnthropicRequest(payload map[string]interface{}, opts RequestOptions) (map[string]interface{}, error) {
	if payload == nil {
		return nil, ErrInvalidRequest
	}

	out := map[string]interface{}{
		"model": payload["model"],
		"input": messagesToItems(asSlice(payload["messages"]), opts),
	}

	if instructions := systemToText(payload["system"]); instructions != "" {
		out["instructions"] = instructions
	}

	if n, ok := intValue(payload["max_tokens"]); ok {
		out["max_output_tokens"] = n
	}
	if v, present := payload["temperature"]; present && isNumber(v) {
		out["temperature"] = v
	}
	if v, present := payload["top_p"]; present && isNumber(v) {
		out["top_p"] = v
	}
	if v, ok := payload["stream"].(bool); ok {
		out["stream"] = v
	}

	if tools, ok := payload["tools"].([]interface{}); ok {
		out["tools"] = convertTools(tools)
	}
	if tc, present := payload["tool_choice"]; present && tc != nil {
		out["tool_choice"] = convertToolChoice(tc)
	}

	if len(opts.Reasoning) > 0 {
		out["reasoning"] = DeepMerge(asMap(out["reasoning"]), opts.Reasoning)
	}

	return out, nil
}

// messagesToItems walks user/assistant messages in order and emits Responses
// input items. Text and image blocks accumulate into a message item; tool_use
// and tool_result blocks flush the accumulated parts and emit their own item,
// preserving block order.
func messagesToItems(messages []interface{}, opts RequestOptions) []interface{} {
	items := make([]interface{}, 0, len(messages))

	for _, raw := range messages {
		msg := asMap(raw)
		if msg == nil {
			continue
		}
		role := asString(msg["role"])
		if role != "user" && role != "assistant" {
			continue
		}

		textPartType := "input_text"
		imagePartType := "input_image"
		if role == "assistant" {
			textPartType = "output_text"
			imagePartType = "output_image"
		}

		var parts []interface{}
		flush := func() {
			if len(parts) == 0 {
				return
			}
			items = append(items, map[string]interface{}{
				"type":    "message",
				"role":    role,
				"content": parts,
			})
			parts = nil
		}

		for _, rawBlock := range normalizeContent(msg["content"]) {
			block := asMap(rawBlock)
			switch asString(block["type"]) {
			case "text":
				parts = append(parts, map[string]interface{}{
					"type": textPartType,
					"text": stringify(block["text"]),
				})
			case "image":
				if part := imageToPart(block, imagePartType, opts.ImageURLObject); part != nil {
					parts = append(parts, part)
				}
			case "tool_use":
				flush()
				items = append(items, toolUseToItem(block))
			case "tool_result":
				flush()
				items = append(items, toolResultToItem(block))
			default:
				// Unknown block types become text for safety.
				parts = append(parts, map[string]interface{}{
					"type": textPartType,
					"text": mustJSON(block),
				})
			}
		}
		flush()
	}

	return items
}

// normalizeContent accepts the string shorthand, a block list, or anything
// else (rendered as one text block).
func normalizeContent(content interface{}) []map[string]interface{} {
	switch c := content.(type) {
	case nil:
		return nil
	case string:
		return []map[string]interface{}{{"type": "text", "text": c}}
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(c))
		for _, b := range c {
			if m := asMap(b); m != nil {
				out = append(out, m)
			}
		}
		return out
	default:
		return []map[string]interface{}{{"type": "text", "text": stringify(c)}}
	}
}

// systemToText collapses the Anthropic system field to one instructions
// string: verbatim for strings, concatenated text entries for lists.
func systemToText(system interface{}) string {
	switch s := system.(type) {
	case nil:
		return ""
	case string:
		return s
	case []interface{}:
		var b strings.Builder
		for _, raw := range s {
			block := asMap(raw)
			if asString(block["type"]) == "text" {
				b.WriteString(stringify(block["text"]))
			}
		}
		return strings.TrimSpace(b.String())
	default:
		return stringify(s)
	}
}

func convertTools(tools []interface{}) []interface{} {
	out := make([]interface{}, 0, len(tools))
	for _, raw := range tools {
		t := asMap(raw)
		if t == nil {
			continue
		}
		name := asString(t["name"])
		if name == "" {
			continue
		}
		parameters := t["input_schema"]
		if parameters == nil {
			parameters = map[string]interface{}{}
		}
		out = append(out, map[string]interface{}{
			"type":        "function",
			"name":        name,
			"description": t["description"],
			"parameters":  parameters,
		})
	}
	return out
}

func convertToolChoice(choice interface{}) interface{} {
	if s, ok := choice.(string); ok {
		return s
	}
	if m := asMap(choice); m != nil {
		if asString(m["type"]) == "tool" && asString(m["name"]) != "" {
			return map[string]interface{}{"type": "function", "name": m["name"]}
		}
	}
	return choice
}

// toolUseToItem turns a tool_use block into a function_call item. The
// original block id survives as call_id; the item id is freshly minted.
func toolUseToItem(block map[string]interface{}) map[string]interface{} {
	callID := asString(block["id"])
	if callID == "" {
		callID = newID("call")
	}
	var args string
	if s, ok := block["input"].(string); ok {
		args = s
	} else if block["input"] == nil {
		args = "{}"
	} else {
		args = mustJSON(block["input"])
	}
	return map[string]interface{}{
		"type":      "function_call",
		"id":        newID("fc"),
		"call_id":   callID,
		"name":      asString(block["name"]),
		"arguments": args,
	}
}

func toolResultToItem(block map[string]interface{}) map[string]interface{} {
	output := block["content"]
	if list, ok := output.([]interface{}); ok {
		var b strings.Builder
		for _, raw := range list {
			if m := asMap(raw); asString(m["type"]) == "text" {
				b.WriteString(stringify(m["text"]))
			}
		}
		output = b.String()
	}
	return map[string]interface{}{
		"type":    "function_call_output",
		"call_id": asString(block["tool_use_id"]),
		"output":  stringify(output),
	}
}

// imageToPart maps an Anthropic image block to a Responses image part,
// accepting url and base64 sources. base64 data becomes a data: URL.
func imageToPart(block map[string]interface{}, partType string, urlObject bool) map[string]interface{} {
	source := asMap(block["source"])
	if source == nil {
		return nil
	}
	var url string
	switch asString(source["type"]) {
	case "url":
		url = asString(source["url"])
	case "base64":
		data := asString(source["data"])
		if data == "" {
			return nil
		}
		mediaType := asString(source["media_type"])
		if mediaType == "" {
			mediaType = "application/octet-stream"
		}
		url = "data:" + mediaType + ";base64," + data
	}
	if url == "" {
		return nil
	}
	if urlObject {
		return map[string]interface{}{"type": partType, "image_url": map[string]interface{}{"url": url}}
	}
	return map[string]interface{}{"type": partType, "image_url": url}
}
