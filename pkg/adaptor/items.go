package adaptor

import (
	"encoding/json"
	"strings"
)

// ItemOptions tune the Responses -> Anthropic item conversion.
type ItemOptions struct {
	// KeepReasoningSummary converts reasoning items carrying a summary into
	// thinking blocks.
	KeepReasoningSummary bool

	// KeepReasoning keeps a placeholder text block for reasoning items that
	// would otherwise be dropped.
	KeepReasoning bool

	// KeepUnknown serializes unrecognized items and content parts into text
	// blocks instead of dropping them.
	KeepUnknown bool
}

// ItemsToMessages converts a Responses output item list into Anthropic
// messages. Consecutive items targeting the same role coalesce into one
// message; system-role message items hoist their text into the returned
// system value. Messages left without content are dropped.
func ItemsToMessages(items []interface{}, instructions string, opts ItemOptions) (interface{}, []map[string]interface{}) {
	var system interface{}
	if instructions != "" {
		system = instructions
	}
	var messages []map[string]interface{}

	appendBlocks := func(role string, blocks ...map[string]interface{}) {
		if len(blocks) == 0 {
			return
		}
		if len(messages) == 0 || asString(messages[len(messages)-1]["role"]) != role {
			messages = append(messages, map[string]interface{}{
				"role":    role,
				"content": []interface{}{},
			})
		}
		msg := messages[len(messages)-1]
		content := asSlice(msg["content"])
		for _, b := range blocks {
			content = append(content, b)
		}
		msg["content"] = content
	}

	for _, raw := range items {
		item := asMap(raw)
		if item == nil {
			if opts.KeepUnknown {
				appendBlocks("assistant", textBlock(stringify(raw)))
			}
			continue
		}

		itype := asString(item["type"])
		_, hasRole := item["role"]
		_, hasContent := item["content"]

		switch {
		case itype == "reasoning":
			summary := reasoningSummary(item)
			if opts.KeepReasoningSummary && summary != "" {
				appendBlocks("assistant", thinkingBlock(summary))
			} else if opts.KeepReasoning {
				appendBlocks("assistant", textBlock("[openai_reasoning]"))
			}

		case itype == "message" || (itype == "" && hasRole && hasContent):
			role := asString(item["role"])
			if role == "system" {
				if text := extractText(item["content"]); text != "" {
					system = text
				}
				continue
			}
			if role != "user" && role != "assistant" {
				role = "assistant"
			}
			appendBlocks(role, contentToBlocks(item["content"], opts.KeepUnknown)...)

		case itype == "function_call":
			callID := item["call_id"]
			if callID == nil {
				callID = item["id"]
			}
			appendBlocks("assistant", map[string]interface{}{
				"type":  "tool_use",
				"id":    stringify(callID),
				"name":  stringify(item["name"]),
				"input": parseToolArguments(asString(item["arguments"])),
			})

		case itype == "custom_tool_call":
			callID := item["call_id"]
			if callID == nil {
				callID = item["id"]
			}
			input := item["input"]
			if input == nil {
				input = ""
			}
			appendBlocks("assistant", map[string]interface{}{
				"type":  "tool_use",
				"id":    stringify(callID),
				"name":  stringify(item["name"]),
				"input": map[string]interface{}{"input": input},
			})

		case itype == "function_call_output":
			output := item["output"]
			switch output.(type) {
			case map[string]interface{}, []interface{}:
				output = mustJSON(output)
			}
			appendBlocks("user", map[string]interface{}{
				"type":        "tool_result",
				"tool_use_id": stringify(item["call_id"]),
				"content":     stringify(output),
			})

		default:
			if opts.KeepUnknown {
				appendBlocks("assistant", textBlock(mustJSON(item)))
			}
		}
	}

	kept := messages[:0]
	for _, msg := range messages {
		if len(asSlice(msg["content"])) > 0 {
			kept = append(kept, msg)
		}
	}
	return system, kept
}

// parseToolArguments decodes a function_call arguments string, preserving the
// raw text under "_raw" when it is not valid JSON.
func parseToolArguments(args string) interface{} {
	if strings.TrimSpace(args) == "" {
		return map[string]interface{}{}
	}
	var input interface{}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return map[string]interface{}{"_raw": args}
	}
	return input
}

func contentToBlocks(content interface{}, keepUnknown bool) []map[string]interface{} {
	switch c := content.(type) {
	case nil:
		return nil
	case string:
		return []map[string]interface{}{textBlock(c)}
	case []interface{}:
		var blocks []map[string]interface{}
		for _, raw := range c {
			part := asMap(raw)
			if part == nil {
				if keepUnknown {
					blocks = append(blocks, textBlock(stringify(raw)))
				}
				continue
			}
			switch asString(part["type"]) {
			case "input_text", "output_text":
				blocks = append(blocks, textBlock(stringify(part["text"])))
			case "input_image", "image":
				if src := imagePartSource(part); src != nil {
					blocks = append(blocks, map[string]interface{}{"type": "image", "source": src})
				}
			default:
				if keepUnknown {
					blocks = append(blocks, textBlock(mustJSON(part)))
				}
			}
		}
		return blocks
	default:
		return []map[string]interface{}{textBlock(stringify(c))}
	}
}

// imagePartSource accepts the three OpenAI image shapes: a string image_url,
// an {"url": ...} object, or a bare url field.
func imagePartSource(part map[string]interface{}) map[string]interface{} {
	var url string
	switch u := part["image_url"].(type) {
	case string:
		url = u
	case map[string]interface{}:
		url = asString(u["url"])
	default:
		url = asString(part["url"])
	}
	if url == "" {
		return nil
	}
	return map[string]interface{}{"type": "url", "url": url}
}

func extractText(content interface{}) string {
	switch c := content.(type) {
	case nil:
		return ""
	case string:
		return c
	case []interface{}:
		var b strings.Builder
		for _, raw := range c {
			part := asMap(raw)
			switch asString(part["type"]) {
			case "input_text", "output_text":
				b.WriteString(stringify(part["text"]))
			}
		}
		return strings.TrimSpace(b.String())
	default:
		return stringify(c)
	}
}

func reasoningSummary(item map[string]interface{}) string {
	summary := asString(item["summary"])
	if summary == "" {
		summary = asString(item["text"])
	}
	if strings.TrimSpace(summary) == "" {
		return ""
	}
	return summary
}

func textBlock(text string) map[string]interface{} {
	return map[string]interface{}{"type": "text", "text": text}
}

func thinkingBlock(summary string) map[string]interface{} {
	return map[string]interface{}{"type": "thinking", "thinking": summary, "signature": ""}
}
