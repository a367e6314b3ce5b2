// Package token estimates token counts for count_tokens requests using
// tiktoken, falling back to a characters/4 approximation.
package token

import (
	"github.com/tiktoken-go/tokenizer"
)

const requestOverheadTokens = 3

// EstimateInputTokens approximates the input token count of an Anthropic
// Messages payload. O200kBase matches the upstream model family closely
// enough for estimation.
func EstimateInputTokens(payload map[string]interface{}) int {
	enc, err := tokenizer.Get(tokenizer.O200kBase)
	count := func(text string) int {
		if text == "" {
			return 0
		}
		if err != nil {
			return len(text) / 4
		}
		n, cerr := enc.Count(text)
		if cerr != nil {
			return len(text) / 4
		}
		return n
	}

	total := requestOverheadTokens
	for _, text := range collectTexts(payload) {
		total += count(text)
	}
	return total
}

// collectTexts gathers the countable text of a request: the system prompt,
// message text blocks, tool results, and tool definitions.
func collectTexts(payload map[string]interface{}) []string {
	var texts []string

	switch system := payload["system"].(type) {
	case string:
		texts = append(texts, system)
	case []interface{}:
		for _, raw := range system {
			if block, ok := raw.(map[string]interface{}); ok {
				if text, ok := block["text"].(string); ok {
					texts = append(texts, text)
				}
			}
		}
	}

	messages, _ := payload["messages"].([]interface{})
	for _, raw := range messages {
		msg, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if role, ok := msg["role"].(string); ok {
			texts = append(texts, role)
		}
		switch content := msg["content"].(type) {
		case string:
			texts = append(texts, content)
		case []interface{}:
			for _, rawBlock := range content {
				block, ok := rawBlock.(map[string]interface{})
				if !ok {
					continue
				}
				for _, key := range []string{"text", "thinking"} {
					if text, ok := block[key].(string); ok {
						texts = append(texts, text)
					}
				}
				if text, ok := block["content"].(string); ok {
					texts = append(texts, text)
				}
			}
		}
	}

	tools, _ := payload["tools"].([]interface{})
	for _, raw := range tools {
		if tool, ok := raw.(map[string]interface{}); ok {
			for _, key := range []string{"name", "description"} {
				if text, ok := tool[key].(string); ok {
					texts = append(texts, text)
				}
			}
		}
	}

	return texts
}
