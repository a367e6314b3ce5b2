package adaptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertAnthropicRequestBasic(t *testing.T) {
	payload := map[string]interface{}{
		"model":      "claude-sonnet-4-5",
		"max_tokens": float64(1024),
		"system":     "Be terse.",
		"messages": []interface{}{
			map[string]interface{}{"role": "user", "content": "Hello"},
		},
		"temperature": float64(0.5),
		"top_p":       float64(0.9),
		"stream":      true,
	}

	out, err := ConvertAnthropicRequest(payload, RequestOptions{})
	require.NoError(t, err)

	assert.Equal(t, "claude-sonnet-4-5", out["model"])
	assert.Equal(t, int64(1024), out["max_output_tokens"])
	assert.Equal(t, "Be terse.", out["instructions"])
	assert.Equal(t, float64(0.5), out["temperature"])
	assert.Equal(t, float64(0.9), out["top_p"])
	assert.Equal(t, true, out["stream"])

	input := asSlice(out["input"])
	require.Len(t, input, 1)
	item := asMap(input[0])
	assert.Equal(t, "message", item["type"])
	assert.Equal(t, "user", item["role"])
	parts := asSlice(item["content"])
	require.Len(t, parts, 1)
	assert.Equal(t, map[string]interface{}{"type": "input_text", "text": "Hello"}, asMap(parts[0]))
}

func TestConvertAnthropicRequestNilPayload(t *testing.T) {
	_, err := ConvertAnthropicRequest(nil, RequestOptions{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestConvertAnthropicRequestSystemList(t *testing.T) {
	payload := map[string]interface{}{
		"model": "m",
		"system": []interface{}{
			map[string]interface{}{"type": "text", "text": "One. "},
			map[string]interface{}{"type": "text", "text": "Two."},
			map[string]interface{}{"type": "cache_control"},
		},
	}
	out, err := ConvertAnthropicRequest(payload, RequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, "One. Two.", out["instructions"])
}

func TestConvertAnthropicRequestAssistantParts(t *testing.T) {
	payload := map[string]interface{}{
		"model": "m",
		"messages": []interface{}{
			map[string]interface{}{
				"role": "assistant",
				"content": []interface{}{
					map[string]interface{}{"type": "text", "text": "Sure."},
				},
			},
		},
	}
	out, err := ConvertAnthropicRequest(payload, RequestOptions{})
	require.NoError(t, err)

	item := asMap(asSlice(out["input"])[0])
	part := asMap(asSlice(item["content"])[0])
	assert.Equal(t, "output_text", part["type"])
}

func TestConvertAnthropicRequestToolUseSplitsMessage(t *testing.T) {
	payload := map[string]interface{}{
		"model": "m",
		"messages": []interface{}{
			map[string]interface{}{
				"role": "assistant",
				"content": []interface{}{
					map[string]interface{}{"type": "text", "text": "Checking."},
					map[string]interface{}{
						"type":  "tool_use",
						"id":    "toolu_1",
						"name":  "get_weather",
						"input": map[string]interface{}{"city": "SF"},
					},
					map[string]interface{}{"type": "text", "text": "Done."},
				},
			},
			map[string]interface{}{
				"role": "user",
				"content": []interface{}{
					map[string]interface{}{
						"type":        "tool_result",
						"tool_use_id": "toolu_1",
						"content": []interface{}{
							map[string]interface{}{"type": "text", "text": "sunny"},
						},
					},
				},
			},
		},
	}

	out, err := ConvertAnthropicRequest(payload, RequestOptions{})
	require.NoError(t, err)

	input := asSlice(out["input"])
	require.Len(t, input, 4)

	first := asMap(input[0])
	assert.Equal(t, "message", first["type"])

	call := asMap(input[1])
	assert.Equal(t, "function_call", call["type"])
	assert.Equal(t, "toolu_1", call["call_id"])
	assert.Equal(t, "get_weather", call["name"])
	assert.JSONEq(t, `{"city":"SF"}`, asString(call["arguments"]))
	assert.Contains(t, asString(call["id"]), "fc_")

	trailing := asMap(input[2])
	assert.Equal(t, "message", trailing["type"])

	result := asMap(input[3])
	assert.Equal(t, "function_call_output", result["type"])
	assert.Equal(t, "toolu_1", result["call_id"])
	assert.Equal(t, "sunny", result["output"])
}

func TestConvertAnthropicRequestToolUseInputShapes(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{"nil input", nil, "{}"},
		{"string passthrough", `{"already":"json"}`, `{"already":"json"}`},
		{"object serialized", map[string]interface{}{"k": "v"}, `{"k":"v"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := toolUseToItem(map[string]interface{}{
				"id": "toolu_1", "name": "t", "input": tt.input,
			})
			assert.Equal(t, tt.want, item["arguments"])
		})
	}
}

func TestConvertAnthropicRequestTools(t *testing.T) {
	payload := map[string]interface{}{
		"model": "m",
		"tools": []interface{}{
			map[string]interface{}{
				"name":         "get_weather",
				"description":  "Look up weather",
				"input_schema": map[string]interface{}{"type": "object"},
			},
			map[string]interface{}{"description": "nameless, dropped"},
		},
		"tool_choice": map[string]interface{}{"type": "tool", "name": "get_weather"},
	}

	out, err := ConvertAnthropicRequest(payload, RequestOptions{})
	require.NoError(t, err)

	tools := asSlice(out["tools"])
	require.Len(t, tools, 1)
	tool := asMap(tools[0])
	assert.Equal(t, "function", tool["type"])
	assert.Equal(t, "get_weather", tool["name"])
	assert.Equal(t, map[string]interface{}{"type": "object"}, asMap(tool["parameters"]))

	assert.Equal(t, map[string]interface{}{"type": "function", "name": "get_weather"}, asMap(out["tool_choice"]))
}

func TestConvertToolChoicePassthrough(t *testing.T) {
	assert.Equal(t, "auto", convertToolChoice("auto"))
	other := map[string]interface{}{"type": "any"}
	assert.Equal(t, other, convertToolChoice(other))
}

func TestConvertAnthropicRequestImages(t *testing.T) {
	block := map[string]interface{}{
		"type": "image",
		"source": map[string]interface{}{
			"type":       "base64",
			"media_type": "image/png",
			"data":       "aGVsbG8=",
		},
	}

	part := imageToPart(block, "input_image", false)
	require.NotNil(t, part)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", part["image_url"])

	part = imageToPart(block, "input_image", true)
	require.NotNil(t, part)
	assert.Equal(t, map[string]interface{}{"url": "data:image/png;base64,aGVsbG8="}, asMap(part["image_url"]))

	urlBlock := map[string]interface{}{
		"type":   "image",
		"source": map[string]interface{}{"type": "url", "url": "https://example.com/x.png"},
	}
	part = imageToPart(urlBlock, "input_image", false)
	require.NotNil(t, part)
	assert.Equal(t, "https://example.com/x.png", part["image_url"])

	assert.Nil(t, imageToPart(map[string]interface{}{"type": "image"}, "input_image", false))
}

func TestConvertAnthropicRequestUnknownBlock(t *testing.T) {
	payload := map[string]interface{}{
		"model": "m",
		"messages": []interface{}{
			map[string]interface{}{
				"role": "user",
				"content": []interface{}{
					map[string]interface{}{"type": "document", "title": "spec"},
				},
			},
		},
	}
	out, err := ConvertAnthropicRequest(payload, RequestOptions{})
	require.NoError(t, err)

	item := asMap(asSlice(out["input"])[0])
	part := asMap(asSlice(item["content"])[0])
	assert.Equal(t, "input_text", part["type"])
	assert.JSONEq(t, `{"type":"document","title":"spec"}`, asString(part["text"]))
}

func TestConvertAnthropicRequestSkipsNonChatRoles(t *testing.T) {
	payload := map[string]interface{}{
		"model": "m",
		"messages": []interface{}{
			map[string]interface{}{"role": "system", "content": "ignored here"},
			map[string]interface{}{"role": "user", "content": "kept"},
		},
	}
	out, err := ConvertAnthropicRequest(payload, RequestOptions{})
	require.NoError(t, err)
	assert.Len(t, asSlice(out["input"]), 1)
}

func TestConvertAnthropicRequestReasoningMerge(t *testing.T) {
	out, err := ConvertAnthropicRequest(map[string]interface{}{"model": "m"}, RequestOptions{
		Reasoning: map[string]interface{}{"effort": "low"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"effort": "low"}, asMap(out["reasoning"]))
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]interface{}{
		"a": float64(1),
		"nested": map[string]interface{}{
			"keep":    "x",
			"replace": "old",
		},
	}
	src := map[string]interface{}{
		"b": float64(2),
		"nested": map[string]interface{}{
			"replace": "new",
		},
	}

	got := DeepMerge(dst, src)
	assert.Equal(t, map[string]interface{}{
		"a": float64(1),
		"b": float64(2),
		"nested": map[string]interface{}{
			"keep":    "x",
			"replace": "new",
		},
	}, got)

	assert.Equal(t, map[string]interface{}{"k": "v"}, DeepMerge(nil, map[string]interface{}{"k": "v"}))
	assert.Nil(t, DeepMerge(nil, nil))
}
