package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModelMap(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model-map.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("MODEL_MAP_FILE", path)
	ResetModelMapCache()
	t.Cleanup(ResetModelMapCache)
}

func TestResolveModelExactMatch(t *testing.T) {
	writeModelMap(t, "claude-sonnet-4-5: gpt-5.2\n")

	model, extras := ResolveModel("claude-sonnet-4-5")
	assert.Equal(t, "gpt-5.2", model)
	assert.Nil(t, extras)
}

func TestResolveModelWildcardSpecificity(t *testing.T) {
	writeModelMap(t, `
claude-*: generic
claude-opus-*: opus-target
"*": fallback
`)

	model, _ := ResolveModel("claude-opus-4-6")
	assert.Equal(t, "opus-target", model, "more literal characters wins")

	model, _ = ResolveModel("claude-haiku-4-5")
	assert.Equal(t, "generic", model)

	model, _ = ResolveModel("gpt-4o")
	assert.Equal(t, "fallback", model)
}

func TestResolveModelExtras(t *testing.T) {
	writeModelMap(t, `
claude-*-4-5:
  model: gpt-5.2-codex
  reasoning:
    effort: low
"*": gpt-4o-mini
`)

	model, extras := ResolveModel("claude-sonnet-4-5")
	assert.Equal(t, "gpt-5.2-codex", model)
	assert.Equal(t, map[string]interface{}{
		"reasoning": map[string]interface{}{"effort": "low"},
	}, extras)

	model, extras = ResolveModel("claude-opus-3")
	assert.Equal(t, "gpt-4o-mini", model)
	assert.Nil(t, extras)
}

func TestResolveModelEntryWithoutModelKey(t *testing.T) {
	writeModelMap(t, `
claude-sonnet-4-5:
  temperature: 0.2
`)

	model, extras := ResolveModel("claude-sonnet-4-5")
	assert.Equal(t, "claude-sonnet-4-5", model, "entry without model key keeps the incoming name")
	require.NotNil(t, extras)
	assert.Contains(t, extras, "temperature")
}

func TestResolveModelNoMapPassesThrough(t *testing.T) {
	t.Setenv("MODEL_MAP_FILE", filepath.Join(t.TempDir(), "missing.yml"))
	ResetModelMapCache()
	t.Cleanup(ResetModelMapCache)

	model, extras := ResolveModel("claude-sonnet-4-5")
	assert.Equal(t, "claude-sonnet-4-5", model)
	assert.Nil(t, extras)
}

func TestResolveModelEmptyName(t *testing.T) {
	model, extras := ResolveModel("")
	assert.Equal(t, "", model)
	assert.Nil(t, extras)
}

func TestResolveModelNestedDocuments(t *testing.T) {
	t.Run("model_map key", func(t *testing.T) {
		writeModelMap(t, `
model_map:
  claude-sonnet-4-5: nested-target
`)
		model, _ := ResolveModel("claude-sonnet-4-5")
		assert.Equal(t, "nested-target", model)
	})

	t.Run("api_transformer_config nesting", func(t *testing.T) {
		writeModelMap(t, `
api_transformer_config:
  model_map:
    claude-sonnet-4-5: deep-target
`)
		model, _ := ResolveModel("claude-sonnet-4-5")
		assert.Equal(t, "deep-target", model)
	})
}

func TestResolveModelCacheReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model-map.yml")
	require.NoError(t, os.WriteFile(path, []byte("a: first\n"), 0o644))
	t.Setenv("MODEL_MAP_FILE", path)
	ResetModelMapCache()
	t.Cleanup(ResetModelMapCache)

	model, _ := ResolveModel("a")
	assert.Equal(t, "first", model)

	require.NoError(t, os.WriteFile(path, []byte("a: second\n"), 0o644))
	model, _ = ResolveModel("a")
	assert.Equal(t, "first", model, "cached until reset")

	ResetModelMapCache()
	model, _ = ResolveModel("a")
	assert.Equal(t, "second", model)
}

func TestBestWildcardPrefersLongerPatternOnLiteralTie(t *testing.T) {
	mapping := map[string]interface{}{
		"co*":  "x",
		"c?d*": "y",
	}
	// Both carry two literal characters; the longer pattern wins the tie.
	assert.Equal(t, "c?d*", bestWildcard(mapping, "code"))
}
