// Package config centralizes environment configuration and the model-map
// file. Secrets are read per request and never cached.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "https://api.openai.com/v1"

// LoadDotenv loads .env from the working directory when present.
func LoadDotenv() {
	_ = godotenv.Load()
}

// EnvBool interprets the usual truthy spellings: 1, true, yes, on.
func EnvBool(name string) bool {
	switch strings.ToLower(os.Getenv(name)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// EnvInt returns the integer value of name, or def when unset or invalid.
func EnvInt(name string, def int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// OpenAIKey resolves the upstream credential: request header first, then
// OPENAI_API_KEY. An empty result means the request cannot be served.
func OpenAIKey(headerKey string) string {
	if headerKey != "" {
		return headerKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

// OpenAIBaseURL resolves the upstream base URL: request header, then
// OPENAI_BASE_URL, then the public default. Trailing slashes are trimmed.
func OpenAIBaseURL(headerURL string) string {
	base := headerURL
	if base == "" {
		base = os.Getenv("OPENAI_BASE_URL")
	}
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/")
}

// ForceStream reports whether non-streaming client requests should still use
// the streaming upstream path.
func ForceStream() bool {
	return EnvBool("OPENAI_FORCE_STREAM")
}

// ImageURLObject reports whether image parts use the {"url": ...} object
// shape.
func ImageURLObject() bool {
	return EnvBool("OPENAI_IMAGE_URL_OBJECT")
}

// KeepReasoningSummary reports whether upstream reasoning summaries surface
// as thinking blocks.
func KeepReasoningSummary() bool {
	return EnvBool("TRANSFORMER_KEEP_REASONING_SUMMARY")
}
