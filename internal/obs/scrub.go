package obs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/boozegar/anthroshim/internal/config"
)

const (
	maskedValue        = "***"
	defaultLogMaxChars = 4000
	truncatedSuffix    = "...(truncated)"
)

// Keys masked at every depth, case-insensitive.
var sensitiveKeys = map[string]struct{}{
	"authorization":    {},
	"api_key":          {},
	"x-openai-api-key": {},
}

// ScrubPayload returns a copy of data with sensitive values masked at every
// depth. Idempotent; non-sensitive values are untouched.
func ScrubPayload(data interface{}) interface{} {
	switch d := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(d))
		for k, v := range d {
			if _, sensitive := sensitiveKeys[strings.ToLower(k)]; sensitive {
				out[k] = maskedValue
			} else {
				out[k] = ScrubPayload(v)
			}
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(d))
		for i, v := range d {
			out[i] = ScrubPayload(v)
		}
		return out
	default:
		return data
	}
}

// LogPayload logs a scrubbed, truncated JSON rendering of data under label.
// Gated by TRANSFORMER_LOG_PAYLOADS (info level) or debug logging.
func LogPayload(label string, data interface{}) {
	payloadsOn := config.EnvBool("TRANSFORMER_LOG_PAYLOADS")
	if !payloadsOn && !logrus.IsLevelEnabled(logrus.DebugLevel) {
		return
	}

	text := renderPayload(ScrubPayload(data))
	maxChars := config.EnvInt("TRANSFORMER_LOG_MAX_CHARS", defaultLogMaxChars)
	if maxChars > 0 && len(text) > maxChars {
		text = text[:maxChars] + truncatedSuffix
	}

	if payloadsOn {
		logrus.Infof("%s %s", label, text)
	} else {
		logrus.Debugf("%s %s", label, text)
	}
}

func renderPayload(data interface{}) string {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(b)
}
