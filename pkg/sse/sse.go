// Package sse frames server-sent events between their wire form and decoded
// JSON event objects. The decoder consumes OpenAI Responses streams; the
// encoder produces Anthropic Messages streams.
package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"

	// Upstream deltas can carry large payloads on a single line.
	maxLineSize = 1 << 20
)

// Decoder reads SSE text and yields one decoded JSON object per event.
// Non-object payloads, malformed JSON, and the [DONE] sentinel are skipped
// so a single broken event cannot poison the stream.
type Decoder struct {
	scanner *bufio.Scanner
	dataBuf []string
	eof     bool
}

// NewDecoder wraps r in an SSE event decoder.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Decoder{scanner: scanner}
}

// Next returns the next decoded event object, or io.EOF when the stream is
// exhausted. A buffer accumulated without a trailing blank line is flushed
// as a final event.
func (d *Decoder) Next() (map[string]interface{}, error) {
	if d.eof {
		return nil, io.EOF
	}
	for d.scanner.Scan() {
		line := strings.TrimRight(d.scanner.Text(), "\r")
		if line == "" {
			if len(d.dataBuf) == 0 {
				continue
			}
			ev := d.flush()
			if ev != nil {
				return ev, nil
			}
			continue
		}
		if strings.HasPrefix(line, dataPrefix) {
			payload := strings.TrimLeft(strings.TrimPrefix(line, dataPrefix), " \t")
			d.dataBuf = append(d.dataBuf, payload)
		}
	}
	d.eof = true
	if ev := d.flush(); ev != nil {
		return ev, nil
	}
	if err := d.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (d *Decoder) flush() map[string]interface{} {
	if len(d.dataBuf) == 0 {
		return nil
	}
	payload := strings.TrimSpace(strings.Join(d.dataBuf, "\n"))
	d.dataBuf = nil
	if payload == "" || payload == doneSentinel {
		return nil
	}
	var ev map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return nil
	}
	return ev
}

// DecodeLines decodes a fully buffered SSE body into event objects.
func DecodeLines(lines []string) []map[string]interface{} {
	d := NewDecoder(strings.NewReader(strings.Join(lines, "\n")))
	var out []map[string]interface{}
	for {
		ev, err := d.Next()
		if err != nil {
			return out
		}
		out = append(out, ev)
	}
}

// WriteEvent writes one event in Anthropic SSE form:
// "event: <type>\ndata: <json>\n\n". Events without a string type field are
// silently skipped.
func WriteEvent(w io.Writer, ev map[string]interface{}) error {
	et, ok := ev["type"].(string)
	if !ok || et == "" {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", et, data)
	return err
}

// EncodeEvents renders a slice of events as SSE text.
func EncodeEvents(events []map[string]interface{}) string {
	var b strings.Builder
	for _, ev := range events {
		_ = WriteEvent(&b, ev)
	}
	return b.String()
}
