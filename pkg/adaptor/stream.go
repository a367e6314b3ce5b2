package adaptor

import "strings"

// Anthropic stream event and block vocabulary.
const (
	eventTypeMessageStart      = "message_start"
	eventTypeContentBlockStart = "content_block_start"
	eventTypeContentBlockDelta = "content_block_delta"
	eventTypeContentBlockStop  = "content_block_stop"
	eventTypeMessageDelta      = "message_delta"
	eventTypeMessageStop       = "message_stop"

	blockTypeText     = "text"
	blockTypeThinking = "thinking"
	blockTypeToolUse  = "tool_use"

	deltaTypeTextDelta      = "text_delta"
	deltaTypeThinkingDelta  = "thinking_delta"
	deltaTypeInputJSONDelta = "input_json_delta"

	stopReasonEndTurn   = "end_turn"
	stopReasonMaxTokens = "max_tokens"
	stopReasonToolUse   = "tool_use"
)

const toolBlockPrefix = "tool:"

// toolCallState tracks one upstream tool call while its arguments stream in.
// partialJSON accumulates every delta; emittedChars marks how much of it has
// already been sent downstream.
type toolCallState struct {
	itemID       string
	name         string
	callID       string
	partialJSON  string
	emittedChars int
	done         bool
}

// StreamOptions configure a StreamConverter.
type StreamOptions struct {
	// Model seeds the message_start envelope until response.created updates it.
	Model string
	// MessageID overrides the generated msg_<hex> identifier.
	MessageID string
	// KeepReasoningSummary accumulates response.reasoning_summary deltas and
	// emits them as a thinking block before the message terminals.
	KeepReasoningSummary bool
}

// StreamConverter turns a linear stream of OpenAI Responses events into the
// block-structured Anthropic streaming grammar. At most one content block is
// open at a time; tool blocks open strictly in the order their items were
// announced, and text arriving while a tool block is open is buffered and
// flushed after the tool closes.
//
// Push one upstream event at a time; each call returns zero or more Anthropic
// events in emission order. Call Finish when the upstream ends without a
// terminal event.
type StreamConverter struct {
	messageID    string
	model        string
	started      bool
	finished     bool
	contentIndex int
	activeBlock  string // "", "text", or "tool:<item_id>"
	activeIndex  int

	toolCalls   map[string]*toolCallState
	toolQueue   []string
	pendingText []string

	lastBlockType string
	responseUsage map[string]interface{}
	stopReason    string

	keepReasoningSummary bool
	reasoningSummary     string
	reasoningEmitted     bool
}

// NewStreamConverter creates a converter for one upstream response.
func NewStreamConverter(opts StreamOptions) *StreamConverter {
	messageID := opts.MessageID
	if messageID == "" {
		messageID = newID("msg")
	}
	model := opts.Model
	if model == "" {
		model = "unknown"
	}
	return &StreamConverter{
		messageID:            messageID,
		model:                model,
		toolCalls:            make(map[string]*toolCallState),
		keepReasoningSummary: opts.KeepReasoningSummary,
	}
}

// Done reports whether message_stop has been emitted. Later events produce no
// output.
func (sc *StreamConverter) Done() bool {
	return sc.finished
}

// Push handles one upstream event and returns the Anthropic events it yields.
func (sc *StreamConverter) Push(ev map[string]interface{}) []map[string]interface{} {
	if sc.finished || ev == nil {
		return nil
	}
	et := asString(ev["type"])

	// Reasoning stream events never pass through directly; only summary
	// deltas are retained, and only on request.
	if strings.HasPrefix(et, "response.reasoning") {
		sc.handleReasoningEvent(et, ev)
		return nil
	}

	switch et {
	case "response.created":
		if resp := asMap(ev["response"]); resp != nil {
			if m := asString(resp["model"]); m != "" {
				sc.model = m
			}
		}
		return nil

	case "response.output_item.added":
		sc.handleItemAdded(ev)
		return nil

	case "response.output_text.delta", "response.refusal.delta":
		// Refusals stream as plain text; the refusal semantic is not
		// representable in the Anthropic grammar.
		return sc.handleTextDelta(ev)

	case "response.output_text.done":
		// The text block stays open until a block boundary forces a close.
		return nil

	case "response.function_call_arguments.delta":
		return sc.handleArgumentsDelta(ev)

	case "response.function_call_arguments.done":
		return sc.handleArgumentsDone(ev)

	case "response.custom_tool_call_input.delta":
		if tc := sc.toolCalls[asString(ev["item_id"])]; tc != nil {
			tc.partialJSON += stringify(ev["delta"])
		}
		return nil

	case "response.custom_tool_call_input.done":
		return sc.handleCustomInputDone(ev)

	case "response.output_item.done":
		return sc.handleItemDone(ev)

	case "response.completed", "response.incomplete", "response.failed":
		return sc.handleTerminal(ev)
	}

	return nil
}

// Finish synthesizes message closure when the upstream stream ended without a
// terminal event. It emits nothing if message_start was never sent.
func (sc *StreamConverter) Finish() []map[string]interface{} {
	if sc.finished || !sc.started {
		return nil
	}
	sc.finished = true
	out := sc.closeActiveBlock()
	stopReason := sc.stopReason
	if stopReason == "" {
		stopReason = stopReasonEndTurn
	}
	out = append(out,
		map[string]interface{}{
			"type":  eventTypeMessageDelta,
			"delta": map[string]interface{}{"stop_reason": stopReason, "stop_sequence": nil},
			"usage": map[string]interface{}{},
		},
		map[string]interface{}{"type": eventTypeMessageStop},
	)
	return out
}

// ConvertStreamEvents drains a fully buffered event slice through a converter.
func ConvertStreamEvents(events []map[string]interface{}, opts StreamOptions) []map[string]interface{} {
	sc := NewStreamConverter(opts)
	var out []map[string]interface{}
	for _, ev := range events {
		out = append(out, sc.Push(ev)...)
	}
	out = append(out, sc.Finish()...)
	return out
}

func (sc *StreamConverter) handleReasoningEvent(et string, ev map[string]interface{}) {
	if !sc.keepReasoningSummary {
		return
	}
	switch et {
	case "response.reasoning_summary.delta":
		sc.reasoningSummary += asString(ev["delta"])
	case "response.reasoning_summary.done":
		for _, key := range []string{"summary", "text", "delta"} {
			if s := asString(ev[key]); s != "" {
				sc.reasoningSummary = s
				break
			}
		}
	}
}

func (sc *StreamConverter) handleItemAdded(ev map[string]interface{}) {
	item := asMap(ev["item"])
	switch asString(item["type"]) {
	case "function_call", "custom_tool_call":
		itemID := asString(item["id"])
		if itemID == "" {
			itemID = asString(ev["item_id"])
		}
		callID := asString(item["call_id"])
		if callID == "" {
			callID = asString(item["id"])
		}
		if callID == "" {
			callID = itemID
		}
		sc.toolCalls[itemID] = &toolCallState{
			itemID: itemID,
			name:   asString(item["name"]),
			callID: callID,
		}
		sc.toolQueue = append(sc.toolQueue, itemID)
	case "reasoning":
		if sc.keepReasoningSummary {
			if summary := reasoningSummary(item); summary != "" {
				sc.reasoningSummary = summary
			}
		}
	}
}

func (sc *StreamConverter) handleTextDelta(ev map[string]interface{}) []map[string]interface{} {
	out := sc.ensureStarted()
	delta := asString(ev["delta"])
	if delta == "" {
		return out
	}
	if strings.HasPrefix(sc.activeBlock, toolBlockPrefix) {
		// A tool block is open; hold the text until it closes.
		sc.pendingText = append(sc.pendingText, delta)
		return out
	}
	out = append(out, sc.ensureTextBlock()...)
	out = append(out, sc.textDeltaEvent(delta))
	return out
}

func (sc *StreamConverter) handleArgumentsDelta(ev map[string]interface{}) []map[string]interface{} {
	tc := sc.toolCalls[asString(ev["item_id"])]
	if tc == nil {
		// Deltas for a tool never announced are dropped.
		return nil
	}
	deltaRaw, hasDelta := ev["delta"]
	deltaStr := stringify(deltaRaw)
	tc.partialJSON += deltaStr

	out := sc.ensureStarted()
	out = append(out, sc.ensureToolBlock(tc.itemID, false)...)
	if sc.activeBlock != toolBlockPrefix+tc.itemID || !hasDelta || deltaRaw == nil {
		// Not the queue head yet: the delta stays buffered in partialJSON.
		return out
	}

	// Flush anything buffered before the block became active, then the
	// current delta.
	bufferedLen := len(tc.partialJSON) - len(deltaStr)
	if tc.emittedChars < bufferedLen {
		if prefix := tc.partialJSON[tc.emittedChars:bufferedLen]; prefix != "" {
			out = append(out, sc.inputJSONDeltaEvent(prefix))
			tc.emittedChars = bufferedLen
		}
	}
	out = append(out, sc.inputJSONDeltaEvent(deltaStr))
	tc.emittedChars += len(deltaStr)
	return out
}

func (sc *StreamConverter) handleArgumentsDone(ev map[string]interface{}) []map[string]interface{} {
	tc := sc.toolCalls[asString(ev["item_id"])]
	if tc == nil {
		return nil
	}
	tc.done = true

	out := sc.ensureStarted()
	out = append(out, sc.ensureToolBlock(tc.itemID, true)...)

	// Some upstreams only send .done with the full arguments string.
	if args, ok := ev["arguments"].(string); ok {
		if tc.partialJSON == "" {
			tc.partialJSON = args
		}
		if sc.activeBlock == toolBlockPrefix+tc.itemID && tc.emittedChars < len(tc.partialJSON) {
			if suffix := tc.partialJSON[tc.emittedChars:]; suffix != "" {
				out = append(out, sc.inputJSONDeltaEvent(suffix))
				tc.emittedChars = len(tc.partialJSON)
			}
		}
	}
	return out
}

func (sc *StreamConverter) handleCustomInputDone(ev map[string]interface{}) []map[string]interface{} {
	tc := sc.toolCalls[asString(ev["item_id"])]
	if tc == nil {
		return nil
	}
	tc.done = true

	// Custom tool input is raw text; wrap it so the downstream input is a
	// JSON object.
	raw, ok := ev["input"]
	if !ok || raw == nil {
		raw = tc.partialJSON
	}
	tc.partialJSON = mustJSON(map[string]interface{}{"input": stringify(raw)})
	tc.emittedChars = 0

	out := sc.ensureStarted()
	out = append(out, sc.ensureToolBlock(tc.itemID, false)...)
	if sc.activeBlock == toolBlockPrefix+tc.itemID {
		out = append(out, sc.inputJSONDeltaEvent(tc.partialJSON))
		tc.emittedChars = len(tc.partialJSON)
	}
	return out
}

func (sc *StreamConverter) handleItemDone(ev map[string]interface{}) []map[string]interface{} {
	item := asMap(ev["item"])
	switch asString(item["type"]) {
	case "message":
		return sc.closeActiveBlock()

	case "function_call", "custom_tool_call":
		itemID := asString(item["id"])
		out := sc.ensureStarted()
		out = append(out, sc.ensureToolBlock(itemID, true)...)
		out = append(out, sc.closeActiveBlock()...)
		// Text buffered while the tool was open flushes now, in arrival
		// order.
		if len(sc.pendingText) > 0 {
			out = append(out, sc.ensureTextBlock()...)
			for _, chunk := range sc.pendingText {
				out = append(out, sc.textDeltaEvent(chunk))
			}
			sc.pendingText = nil
		}
		return out
	}
	return nil
}

func (sc *StreamConverter) handleTerminal(ev map[string]interface{}) []map[string]interface{} {
	if resp := asMap(ev["response"]); resp != nil {
		sc.responseUsage = asMap(resp["usage"])
		if inc := asMap(resp["incomplete_details"]); asString(inc["reason"]) == "max_tokens" {
			sc.stopReason = stopReasonMaxTokens
		}
		if out := asSlice(resp["output"]); len(out) > 0 && sc.stopReason == "" {
			if isToolCallItem(asMap(out[len(out)-1])) {
				sc.stopReason = stopReasonToolUse
			}
		}
		if sc.stopReason == "" {
			sc.stopReason = stopReasonEndTurn
		}
	}

	out := sc.closeActiveBlock()
	out = append(out, sc.ensureStarted()...)
	out = append(out, sc.emitReasoningSummary()...)

	usage := map[string]interface{}{}
	if sc.responseUsage != nil {
		if v, ok := sc.responseUsage["output_tokens"]; ok {
			usage["output_tokens"] = v
		}
	}
	stopReason := sc.stopReason
	if stopReason == "" {
		stopReason = stopReasonEndTurn
	}
	out = append(out,
		map[string]interface{}{
			"type":  eventTypeMessageDelta,
			"delta": map[string]interface{}{"stop_reason": stopReason, "stop_sequence": nil},
			"usage": usage,
		},
		map[string]interface{}{"type": eventTypeMessageStop},
	)
	sc.finished = true
	return out
}

// emitReasoningSummary emits the accumulated summary as one complete thinking
// block. One-shot: repeated terminals cannot duplicate it.
func (sc *StreamConverter) emitReasoningSummary() []map[string]interface{} {
	if !sc.keepReasoningSummary || sc.reasoningSummary == "" || sc.reasoningEmitted {
		return nil
	}
	sc.reasoningEmitted = true
	index := sc.contentIndex
	sc.contentIndex++
	sc.lastBlockType = blockTypeThinking
	return []map[string]interface{}{
		{
			"type":          eventTypeContentBlockStart,
			"index":         index,
			"content_block": map[string]interface{}{"type": blockTypeThinking, "thinking": ""},
		},
		{
			"type":  eventTypeContentBlockDelta,
			"index": index,
			"delta": map[string]interface{}{"type": deltaTypeThinkingDelta, "thinking": sc.reasoningSummary},
		},
		{
			"type":  eventTypeContentBlockStop,
			"index": index,
		},
	}
}

func (sc *StreamConverter) ensureStarted() []map[string]interface{} {
	if sc.started {
		return nil
	}
	sc.started = true
	sc.lastBlockType = ""
	return []map[string]interface{}{{
		"type": eventTypeMessageStart,
		"message": map[string]interface{}{
			"id":            sc.messageID,
			"type":          "message",
			"role":          "assistant",
			"content":       []interface{}{},
			"model":         sc.model,
			"stop_reason":   nil,
			"stop_sequence": nil,
			"usage":         map[string]interface{}{"input_tokens": 0, "output_tokens": 0},
		},
	}}
}

func (sc *StreamConverter) ensureTextBlock() []map[string]interface{} {
	if sc.activeBlock == blockTypeText {
		return nil
	}
	out := sc.closeActiveBlock()
	sc.activeBlock = blockTypeText
	sc.activeIndex = sc.contentIndex
	sc.contentIndex++
	sc.lastBlockType = blockTypeText
	return append(out, map[string]interface{}{
		"type":          eventTypeContentBlockStart,
		"index":         sc.activeIndex,
		"content_block": map[string]interface{}{"type": blockTypeText, "text": ""},
	})
}

// ensureToolBlock opens the tool block for itemID if it is the queue head.
// When emitBuffered is set, argument JSON accumulated before the block opened
// is flushed as a single delta.
func (sc *StreamConverter) ensureToolBlock(itemID string, emitBuffered bool) []map[string]interface{} {
	if sc.activeBlock == toolBlockPrefix+itemID {
		return nil
	}
	if len(sc.toolQueue) > 0 && sc.toolQueue[0] != itemID {
		return nil
	}
	tc := sc.toolCalls[itemID]
	if tc == nil {
		return nil
	}

	out := sc.closeActiveBlock()
	sc.activeBlock = toolBlockPrefix + itemID
	sc.activeIndex = sc.contentIndex
	sc.contentIndex++
	sc.lastBlockType = blockTypeToolUse

	out = append(out,
		map[string]interface{}{
			"type":  eventTypeContentBlockStart,
			"index": sc.activeIndex,
			"content_block": map[string]interface{}{
				"type":  blockTypeToolUse,
				"id":    tc.callID,
				"name":  tc.name,
				"input": map[string]interface{}{},
			},
		},
		// Clients expect a leading empty input_json_delta.
		sc.inputJSONDeltaEvent(""),
	)

	if emitBuffered && tc.emittedChars < len(tc.partialJSON) {
		if suffix := tc.partialJSON[tc.emittedChars:]; suffix != "" {
			out = append(out, sc.inputJSONDeltaEvent(suffix))
			tc.emittedChars = len(tc.partialJSON)
		}
	}
	return out
}

func (sc *StreamConverter) closeActiveBlock() []map[string]interface{} {
	if sc.activeBlock == "" {
		return nil
	}
	index := sc.activeIndex
	sc.activeBlock = ""
	sc.activeIndex = 0
	out := []map[string]interface{}{{
		"type":  eventTypeContentBlockStop,
		"index": index,
	}}
	// A closed tool block advances the queue so the next tool may open.
	if len(sc.toolQueue) > 0 && sc.lastBlockType == blockTypeToolUse {
		sc.toolQueue = sc.toolQueue[1:]
	}
	return out
}

func (sc *StreamConverter) textDeltaEvent(text string) map[string]interface{} {
	return map[string]interface{}{
		"type":  eventTypeContentBlockDelta,
		"index": sc.activeIndex,
		"delta": map[string]interface{}{"type": deltaTypeTextDelta, "text": text},
	}
}

func (sc *StreamConverter) inputJSONDeltaEvent(partial string) map[string]interface{} {
	return map[string]interface{}{
		"type":  eventTypeContentBlockDelta,
		"index": sc.activeIndex,
		"delta": map[string]interface{}{"type": deltaTypeInputJSONDelta, "partial_json": partial},
	}
}
