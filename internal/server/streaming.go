package server

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/boozegar/anthroshim/internal/config"
	"github.com/boozegar/anthroshim/pkg/adaptor"
	"github.com/boozegar/anthroshim/pkg/sse"
)

// streamToClient proxies an upstream Responses SSE stream to the client as an
// Anthropic event stream. Events are translated and flushed one at a time;
// client disconnect cancels the upstream read through the request context.
func (s *Server) streamToClient(c *gin.Context, url, key string, body []byte, model string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		respondError(c, http.StatusInternalServerError, "api_error", "streaming not supported by this connection")
		return
	}

	ctx := c.Request.Context()
	resp, err := s.postStream(ctx, url, key, body)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}
	defer resp.Body.Close()

	conv := adaptor.NewStreamConverter(adaptor.StreamOptions{
		Model:                model,
		KeepReasoningSummary: config.KeepReasoningSummary(),
	})
	decoder := sse.NewDecoder(resp.Body)

	write := func(events []map[string]interface{}) bool {
		for _, ev := range events {
			if err := sse.WriteEvent(c.Writer, ev); err != nil {
				return false
			}
		}
		if len(events) > 0 {
			flusher.Flush()
		}
		return true
	}

	eventCount := 0
	for {
		select {
		case <-ctx.Done():
			logrus.Debug("client disconnected, dropping stream")
			return
		default:
		}

		ev, err := decoder.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() == nil {
				logrus.Warnf("upstream stream read: %v", err)
			}
			break
		}
		eventCount++
		if !write(conv.Push(ev)) {
			return
		}
		if conv.Done() {
			break
		}
	}
	write(conv.Finish())
	logrus.Debugf("stream complete after %d upstream events", eventCount)
}

// collectStreamResponse drives a forced upstream stream to completion and
// returns the response object carried by the last terminal event.
func (s *Server) collectStreamResponse(ctx context.Context, url, key string, body []byte) (map[string]interface{}, error) {
	resp, err := s.postStream(ctx, url, key, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	decoder := sse.NewDecoder(resp.Body)
	for {
		ev, err := decoder.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch ev["type"] {
		case "response.completed", "response.incomplete", "response.failed":
			if obj, ok := ev["response"].(map[string]interface{}); ok {
				result = obj
			}
		}
	}
	if result == nil {
		return nil, errNoStreamResponse
	}
	return result, nil
}
