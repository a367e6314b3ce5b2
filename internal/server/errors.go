package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the Anthropic-style error envelope.
type ErrorResponse struct {
	Type  string      `json:"type"`
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the error type and message.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// upstreamStatusError preserves an upstream HTTP error so it can be forwarded
// verbatim.
type upstreamStatusError struct {
	status      int
	contentType string
	body        []byte
}

func (e *upstreamStatusError) Error() string {
	return http.StatusText(e.status)
}

var errNoStreamResponse = errors.New("upstream stream did not include response object")

func respondError(c *gin.Context, status int, errType, message string) {
	c.JSON(status, ErrorResponse{
		Type:  "error",
		Error: ErrorDetail{Type: errType, Message: message},
	})
}

// respondUpstreamError maps transport failures: timeouts to 504, everything
// else to 502. Status errors forward the upstream status and body.
func respondUpstreamError(c *gin.Context, err error) {
	var statusErr *upstreamStatusError
	if errors.As(err, &statusErr) {
		contentType := statusErr.contentType
		if contentType == "" {
			contentType = "text/plain"
		}
		c.Data(statusErr.status, contentType, statusErr.body)
		return
	}

	if isTimeout(err) {
		respondError(c, http.StatusGatewayTimeout, "timeout_error", "upstream request timed out")
		return
	}
	respondError(c, http.StatusBadGateway, "api_error", "upstream request failed: "+err.Error())
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
