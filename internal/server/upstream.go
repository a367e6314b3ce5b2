package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// responsesURL appends /responses to the base URL unless it is already the
// endpoint.
func responsesURL(baseURL string) string {
	if strings.HasSuffix(baseURL, "/responses") {
		return baseURL
	}
	return baseURL + "/responses"
}

func (s *Server) newUpstreamRequest(ctx context.Context, url, key string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// postJSON performs a bounded non-streaming upstream call and decodes the
// response object. Upstream HTTP errors come back as *upstreamStatusError.
func (s *Server) postJSON(ctx context.Context, url, key string, body []byte) (map[string]interface{}, error) {
	req, err := s.newUpstreamRequest(ctx, url, key, body)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, readStatusError(resp)
	}

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// postStream opens a streaming upstream call. The caller owns the body.
func (s *Server) postStream(ctx context.Context, url, key string, body []byte) (*http.Response, error) {
	req, err := s.newUpstreamRequest(ctx, url, key, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := s.streamClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		err := readStatusError(resp)
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func readStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return &upstreamStatusError{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        body,
	}
}
