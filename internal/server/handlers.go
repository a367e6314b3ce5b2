package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/boozegar/anthroshim/internal/config"
	"github.com/boozegar/anthroshim/internal/obs"
	"github.com/boozegar/anthroshim/internal/token"
	"github.com/boozegar/anthroshim/pkg/adaptor"
)

// handleMessages translates an Anthropic Messages request, forwards it to the
// Responses upstream, and translates the result back. Streaming requests are
// proxied as SSE; everything else returns one message object.
func (s *Server) handleMessages(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request_error", "failed to read request body")
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(rawBody, &payload); err != nil || payload == nil {
		respondError(c, http.StatusBadRequest, "invalid_request_error", "invalid JSON body")
		return
	}
	obs.LogPayload("anthropic.request", payload)

	key := config.OpenAIKey(c.GetHeader("x-openai-api-key"))
	if key == "" {
		respondError(c, http.StatusInternalServerError, "api_error", "missing OPENAI_API_KEY")
		return
	}
	baseURL := config.OpenAIBaseURL(c.GetHeader("x-openai-api-url"))

	openaiReq, err := adaptor.ConvertAnthropicRequest(payload, adaptor.RequestOptions{
		ImageURLObject: config.ImageURLObject(),
	})
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}

	model, _ := openaiReq["model"].(string)
	mapped, extras := config.ResolveModel(model)
	openaiReq["model"] = mapped
	if mapped == "" {
		respondError(c, http.StatusBadRequest, "invalid_request_error", "missing model")
		return
	}
	adaptor.DeepMerge(openaiReq, extras)
	obs.LogPayload("openai.request", openaiReq)

	reqBytes, err := json.Marshal(openaiReq)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "api_error", "failed to encode upstream request")
		return
	}
	// The proxy is stateless; never let the upstream retain the response.
	reqBytes, _ = sjson.SetBytes(reqBytes, "store", false)

	forceStream := config.ForceStream()
	if forceStream {
		reqBytes, _ = sjson.SetBytes(reqBytes, "stream", true)
	}

	url := responsesURL(baseURL)
	if gjson.GetBytes(rawBody, "stream").Bool() {
		s.streamToClient(c, url, key, reqBytes, mapped)
		return
	}

	var respObj map[string]interface{}
	if forceStream {
		respObj, err = s.collectStreamResponse(c.Request.Context(), url, key, reqBytes)
	} else {
		respObj, err = s.postJSON(c.Request.Context(), url, key, reqBytes)
	}
	if err != nil {
		if err == errNoStreamResponse {
			respondError(c, http.StatusBadGateway, "api_error", err.Error())
			return
		}
		respondUpstreamError(c, err)
		return
	}
	obs.LogPayload("openai.response", respObj)

	out := adaptor.ConvertResponseToMessage(respObj, adaptor.ItemOptions{
		KeepReasoningSummary: config.KeepReasoningSummary(),
	})
	obs.LogPayload("anthropic.response", out)
	c.JSON(http.StatusOK, out)
}

// handleCountTokens estimates the input token count of a Messages payload.
func (s *Server) handleCountTokens(c *gin.Context) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		logrus.Debugf("count_tokens: invalid JSON: %v", err)
		respondError(c, http.StatusBadRequest, "invalid_request_error", "invalid JSON body")
		return
	}
	c.JSON(http.StatusOK, gin.H{"input_tokens": token.EstimateInputTokens(payload)})
}
