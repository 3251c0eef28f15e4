package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"veriscan-backend/internal/config"
	"veriscan-backend/internal/logger"

	"github.com/sirupsen/logrus"
)

const openAIBackendName = "openai"

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint
// (LM Studio, OpenRouter, OpenAI itself). Community mode: when no API key
// is configured the request goes out unauthenticated, which local inference
// servers accept.
type OpenAIClient struct {
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
	logger     *logrus.Logger
}

// OpenAIRequest represents a chat completions request
type OpenAIRequest struct {
	Model       string          `json:"model"`
	Messages    []OpenAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

// OpenAIMessage represents one chat turn; Content is a plain string or a
// list of content parts when an image rides along.
type OpenAIMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// OpenAIContentPart represents one part of a multi-part user message
type OpenAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *OpenAIImageURL `json:"image_url,omitempty"`
}

// OpenAIImageURL carries a data-URL-style inlined image reference
type OpenAIImageURL struct {
	URL string `json:"url"`
}

// OpenAIResponse represents a chat completions response
type OpenAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type openAIErrorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewOpenAIClient creates a client for an OpenAI-compatible backend
func NewOpenAIClient(cfg *config.Config) *OpenAIClient {
	return &OpenAIClient{
		apiKey:    cfg.OpenAIAPIKey,
		model:     cfg.OpenAIModel,
		baseURL:   strings.TrimSuffix(cfg.OpenAIBaseURL, "/") + "/v1/chat/completions",
		maxTokens: cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: cfg.GatewayTimeout,
		},
		logger: logger.Log,
	}
}

// ModelName returns the configured model identifier
func (c *OpenAIClient) ModelName() string {
	return c.model
}

// Invoke makes a single request to the chat completions endpoint. No
// retries: failures surface immediately as typed gateway errors.
func (c *OpenAIClient) Invoke(ctx context.Context, req *GatewayRequest) (*GatewayReply, error) {
	start := time.Now()
	request := c.buildRequest(req)

	c.logger.WithFields(map[string]interface{}{
		"backend":       openAIBackendName,
		"model":         request.Model,
		"url":           c.baseURL,
		"prompt_length": len(req.Prompt),
		"has_image":     req.ImageBase64 != "",
		"authenticated": c.apiKey != "",
	}).Info("Making model backend call")

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	response, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ConnectionError{Backend: openAIBackendName, Cause: err}
	}
	defer response.Body.Close()

	reply, err := c.parseResponse(response)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"backend":         openAIBackendName,
		"model":           reply.Model,
		"duration_ms":     time.Since(start).Milliseconds(),
		"response_length": len(reply.Text),
		"input_tokens":    reply.InputTokens,
		"output_tokens":   reply.OutputTokens,
	}).Info("Model backend response received")

	return reply, nil
}

func (c *OpenAIClient) buildRequest(req *GatewayRequest) OpenAIRequest {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}
	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	request := OpenAIRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}

	if req.System != "" {
		request.Messages = append(request.Messages, OpenAIMessage{Role: "system", Content: req.System})
	}

	if len(req.Messages) > 0 {
		for _, m := range req.Messages {
			request.Messages = append(request.Messages, OpenAIMessage{Role: m.Role, Content: m.Content})
		}
		return request
	}

	if req.ImageBase64 != "" {
		mediaType := req.ImageMediaType
		if mediaType == "" {
			mediaType = "image/jpeg"
		}
		request.Messages = append(request.Messages, OpenAIMessage{
			Role: "user",
			Content: []OpenAIContentPart{
				{Type: "text", Text: req.Prompt},
				{Type: "image_url", ImageURL: &OpenAIImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", mediaType, req.ImageBase64),
				}},
			},
		})
		return request
	}

	request.Messages = append(request.Messages, OpenAIMessage{Role: "user", Content: req.Prompt})
	return request
}

func (c *OpenAIClient) parseResponse(response *http.Response) (*GatewayReply, error) {
	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		if response.StatusCode == http.StatusTooManyRequests {
			retryAfter := 60
			if retryHeader := response.Header.Get("Retry-After"); retryHeader != "" {
				if parsed, parseErr := strconv.Atoi(retryHeader); parseErr == nil {
					retryAfter = parsed
				}
			}
			return nil, &RateLimitError{Backend: openAIBackendName, RetryAfter: retryAfter}
		}

		message := string(responseBody)
		var envelope openAIErrorEnvelope
		if json.Unmarshal(responseBody, &envelope) == nil && envelope.Error.Message != "" {
			message = envelope.Error.Message
		}
		return nil, &BackendError{Backend: openAIBackendName, StatusCode: response.StatusCode, Message: message}
	}

	var openAIResp OpenAIResponse
	if err := json.Unmarshal(responseBody, &openAIResp); err != nil {
		return nil, &BackendError{Backend: openAIBackendName, StatusCode: response.StatusCode, Message: "failed to parse response body"}
	}

	if len(openAIResp.Choices) == 0 || openAIResp.Choices[0].Message.Content == "" {
		return nil, &BackendError{Backend: openAIBackendName, StatusCode: response.StatusCode, Message: "empty response content"}
	}

	model := openAIResp.Model
	if model == "" {
		model = c.model
	}

	return &GatewayReply{
		Text:         openAIResp.Choices[0].Message.Content,
		Model:        model,
		InputTokens:  openAIResp.Usage.PromptTokens,
		OutputTokens: openAIResp.Usage.CompletionTokens,
	}, nil
}
