package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"veriscan-backend/internal/config"
	"veriscan-backend/internal/logger"

	"github.com/sirupsen/logrus"
)

const anthropicBackendName = "anthropic"

// AnthropicClient handles communication with the Anthropic Messages API.
// Authenticated mode: requires ANTHROPIC_API_KEY, checked lazily on the
// first invocation before any network call.
type AnthropicClient struct {
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
	logger     *logrus.Logger
}

// AnthropicRequest represents a request to the Anthropic API
type AnthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []AnthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
}

// AnthropicMessage represents a message in the conversation. Content is
// either a plain string or a list of content blocks when an image rides
// along.
type AnthropicMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// AnthropicContentBlock represents one block of a multi-part message
type AnthropicContentBlock struct {
	Type   string                `json:"type"`
	Text   string                `json:"text,omitempty"`
	Source *AnthropicImageSource `json:"source,omitempty"`
}

// AnthropicImageSource represents an inlined base64 image attachment
type AnthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// AnthropicResponse represents a response from the Anthropic API
type AnthropicResponse struct {
	ID      string                  `json:"id"`
	Type    string                  `json:"type"`
	Role    string                  `json:"role"`
	Content []AnthropicResponseText `json:"content"`
	Model   string                  `json:"model"`
	Usage   AnthropicUsage          `json:"usage"`
}

// AnthropicResponseText represents content in the response
type AnthropicResponseText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// AnthropicUsage represents token usage information
type AnthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicErrorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropicClient creates a new Anthropic API client
func NewAnthropicClient(cfg *config.Config) *AnthropicClient {
	return &AnthropicClient{
		apiKey:    cfg.AnthropicAPIKey,
		model:     cfg.ClaudeModel,
		baseURL:   "https://api.anthropic.com/v1/messages",
		maxTokens: cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: cfg.GatewayTimeout,
		},
		logger: logger.Log,
	}
}

// ModelName returns the configured model identifier
func (c *AnthropicClient) ModelName() string {
	return c.model
}

// Invoke makes a single request to the Anthropic Messages API. No retries:
// failures surface immediately as typed gateway errors.
func (c *AnthropicClient) Invoke(ctx context.Context, req *GatewayRequest) (*GatewayReply, error) {
	if c.apiKey == "" {
		return nil, &ConfigurationError{Message: "ANTHROPIC_API_KEY is not set"}
	}

	start := time.Now()
	request := c.buildRequest(req)

	c.logger.WithFields(map[string]interface{}{
		"backend":       anthropicBackendName,
		"model":         request.Model,
		"prompt_length": len(req.Prompt),
		"has_system":    request.System != "",
		"has_image":     req.ImageBase64 != "",
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
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	response, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ConnectionError{Backend: anthropicBackendName, Cause: err}
	}
	defer response.Body.Close()

	reply, err := c.parseResponse(response)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"backend":         anthropicBackendName,
		"model":           reply.Model,
		"duration_ms":     time.Since(start).Milliseconds(),
		"response_length": len(reply.Text),
		"input_tokens":    reply.InputTokens,
		"output_tokens":   reply.OutputTokens,
	}).Info("Model backend response received")

	return reply, nil
}

func (c *AnthropicClient) buildRequest(req *GatewayRequest) AnthropicRequest {
	model := c.model
	if req.Model != "" {
		model = req.Model
	}
	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	request := AnthropicRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		System:      req.System,
	}

	// Multi-turn context takes precedence; otherwise a single user turn
	if len(req.Messages) > 0 {
		for _, m := range req.Messages {
			request.Messages = append(request.Messages, AnthropicMessage{Role: m.Role, Content: m.Content})
		}
		return request
	}

	if req.ImageBase64 != "" {
		mediaType := req.ImageMediaType
		if mediaType == "" {
			mediaType = "image/jpeg"
		}
		request.Messages = []AnthropicMessage{{
			Role: "user",
			Content: []AnthropicContentBlock{
				{Type: "text", Text: req.Prompt},
				{Type: "image", Source: &AnthropicImageSource{
					Type:      "base64",
					MediaType: mediaType,
					Data:      req.ImageBase64,
				}},
			},
		}}
		return request
	}

	request.Messages = []AnthropicMessage{{Role: "user", Content: req.Prompt}}
	return request
}

func (c *AnthropicClient) parseResponse(response *http.Response) (*GatewayReply, error) {
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
			return nil, &RateLimitError{Backend: anthropicBackendName, RetryAfter: retryAfter}
		}

		message := string(responseBody)
		var envelope anthropicErrorEnvelope
		if json.Unmarshal(responseBody, &envelope) == nil && envelope.Error.Message != "" {
			message = envelope.Error.Message
		}
		return nil, &BackendError{Backend: anthropicBackendName, StatusCode: response.StatusCode, Message: message}
	}

	var anthropicResp AnthropicResponse
	if err := json.Unmarshal(responseBody, &anthropicResp); err != nil {
		return nil, &BackendError{Backend: anthropicBackendName, StatusCode: response.StatusCode, Message: "failed to parse response body"}
	}

	if len(anthropicResp.Content) == 0 || anthropicResp.Content[0].Text == "" {
		return nil, &BackendError{Backend: anthropicBackendName, StatusCode: response.StatusCode, Message: "empty response content"}
	}

	return &GatewayReply{
		Text:         anthropicResp.Content[0].Text,
		Model:        anthropicResp.Model,
		InputTokens:  anthropicResp.Usage.InputTokens,
		OutputTokens: anthropicResp.Usage.OutputTokens,
	}, nil
}
