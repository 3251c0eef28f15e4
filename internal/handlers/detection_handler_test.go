package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"veriscan-backend/internal/analysis"
	"veriscan-backend/internal/clients"
	"veriscan-backend/internal/extract"
	"veriscan-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockPipeline is a mock implementation of services.PipelineInterface
type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) Run(ctx context.Context, task analysis.Task, in *analysis.Input) (*services.Outcome, error) {
	args := m.Called(ctx, task, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Outcome), args.Error(1)
}

// MockGateway is a mock implementation of clients.ModelGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Invoke(ctx context.Context, req *clients.GatewayRequest) (*clients.GatewayReply, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.GatewayReply), args.Error(1)
}

func (m *MockGateway) ModelName() string {
	return "mock-model"
}

func detectionRouter(pipeline services.PipelineInterface) *gin.Engine {
	h := NewDetectionHandler(pipeline)
	router := gin.New()
	router.GET("/text-ai-detection/", ServiceInfo("Text AI Detection", "Detects AI-generated text content", "/text-ai-detection/analyze/"))
	router.POST("/text-ai-detection/analyze/", h.AnalyzeText)
	router.POST("/ai-image-detection/analyze/", h.AnalyzeImage)
	router.POST("/scam-detector/analyze/", h.AnalyzeScamScreenshot)
	router.POST("/fake-news-detection/analyze/", h.AnalyzeNews)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestServiceInfo(t *testing.T) {
	router := detectionRouter(new(MockPipeline))

	req := httptest.NewRequest(http.MethodGet, "/text-ai-detection/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Text AI Detection", body["service"])
	endpoints := body["endpoints"].(map[string]interface{})
	assert.Equal(t, "/text-ai-detection/analyze/ (POST)", endpoints["analyze"])
}

func TestAnalyzeText_Success(t *testing.T) {
	pipeline := new(MockPipeline)
	verdict := &analysis.TextVerdict{
		AILikelihoodPercentage: 80,
		AIReasoning:            "uniform phrasing",
		AIConfidence:           "high",
		IsAIGenerated:          true,
		DetectedPatterns:       []string{"hedging"},
		WritingStyleScore:      60,
		ModelUsed:              "gpt-4o",
		AnalysisType:           "text_ai_detection",
	}
	pipeline.On("Run", mock.Anything, analysis.TaskTextAuthenticity, mock.MatchedBy(func(in *analysis.Input) bool {
		return in.Text == "Some essay."
	})).Return(&services.Outcome{Verdict: verdict}, nil)

	w := postJSON(detectionRouter(pipeline), "/text-ai-detection/analyze/", `{"text": "Some essay."}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(80), body["ai_likelihood_percentage"])
	assert.Equal(t, true, body["is_ai_generated"])
	assert.Equal(t, "text_ai_detection", body["analysis_type"])
	pipeline.AssertExpectations(t)
}

func TestAnalyzeText_MalformedBody(t *testing.T) {
	w := postJSON(detectionRouter(new(MockPipeline)), "/text-ai-detection/analyze/", `{not json`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Text content is required")
}

func TestAnalyzeText_EmptyTextNeverReachesGateway(t *testing.T) {
	// Full pipeline with a mocked gateway: validation must reject the
	// request before any model call
	gateway := new(MockGateway)
	pipeline := services.NewClassificationPipeline(gateway, nil, nil, nil)

	w := postJSON(detectionRouter(pipeline), "/text-ai-detection/analyze/", `{"text": "   "}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Text content is required", body["error"])
	gateway.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything)
}

func TestAnalyzeImage_MissingImageNeverReachesGateway(t *testing.T) {
	gateway := new(MockGateway)
	pipeline := services.NewClassificationPipeline(gateway, nil, nil, nil)

	w := postJSON(detectionRouter(pipeline), "/ai-image-detection/analyze/", `{"image_base64": ""}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Base64 encoded image is required")
	gateway.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything)
}

func TestAnalyzeScamScreenshot_InvalidBase64(t *testing.T) {
	gateway := new(MockGateway)
	pipeline := services.NewClassificationPipeline(gateway, nil, nil, nil)

	w := postJSON(detectionRouter(pipeline), "/scam-detector/analyze/", `{"image_base64": "!!! not base64 !!!"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid base64 image format")
	gateway.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything)
}

func TestAnalyzeNews_InvalidURL(t *testing.T) {
	gateway := new(MockGateway)
	pipeline := services.NewClassificationPipeline(gateway, nil, nil, nil)

	w := postJSON(detectionRouter(pipeline), "/fake-news-detection/analyze/", `{"url": "not-a-url"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "A valid absolute URL is required")
	gateway.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything)
}

func TestErrorResponse_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid input", analysis.NewInvalidInputError("Text content is required"), http.StatusBadRequest},
		{"extraction timeout", &extract.Error{URL: "https://x", Timeout: true, Cause: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"extraction failure", &extract.Error{URL: "https://x", Cause: assert.AnError}, http.StatusBadRequest},
		{"missing credential", &clients.ConfigurationError{Message: "ANTHROPIC_API_KEY is not set"}, http.StatusServiceUnavailable},
		{"rate limited", &clients.RateLimitError{Backend: "anthropic", RetryAfter: 30}, http.StatusTooManyRequests},
		{"backend unreachable", &clients.ConnectionError{Backend: "openai", Cause: assert.AnError}, http.StatusServiceUnavailable},
		{"backend error", &clients.BackendError{Backend: "anthropic", StatusCode: 500, Message: "overloaded"}, http.StatusInternalServerError},
		{"unexpected", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pipeline := new(MockPipeline)
			pipeline.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(nil, tc.err)

			w := postJSON(detectionRouter(pipeline), "/text-ai-detection/analyze/", `{"text": "Some essay."}`)

			assert.Equal(t, tc.status, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestErrorResponse_DetailsCarryDiagnostics(t *testing.T) {
	pipeline := new(MockPipeline)
	pipeline.On("Run", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &clients.BackendError{Backend: "anthropic", StatusCode: 529, Message: "overloaded"})

	w := postJSON(detectionRouter(pipeline), "/text-ai-detection/analyze/", `{"text": "Some essay."}`)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["details"], "overloaded")
}
