package handlers

import (
	"net/http"

	"veriscan-backend/internal/analysis"
	"veriscan-backend/internal/clients"
	"veriscan-backend/internal/extract"
	"veriscan-backend/internal/logger"
	"veriscan-backend/internal/middleware"
	"veriscan-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// DetectionHandler serves the four classification surfaces
type DetectionHandler struct {
	pipeline services.PipelineInterface
}

// NewDetectionHandler creates a new detection handler
func NewDetectionHandler(pipeline services.PipelineInterface) *DetectionHandler {
	return &DetectionHandler{pipeline: pipeline}
}

// ServiceInfo returns the info endpoint payload for one task surface
func ServiceInfo(service, description, analyzePath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     service,
			"description": description,
			"endpoints": gin.H{
				"analyze": analyzePath + " (POST)",
			},
		})
	}
}

type textAnalyzeRequest struct {
	Text string `json:"text"`
}

type imageAnalyzeRequest struct {
	ImageBase64 string `json:"image_base64"`
}

type newsAnalyzeRequest struct {
	URL string `json:"url"`
}

// AnalyzeText handles POST /text-ai-detection/analyze/
func (h *DetectionHandler) AnalyzeText(c *gin.Context) {
	var req textAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text content is required"})
		return
	}
	h.analyze(c, analysis.TaskTextAuthenticity, &analysis.Input{Text: req.Text})
}

// AnalyzeImage handles POST /ai-image-detection/analyze/
func (h *DetectionHandler) AnalyzeImage(c *gin.Context) {
	var req imageAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Base64 encoded image is required"})
		return
	}
	h.analyze(c, analysis.TaskImageAuthenticity, &analysis.Input{ImageBase64: req.ImageBase64})
}

// AnalyzeScamScreenshot handles POST /scam-detector/analyze/
func (h *DetectionHandler) AnalyzeScamScreenshot(c *gin.Context) {
	var req imageAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Base64 encoded screenshot is required"})
		return
	}
	h.analyze(c, analysis.TaskScamScreenshot, &analysis.Input{ImageBase64: req.ImageBase64})
}

// AnalyzeNews handles POST /fake-news-detection/analyze/
func (h *DetectionHandler) AnalyzeNews(c *gin.Context) {
	var req newsAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}
	h.analyze(c, analysis.TaskNewsCredibility, &analysis.Input{URL: req.URL})
}

func (h *DetectionHandler) analyze(c *gin.Context, task analysis.Task, in *analysis.Input) {
	correlationID := middleware.GetCorrelationID(c)

	logger.Log.WithFields(map[string]interface{}{
		"task":           task,
		"correlation_id": correlationID,
		"client_ip":      c.ClientIP(),
	}).Info("Analysis request received")

	outcome, err := h.pipeline.Run(c.Request.Context(), task, in)
	if err != nil {
		status, payload := errorResponse(err)
		c.JSON(status, payload)
		return
	}

	c.JSON(http.StatusOK, outcome.Verdict)
}

// errorResponse maps typed pipeline errors to one user-facing JSON error
// with an appropriate status code. The original diagnostic message is kept
// in the details field for operators.
func errorResponse(err error) (int, gin.H) {
	switch {
	case analysis.IsInvalidInput(err):
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	case extract.IsExtractionTimeout(err):
		return http.StatusGatewayTimeout, gin.H{
			"error":   "Timed out fetching content from the provided URL",
			"details": err.Error(),
		}
	case extract.IsExtractionError(err):
		return http.StatusBadRequest, gin.H{
			"error":   "Failed to fetch content from the provided URL",
			"details": err.Error(),
		}
	case clients.IsConfigurationError(err):
		return http.StatusServiceUnavailable, gin.H{
			"error":   "AI service is not configured",
			"details": err.Error(),
		}
	case clients.IsRateLimitError(err):
		return http.StatusTooManyRequests, gin.H{
			"error":   "Rate limit exceeded. Please try again later.",
			"details": err.Error(),
		}
	case clients.IsConnectionError(err):
		return http.StatusServiceUnavailable, gin.H{
			"error":   "AI service unavailable",
			"details": err.Error(),
		}
	case clients.IsBackendError(err):
		return http.StatusInternalServerError, gin.H{
			"error":   "AI service returned an error",
			"details": err.Error(),
		}
	default:
		return http.StatusInternalServerError, gin.H{
			"error":   "An unexpected error occurred",
			"details": err.Error(),
		}
	}
}
