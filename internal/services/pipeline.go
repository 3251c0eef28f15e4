package services

import (
	"context"
	"time"

	"veriscan-backend/internal/analysis"
	"veriscan-backend/internal/clients"
	"veriscan-backend/internal/extract"
	"veriscan-backend/internal/logger"

	"github.com/sirupsen/logrus"
)

// PipelineInterface defines the classification pipeline contract
type PipelineInterface interface {
	Run(ctx context.Context, task analysis.Task, in *analysis.Input) (*Outcome, error)
}

// ExtractorInterface is the content extraction dependency of the pipeline
type ExtractorInterface interface {
	Extract(ctx context.Context, rawURL string) (*extract.Content, error)
}

// UsageRecorder receives one usage record per completed model call
type UsageRecorder interface {
	RecordUsage(model, analysisType string, inputTokens, outputTokens int) error
}

// Outcome is the final result of one classification run
type Outcome struct {
	Verdict      interface{}
	ModelUsed    string
	InputTokens  int
	OutputTokens int
}

// ClassificationPipeline orchestrates one classification run:
// Validating -> [Extracting] -> Prompting -> Invoking -> Parsing.
// Validation and extraction/invocation failures are terminal; parsing never
// fails (it degrades to defaults), so a run that reaches the model always
// produces a verdict.
type ClassificationPipeline struct {
	gateway   clients.ModelGateway
	extractor ExtractorInterface
	usage     UsageRecorder
	events    *EventPublisher
	logger    *logrus.Logger
}

// NewClassificationPipeline creates a new pipeline. usage and events may be
// nil, disabling the corresponding side effects.
func NewClassificationPipeline(gateway clients.ModelGateway, extractor ExtractorInterface, usage UsageRecorder, events *EventPublisher) *ClassificationPipeline {
	return &ClassificationPipeline{
		gateway:   gateway,
		extractor: extractor,
		usage:     usage,
		events:    events,
		logger:    logger.Log,
	}
}

// Run executes the pipeline for one task and input
func (p *ClassificationPipeline) Run(ctx context.Context, task analysis.Task, in *analysis.Input) (*Outcome, error) {
	start := time.Now()
	correlationID := correlationIDFromContext(ctx)

	p.logger.WithFields(map[string]interface{}{
		"task":           task,
		"correlation_id": correlationID,
	}).Info("Classification pipeline started")

	// Validating: rejects bad input before any network call is made
	if err := task.ValidateInput(in); err != nil {
		p.logger.WithFields(map[string]interface{}{
			"task":           task,
			"correlation_id": correlationID,
			"error":          err.Error(),
		}).Warn("Input validation failed")
		return nil, err
	}

	// Extracting: only entered when the task needs remote URL content
	var article *analysis.ArticleContext
	if task.RequiresExtraction() {
		content, err := p.extractor.Extract(ctx, in.URL)
		if err != nil {
			logger.LogErrorWithStackAndCorrelation(err, correlationID, map[string]interface{}{
				"task":      task,
				"url":       in.URL,
				"operation": "content_extraction",
			})
			return nil, err
		}
		article = &analysis.ArticleContext{
			URL:           in.URL,
			Domain:        content.Domain,
			Title:         content.Title,
			Author:        content.Author,
			DatePublished: content.DatePublished,
			Text:          content.Text,
		}
	}

	// Prompting: pure, always succeeds
	prompt := analysis.BuildPrompt(task, in, article)

	// Invoking: failures are terminal; retries, if any, already happened in
	// the layers below
	reply, err := p.gateway.Invoke(ctx, &clients.GatewayRequest{
		Prompt:         prompt.Instruction,
		ImageBase64:    prompt.ImageBase64,
		ImageMediaType: prompt.ImageMediaType,
	})
	if err != nil {
		logger.LogErrorWithStackAndCorrelation(err, correlationID, map[string]interface{}{
			"task":      task,
			"operation": "model_invocation",
		})
		return nil, err
	}

	// Parsing: never fails, degrades to documented defaults
	outcome := &Outcome{
		ModelUsed:    reply.Model,
		InputTokens:  reply.InputTokens,
		OutputTokens: reply.OutputTokens,
	}
	switch task {
	case analysis.TaskTextAuthenticity:
		outcome.Verdict = analysis.ParseTextVerdict(reply.Text, reply.Model)
	case analysis.TaskImageAuthenticity:
		outcome.Verdict = analysis.ParseImageVerdict(reply.Text, reply.Model)
	case analysis.TaskScamScreenshot:
		outcome.Verdict = analysis.ParseScamVerdict(reply.Text, reply.Model)
	case analysis.TaskNewsCredibility:
		outcome.Verdict = analysis.ParseNewsVerdict(reply.Text, reply.Model, article)
	}

	if p.usage != nil {
		if err := p.usage.RecordUsage(reply.Model, string(task), reply.InputTokens, reply.OutputTokens); err != nil {
			// Usage accounting must not fail the request
			p.logger.WithError(err).WithField("task", task).Warn("Failed to record usage")
		}
	}

	duration := time.Since(start)
	primaryScore, confidence := verdictSummary(outcome.Verdict)

	p.events.Publish(ctx, &AnalysisEvent{
		Task:          task,
		ModelUsed:     reply.Model,
		PrimaryScore:  primaryScore,
		Confidence:    confidence,
		DurationMs:    duration.Milliseconds(),
		CorrelationID: correlationID,
	})

	p.logger.WithFields(map[string]interface{}{
		"task":           task,
		"correlation_id": correlationID,
		"model":          reply.Model,
		"primary_score":  primaryScore,
		"confidence":     confidence,
		"duration_ms":    duration.Milliseconds(),
	}).Info("Classification pipeline completed")

	return outcome, nil
}

// verdictSummary pulls the primary score and confidence out of a verdict
// for logging and event publishing.
func verdictSummary(verdict interface{}) (int, string) {
	switch v := verdict.(type) {
	case *analysis.TextVerdict:
		return v.AILikelihoodPercentage, v.AIConfidence
	case *analysis.ImageVerdict:
		return v.AILikelihoodPercentage, v.AIConfidence
	case *analysis.ScamVerdict:
		return v.ScamLikelihoodPercentage, v.ScamConfidence
	case *analysis.NewsVerdict:
		return v.FakeNewsLikelihoodPercent, v.Confidence
	}
	return 0, ""
}

// correlationIDFromContext extracts correlation ID from context
func correlationIDFromContext(ctx context.Context) string {
	if id := ctx.Value("correlation_id"); id != nil {
		if correlationID, ok := id.(string); ok {
			return correlationID
		}
	}
	return ""
}
