package analysis

// Confidence levels used across all verdicts
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// TextVerdict is the structured result of a text-authenticity run
type TextVerdict struct {
	AILikelihoodPercentage int      `json:"ai_likelihood_percentage"`
	AIReasoning            string   `json:"ai_reasoning"`
	AIConfidence           string   `json:"ai_confidence"`
	IsAIGenerated          bool     `json:"is_ai_generated"`
	DetectedPatterns       []string `json:"detected_patterns"`
	WritingStyleScore      int      `json:"writing_style_score"`
	ModelUsed              string   `json:"model_used"`
	AnalysisType           string   `json:"analysis_type"`
}

// ImageVerdict is the structured result of an AI-image-detection run
type ImageVerdict struct {
	AILikelihoodPercentage int      `json:"ai_likelihood_percentage"`
	AIReasoning            string   `json:"ai_reasoning"`
	AIConfidence           string   `json:"ai_confidence"`
	IsAIGenerated          bool     `json:"is_ai_generated"`
	DetectedArtifacts      []string `json:"detected_artifacts"`
	ImageQualityScore      int      `json:"image_quality_score"`
	AuthenticityScore      int      `json:"authenticity_score"`
	ModelUsed              string   `json:"model_used"`
	AnalysisType           string   `json:"analysis_type"`
}

// ScamVerdict is the structured result of a scam-screenshot run
type ScamVerdict struct {
	ScamLikelihoodPercentage int      `json:"scam_likelihood_percentage"`
	ScamConfidence           string   `json:"scam_confidence"`
	ScamType                 string   `json:"scam_type"`
	IsLikelyScam             bool     `json:"is_likely_scam"`
	RedFlags                 []string `json:"red_flags"`
	LegitimateIndicators     []string `json:"legitimate_indicators"`
	RiskLevel                string   `json:"risk_level"` // low, medium, high, critical
	RecommendedAction        string   `json:"recommended_action"`
	AnalysisSummary          string   `json:"analysis_summary"`
	ModelUsed                string   `json:"model_used"`
	AnalysisType             string   `json:"analysis_type"`
}

// ExtractedMetadata echoes article metadata in the news verdict
type ExtractedMetadata struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	DatePublished string `json:"date_published"`
	Domain        string `json:"domain"`
}

// NewsVerdict is the structured result of a news-credibility run
type NewsVerdict struct {
	CredibilityScore          int               `json:"credibility_score"`
	FakeNewsLikelihoodPercent int               `json:"fake_news_likelihood_percentage"`
	FactCheckReasoning        string            `json:"fact_check_reasoning"`
	Confidence                string            `json:"confidence"`
	KeyClaims                 []string          `json:"key_claims"`
	RedFlags                  []string          `json:"red_flags"`
	Recommendation            string            `json:"recommendation"` // trustworthy, questionable, likely_false
	ExtractedText             string            `json:"extracted_text"`
	ExtractedMetadata         ExtractedMetadata `json:"extracted_metadata"`
	ModelUsed                 string            `json:"model_used"`
	AnalysisType              string            `json:"analysis_type"`
}
