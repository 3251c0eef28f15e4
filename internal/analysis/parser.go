package analysis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Decision thresholds for the derived booleans. The flags are always
// recomputed from the primary percentage, never taken from the model's own
// boolean claims, so the decision rule stays consistent across responses.
const (
	aiGeneratedThreshold = 50
	likelyScamThreshold  = 60
)

// Heuristic-fallback defaults when no score can be recovered from the reply
const (
	defaultLikelihoodScore = 50
	defaultQualityScore    = 70
)

// maxSummaryFromRaw bounds how much raw model text is echoed into the
// reasoning/summary fields on parse failure.
const maxSummaryFromRaw = 300

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ParseTextVerdict extracts a text-authenticity verdict from the raw model
// reply. Never fails; unrecoverable fields get documented defaults.
func ParseTextVerdict(raw, modelUsed string) *TextVerdict {
	data := extractPayload(raw, "ai_likelihood_percentage", "ai_reasoning")

	v := &TextVerdict{
		AILikelihoodPercentage: intField(data, "ai_likelihood_percentage", heuristicPercent(raw, "ai", defaultLikelihoodScore)),
		AIReasoning:            strField(data, "ai_reasoning", summaryFromRaw(raw)),
		AIConfidence:           enumField(data, "ai_confidence", confidenceLevels, ConfidenceMedium),
		DetectedPatterns:       sliceField(data, "detected_patterns"),
		WritingStyleScore:      intField(data, "writing_style_score", heuristicPercent(raw, "quality", defaultQualityScore)),
		ModelUsed:              modelUsed,
		AnalysisType:           "text_ai_detection",
	}
	v.IsAIGenerated = v.AILikelihoodPercentage > aiGeneratedThreshold
	return v
}

// ParseImageVerdict extracts an AI-image-detection verdict from the raw
// model reply. Never fails.
func ParseImageVerdict(raw, modelUsed string) *ImageVerdict {
	data := extractPayload(raw, "ai_likelihood_percentage", "authenticity_score")

	v := &ImageVerdict{
		AILikelihoodPercentage: intField(data, "ai_likelihood_percentage", heuristicPercent(raw, "ai", defaultLikelihoodScore)),
		AIReasoning:            strField(data, "ai_reasoning", summaryFromRaw(raw)),
		AIConfidence:           enumField(data, "ai_confidence", confidenceLevels, ConfidenceMedium),
		DetectedArtifacts:      sliceField(data, "detected_artifacts"),
		ImageQualityScore:      intField(data, "image_quality_score", heuristicPercent(raw, "quality", defaultQualityScore)),
		AuthenticityScore:      intField(data, "authenticity_score", defaultQualityScore),
		ModelUsed:              modelUsed,
		AnalysisType:           "ai_image_detection",
	}
	v.IsAIGenerated = v.AILikelihoodPercentage > aiGeneratedThreshold
	return v
}

// ParseScamVerdict extracts a scam-detection verdict from the raw model
// reply. Never fails.
func ParseScamVerdict(raw, modelUsed string) *ScamVerdict {
	data := extractPayload(raw, "scam_likelihood_percentage", "analysis_summary")

	v := &ScamVerdict{
		ScamLikelihoodPercentage: intField(data, "scam_likelihood_percentage", heuristicPercent(raw, "scam", defaultLikelihoodScore)),
		ScamConfidence:           enumField(data, "scam_confidence", confidenceLevels, ConfidenceMedium),
		ScamType:                 strField(data, "scam_type", "unknown"),
		RedFlags:                 sliceField(data, "red_flags"),
		LegitimateIndicators:     sliceField(data, "legitimate_indicators"),
		RiskLevel:                enumField(data, "risk_level", riskLevels, heuristicEnum(raw, "risk", riskLevels, "medium")),
		RecommendedAction:        strField(data, "recommended_action", "Review the message carefully"),
		AnalysisSummary:          strField(data, "analysis_summary", summaryFromRaw(raw)),
		ModelUsed:                modelUsed,
		AnalysisType:             "scam_detection",
	}
	v.IsLikelyScam = v.ScamLikelihoodPercentage > likelyScamThreshold
	return v
}

// ParseNewsVerdict extracts a news-credibility verdict from the raw model
// reply and echoes the extracted article context. Never fails.
func ParseNewsVerdict(raw, modelUsed string, article *ArticleContext) *NewsVerdict {
	data := extractPayload(raw, "credibility_score", "fake_news_likelihood_percentage")

	v := &NewsVerdict{
		CredibilityScore:          intField(data, "credibility_score", heuristicPercent(raw, "credibility", defaultQualityScore)),
		FakeNewsLikelihoodPercent: intField(data, "fake_news_likelihood_percentage", heuristicPercent(raw, "fake", defaultLikelihoodScore)),
		FactCheckReasoning:        strField(data, "fact_check_reasoning", summaryFromRaw(raw)),
		Confidence:                enumField(data, "confidence", confidenceLevels, ConfidenceMedium),
		KeyClaims:                 sliceField(data, "key_claims"),
		RedFlags:                  sliceField(data, "red_flags"),
		ExtractedText:             truncateWithEllipsis(article.Text, 1000),
		ExtractedMetadata: ExtractedMetadata{
			Title:         article.Title,
			Author:        article.Author,
			DatePublished: article.DatePublished,
			Domain:        article.Domain,
		},
		ModelUsed:    modelUsed,
		AnalysisType: "fake_news_detection",
	}

	v.Recommendation = enumField(data, "recommendation", recommendationLevels, recommendationFromScore(v.CredibilityScore))
	return v
}

var (
	confidenceLevels     = []string{ConfidenceLow, ConfidenceMedium, ConfidenceHigh}
	riskLevels           = []string{"low", "medium", "high", "critical"}
	recommendationLevels = []string{"trustworthy", "questionable", "likely_false"}
)

// recommendationFromScore derives a recommendation when the model did not
// supply a usable one.
func recommendationFromScore(credibility int) string {
	switch {
	case credibility >= 70:
		return "trustworthy"
	case credibility >= 40:
		return "questionable"
	default:
		return "likely_false"
	}
}

// extractPayload locates a JSON object in the raw reply, tolerating
// surrounding prose and markdown fences. It first scans for a balanced
// object whose keys include the task's distinguishing required fields, then
// falls back to a fenced ```json block. Returns nil when nothing parses.
func extractPayload(raw string, requiredKeys ...string) map[string]interface{} {
	if data := scanKeyedObject(raw, requiredKeys); data != nil {
		return data
	}

	if match := fencedJSONRe.FindStringSubmatch(raw); match != nil {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(match[1]), &data); err == nil {
			return data
		}
	}

	return nil
}

// scanKeyedObject walks the raw text and tries every balanced {...} span
// that contains all required keys. Brace matching is string-aware so keys
// and values containing braces don't break the scan.
func scanKeyedObject(raw string, requiredKeys []string) map[string]interface{} {
	for start := 0; start < len(raw); start++ {
		if raw[start] != '{' {
			continue
		}

		end := matchingBrace(raw, start)
		if end < 0 {
			continue
		}

		candidate := raw[start : end+1]
		hasKeys := true
		for _, key := range requiredKeys {
			if !strings.Contains(candidate, `"`+key+`"`) {
				hasKeys = false
				break
			}
		}
		if !hasKeys {
			continue
		}

		var data map[string]interface{}
		if err := json.Unmarshal([]byte(candidate), &data); err == nil {
			return data
		}
	}
	return nil
}

// matchingBrace returns the index of the brace closing the object opened at
// start, or -1 when the object never closes.
func matchingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// heuristicPercent scans the raw text for "<keyword> ... <number>%" and
// returns the first matched integer, or the default when nothing matches.
func heuristicPercent(raw, keyword string, defaultValue int) int {
	re := regexp.MustCompile(`(?is)` + regexp.QuoteMeta(keyword) + `.{0,80}?(\d{1,3})\s*%`)
	if match := re.FindStringSubmatch(raw); match != nil {
		if value, err := strconv.Atoi(match[1]); err == nil {
			return clampPercent(value)
		}
	}
	return defaultValue
}

// heuristicEnum scans the raw text for "<keyword> ... <level>" against a
// fixed set of levels.
func heuristicEnum(raw, keyword string, allowed []string, defaultValue string) string {
	re := regexp.MustCompile(fmt.Sprintf(`(?is)%s.{0,40}?(%s)`, regexp.QuoteMeta(keyword), strings.Join(allowed, "|")))
	if match := re.FindStringSubmatch(raw); match != nil {
		return strings.ToLower(match[1])
	}
	return defaultValue
}

// intField reads a numeric field, accepting JSON numbers and numeric
// strings, clamped to [0,100].
func intField(data map[string]interface{}, key string, defaultValue int) int {
	if data == nil {
		return clampPercent(defaultValue)
	}
	switch value := data[key].(type) {
	case float64:
		return clampPercent(int(value))
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(value), "%")); err == nil {
			return clampPercent(parsed)
		}
	}
	return clampPercent(defaultValue)
}

func strField(data map[string]interface{}, key, defaultValue string) string {
	if data != nil {
		if value, ok := data[key].(string); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return defaultValue
}

// sliceField reads a string-list field; non-string elements are skipped.
// Always returns a non-nil slice so the JSON response carries [] not null.
func sliceField(data map[string]interface{}, key string) []string {
	result := []string{}
	if data == nil {
		return result
	}
	items, ok := data[key].([]interface{})
	if !ok {
		return result
	}
	for _, item := range items {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

// enumField reads a field constrained to a fixed set of lowercase values
func enumField(data map[string]interface{}, key string, allowed []string, defaultValue string) string {
	if data != nil {
		if value, ok := data[key].(string); ok {
			normalized := strings.ToLower(strings.TrimSpace(value))
			for _, a := range allowed {
				if normalized == a {
					return normalized
				}
			}
		}
	}
	return defaultValue
}

func clampPercent(value int) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// summaryFromRaw produces a human-readable fallback reasoning from the raw
// model text so the caller always has context even on parse failure.
func summaryFromRaw(raw string) string {
	return truncateWithEllipsis(strings.TrimSpace(raw), maxSummaryFromRaw)
}

func truncateWithEllipsis(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}
	return text[:maxLength] + "..."
}
