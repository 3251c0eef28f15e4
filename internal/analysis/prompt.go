package analysis

import (
	"fmt"
	"strings"
)

// maxContentLength bounds how much article/text content is embedded in a
// prompt, to stay within the backend's input-size limits.
const maxContentLength = 15000

// PromptSpec is the fully built instruction for one model invocation
type PromptSpec struct {
	Instruction    string
	ExpectedFields []string
	ImageBase64    string
	ImageMediaType string
}

// ArticleContext carries extracted URL content into the news prompt
type ArticleContext struct {
	URL           string
	Domain        string
	Title         string
	Author        string
	DatePublished string
	Text          string
}

// BuildPrompt produces the instruction text and expected response schema for
// a task. Pure; the only failure mode is an unknown task, which is a
// programming error and panics.
func BuildPrompt(task Task, in *Input, article *ArticleContext) *PromptSpec {
	switch task {
	case TaskTextAuthenticity:
		return buildTextPrompt(in.Text)
	case TaskImageAuthenticity:
		return buildImagePrompt(in)
	case TaskScamScreenshot:
		return buildScamPrompt(in)
	case TaskNewsCredibility:
		return buildNewsPrompt(article)
	default:
		panic(fmt.Sprintf("unknown analysis task: %s", task))
	}
}

func buildTextPrompt(text string) *PromptSpec {
	return &PromptSpec{
		ExpectedFields: []string{
			"ai_likelihood_percentage",
			"ai_reasoning",
			"ai_confidence",
			"detected_patterns",
			"writing_style_score",
		},
		Instruction: fmt.Sprintf(`Analyze the following text and determine how likely it is to have been generated by an AI language model rather than written by a human.

Look for signals such as:
- Overly uniform sentence structure and rhythm
- Generic, hedged phrasing without personal voice
- Unnatural transitions or repeated connective phrases
- Absence of typos, slang, or idiosyncratic style
- Formulaic organization (intro/list/conclusion patterns)

Respond with a single JSON object in this exact format and nothing else:
{
    "ai_likelihood_percentage": <number between 0-100>,
    "ai_reasoning": "<brief explanation of the judgment>",
    "ai_confidence": "<low/medium/high>",
    "detected_patterns": ["<list of specific AI-writing patterns found>"],
    "writing_style_score": <number between 0-100 rating overall writing quality>
}

TEXT TO ANALYZE:
%s`, truncateContent(text, maxContentLength)),
	}
}

func buildImagePrompt(in *Input) *PromptSpec {
	return &PromptSpec{
		ImageBase64:    in.ImageBase64,
		ImageMediaType: in.ImageMediaType,
		ExpectedFields: []string{
			"ai_likelihood_percentage",
			"ai_reasoning",
			"ai_confidence",
			"detected_artifacts",
			"image_quality_score",
			"authenticity_score",
		},
		Instruction: `Analyze the provided image and determine how likely it is to have been generated or manipulated by AI.

Look for common generation artifacts including:
- Anatomical errors (hands, eyes, teeth, ears)
- Inconsistent lighting, shadows, or reflections
- Unnatural textures in skin, hair, or fabric
- Garbled or nonsensical text within the image
- Background elements that blend or warp illogically
- Over-smoothed or overly symmetric regions

Respond with a single JSON object in this exact format and nothing else:
{
    "ai_likelihood_percentage": <number between 0-100>,
    "ai_reasoning": "<brief explanation of the judgment>",
    "ai_confidence": "<low/medium/high>",
    "detected_artifacts": ["<list of specific artifacts found>"],
    "image_quality_score": <number between 0-100>,
    "authenticity_score": <number between 0-100, higher means more likely authentic>
}`,
	}
}

func buildScamPrompt(in *Input) *PromptSpec {
	return &PromptSpec{
		ImageBase64:    in.ImageBase64,
		ImageMediaType: in.ImageMediaType,
		ExpectedFields: []string{
			"scam_likelihood_percentage",
			"scam_confidence",
			"scam_type",
			"red_flags",
			"legitimate_indicators",
			"risk_level",
			"recommended_action",
			"analysis_summary",
		},
		Instruction: `Analyze the provided screenshot for potential scam indicators. This could be a screenshot of SMS messages, emails, social media messages, or any other communication that might be a scam.

Look for common scam patterns including:
- Urgent language and time pressure
- Requests for personal information (passwords, SSN, bank details)
- Suspicious links or phone numbers
- Grammar and spelling errors
- Impersonation of legitimate organizations
- Too-good-to-be-true offers
- Threats or fear tactics
- Requests for money or gift cards
- Poor formatting or unprofessional appearance

Respond with a single JSON object in this exact format and nothing else:
{
    "scam_likelihood_percentage": <number between 0-100>,
    "scam_confidence": "<low/medium/high>",
    "scam_type": "<type of scam detected or 'unknown'>",
    "red_flags": ["<list of specific red flags found>"],
    "legitimate_indicators": ["<list of indicators suggesting legitimacy>"],
    "risk_level": "<low/medium/high/critical>",
    "recommended_action": "<specific recommendation for the user>",
    "analysis_summary": "<brief summary of the analysis>"
}

Be thorough in your analysis and consider both scam indicators and legitimate communication patterns.`,
	}
}

func buildNewsPrompt(article *ArticleContext) *PromptSpec {
	var meta strings.Builder
	fmt.Fprintf(&meta, "URL: %s\nDomain: %s\n", article.URL, article.Domain)
	if article.Title != "" {
		fmt.Fprintf(&meta, "Title: %s\n", article.Title)
	}
	if article.Author != "" {
		fmt.Fprintf(&meta, "Author: %s\n", article.Author)
	}
	if article.DatePublished != "" {
		fmt.Fprintf(&meta, "Published: %s\n", article.DatePublished)
	}

	return &PromptSpec{
		ExpectedFields: []string{
			"credibility_score",
			"fake_news_likelihood_percentage",
			"fact_check_reasoning",
			"confidence",
			"key_claims",
			"red_flags",
			"recommendation",
		},
		Instruction: fmt.Sprintf(`Analyze the following news article for credibility and potential misinformation.

Consider:
- Whether key claims are specific and verifiable
- Emotional or sensational language designed to provoke
- Missing sources, anonymous attribution, or circular citations
- Reputation signals from the publishing domain
- Internal consistency of dates, numbers, and named entities

ARTICLE METADATA:
%s
ARTICLE CONTENT:
%s

Respond with a single JSON object in this exact format and nothing else:
{
    "credibility_score": <number between 0-100, higher means more credible>,
    "fake_news_likelihood_percentage": <number between 0-100>,
    "fact_check_reasoning": "<brief explanation of the judgment>",
    "confidence": "<low/medium/high>",
    "key_claims": ["<list of the main factual claims made>"],
    "red_flags": ["<list of credibility concerns found>"],
    "recommendation": "<trustworthy/questionable/likely_false>"
}`, meta.String(), truncateContent(article.Text, maxContentLength)),
	}
}

// truncateContent truncates content to a maximum length, trying to end at a
// word boundary, and appends a truncation marker.
func truncateContent(content string, maxLength int) string {
	if len(content) <= maxLength {
		return content
	}

	truncated := content[:maxLength]
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > maxLength-100 {
		truncated = truncated[:lastSpace]
	}

	return truncated + "\n[...content truncated...]"
}
