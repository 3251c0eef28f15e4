package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt_TextEmbedsContent(t *testing.T) {
	spec := BuildPrompt(TaskTextAuthenticity, &Input{Text: "Is this written by a machine?"}, nil)

	assert.Contains(t, spec.Instruction, "Is this written by a machine?")
	assert.Contains(t, spec.Instruction, "ai_likelihood_percentage")
	assert.Contains(t, spec.ExpectedFields, "writing_style_score")
	assert.Empty(t, spec.ImageBase64)
}

func TestBuildPrompt_ImageCarriesPayload(t *testing.T) {
	in := &Input{ImageBase64: "cGF5bG9hZA==", ImageMediaType: "image/png"}

	spec := BuildPrompt(TaskImageAuthenticity, in, nil)

	assert.Equal(t, "cGF5bG9hZA==", spec.ImageBase64)
	assert.Equal(t, "image/png", spec.ImageMediaType)
	assert.Contains(t, spec.Instruction, "authenticity_score")
	assert.Contains(t, spec.ExpectedFields, "detected_artifacts")
}

func TestBuildPrompt_ScamMentionsScreenshotPatterns(t *testing.T) {
	in := &Input{ImageBase64: "cGF5bG9hZA==", ImageMediaType: "image/jpeg"}

	spec := BuildPrompt(TaskScamScreenshot, in, nil)

	assert.Contains(t, spec.Instruction, "scam_likelihood_percentage")
	assert.Contains(t, spec.Instruction, "gift cards")
	assert.Contains(t, spec.ExpectedFields, "recommended_action")
	assert.Equal(t, "cGF5bG9hZA==", spec.ImageBase64)
}

func TestBuildPrompt_NewsIncludesMetadataAndContent(t *testing.T) {
	article := &ArticleContext{
		URL:           "https://example.com/story",
		Domain:        "example.com",
		Title:         "Big Story",
		Author:        "Jane Reporter",
		DatePublished: "2024-03-01",
		Text:          "The article body.",
	}

	spec := BuildPrompt(TaskNewsCredibility, &Input{URL: article.URL}, article)

	assert.Contains(t, spec.Instruction, "URL: https://example.com/story")
	assert.Contains(t, spec.Instruction, "Domain: example.com")
	assert.Contains(t, spec.Instruction, "Title: Big Story")
	assert.Contains(t, spec.Instruction, "Author: Jane Reporter")
	assert.Contains(t, spec.Instruction, "Published: 2024-03-01")
	assert.Contains(t, spec.Instruction, "The article body.")
	assert.Contains(t, spec.ExpectedFields, "credibility_score")
}

func TestBuildPrompt_NewsOmitsEmptyMetadataLines(t *testing.T) {
	article := &ArticleContext{URL: "https://example.com/x", Domain: "example.com"}

	spec := BuildPrompt(TaskNewsCredibility, &Input{URL: article.URL}, article)

	assert.NotContains(t, spec.Instruction, "Title:")
	assert.NotContains(t, spec.Instruction, "Author:")
	assert.NotContains(t, spec.Instruction, "Published:")
}

func TestBuildPrompt_TruncatesLongContent(t *testing.T) {
	long := strings.Repeat("word ", 5000) // 25000 chars

	spec := BuildPrompt(TaskTextAuthenticity, &Input{Text: long}, nil)

	assert.Contains(t, spec.Instruction, "[...content truncated...]")
	assert.Less(t, len(spec.Instruction), len(long))
}

func TestBuildPrompt_UnknownTaskPanics(t *testing.T) {
	assert.Panics(t, func() {
		BuildPrompt(Task("bogus"), &Input{}, nil)
	})
}

func TestTruncateContent_WordBoundary(t *testing.T) {
	content := strings.Repeat("a", 95) + " " + strings.Repeat("b", 20)

	got := truncateContent(content, 100)

	assert.True(t, strings.HasSuffix(got, "\n[...content truncated...]"))
	assert.NotContains(t, strings.TrimSuffix(got, "\n[...content truncated...]"), "b")
}

func TestTruncateContent_ShortContentUntouched(t *testing.T) {
	assert.Equal(t, "short", truncateContent("short", 100))
}
