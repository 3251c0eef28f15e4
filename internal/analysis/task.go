package analysis

import (
	"encoding/base64"
	"net/url"
	"strings"
)

// Task identifies one of the classification kinds
type Task string

const (
	TaskTextAuthenticity  Task = "text_ai_detection"
	TaskImageAuthenticity Task = "ai_image_detection"
	TaskScamScreenshot    Task = "scam_detection"
	TaskNewsCredibility   Task = "fake_news_detection"
)

// Input is the raw, user-submitted content for one classification run.
// Exactly one variant is populated; which one is legal depends on the task.
type Input struct {
	Text           string
	ImageBase64    string
	ImageMediaType string
	URL            string
}

// RequiresExtraction reports whether the task needs remote URL content
func (t Task) RequiresExtraction() bool {
	return t == TaskNewsCredibility
}

// RequiresImage reports whether the task needs a base64-encoded image
func (t Task) RequiresImage() bool {
	return t == TaskImageAuthenticity || t == TaskScamScreenshot
}

// ValidateInput checks and normalizes the input for the given task.
// Image inputs get their data-URL prefix stripped and must decode as base64;
// URL inputs must be absolute. Returns an InvalidInputError on failure.
func (t Task) ValidateInput(in *Input) error {
	switch t {
	case TaskTextAuthenticity:
		if strings.TrimSpace(in.Text) == "" {
			return NewInvalidInputError("Text content is required")
		}
	case TaskImageAuthenticity, TaskScamScreenshot:
		if in.ImageBase64 == "" {
			return NewInvalidInputError("Base64 encoded image is required")
		}
		normalized, mediaType, err := normalizeBase64Image(in.ImageBase64)
		if err != nil {
			return NewInvalidInputError("Invalid base64 image format")
		}
		in.ImageBase64 = normalized
		if in.ImageMediaType == "" {
			in.ImageMediaType = mediaType
		}
	case TaskNewsCredibility:
		if strings.TrimSpace(in.URL) == "" {
			return NewInvalidInputError("URL is required")
		}
		parsed, err := url.Parse(strings.TrimSpace(in.URL))
		if err != nil || !parsed.IsAbs() || parsed.Host == "" {
			return NewInvalidInputError("A valid absolute URL is required")
		}
		in.URL = parsed.String()
	default:
		return NewInvalidInputError("Unknown analysis task")
	}
	return nil
}

// normalizeBase64Image strips an optional "data:<mime>;base64," prefix and
// verifies the remainder decodes. Returns the bare payload and detected mime.
func normalizeBase64Image(raw string) (payload, mediaType string, err error) {
	payload = strings.TrimSpace(raw)
	mediaType = "image/jpeg"

	if strings.HasPrefix(payload, "data:") {
		if idx := strings.Index(payload, ","); idx >= 0 {
			header := payload[:idx]
			payload = payload[idx+1:]
			header = strings.TrimPrefix(header, "data:")
			if semi := strings.Index(header, ";"); semi >= 0 {
				header = header[:semi]
			}
			if header != "" {
				mediaType = header
			}
		}
	} else if idx := strings.Index(payload, ","); idx >= 0 {
		// Tolerate a bare "<prefix>,<payload>" form as the frontend sends it
		payload = payload[idx+1:]
	}

	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return "", "", err
	}
	return payload, mediaType, nil
}
