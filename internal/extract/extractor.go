package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"veriscan-backend/internal/logger"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// minTextLength is the threshold below which the flattened document text
	// is considered degraded and the paragraph fallback kicks in.
	minTextLength = 100

	// maxRawFallback bounds the raw body slice used as the last-resort text
	maxRawFallback = 10000

	maxRedirects = 10
)

// Content is the cleaned result of one successful extraction
type Content struct {
	Text          string `json:"text"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	DatePublished string `json:"date_published"`
	Domain        string `json:"domain"`
	WordCount     int    `json:"word_count"`
}

// Error is a typed extraction failure; Timeout distinguishes exhausted
// retries on deadline from other fetch failures.
type Error struct {
	URL     string
	Timeout bool
	Cause   error
}

func (e *Error) Error() string {
	if e.Timeout {
		return fmt.Sprintf("content extraction timed out for %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("content extraction failed for %s: %v", e.URL, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsExtractionError checks if an error is an extraction error
func IsExtractionError(err error) bool {
	var extractErr *Error
	return errors.As(err, &extractErr)
}

// IsExtractionTimeout checks if an error is an extraction timeout
func IsExtractionTimeout(err error) bool {
	var extractErr *Error
	return errors.As(err, &extractErr) && extractErr.Timeout
}

// Extractor fetches a web page and derives cleaned plain text plus metadata
type Extractor struct {
	client         *http.Client
	attemptTimeout time.Duration
	maxRetries     int
	logger         *logrus.Logger
}

// NewExtractor creates a new content extractor
func NewExtractor(attemptTimeout time.Duration, maxRetries int) *Extractor {
	if attemptTimeout == 0 {
		attemptTimeout = 30 * time.Second
	}
	if maxRetries < 1 {
		maxRetries = 3
	}
	return &Extractor{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		attemptTimeout: attemptTimeout,
		maxRetries:     maxRetries,
		logger:         logger.Log,
	}
}

// Extract fetches the page and returns cleaned content. Network failures are
// retried up to the configured maximum with exponentially increasing backoff
// (1s, 2s, 4s); the domain is always derivable from the URL itself.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*Content, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return nil, &Error{URL: rawURL, Cause: fmt.Errorf("not a valid absolute URL")}
	}

	start := time.Now()
	body, fetchErr := e.fetchWithRetry(ctx, rawURL)
	if fetchErr != nil {
		return nil, fetchErr
	}

	content := e.parse(body, parsed.Host)

	e.logger.WithFields(map[string]interface{}{
		"url":         rawURL,
		"domain":      content.Domain,
		"title":       content.Title,
		"text_length": len(content.Text),
		"word_count":  content.WordCount,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Content extraction completed")

	return content, nil
}

// fetchWithRetry performs the HTTP GET with retry and backoff. Backoff waits
// are context-aware so a cancelled caller is not kept waiting.
func (e *Extractor) fetchWithRetry(ctx context.Context, rawURL string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if attempt > 0 {
			waitTime := time.Duration(1<<uint(attempt-1)) * time.Second
			e.logger.WithFields(map[string]interface{}{
				"url":          rawURL,
				"attempt":      attempt + 1,
				"max_attempts": e.maxRetries,
				"wait_seconds": waitTime.Seconds(),
			}).Warn("Content fetch failed, retrying")

			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return "", &Error{URL: rawURL, Timeout: true, Cause: ctx.Err()}
			}
		}

		body, err := e.fetchOnce(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		// Non-2xx responses and caller cancellation are not retryable
		var statusErr *statusError
		if errors.As(err, &statusErr) {
			return "", &Error{URL: rawURL, Cause: err}
		}
		if ctx.Err() != nil {
			return "", &Error{URL: rawURL, Timeout: true, Cause: lastErr}
		}
	}

	timedOut := false
	var netErr interface{ Timeout() bool }
	if errors.As(lastErr, &netErr) && netErr.Timeout() {
		timedOut = true
	} else if errors.Is(lastErr, context.DeadlineExceeded) {
		timedOut = true
	}

	return "", &Error{URL: rawURL, Timeout: timedOut, Cause: lastErr}
}

type statusError struct {
	code int
}

func (s *statusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", s.code)
}

func (e *Extractor) fetchOnce(ctx context.Context, rawURL string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}

// Tags whose subtrees carry no article content
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"svg":      true,
	"form":     true,
}

// Block-level tags that force a line break when flattening
var blockTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"div": true, "section": true, "article": true, "main": true,
	"blockquote": true, "li": true, "tr": true, "br": true, "figcaption": true,
}

// Meta key patterns for author/date discovery; first match wins
var (
	authorKeyPatterns = []string{"article:author", "author"}
	dateKeyPatterns   = []string{"article:published_time", "og:published_time", "publishdate", "pubdate", "datepublished", "timestamp", "date"}
)

var blankLinesRe = regexp.MustCompile(`\n{3,}`)

// parse derives cleaned text and metadata from the fetched HTML. Parsing is
// best-effort: if the document yields too little text the paragraph fallback
// applies, and failing that a raw truncated slice of the body.
func (e *Extractor) parse(body, domain string) *Content {
	content := &Content{Domain: domain}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		content.Text = rawFallback(body)
		content.WordCount = len(strings.Fields(content.Text))
		return content
	}

	e.collectMetadata(doc, content)

	content.Text = flattenText(doc)
	if len(content.Text) < minTextLength {
		if paragraphs := collectParagraphs(doc); paragraphs != "" {
			content.Text = paragraphs
		}
	}
	if content.Text == "" {
		content.Text = rawFallback(body)
	}

	content.WordCount = len(strings.Fields(content.Text))
	return content
}

// collectMetadata scans the document for the title tag and meta tags whose
// name/property matches known author/date key patterns. Case-insensitive
// substring match; no overwrite once set.
func (e *Extractor) collectMetadata(doc *html.Node, content *Content) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "title":
				if content.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					content.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				key, value := metaKeyValue(n)
				if key == "" || value == "" {
					break
				}
				if content.Author == "" && matchesAny(key, authorKeyPatterns) {
					content.Author = value
				}
				if content.DatePublished == "" && matchesAny(key, dateKeyPatterns) {
					content.DatePublished = value
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
}

func metaKeyValue(n *html.Node) (key, value string) {
	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "name", "property", "itemprop":
			if key == "" {
				key = strings.ToLower(attr.Val)
			}
		case "content":
			value = strings.TrimSpace(attr.Val)
		}
	}
	return key, value
}

func matchesAny(key string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(key, pattern) {
			return true
		}
	}
	return false
}

// flattenText strips non-content elements and flattens the remaining
// document into plain text, collapsing blank lines.
func flattenText(doc *html.Node) string {
	var sb strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			if skipTags[tag] {
				return
			}
			if blockTags[tag] {
				sb.WriteByte('\n')
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				s := sb.String()
				if len(s) > 0 && s[len(s)-1] != '\n' && s[len(s)-1] != ' ' {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return normalizeText(sb.String())
}

// collectParagraphs joins the text of all <p> elements, the fallback when
// whole-document flattening yields too little content.
func collectParagraphs(doc *html.Node) string {
	var paragraphs []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.ToLower(n.Data) == "p" {
			if text := nodeText(n); text != "" {
				paragraphs = append(paragraphs, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(paragraphs, "\n\n")
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func normalizeText(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.TrimSpace(blankLinesRe.ReplaceAllString(strings.Join(cleaned, "\n"), "\n\n"))
}

func rawFallback(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > maxRawFallback {
		return body[:maxRawFallback]
	}
	return body
}
