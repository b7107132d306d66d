package tools

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/quorumbot/quorum/internal/llm"
	"github.com/quorumbot/quorum/internal/log"
	"github.com/quorumbot/quorum/internal/security"
)

const (
	maxWebpageBytes   = 5 * 1024 * 1024
	maxContentRunes   = 8000
	maxOutboundLinks  = 20
	webpageUserAgent  = "quorum/1.0 (+https://github.com/quorumbot/quorum)"
	webpageFetchLimit = 30 * time.Second
)

// ReadWebpageInput defines input for the read_webpage tool.
type ReadWebpageInput struct {
	URL string `json:"url" jsonschema_description:"The http(s) URL to read"`
}

// ReadWebpageOutput is the read_webpage tool result: readable article
// text plus outbound links for follow-up fetches.
type ReadWebpageOutput struct {
	Title   string   `json:"title,omitempty"`
	Content string   `json:"content"`
	Links   []string `json:"links,omitempty"`
}

// urlValidator is the fetch guard the toolset needs.
type urlValidator interface {
	Validate(rawURL string) error
}

// WebpageToolset fetches pages and extracts readable text. Fetches go
// through an SSRF-validating client.
type WebpageToolset struct {
	validator urlValidator
	client    *http.Client
	logger    log.Logger
}

// NewWebpageToolset creates the webpage toolset with default limits.
func NewWebpageToolset(logger log.Logger) (*WebpageToolset, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	validator := security.NewURL()
	return &WebpageToolset{
		validator: validator,
		client:    validator.SafeClient(webpageFetchLimit),
		logger:    logger,
	}, nil
}

// ReadWebpage fetches the URL and extracts the readable article text
// and outbound links.
func (w *WebpageToolset) ReadWebpage(ctx context.Context, input ReadWebpageInput) (ReadWebpageOutput, error) {
	if err := w.validator.Validate(input.URL); err != nil {
		return ReadWebpageOutput{}, fmt.Errorf("unsafe URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, input.URL, nil)
	if err != nil {
		return ReadWebpageOutput{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", webpageUserAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return ReadWebpageOutput{}, fmt.Errorf("fetch %s: %w", input.URL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return ReadWebpageOutput{}, fmt.Errorf("fetch %s: unexpected status %d", input.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWebpageBytes))
	if err != nil {
		return ReadWebpageOutput{}, fmt.Errorf("read response: %w", err)
	}

	pageURL, err := url.Parse(input.URL)
	if err != nil {
		return ReadWebpageOutput{}, fmt.Errorf("parse URL: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return ReadWebpageOutput{}, fmt.Errorf("extract content: %w", err)
	}

	content := strings.TrimSpace(article.TextContent)
	if runes := []rune(content); len(runes) > maxContentRunes {
		content = string(runes[:maxContentRunes]) + "…"
	}

	out := ReadWebpageOutput{
		Title:   article.Title,
		Content: content,
		Links:   extractLinks(body, pageURL),
	}
	w.logger.Debug("webpage read",
		"url", input.URL,
		"title", out.Title,
		"content_len", len(out.Content),
		"links", len(out.Links))
	return out, nil
}

// extractLinks collects distinct absolute http(s) links from the page,
// resolved against the page URL, capped at maxOutboundLinks.
func extractLinks(body []byte, pageURL *url.URL) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		abs := pageURL.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return true
		}
		abs.Fragment = ""
		link := abs.String()
		if _, dup := seen[link]; dup {
			return true
		}
		seen[link] = struct{}{}
		links = append(links, link)
		return len(links) < maxOutboundLinks
	})
	return links
}

// Definitions returns the registrable webpage tool definitions.
func (w *WebpageToolset) Definitions() ([]*Definition, error) {
	def, err := NewTool("read_webpage",
		"Fetch a public webpage and return its readable text content and outbound links. "+
			"Only http and https URLs are supported.",
		w.ReadWebpage)
	if err != nil {
		return nil, err
	}
	def.Describe = func(call llm.ToolCall) string {
		var input ReadWebpageInput
		if err := decodeArguments(call.Arguments, &input); err != nil || input.URL == "" {
			return "Reading a webpage"
		}
		return "Reading " + input.URL
	}
	return []*Definition{def}, nil
}
