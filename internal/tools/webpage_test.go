package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quorumbot/quorum/internal/llm"
	"github.com/quorumbot/quorum/internal/log"
)

// allowAll skips SSRF validation so tests can hit httptest's loopback
// server.
type allowAll struct{}

func (allowAll) Validate(string) error { return nil }

type denyAll struct{}

func (denyAll) Validate(string) error { return fmt.Errorf("blocked") }

const testPage = `<!DOCTYPE html>
<html>
<head><title>Community Solar Update</title></head>
<body>
<article>
<h1>Community Solar Update</h1>
<p>The cooperative installed twelve new panels this spring, doubling
generation capacity. Members voted to reinvest the surplus into battery
storage for the winter months.</p>
<p>Planning documents are linked below for anyone who wants the full
figures and the maintenance schedule for the coming year.</p>
<p><a href="/plans/2025.pdf">2025 plan</a>
<a href="https://example.org/grid">grid info</a>
<a href="https://example.org/grid#section">grid info again</a>
<a href="mailto:board@example.org">contact</a></p>
</article>
</body>
</html>`

func newWebpageTestToolset(handler http.Handler) (*WebpageToolset, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return &WebpageToolset{
		validator: allowAll{},
		client:    srv.Client(),
		logger:    log.NewNop(),
	}, srv
}

func TestWebpageToolset_ReadWebpage(t *testing.T) {
	w, srv := newWebpageTestToolset(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "text/html")
		_, _ = rw.Write([]byte(testPage))
	}))
	defer srv.Close()

	out, err := w.ReadWebpage(context.Background(), ReadWebpageInput{URL: srv.URL + "/post"})
	if err != nil {
		t.Fatalf("ReadWebpage() error = %v", err)
	}
	if out.Title != "Community Solar Update" {
		t.Errorf("Title = %q", out.Title)
	}
	if !strings.Contains(out.Content, "twelve new panels") {
		t.Errorf("Content missing article text: %q", out.Content)
	}
	if strings.Contains(out.Content, "<p>") {
		t.Errorf("Content should be text, not HTML: %q", out.Content)
	}

	// Relative links resolve against the page URL, non-http schemes are
	// dropped and fragments deduplicate.
	wantLinks := []string{
		srv.URL + "/plans/2025.pdf",
		"https://example.org/grid",
	}
	if len(out.Links) != len(wantLinks) {
		t.Fatalf("Links = %v, want %v", out.Links, wantLinks)
	}
	for i, want := range wantLinks {
		if out.Links[i] != want {
			t.Errorf("Links[%d] = %q, want %q", i, out.Links[i], want)
		}
	}
}

func TestWebpageToolset_BlockedURL(t *testing.T) {
	w := &WebpageToolset{validator: denyAll{}, client: http.DefaultClient, logger: log.NewNop()}

	_, err := w.ReadWebpage(context.Background(), ReadWebpageInput{URL: "http://anything"})
	if err == nil || !strings.Contains(err.Error(), "unsafe URL") {
		t.Errorf("ReadWebpage() error = %v, want unsafe URL", err)
	}
}

func TestWebpageToolset_NonOKStatus(t *testing.T) {
	w, srv := newWebpageTestToolset(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := w.ReadWebpage(context.Background(), ReadWebpageInput{URL: srv.URL})
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Errorf("ReadWebpage() error = %v, want status failure", err)
	}
}

func TestWebpageToolset_Describe(t *testing.T) {
	w, err := NewWebpageToolset(log.NewNop())
	if err != nil {
		t.Fatalf("NewWebpageToolset() error = %v", err)
	}
	defs, err := w.Definitions()
	if err != nil {
		t.Fatalf("Definitions() error = %v", err)
	}
	if len(defs) != 1 || defs[0].Name != "read_webpage" {
		t.Fatalf("Definitions() = %v", defs)
	}

	got := defs[0].Describe(llm.ToolCall{Arguments: `{"url":"https://example.com/a"}`})
	if !strings.Contains(got, "https://example.com/a") {
		t.Errorf("Describe() = %q, want URL included", got)
	}
}
