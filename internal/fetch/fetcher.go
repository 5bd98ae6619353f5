package fetch

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"webvec/internal/text"
)

const (
	maxBodyBytes     = 10 << 20 // 10MB
	defaultUserAgent = "webvec/1.0 (+ingestion bot)"
)

var (
	scriptRe   = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe    = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptRe = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	commentRe  = regexp.MustCompile(`(?s)<!--.*?-->`)
	tagRe      = regexp.MustCompile(`(?s)<[^>]*>`)
)

// Fetcher retrieves page content over HTTP and turns it into plain-text
// chunks. It implements worker.ContentFetcher.
type Fetcher struct {
	client *http.Client
}

func New() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func NewWithClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.WarnContext(ctx, "failed to close response body", "error", closeErr, "url", url)
		}
	}()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body of %s: %w", url, err)
	}

	return string(body), nil
}

// Clean strips markup from raw HTML and normalizes the remaining text.
// Script, style and comment blocks are dropped entirely; every other tag is
// replaced by a space so adjacent elements don't fuse into one word.
func (f *Fetcher) Clean(raw string) string {
	t := scriptRe.ReplaceAllString(raw, " ")
	t = styleRe.ReplaceAllString(t, " ")
	t = noscriptRe.ReplaceAllString(t, " ")
	t = commentRe.ReplaceAllString(t, " ")
	t = tagRe.ReplaceAllString(t, " ")
	t = html.UnescapeString(t)
	return text.NormalizeWhitespace(t)
}

func (f *Fetcher) Chunk(cleaned string, size, overlap int) []string {
	return text.Chunk(cleaned, size, overlap)
}
