// Package fetch turns a URL into prompt-ready page markup or article text.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/bryanwahyu/reason3/internal/middleware"
)

const (
	// MaxPageBytes caps cleaned markup handed to the model.
	MaxPageBytes = 512 << 10
	// maxDownload caps the raw response body.
	maxDownload  = 4 << 20
	userAgent    = "reason3-fetcher/1.0"
	maxRedirects = 10
)

type Options struct {
	Timeout time.Duration
	// AllowPrivate skips the loopback/private host check.
	AllowPrivate bool
}

type Fetcher struct {
	client       *http.Client
	allowPrivate bool
}

func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	f := &Fetcher{allowPrivate: opts.AllowPrivate}
	f.client = &http.Client{
		Timeout:       opts.Timeout,
		Transport:     newTransport(opts.AllowPrivate),
		CheckRedirect: f.checkRedirect,
	}
	return f
}

// newTransport dials only public addresses unless allowPrivate is set.
// The check runs on the resolved address so host names pointing inward
// are refused too. Proxies are not used since they would hide the target.
func newTransport(allowPrivate bool) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = nil
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	if !allowPrivate {
		dialer.Control = dialGuard
	}
	t.DialContext = dialer.DialContext
	return t
}

func dialGuard(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("refusing dial to %s: %w", address, err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("refusing dial to unresolved address %s", address)
	}
	if err := middleware.CheckIP(ip); err != nil {
		return fmt.Errorf("refusing dial to %s: %w", address, err)
	}
	return nil
}

func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if _, err := f.check(req.URL.String()); err != nil {
		return fmt.Errorf("redirect to %s refused: %w", req.URL.Redacted(), err)
	}
	return nil
}

func (f *Fetcher) check(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	if !f.allowPrivate {
		if err := middleware.ValidateURL(rawURL); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (f *Fetcher) get(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s, status code: %d", u, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// FetchPage returns the page markup without script, style and noscript elements.
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string) (string, error) {
	u, err := f.check(rawURL)
	if err != nil {
		return "", err
	}
	body, err := f.get(ctx, u)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	html, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("render HTML: %w", err)
	}
	return truncate(html, MaxPageBytes), nil
}

// FetchArticle returns the title and readable text of the page.
func (f *Fetcher) FetchArticle(ctx context.Context, rawURL string) (string, error) {
	u, err := f.check(rawURL)
	if err != nil {
		return "", err
	}
	body, err := f.get(ctx, u)
	if err != nil {
		return "", err
	}
	article, err := readability.NewParser().Parse(bytes.NewReader(body), u)
	if err != nil {
		return "", fmt.Errorf("extract article: %w", err)
	}

	var b strings.Builder
	if t := strings.TrimSpace(article.Title); t != "" {
		b.WriteString(t)
		b.WriteString("\n\n")
	}
	b.WriteString(strings.TrimSpace(article.TextContent))
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("no readable text at %s", u)
	}
	return truncate(text, MaxPageBytes), nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
