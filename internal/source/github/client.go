// Package github implements source.Source against the GitHub releases
// API, adapted from the manager's own direct HTTP client (token-from-env,
// descriptive user-agent, plain net/http) rather than an API SDK — no
// GitHub SDK appears anywhere in the retrieval pack.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rokit-build/rokit/internal/model"
	"github.com/rokit-build/rokit/internal/rerr"
)

const (
	apiBase           = "https://api.github.com"
	maxAttempts       = 4
	perAttemptTimeout = 30 * time.Second
	overallDeadline   = 120 * time.Second
)

// Client talks to api.github.com with auth, retry, and backoff.
type Client struct {
	httpClient *http.Client
	userAgent  string
	token      string
}

// New builds a Client; version is folded into the user-agent string.
func New(version string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: perAttemptTimeout},
		userAgent:  UserAgent(version),
		token:      TokenFromEnv(),
	}
}

// TokenFromEnv reads GITHUB_PAT first, then GITHUB_TOKEN, matching the
// "or equivalent" auth source named in §6.
func TokenFromEnv() string {
	if tok := strings.TrimSpace(os.Getenv("GITHUB_PAT")); tok != "" {
		return tok
	}
	return strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
}

// SetFallbackToken sets the client's token when no environment variable
// already provided one, letting the "authenticate" command's stored
// auth.json take over without ever overriding an explicit env var.
func (c *Client) SetFallbackToken(token string) {
	if c.token == "" {
		c.token = strings.TrimSpace(token)
	}
}

// UserAgent renders a descriptive identifier for outgoing requests.
func UserAgent(version string) string {
	return fmt.Sprintf("rokit/%s", version)
}

type releaseJSON struct {
	TagName string      `json:"tag_name"`
	Assets  []assetJSON `json:"assets"`
}

type assetJSON struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
	ContentType        string `json:"content_type"`
}

func (r releaseJSON) toRelease() model.Release {
	rel := model.Release{Tag: r.TagName, Version: strings.TrimPrefix(r.TagName, "v")}
	for _, a := range r.Assets {
		rel.Assets = append(rel.Assets, model.Asset{
			Name:        a.Name,
			Size:        a.Size,
			DownloadURL: a.BrowserDownloadURL,
			ContentType: a.ContentType,
		})
	}
	return rel
}

// ListReleases returns id's releases newest-first, walking GitHub's
// page-numbered Link pagination until a short page signals the end.
func (c *Client) ListReleases(ctx context.Context, id model.ToolId) ([]model.Release, error) {
	var all []model.Release
	const perPage = 100
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d&page=%d", apiBase, id.Scope, id.Name, perPage, page)
		body, err := c.doWithRetry(ctx, url)
		if err != nil {
			return nil, err
		}
		var batch []releaseJSON
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, rerr.New(rerr.KindSourceTerminal, "github.ListReleases", fmt.Errorf("decode releases: %w", err))
		}
		for _, r := range batch {
			all = append(all, r.toRelease())
		}
		if len(batch) < perPage {
			break
		}
	}
	return all, nil
}

// GetRelease resolves one concrete tag, trying both "X.Y.Z" and "vX.Y.Z".
func (c *Client) GetRelease(ctx context.Context, id model.ToolId, version string) (model.Release, error) {
	for _, tag := range []string{version, "v" + version} {
		url := fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s", apiBase, id.Scope, id.Name, tag)
		release, err := c.fetchReleaseFrom(ctx, url)
		if err != nil {
			if rerr.Is(err, rerr.KindSourceTerminal) {
				continue
			}
			return model.Release{}, err
		}
		return release, nil
	}
	return model.Release{}, rerr.New(rerr.KindSourceTerminal, "github.GetRelease",
		fmt.Errorf("no release tagged %q or %q for %s", version, "v"+version, id))
}

// fetchReleaseFrom issues url (a specific-release endpoint) and decodes
// the single release it returns.
func (c *Client) fetchReleaseFrom(ctx context.Context, url string) (model.Release, error) {
	body, err := c.doWithRetry(ctx, url)
	if err != nil {
		return model.Release{}, err
	}
	var r releaseJSON
	if err := json.Unmarshal(body, &r); err != nil {
		return model.Release{}, rerr.New(rerr.KindSourceTerminal, "github.fetchReleaseFrom", fmt.Errorf("decode release: %w", err))
	}
	return r.toRelease(), nil
}

// Download fetches one asset's bytes via its redirect-following download
// URL, requesting the raw octet stream so GitHub redirects to the binary
// instead of an HTML asset page.
func (c *Client) Download(ctx context.Context, asset model.Asset) ([]byte, error) {
	return c.doWithRetryAccept(ctx, asset.DownloadURL, "application/octet-stream")
}

func (c *Client) doWithRetry(ctx context.Context, url string) ([]byte, error) {
	return c.doWithRetryAccept(ctx, url, "application/vnd.github+json")
}

// doWithRetryAccept issues url with the retry/backoff envelope from §4.3:
// retry on connection reset, 5xx, 408, and 429, up to maxAttempts, inside
// an overall deadline; any other 4xx is terminal immediately.
func (c *Client) doWithRetryAccept(ctx context.Context, url, accept string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, overallDeadline)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, status, err := c.doOnce(ctx, url, accept)
		if err == nil {
			return body, nil
		}
		if status != 0 && !isRetryableStatus(status) {
			return nil, rerr.New(rerr.KindSourceTerminal, "github.doWithRetryAccept", err)
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, rerr.New(rerr.KindSourceTransient, "github.doWithRetryAccept", ctx.Err())
		case <-time.After(backoff(attempt)):
		}
	}
	return nil, rerr.New(rerr.KindSourceTransient, "github.doWithRetryAccept", lastErr)
}

func (c *Client) doOnce(ctx context.Context, url, accept string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Encoding", "gzip, br, deflate")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, resp.StatusCode, fmt.Errorf("read body from %s: %w", url, err)
		}
		return body, resp.StatusCode, nil
	}

	body, _ := io.ReadAll(resp.Body)
	return nil, resp.StatusCode, fmt.Errorf("GET %s: status %d: %s", url, resp.StatusCode, strconv.Quote(string(body)))
}

func isRetryableStatus(status int) bool {
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500
}

func backoff(attempt int) time.Duration {
	base := 500 * time.Millisecond
	for i := 1; i < attempt; i++ {
		base *= 2
	}
	if base > 8*time.Second {
		base = 8 * time.Second
	}
	return base
}
