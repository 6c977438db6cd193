// Package graph is a minimal Microsoft Graph client for the Secure Score
// endpoints.
package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

// Cloud identifies a Microsoft cloud instance.
type Cloud struct {
	Name      string
	LoginHost string
	GraphHost string
}

// Clouds lists the supported national clouds by name.
var Clouds = map[string]Cloud{
	"global":   {Name: "global", LoginHost: "login.microsoftonline.com", GraphHost: "graph.microsoft.com"},
	"usgov":    {Name: "usgov", LoginHost: "login.microsoftonline.us", GraphHost: "graph.microsoft.us"},
	"usgovdod": {Name: "usgovdod", LoginHost: "login.microsoftonline.us", GraphHost: "dod-graph.microsoft.us"},
	"china":    {Name: "china", LoginHost: "login.chinacloudapi.cn", GraphHost: "microsoftgraph.chinacloudapi.cn"},
}

// LookupCloud returns the named cloud.
func LookupCloud(name string) (Cloud, error) {
	if name == "" {
		name = "global"
	}
	c, ok := Clouds[strings.ToLower(name)]
	if !ok {
		return Cloud{}, fmt.Errorf("unknown cloud %q", name)
	}
	return c, nil
}

// Credentials select how the client authenticates. A non-empty Token is
// used as-is; otherwise the client credentials grant is used.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Token        string
}

// Options tune the client.
type Options struct {
	Cloud     Cloud
	RateLimit float64 // requests per second
	Timeout   time.Duration
	Logger    *slog.Logger
}

// Client is an authenticated Microsoft Graph v1.0 client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a Graph client.
func NewClient(ctx context.Context, creds Credentials, opts Options) (*Client, error) {
	if opts.Cloud.GraphHost == "" {
		opts.Cloud = Clouds["global"]
	}

	var ts oauth2.TokenSource
	switch {
	case creds.Token != "":
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.Token})
	case creds.TenantID == "" || creds.ClientID == "" || creds.ClientSecret == "":
		return nil, errors.New("graph credentials require tenant ID, client ID and client secret, or a bearer token")
	default:
		cc := &clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     fmt.Sprintf("https://%s/%s/oauth2/v2.0/token", opts.Cloud.LoginHost, creds.TenantID),
			Scopes:       []string{"https://" + opts.Cloud.GraphHost + "/.default"},
		}
		ts = cc.TokenSource(ctx)
	}

	hc := oauth2.NewClient(ctx, ts)
	if opts.Timeout > 0 {
		hc.Timeout = opts.Timeout
	} else {
		hc.Timeout = 30 * time.Second
	}

	c := NewClientWithBase(hc, "https://"+opts.Cloud.GraphHost+"/v1.0")
	c.SetRateLimit(opts.RateLimit)
	if opts.Logger != nil {
		c.logger = opts.Logger
	}
	return c, nil
}

// NewClientWithBase creates a client using an already authenticated HTTP
// client and a custom base URL (for testing).
func NewClientWithBase(hc *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: hc,
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     slog.New(slog.DiscardHandler),
	}
}

// SetRateLimit caps outgoing requests per second. Zero or less disables
// the limit.
func (c *Client) SetRateLimit(perSecond float64) {
	if perSecond <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// APIError is a non-2xx response from Graph.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Code       string
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("graph %s %s returned %d", e.Method, e.Path, e.StatusCode)
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (retry after %s)", e.RetryAfter)
	}
	return msg
}

// Throttled reports whether Graph asked the caller to back off.
func (e *APIError) Throttled() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusServiceUnavailable
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// get performs a rate-limited GET and decodes the JSON response into v.
// path may be relative to the base URL or an absolute @odata.nextLink.
func (c *Client) get(ctx context.Context, path string, v any) error {
	url := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		url = c.baseURL + path
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	c.logger.Debug("graph request", "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			Method:     http.MethodGet,
			Path:       path,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			apiErr.Code = eb.Error.Code
			apiErr.Message = eb.Error.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func parseRetryAfter(h string) time.Duration {
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		return time.Until(t).Round(time.Second)
	}
	return 0
}
