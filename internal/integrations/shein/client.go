package shein

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	xproxy "golang.org/x/net/proxy"
	"golang.org/x/time/rate"

	"sheinstock/internal/db"
	"sheinstock/internal/fieldmap"
)

const defaultBaseURL = "https://openapi.sheincorp.com"

// Config is the shein integration block from the config file. Secrets
// (app-level proxy credentials) may be overlaid from the environment.
type Config struct {
	BaseURL string `json:"base_url"`
	Profile string `json:"profile"` // openkey (default) | appid

	// ProxyURL routes outbound calls through a forward proxy so the
	// platform's IP allow-list sees a stable egress address. Supports
	// http(s):// with embedded basic auth, and socks5://.
	ProxyURL string `json:"proxy_url"`

	TimeoutSeconds  int     `json:"timeout_seconds"`
	RateLimitRPS    float64 `json:"rate_limit_rps"`
	ProductPageSize int     `json:"product_page_size"`
	OrderPageSize   int     `json:"order_page_size"`
	MaxPages        int     `json:"max_pages"`
	OrderWindowDays int     `json:"order_window_days"`
}

func (c *Config) withDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.RateLimitRPS <= 0 {
		c.RateLimitRPS = 5
	}
	if c.ProductPageSize <= 0 {
		c.ProductPageSize = 100
	}
	if c.OrderPageSize <= 0 {
		c.OrderPageSize = 200
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 20
	}
	if c.OrderWindowDays <= 0 {
		c.OrderWindowDays = 30
	}
}

// Envelope is the platform's response wrapper. Which payload field is
// populated depends on the protocol generation.
type Envelope struct {
	Code Code     `json:"code"`
	Msg  string   `json:"msg"`
	Data *Payload `json:"data"`
	Info *Payload `json:"info"`
}

type Payload struct {
	List  []fieldmap.Record `json:"list"`
	Total int               `json:"total"`
}

// Code tolerates both "0" and 0 on the wire.
type Code string

func (c *Code) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = Code(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = Code(n.String())
	return nil
}

const codeOK = Code("0")

// List picks the record list per profile. A missing or unexpected payload
// shape yields nil, which callers treat as zero records, not as an error.
func (e *Envelope) List(p Profile) []fieldmap.Record {
	var payload *Payload
	switch p.EnvelopeField {
	case "info":
		payload = e.Info
	default:
		payload = e.Data
	}
	if payload == nil {
		return nil
	}
	return payload.List
}

// Response is the result of one signed call: either a parsed envelope, or
// the raw-body fallback when the platform answered with something that is
// not JSON (gateway errors, HTML block pages).
type Response struct {
	Envelope *Envelope
	Raw      string
	Status   int

	ViaProxy      bool
	ProxyFallback bool // proxy route failed, direct attempt was made
}

// Client issues signed POST calls against the open API.
type Client struct {
	log     zerolog.Logger
	cfg     Config
	profile Profile
	limiter *rate.Limiter

	direct  *http.Client
	proxied *http.Client // nil when no proxy configured

	now func() time.Time
}

func NewClient(log zerolog.Logger, cfg Config) (*Client, error) {
	cfg.withDefaults()
	profile, err := ProfileByName(cfg.Profile)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	c := &Client{
		log:     log,
		cfg:     cfg,
		profile: profile,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1),
		direct:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}

	if cfg.ProxyURL != "" {
		proxied, err := proxiedClient(cfg.ProxyURL, timeout)
		if err != nil {
			return nil, fmt.Errorf("proxy config: %w", err)
		}
		c.proxied = proxied
	}
	return c, nil
}

func (c *Client) Profile() Profile { return c.profile }

// proxiedClient builds an http.Client routed through the forward proxy.
// http/https URLs go through CONNECT (basic auth taken from the URL),
// socks5 URLs through the x/net dialer.
func proxiedClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http", "https":
		return &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{Proxy: http.ProxyURL(u)},
		}, nil
	case "socks5":
		dialer, err := xproxy.FromURL(u, xproxy.Direct)
		if err != nil {
			return nil, err
		}
		cd, ok := dialer.(xproxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("socks5 dialer does not support context")
		}
		return &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{DialContext: cd.DialContext},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
}

// Call signs and POSTs body to path using the stored credential. A non-JSON
// response body is returned as a raw fallback, not an error; the error return
// is transport-level only (both proxy and direct routes failed).
func (c *Client) Call(ctx context.Context, cred *db.Credential, path string, body any) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Path: path, Err: err}
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	timestamp := c.profile.Timestamp(c.now())
	signature := Sign(cred.OpenKeyID, cred.SecretKey, path, timestamp)

	build := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(c.profile.IdentityHeader, cred.OpenKeyID)
		req.Header.Set("x-lt-timestamp", timestamp)
		req.Header.Set("x-lt-signature", signature)
		if cred.AccessToken != "" {
			req.Header.Set("x-lt-accesstoken", cred.AccessToken)
		}
		return req, nil
	}

	resp := &Response{}

	httpClient := c.direct
	if c.proxied != nil {
		httpClient = c.proxied
		resp.ViaProxy = true
	}

	req, err := build()
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	httpResp, err := httpClient.Do(req)
	if err != nil && c.proxied != nil {
		// The proxy is only there for a stable egress IP; a broken proxy
		// must not drop the request. Fall back to a direct attempt and
		// record that the route changed.
		c.log.Warn().Err(err).Str("path", path).Msg("proxy route failed, retrying direct")
		resp.ProxyFallback = true
		req, err = build()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		httpResp, err = c.direct.Do(req)
	}
	if err != nil {
		return nil, &TransportError{Path: path, Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 4<<20))
	if err != nil {
		return nil, &TransportError{Path: path, Err: err}
	}

	resp.Status = httpResp.StatusCode

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		resp.Raw = string(raw)
		c.log.Debug().Str("path", path).Int("status", resp.Status).Msg("non-JSON response body")
		return resp, nil
	}
	resp.Envelope = &env

	c.log.Debug().
		Str("path", path).
		Int("status", resp.Status).
		Str("code", string(env.Code)).
		Bool("via_proxy", resp.ViaProxy).
		Msg("api call done")
	return resp, nil
}

// pageBody builds a pagination request body using the profile's page field.
func (c *Client) pageBody(page, pageSize int, extra map[string]any) map[string]any {
	body := map[string]any{
		c.profile.PageField: page,
		"pageSize":          pageSize,
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

// preview truncates raw bodies for diagnostics.
func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..." + strconv.Itoa(len(s)-max) + " bytes truncated"
}
