package easyauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/dmitrymomot/easyauth/pkg/cache"
)

const (
	// CodeLength is the length of an authorization code.
	CodeLength = 32

	defaultUserInfoTTL  = time.Minute
	defaultUserInfoSize = 1024
	maxResponseSize     = 1 << 20
)

// Config identifies the provider and the application.
type Config struct {
	Host         string `env:"EASYAUTH_HOST,required"`
	ClientID     string `env:"EASYAUTH_CLIENT_ID,required"`
	ClientSecret string `env:"EASYAUTH_CLIENT_SECRET,required"`
}

// Client talks to one identity provider on behalf of one application.
// It is safe for concurrent use.
type Client struct {
	base         *url.URL
	clientID     string
	clientSecret string
	httpClient   *http.Client
	sharedSecret bool

	userInfo *cache.LRU[string, *UserInfo]

	jwksMu     sync.Mutex
	jwks       *jwk.Cache
	jwksURL    string
	stopJWKS   context.CancelFunc
	registered bool
}

type Option func(*options)

type options struct {
	httpClient   *http.Client
	sharedSecret bool
	userInfoTTL  time.Duration
	userInfoSize int
}

// WithHTTPClient sets the client used for every provider call.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithSharedSecret verifies ID tokens as HS256 tokens signed with the
// client secret instead of fetching the application's key set.
func WithSharedSecret() Option {
	return func(o *options) { o.sharedSecret = true }
}

// WithUserInfoCache sets how long and how many user info responses are
// cached.
func WithUserInfoCache(ttl time.Duration, size int) Option {
	return func(o *options) {
		if ttl > 0 {
			o.userInfoTTL = ttl
		}
		if size > 0 {
			o.userInfoSize = size
		}
	}
}

func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.Host, "/"))
	if err != nil || base.Host == "" || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, fmt.Errorf("%w: host must be an absolute http(s) URL", ErrInvalidConfig)
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client id and secret are required", ErrInvalidConfig)
	}

	o := options{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		userInfoTTL:  defaultUserInfoTTL,
		userInfoSize: defaultUserInfoSize,
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		base:         base,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   o.httpClient,
		sharedSecret: o.sharedSecret,
		userInfo:     cache.NewLRU[string, *UserInfo](o.userInfoSize, o.userInfoTTL),
	}
	c.jwksURL = c.endpoint("/oidc/.well-known/jwks.json", url.Values{"client_id": {cfg.ClientID}})
	return c, nil
}

// Close stops background key set refreshes.
func (c *Client) Close() {
	c.jwksMu.Lock()
	defer c.jwksMu.Unlock()
	if c.stopJWKS != nil {
		c.stopJWKS()
		c.stopJWKS = nil
		c.jwks = nil
		c.registered = false
	}
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = q.Encode()
	return u.String()
}

type envelope[T any] struct {
	Data  T `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// call performs req and decodes the provider's response envelope.
func call[T any](c *Client, req *http.Request) (T, error) {
	var zero T
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, fmt.Errorf("easyauth: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return zero, fmt.Errorf("easyauth: read response: %w", err)
	}

	var env envelope[T]
	decodeErr := json.Unmarshal(body, &env)
	if resp.StatusCode >= http.StatusBadRequest || env.Error != nil {
		e := &Error{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}
		if decodeErr == nil && env.Error != nil {
			e.Code, e.Message = env.Error.Code, env.Error.Message
		}
		return zero, e
	}
	if decodeErr != nil {
		return zero, fmt.Errorf("easyauth: decode response: %w", decodeErr)
	}
	return env.Data, nil
}

// OnLoginRedirect redeems the authorization code delivered to the
// application's redirect URI and returns the ID token.
func (c *Client) OnLoginRedirect(ctx context.Context, code string) (string, error) {
	if len(code) != CodeLength {
		return "", ErrInvalidCode
	}

	payload, err := json.Marshal(map[string]string{
		"code":          code,
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	})
	if err != nil {
		return "", fmt.Errorf("easyauth: encode token request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/oidc/token", nil), strings.NewReader(string(payload)))
	if err != nil {
		return "", fmt.Errorf("easyauth: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	data, err := call[struct {
		IDToken string `json:"id_token"`
	}](c, req)
	if err != nil {
		return "", err
	}
	if data.IDToken == "" {
		return "", errors.New("easyauth: token response without id_token")
	}
	return data.IDToken, nil
}

// keySet returns the application's key set, registering it with the
// refreshing cache on first use. A failed registration is retried on the
// next call.
func (c *Client) keySet(ctx context.Context) (jwk.Set, error) {
	c.jwksMu.Lock()
	if c.jwks == nil {
		cacheCtx, cancel := context.WithCancel(context.Background())
		jc, err := jwk.NewCache(cacheCtx, httprc.NewClient(httprc.WithHTTPClient(c.httpClient)))
		if err != nil {
			cancel()
			c.jwksMu.Unlock()
			return nil, fmt.Errorf("easyauth: create jwks cache: %w", err)
		}
		c.jwks, c.stopJWKS = jc, cancel
	}
	if !c.registered {
		if err := c.jwks.Register(ctx, c.jwksURL); err != nil {
			c.jwksMu.Unlock()
			return nil, fmt.Errorf("easyauth: register jwks: %w", err)
		}
		c.registered = true
	}
	jc := c.jwks
	c.jwksMu.Unlock()

	set, err := jc.Lookup(ctx, c.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("easyauth: fetch jwks: %w", err)
	}
	return set, nil
}
