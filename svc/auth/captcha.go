package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CaptchaVerifier checks a CAPTCHA response token. A rejected token yields
// ErrCaptchaFailed; transport failures are returned as-is.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// CaptchaFunc adapts a function to CaptchaVerifier.
type CaptchaFunc func(ctx context.Context, token, remoteIP string) error

func (f CaptchaFunc) Verify(ctx context.Context, token, remoteIP string) error {
	return f(ctx, token, remoteIP)
}

// TurnstileConfig configures Cloudflare Turnstile verification.
type TurnstileConfig struct {
	SecretKey string        `env:"TURNSTILE_SECRET_KEY"`
	VerifyURL string        `env:"TURNSTILE_VERIFY_URL" envDefault:"https://challenges.cloudflare.com/turnstile/v0/siteverify"`
	Timeout   time.Duration `env:"TURNSTILE_TIMEOUT" envDefault:"10s"`
}

// Turnstile verifies tokens against the Turnstile siteverify endpoint.
type Turnstile struct {
	secret     string
	verifyURL  string
	httpClient *http.Client
}

// NewTurnstile creates a Turnstile verifier. A nil client gets one with
// cfg.Timeout.
func NewTurnstile(cfg TurnstileConfig, client *http.Client) *Turnstile {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Turnstile{secret: cfg.SecretKey, verifyURL: cfg.VerifyURL, httpClient: client}
}

type turnstileResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

func (t *Turnstile) Verify(ctx context.Context, token, remoteIP string) error {
	if strings.TrimSpace(token) == "" {
		return ErrCaptchaFailed
	}

	form := url.Values{"secret": {t.secret}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("turnstile: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("turnstile: verify: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("turnstile: unexpected status %d", resp.StatusCode)
	}

	var out turnstileResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("turnstile: decode response: %w", err)
	}
	if !out.Success {
		return fmt.Errorf("%w: %s", ErrCaptchaFailed, strings.Join(out.ErrorCodes, ","))
	}
	return nil
}

var _ CaptchaVerifier = (*Turnstile)(nil)
