package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// ProviderGitHub is the only provider currently supported.
const ProviderGitHub = "github"

// ProviderAdapter hides the protocol details of a third-party identity
// provider.
type ProviderAdapter interface {
	ProviderID() string
	// AuthURL builds the provider authorization URL for state.
	AuthURL(state string) string
	// ResolveProfile exchanges code for an access token and fetches the
	// user's profile. An exchange failure yields ErrInvalidCode.
	ResolveProfile(ctx context.Context, code string) (ProviderProfile, error)
}

// ProviderProfile is the normalized profile returned by a provider.
type ProviderProfile struct {
	ProviderUserID string
	Email          string
	Name           string
	AvatarURL      string
}

// GitHubConfig holds GitHub OAuth app credentials. The provider is disabled
// when ClientID is empty.
type GitHubConfig struct {
	ClientID     string   `env:"GITHUB_CLIENT_ID"`
	ClientSecret string   `env:"GITHUB_CLIENT_SECRET"`
	RedirectURL  string   `env:"GITHUB_REDIRECT_URL"`
	Scopes       []string `env:"GITHUB_SCOPES" envSeparator:"," envDefault:"read:user,user:email"`
	APIBaseURL   string   `env:"GITHUB_API_BASE_URL" envDefault:"https://api.github.com"`
}

// Enabled reports whether GitHub credentials are configured.
func (c GitHubConfig) Enabled() bool { return c.ClientID != "" }

type GitHubOption func(*githubAdapter)

// WithGitHubEndpoint overrides the OAuth endpoints.
func WithGitHubEndpoint(e oauth2.Endpoint) GitHubOption {
	return func(a *githubAdapter) { a.conf.Endpoint = e }
}

func WithGitHubHTTPClient(c *http.Client) GitHubOption {
	return func(a *githubAdapter) {
		if c != nil {
			a.httpClient = c
		}
	}
}

type githubAdapter struct {
	conf       *oauth2.Config
	apiBase    string
	httpClient *http.Client
}

// NewGitHubAdapter creates a GitHub ProviderAdapter.
func NewGitHubAdapter(cfg GitHubConfig, opts ...GitHubOption) ProviderAdapter {
	apiBase := strings.TrimRight(cfg.APIBaseURL, "/")
	if apiBase == "" {
		apiBase = "https://api.github.com"
	}
	a := &githubAdapter{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     github.Endpoint,
		},
		apiBase:    apiBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *githubAdapter) ProviderID() string { return ProviderGitHub }

func (a *githubAdapter) AuthURL(state string) string {
	return a.conf.AuthCodeURL(state)
}

func (a *githubAdapter) ResolveProfile(ctx context.Context, code string) (ProviderProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return ProviderProfile{}, ErrInvalidCode
	}

	var u ghUser
	if err := a.get(ctx, tok.AccessToken, "/user", &u); err != nil {
		return ProviderProfile{}, fmt.Errorf("fetch github user: %w", err)
	}

	// The public email on /user carries no verification status.
	var emails []ghEmail
	if err := a.get(ctx, tok.AccessToken, "/user/emails", &emails); err != nil {
		return ProviderProfile{}, fmt.Errorf("fetch github emails: %w", err)
	}
	email := pickEmail(emails)
	if email == "" {
		return ProviderProfile{}, ErrNoPrimaryEmail
	}

	name := u.Name
	if name == "" {
		name = u.Login
	}
	return ProviderProfile{
		ProviderUserID: strconv.FormatInt(u.ID, 10),
		Email:          email,
		Name:           name,
		AvatarURL:      u.AvatarURL,
	}, nil
}

// pickEmail prefers the primary verified address, then any verified one.
func pickEmail(emails []ghEmail) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email
		}
	}
	return ""
}

func (a *githubAdapter) get(ctx context.Context, accessToken, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type ghUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type ghEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

var _ ProviderAdapter = (*githubAdapter)(nil)
