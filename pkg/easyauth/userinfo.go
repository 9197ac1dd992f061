package easyauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// UserInfo is the profile the provider shares with applications.
type UserInfo struct {
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}

// GetUserInfo returns the profile of the user an ID token was issued for.
// Responses are cached per token for a minute by default.
func (c *Client) GetUserInfo(ctx context.Context, idToken string) (*UserInfo, error) {
	if info, ok := c.userInfo.Get(idToken); ok {
		return info, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/info", url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"id_token":      {idToken},
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("easyauth: build info request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	info, err := call[*UserInfo](c, req)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, errors.New("easyauth: empty user info response")
	}
	c.userInfo.Put(idToken, info)
	return info, nil
}
