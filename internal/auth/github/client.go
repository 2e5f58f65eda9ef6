// Package github implements the OAuth code exchange against the GitHub API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codequest-labs/codequest/internal/config"
)

const (
	tokenURL = "https://github.com/login/oauth/access_token"
	userURL  = "https://api.github.com/user"
)

var ErrExchangeFailed = errors.New("github_exchange_failed")

// Account is the subset of the GitHub user payload the backend keeps.
type Account struct {
	ID          string
	Login       string
	DisplayName string
	Email       string
}

type Client struct {
	clientID     string
	clientSecret string
	http         *http.Client
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		clientID:     cfg.GitHubClientID,
		clientSecret: cfg.GitHubClientSecret,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Configured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

// Exchange trades an OAuth code for the GitHub account behind it.
func (c *Client) Exchange(ctx context.Context, code string) (*Account, error) {
	accessToken, err := c.fetchAccessToken(ctx, code)
	if err != nil {
		return nil, err
	}
	return c.fetchAccount(ctx, accessToken)
}

func (c *Client) fetchAccessToken(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"code":          {code},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrExchangeFailed, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrExchangeFailed)
	}
	return payload.AccessToken, nil
}

func (c *Client) fetchAccount(ctx context.Context, accessToken string) (*Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "token "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrExchangeFailed, resp.StatusCode)
	}

	var payload struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	account := &Account{
		ID:          fmt.Sprintf("%d", payload.ID),
		Login:       payload.Login,
		DisplayName: payload.Name,
		Email:       payload.Email,
	}
	if account.DisplayName == "" {
		account.DisplayName = payload.Login
	}
	return account, nil
}
