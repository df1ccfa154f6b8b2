package zoom

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/b1rigu/ZoomScheduleLister/internal/models"
)

const (
	defaultOAuthBaseURL = "https://zoom.us"
	defaultAPIBaseURL   = "https://api.zoom.us/v2"

	// One page of this size covers every account we deal with, so no
	// pagination handling is needed.
	pageSize = 300
)

// Client is the HTTP implementation of the API interface.
type Client struct {
	oauthBaseURL string
	apiBaseURL   string
	client       *http.Client
}

// NewClient creates a Zoom API client. Empty base URLs fall back to the
// public Zoom endpoints; tests and local development point them at a mock.
func NewClient(oauthBaseURL, apiBaseURL string) *Client {
	if oauthBaseURL == "" {
		oauthBaseURL = defaultOAuthBaseURL
	}
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}

	return &Client{
		oauthBaseURL: strings.TrimSuffix(oauthBaseURL, "/"),
		apiBaseURL:   strings.TrimSuffix(apiBaseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ExchangeAccountCredentials implements API.ExchangeAccountCredentials.
func (c *Client) ExchangeAccountCredentials(ctx context.Context, clientID, clientSecret, accountID string) (models.ZoomTokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "account_credentials")
	form.Set("account_id", accountID)

	return c.exchangeToken(ctx, clientID, clientSecret, form)
}

// ExchangeRefreshToken implements API.ExchangeRefreshToken.
func (c *Client) ExchangeRefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (models.ZoomTokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	return c.exchangeToken(ctx, clientID, clientSecret, form)
}

// ExchangeAuthorizationCode implements API.ExchangeAuthorizationCode.
func (c *Client) ExchangeAuthorizationCode(ctx context.Context, clientID, clientSecret, code, redirectURI string) (models.ZoomTokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)

	return c.exchangeToken(ctx, clientID, clientSecret, form)
}

func (c *Client) exchangeToken(ctx context.Context, clientID, clientSecret string, form url.Values) (models.ZoomTokenResponse, error) {
	endpoint := fmt.Sprintf("%s/oauth/token", c.oauthBaseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return models.ZoomTokenResponse{}, fmt.Errorf("failed to create request: %w", err)
	}

	basicAuth := base64.StdEncoding.EncodeToString([]byte(clientID + ":" + clientSecret))
	req.Header.Set("Authorization", "Basic "+basicAuth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return models.ZoomTokenResponse{}, fmt.Errorf("failed to exchange token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.ZoomTokenResponse{}, decodeAPIError(resp)
	}

	var token models.ZoomTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return models.ZoomTokenResponse{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return models.ZoomTokenResponse{}, fmt.Errorf("token response contained no access_token")
	}

	return token, nil
}

// ListActiveUsers implements API.ListActiveUsers.
func (c *Client) ListActiveUsers(ctx context.Context, accessToken string) ([]models.ZoomUser, error) {
	endpoint := fmt.Sprintf("%s/users?status=active&page_size=%d", c.apiBaseURL, pageSize)

	var body models.ZoomUsersResponse
	if err := c.getJSON(ctx, endpoint, accessToken, &body); err != nil {
		return nil, &DirectoryError{Err: err}
	}

	return body.Users, nil
}

// GetAccountOwner implements API.GetAccountOwner.
func (c *Client) GetAccountOwner(ctx context.Context, accessToken string) (models.ZoomAccountOwner, error) {
	endpoint := fmt.Sprintf("%s/users/me", c.apiBaseURL)

	var owner models.ZoomAccountOwner
	if err := c.getJSON(ctx, endpoint, accessToken, &owner); err != nil {
		return models.ZoomAccountOwner{}, &DirectoryError{Err: err}
	}

	return owner, nil
}

// ListUpcomingMeetings implements API.ListUpcomingMeetings.
func (c *Client) ListUpcomingMeetings(ctx context.Context, accessToken, userID string) ([]models.ZoomMeeting, error) {
	endpoint := fmt.Sprintf("%s/users/%s/meetings?type=upcoming&page_size=%d",
		c.apiBaseURL, url.PathEscape(userID), pageSize)

	var body models.ZoomMeetingsResponse
	if err := c.getJSON(ctx, endpoint, accessToken, &body); err != nil {
		return nil, &MeetingsError{UserID: userID, Err: err}
	}

	return body.Meetings, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, accessToken string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// decodeAPIError turns a non-success response into an apiError, keeping the
// provider's error/reason fields when the body parses as one.
func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var ze models.ZoomAPIError
	if err := json.Unmarshal(body, &ze); err == nil && ze.Error != "" {
		return &apiError{Status: resp.StatusCode, Code: ze.Error, Reason: ze.Reason}
	}

	return &apiError{Status: resp.StatusCode}
}
