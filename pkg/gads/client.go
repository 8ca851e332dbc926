// Package gads is the Google Ads API adapter. It speaks the REST GAQL
// search surface and normalizes every failure into the fixed error-kind
// taxonomy of pkg/errors, so the orchestration layers never inspect
// transport-level error objects.
package gads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/adsync-io/adsync/pkg/config"
	"github.com/adsync-io/adsync/pkg/errors"
	"github.com/adsync-io/adsync/pkg/logger"
)

const (
	defaultEndpoint = "https://googleads.googleapis.com"
	apiVersion      = "v21"
)

// Client issues GAQL queries against the Google Ads REST API.
type Client struct {
	httpClient      *http.Client
	endpoint        string
	developerToken  string
	loginCustomerID string
	tokenSource     oauth2.TokenSource
	logger          *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithEndpoint overrides the API endpoint. Used by tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenSource overrides the OAuth2 token source. Used by tests to
// avoid the refresh-token exchange.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) { c.tokenSource = ts }
}

// NewClient creates a Client from googleads.yaml credentials. The
// refresh token is exchanged lazily on the first request.
func NewClient(creds config.GoogleAdsCredentials, opts ...Option) *Client {
	oauthCfg := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: "https://oauth2.googleapis.com/token",
		},
		Scopes: []string{"https://www.googleapis.com/auth/adwords"},
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		endpoint:        defaultEndpoint,
		developerToken:  creds.DeveloperToken,
		loginCustomerID: creds.LoginCustomerID,
		tokenSource: oauth2.ReuseTokenSource(nil, oauthCfg.TokenSource(
			context.Background(),
			&oauth2.Token{RefreshToken: creds.RefreshToken},
		)),
		logger: logger.With(zap.String("component", "gads")),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchRequest struct {
	Query     string `json:"query"`
	PageToken string `json:"pageToken,omitempty"`
}

type searchResponse struct {
	Results       []SearchRow `json:"results"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}

// apiError is the REST error envelope. The first GoogleAdsFailure
// detail, when present, carries the query-level error message.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Type   string `json:"@type"`
			Errors []struct {
				Message string `json:"message"`
			} `json:"errors"`
		} `json:"details"`
	} `json:"error"`
}

// Search runs a GAQL query for one customer and returns all result
// rows. The response may span multiple pages; every page is consumed
// before the query is considered complete.
func (c *Client) Search(ctx context.Context, customerID, query string) ([]SearchRow, error) {
	var rows []SearchRow
	pageToken := ""

	for {
		page, err := c.searchPage(ctx, customerID, query, pageToken)
		if err != nil {
			return nil, err
		}

		rows = append(rows, page.Results...)
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	c.logger.Debug("query complete",
		zap.String("customer_id", customerID),
		zap.Int("rows", len(rows)))

	return rows, nil
}

func (c *Client) searchPage(ctx context.Context, customerID, query, pageToken string) (*searchResponse, error) {
	token, err := c.tokenSource.Token()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeAuthentication, "failed to obtain access token")
	}

	body, err := gojson.Marshal(searchRequest{Query: query, PageToken: pageToken})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to marshal search request")
	}

	url := fmt.Sprintf("%s/%s/customers/%s/googleAds:search", c.endpoint, apiVersion, customerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create search request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("developer-token", c.developerToken)
	if c.loginCustomerID != "" {
		req.Header.Set("login-customer-id", c.loginCustomerID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "search request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read search response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyAPIError(resp.StatusCode, data)
	}

	var page searchResponse
	if err := gojson.Unmarshal(data, &page); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode search response")
	}

	return &page, nil
}

// classifyAPIError maps an API failure onto the fixed error-kind
// enumeration. The orchestration layers only ever see these kinds.
func classifyAPIError(status int, body []byte) *errors.Error {
	kind := errors.ErrorTypeUnknown
	switch {
	case status == http.StatusBadRequest:
		kind = errors.ErrorTypeQuery
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = errors.ErrorTypeAuthentication
	case status == http.StatusTooManyRequests:
		kind = errors.ErrorTypeRateLimit
	}

	message := fmt.Sprintf("API returned status %d", status)
	var envelope apiError
	if err := gojson.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = fmt.Sprintf("%s: %s", envelope.Error.Status, envelope.Error.Message)
		for _, detail := range envelope.Error.Details {
			if len(detail.Errors) > 0 && detail.Errors[0].Message != "" {
				message = fmt.Sprintf("%s: %s", message, detail.Errors[0].Message)
				break
			}
		}
	}

	return errors.New(kind, message).WithDetail("http_status", status)
}
