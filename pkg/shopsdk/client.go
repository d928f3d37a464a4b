package shopsdk

import (
	"net/http"
	"strings"
	"time"
)

// Client is a client for the shopfront API. It provides the public
// operations and creates authenticated Sessions.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new shopfront API client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewSession creates a session from a previously issued token.
func (c *Client) NewSession(token string) *Session {
	return &Session{client: c, token: token}
}
