// Package api is a client for the shop REST API.
//
// Execute encodes a request and returns the received response as is.
// Normalize turns that response into a value or a Failure. FetchAll walks
// every page of a collection. TokenManager exchanges credentials for tokens
// and writes them into a Session.
package api

import (
	"github.com/beyond-api/beyond-cli/internal/config"
)

// DefaultUserAgent is sent when Client.UserAgent is empty.
const DefaultUserAgent = "beyond-cli"

// Client binds a configuration to a transport. It holds no session state,
// so one Client can serve many sessions.
type Client struct {
	Config    config.Config
	Transport Transport
	UserAgent string
}

// New creates a client. A nil transport is replaced by an HTTPTransport built
// from cfg.
func New(cfg config.Config, transport Transport) *Client {
	if transport == nil {
		transport = NewHTTPTransport(cfg)
	}
	return &Client{
		Config:    cfg,
		Transport: transport,
		UserAgent: DefaultUserAgent,
	}
}

// NormalizeOptions returns the response options configured for this client.
func (c *Client) NormalizeOptions() NormalizeOptions {
	return OptionsFromConfig(c.Config)
}

func (c *Client) userAgent() string {
	if c.UserAgent == "" {
		return DefaultUserAgent
	}
	return c.UserAgent
}
