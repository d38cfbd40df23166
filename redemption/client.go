package redemption

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	maxResponseBytes    = 1 << 20
	correlationIDHeader = "X-Correlation-ID"
)

// HeaderSource returns the Authorization header value for a request, if any.
type HeaderSource func(ctx context.Context) (string, bool)

// Client is a stateless request/response wrapper around the redeem endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authHeader HeaderSource
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces [http.DefaultClient].
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithAuthorization attaches an Authorization header when src yields one.
func WithAuthorization(src HeaderSource) Option {
	return func(c *Client) {
		c.authHeader = src
	}
}

// NewClient returns a [Client] for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) endpoint(giftCardID string) string {
	return c.baseURL + "/GiftCards/" + url.PathEscape(giftCardID) + "/redeem-by-passkit-member"
}

// Redeem issues one POST for req and maps the result into an [Outcome].
//
// Failure messages prefer the server-provided error body, then the transport
// error, then "unknown error".
func (c *Client) Redeem(ctx context.Context, req Request) Outcome {
	if err := req.Validate(); err != nil {
		return Failure(KindRequest, 0, err.Error())
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Failure(KindNetwork, 0, err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(req.GiftCardID), bytes.NewReader(body))
	if err != nil {
		return Failure(KindNetwork, 0, err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "*/*")
	httpReq.Header.Set(correlationIDHeader, req.AttemptID.String())
	if c.authHeader != nil {
		if v, ok := c.authHeader(ctx); ok {
			httpReq.Header.Set("Authorization", v)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Failure(KindNetwork, 0, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := serverMessage(data)
		if msg == "" {
			msg = fmt.Sprintf("request failed with status code %d", resp.StatusCode)
		}
		return Failure(KindServer, resp.StatusCode, msg)
	}
	if readErr != nil {
		return Failure(KindNetwork, resp.StatusCode, readErr.Error())
	}

	return Success(data)
}

// serverMessage extracts a human-readable message from an error body. JSON
// objects are searched for the usual message fields; anything else is used as text.
func serverMessage(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ""
	}

	var str string
	if json.Unmarshal(trimmed, &str) == nil {
		return strings.TrimSpace(str)
	}

	var obj map[string]json.RawMessage
	if json.Unmarshal(trimmed, &obj) == nil {
		for _, field := range []string{"message", "error", "detail", "title", "code"} {
			raw, ok := obj[field]
			if !ok {
				continue
			}
			if json.Unmarshal(raw, &str) == nil && strings.TrimSpace(str) != "" {
				return strings.TrimSpace(str)
			}
			if nested := serverMessage(raw); nested != "" && raw[0] == '{' {
				return nested
			}
		}
		return string(trimmed)
	}

	return string(trimmed)
}
