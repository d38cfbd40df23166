package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const maxResponseBytes = 1 << 20

// SignInResult is the decoded success response.
type SignInResult struct {
	LocalID      string
	Email        string
	DisplayName  string
	IDToken      string
	RefreshToken string
	ExpiresIn    time.Duration
	Registered   bool
}

// Client calls the password sign-in endpoint. It never retries.
type Client struct {
	httpClient *http.Client
	authURL    string
}

// NewClient returns a [Client] posting to authURL. A nil httpClient uses
// [http.DefaultClient] and its default timeouts.
func NewClient(authURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		authURL:    authURL,
	}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID      string  `json:"localId"`
	Email        string  `json:"email"`
	DisplayName  string  `json:"displayName"`
	IDToken      string  `json:"idToken"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresIn    seconds `json:"expiresIn"`
	Registered   bool    `json:"registered"`
}

type errorResponse struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// seconds accepts both "3600" and 3600.
type seconds int64

func (s *seconds) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str == "" {
			*s = 0
			return nil
		}
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return err
		}
		*s = seconds(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = seconds(n)
	return nil
}

// SignIn exchanges an email and password for tokens.
//
// Provider rejections are returned as the sentinel errors of this package or a
// [*ProviderError]; transport failures wrap [ErrUnavailable].
func (c *Client) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	body, err := json.Marshal(signInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp.StatusCode, data)
	}

	var out signInResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.LocalID == "" || out.IDToken == "" || out.RefreshToken == "" {
		return nil, ErrMalformedResponse
	}

	return &SignInResult{
		LocalID:      out.LocalID,
		Email:        out.Email,
		DisplayName:  out.DisplayName,
		IDToken:      out.IDToken,
		RefreshToken: out.RefreshToken,
		ExpiresIn:    time.Duration(out.ExpiresIn) * time.Second,
		Registered:   out.Registered,
	}, nil
}

func parseError(status int, data []byte) error {
	var parsed errorResponse
	if json.Unmarshal(data, &parsed) == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return MapProviderCode(status, parsed.Error.Message)
	}
	msg := http.StatusText(status)
	if len(data) > 0 {
		msg = string(data)
	}
	if status >= 500 {
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, status, msg)
	}
	return &ProviderError{Status: status, Message: msg}
}
