package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newIdentityServer(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, srv.Client()), srv.Close
}

func writeProviderError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": 400, "message": message},
	})
}

func TestSignInSuccess(t *testing.T) {
	var got signInRequest
	client, done := newIdentityServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"kind": "identitytoolkit#VerifyPasswordResponse",
			"localId": "u-1",
			"email": "cashier@example.com",
			"displayName": "",
			"idToken": "id-token",
			"registered": true,
			"refreshToken": "refresh-token",
			"expiresIn": "3600"
		}`))
	})
	defer done()

	res, err := client.SignIn(context.Background(), "cashier@example.com", "pw")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if !got.ReturnSecureToken || got.Email != "cashier@example.com" || got.Password != "pw" {
		t.Fatalf("unexpected request body %+v", got)
	}
	if res.LocalID != "u-1" || res.IDToken != "id-token" || res.RefreshToken != "refresh-token" || !res.Registered {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.ExpiresIn != time.Hour {
		t.Fatalf("expected 1h expiry, got %v", res.ExpiresIn)
	}
}

func TestSignInAcceptsNumericExpiresIn(t *testing.T) {
	client, done := newIdentityServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"localId":"u-1","idToken":"a","refreshToken":"b","expiresIn":120}`))
	})
	defer done()

	res, err := client.SignIn(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if res.ExpiresIn != 2*time.Minute {
		t.Fatalf("expected 2m, got %v", res.ExpiresIn)
	}
}

func TestSignInMapsProviderCodes(t *testing.T) {
	tests := []struct {
		message string
		want    error
	}{
		{message: "EMAIL_NOT_FOUND", want: ErrEmailNotFound},
		{message: "INVALID_PASSWORD", want: ErrInvalidPassword},
		{message: "USER_DISABLED", want: ErrUserDisabled},
		{message: "INVALID_LOGIN_CREDENTIALS", want: ErrInvalidCredentials},
		{message: "TOO_MANY_ATTEMPTS_TRY_LATER : Access disabled", want: ErrUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.message, func(t *testing.T) {
			client, done := newIdentityServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeProviderError(w, tc.message)
			})
			defer done()

			_, err := client.SignIn(context.Background(), "a@b.c", "pw")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestUnknownCodeCarriesRawMessage(t *testing.T) {
	err := MapProviderCode(400, "OPERATION_NOT_ALLOWED")
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProviderError, got %T", err)
	}
	if pe.Message != "OPERATION_NOT_ALLOWED" || pe.Error() != "OPERATION_NOT_ALLOWED" {
		t.Fatalf("expected raw message preserved, got %q", pe.Message)
	}
	if errors.Is(err, ErrInvalidPassword) {
		t.Fatal("unknown code must not match a known variant")
	}
}

func TestMapProviderCodeStripsDetail(t *testing.T) {
	if err := MapProviderCode(400, "USER_DISABLED : The user account has been disabled"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}
}

func TestSignInTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil).SignIn(context.Background(), "a@b.c", "pw")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSignInServerErrorIsUnavailable(t *testing.T) {
	client, done := newIdentityServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	defer done()

	if _, err := client.SignIn(context.Background(), "a@b.c", "pw"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSignInUnstructuredClientError(t *testing.T) {
	client, done := newIdentityServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusForbidden)
	})
	defer done()

	_, err := client.SignIn(context.Background(), "a@b.c", "pw")
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Status != http.StatusForbidden {
		t.Fatalf("expected 403 ProviderError, got %v", err)
	}
}

func TestSignInMalformedSuccess(t *testing.T) {
	client, done := newIdentityServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"localId":"u-1","expiresIn":"3600"}`))
	})
	defer done()

	if _, err := client.SignIn(context.Background(), "a@b.c", "pw"); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}
