package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newFakeGoogle(t *testing.T, userInfoStatus int, userInfoBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if r.PostFormValue("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			http.Error(w, "no token", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(userInfoStatus)
		w.Write([]byte(userInfoBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(srv *httptest.Server) *GoogleProvider {
	return NewGoogleProvider(GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/api/auth/google/callback",
		AuthURL:      srv.URL + "/auth",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
	})
}

func TestGoogleProviderLoginURL(t *testing.T) {
	p := NewGoogleProvider(GoogleConfig{
		ClientID:    "client-id",
		RedirectURL: "http://localhost:8080/api/auth/google/callback",
	})

	loginURL := p.LoginURL("state-1")
	for _, want := range []string{"client_id=client-id", "state=state-1", "scope=openid+email+profile"} {
		if !strings.Contains(loginURL, want) {
			t.Fatalf("expected %q in login url %q", want, loginURL)
		}
	}
}

func TestGoogleProviderExchange_Success(t *testing.T) {
	srv := newFakeGoogle(t, http.StatusOK, `{"sub":"sub-1","email":"alice@example.com","name":"Alice","picture":"https://lh3.example.com/p.jpg"}`)
	p := newTestProvider(srv)

	profile, err := p.Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if profile.Subject != "sub-1" || profile.Email != "alice@example.com" || profile.DisplayName != "Alice" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestGoogleProviderExchange_BadCode(t *testing.T) {
	srv := newFakeGoogle(t, http.StatusOK, `{}`)
	p := newTestProvider(srv)

	if _, err := p.Exchange(context.Background(), "bad-code"); err == nil {
		t.Fatalf("expected error for rejected code")
	}
}

func TestGoogleProviderExchange_IncompleteProfile(t *testing.T) {
	srv := newFakeGoogle(t, http.StatusOK, `{"email":"alice@example.com"}`)
	p := newTestProvider(srv)

	if _, err := p.Exchange(context.Background(), "good-code"); !errors.Is(err, ErrProfileIncomplete) {
		t.Fatalf("expected ErrProfileIncomplete, got %v", err)
	}
}

func TestGoogleProviderExchange_UserInfoFailure(t *testing.T) {
	srv := newFakeGoogle(t, http.StatusInternalServerError, `boom`)
	p := newTestProvider(srv)

	if _, err := p.Exchange(context.Background(), "good-code"); err == nil {
		t.Fatalf("expected error for userinfo failure")
	}
}
