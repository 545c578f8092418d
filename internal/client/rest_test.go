package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fleetbot/internal/domain"
)

func newGateway(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *REST) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	factory := NewRESTFactory(srv.URL, 2*time.Second)
	return srv, factory("alpha").(*REST)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": code, "message": message})
}

func TestLoginAndSnapshotRoundtrip(t *testing.T) {
	_, c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/login":
			var req map[string]string
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req["username"] != "alpha" || req["password"] != "pw" {
				writeAPIError(w, http.StatusUnauthorized, "invalid_credentials", "bad login")
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
		case "/v1/account/self":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				writeAPIError(w, http.StatusUnauthorized, "", "no session")
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()
	if err := c.Login(ctx, "alpha", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	snap, err := c.SessionSnapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	restored := &REST{baseURL: c.baseURL, httpClient: c.httpClient}
	if err := restored.RestoreSession(ctx, snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := restored.VerifySession(ctx); err != nil {
		t.Fatalf("verify restored session: %v", err)
	}
}

func TestLoginInvalidCredential(t *testing.T) {
	_, c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusUnauthorized, "invalid_credentials", "bad login")
	})
	err := c.Login(context.Background(), "alpha", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		code     string
		sentinel error
	}{
		{"challenge", http.StatusUnauthorized, "challenge_required", domain.ErrVerificationRequired},
		{"restricted", http.StatusForbidden, "account_restricted", domain.ErrAccountRestricted},
		{"feedback", http.StatusForbidden, "feedback_required", domain.ErrAccountRestricted},
		{"rate limit status", http.StatusTooManyRequests, "", domain.ErrRateLimited},
		{"rate limit code", http.StatusForbidden, "rate_limited", domain.ErrRateLimited},
		{"missing target", http.StatusNotFound, "", domain.ErrTargetNotFound},
		{"already following", http.StatusConflict, "already_following", domain.ErrAlreadyInState},
		{"not liked", http.StatusConflict, "not_liked", domain.ErrAlreadyInState},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
				writeAPIError(w, tc.status, tc.code, tc.name)
			})
			c.token = "tok"
			err := c.Follow(context.Background(), "42")
			if !errors.Is(err, tc.sentinel) {
				t.Fatalf("expected %v, got %v", tc.sentinel, err)
			}
		})
	}
}

func TestUnclassifiedErrorIsNotBenign(t *testing.T) {
	_, c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusInternalServerError, "", "boom")
	})
	c.token = "tok"
	err := c.Like(context.Background(), "42")
	if err == nil {
		t.Fatalf("expected error")
	}
	if domain.IsBenign(err) || domain.IsEscalation(err) {
		t.Fatalf("500 must stay unclassified, got %v", err)
	}
}

func TestResolveEndpoints(t *testing.T) {
	_, c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/users/by_username/target":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "7"})
		case "/v1/media/resolve":
			var req map[string]string
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req["url"] == "" {
				writeAPIError(w, http.StatusBadRequest, "", "url required")
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "42"})
		case "/v1/media/42":
			w.WriteHeader(http.StatusOK)
		case "/v1/account/following":
			_ = json.NewEncoder(w).Encode(map[string][]string{"user_ids": {"7", "9"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c.token = "tok"
	ctx := context.Background()

	userID, err := c.UserIDFromUsername(ctx, "target")
	if err != nil || userID != "7" {
		t.Fatalf("user resolve = (%q, %v)", userID, err)
	}
	mediaID, err := c.MediaIDFromURL(ctx, "https://service/p/42")
	if err != nil || mediaID != "42" {
		t.Fatalf("media resolve = (%q, %v)", mediaID, err)
	}
	if err := c.MediaExists(ctx, "42"); err != nil {
		t.Fatalf("media exists: %v", err)
	}
	following, err := c.Following(ctx)
	if err != nil || len(following) != 2 {
		t.Fatalf("following = (%v, %v)", following, err)
	}
}

func TestAuthedCallWithoutSession(t *testing.T) {
	_, c := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request should reach the gateway")
	})
	err := c.Follow(context.Background(), "42")
	if !errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}
