package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fleetbot/internal/domain"
)

// REST talks to a session gateway that fronts the remote service. Each
// handle owns one session token; the gateway maps its error codes onto the
// orchestrator's taxonomy here and nowhere else.
type REST struct {
	baseURL    string
	httpClient *http.Client

	username string
	token    string
}

var _ Client = (*REST)(nil)

// NewRESTFactory returns a Factory producing gateway-backed handles.
func NewRESTFactory(baseURL string, timeout time.Duration) Factory {
	trimmed := strings.TrimRight(baseURL, "/")
	return func(string) Client {
		return &REST{
			baseURL:    trimmed,
			httpClient: &http.Client{Timeout: timeout},
		}
	}
}

type restSnapshot struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

func (c *REST) Login(ctx context.Context, username, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &out, false)
	if err != nil {
		return err
	}
	if out.Token == "" {
		return fmt.Errorf("login response missing token")
	}
	c.username = username
	c.token = out.Token
	return nil
}

func (c *REST) RestoreSession(_ context.Context, snapshot []byte) error {
	var snap restSnapshot
	if err := json.Unmarshal(snapshot, &snap); err != nil {
		return fmt.Errorf("parse session snapshot: %w", err)
	}
	if snap.Token == "" {
		return fmt.Errorf("session snapshot missing token")
	}
	c.username = snap.Username
	c.token = snap.Token
	return nil
}

func (c *REST) SessionSnapshot() ([]byte, error) {
	if c.token == "" {
		return nil, fmt.Errorf("no session to export")
	}
	return json.Marshal(restSnapshot{Username: c.username, Token: c.token})
}

func (c *REST) VerifySession(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v1/account/self", nil, nil, true)
}

func (c *REST) UserIDFromUsername(ctx context.Context, username string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	path := "/v1/users/by_username/" + url.PathEscape(username)
	if err := c.do(ctx, http.MethodGet, path, nil, &out, true); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("resolve %q: %w", username, domain.ErrTargetNotFound)
	}
	return out.ID, nil
}

func (c *REST) MediaIDFromURL(ctx context.Context, mediaURL string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/media/resolve", map[string]string{"url": mediaURL}, &out, true)
	if err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("resolve %q: %w", mediaURL, domain.ErrTargetNotFound)
	}
	return out.ID, nil
}

func (c *REST) MediaExists(ctx context.Context, mediaID string) error {
	return c.do(ctx, http.MethodGet, "/v1/media/"+url.PathEscape(mediaID), nil, nil, true)
}

func (c *REST) Follow(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, "/v1/users/"+url.PathEscape(userID)+"/follow", nil, nil, true)
}

func (c *REST) Unfollow(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, "/v1/users/"+url.PathEscape(userID)+"/unfollow", nil, nil, true)
}

func (c *REST) Like(ctx context.Context, mediaID string) error {
	return c.do(ctx, http.MethodPost, "/v1/media/"+url.PathEscape(mediaID)+"/like", nil, nil, true)
}

func (c *REST) Unlike(ctx context.Context, mediaID string) error {
	return c.do(ctx, http.MethodPost, "/v1/media/"+url.PathEscape(mediaID)+"/unlike", nil, nil, true)
}

func (c *REST) Comment(ctx context.Context, mediaID, text string) error {
	return c.do(ctx, http.MethodPost, "/v1/media/"+url.PathEscape(mediaID)+"/comments", map[string]string{"text": text}, nil, true)
}

func (c *REST) Save(ctx context.Context, mediaID string) error {
	return c.do(ctx, http.MethodPost, "/v1/media/"+url.PathEscape(mediaID)+"/save", nil, nil, true)
}

func (c *REST) Unsave(ctx context.Context, mediaID string) error {
	return c.do(ctx, http.MethodPost, "/v1/media/"+url.PathEscape(mediaID)+"/unsave", nil, nil, true)
}

func (c *REST) Following(ctx context.Context) ([]string, error) {
	var out struct {
		UserIDs []string `json:"user_ids"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/account/following", nil, &out, true); err != nil {
		return nil, err
	}
	return out.UserIDs, nil
}

func (c *REST) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/v1/auth/logout", nil, nil, true)
	c.token = ""
	return err
}

func (c *REST) do(ctx context.Context, method, path string, body, out interface{}, authed bool) error {
	if c.baseURL == "" {
		return fmt.Errorf("gateway base url not configured")
	}
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		if c.token == "" {
			return fmt.Errorf("session not authenticated: %w", domain.ErrInvalidCredential)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode gateway response: %w", err)
		}
	}
	return nil
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Codes the gateway uses for "the account is already in the state this
// action produces".
var benignCodes = map[string]bool{
	"already_following": true,
	"not_following":     true,
	"already_liked":     true,
	"not_liked":         true,
	"already_saved":     true,
	"not_saved":         true,
}

func classify(resp *http.Response) error {
	var apiErr apiError
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	var kind error
	switch {
	case benignCodes[apiErr.Code]:
		kind = domain.ErrAlreadyInState
	case apiErr.Code == "challenge_required":
		kind = domain.ErrVerificationRequired
	case apiErr.Code == "account_restricted" || apiErr.Code == "feedback_required":
		kind = domain.ErrAccountRestricted
	case resp.StatusCode == http.StatusTooManyRequests || apiErr.Code == "rate_limited":
		kind = domain.ErrRateLimited
	case resp.StatusCode == http.StatusNotFound:
		kind = domain.ErrTargetNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		kind = domain.ErrInvalidCredential
	default:
		return fmt.Errorf("gateway error %d: %s", resp.StatusCode, apiErr.Message)
	}
	return fmt.Errorf("%w: %s", kind, apiErr.Message)
}
