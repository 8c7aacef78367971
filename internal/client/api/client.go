// Package api is the client side of the record store and the auth
// provider. It keeps the signed-in tokens, refreshes them when the access
// token expires and tells listeners whenever the signed-in user changes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"namaz-tracker/internal/models"
	"namaz-tracker/internal/prayers"
)

var (
	ErrNotSignedIn     = errors.New("not signed in")
	ErrSessionMismatch = errors.New("the session belongs to another user")
)

// Error is a failure reported by the server. Message is the server's text.
type Error struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string { return e.Message }

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.Mutex
	tokens    *models.AuthTokens
	changed   chan struct{}
	listeners []func(*models.SessionUser)

	refreshMu sync.Mutex
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		changed:    make(chan struct{}),
	}
}

// OnAuthStateChanged registers fn to be called with the new user after
// every sign-in, and with nil after every sign-out or session expiry.
func (c *Client) OnAuthStateChanged(fn func(*models.SessionUser)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// CurrentUser returns the signed-in user, or nil.
func (c *Client) CurrentUser() *models.SessionUser {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens == nil {
		return nil
	}
	u := c.tokens.User
	return &u
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*models.SessionUser, error) {
	return c.authenticate(ctx, "/auth/login", email, password)
}

func (c *Client) Register(ctx context.Context, email, password string) (*models.SessionUser, error) {
	return c.authenticate(ctx, "/auth/register", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*models.SessionUser, error) {
	var tokens models.AuthTokens
	body := models.LoginRequest{Email: email, Password: password}
	if err := c.send(ctx, http.MethodPost, path, "", body, &tokens); err != nil {
		return nil, err
	}
	c.setSession(&tokens, true)
	u := tokens.User
	return &u, nil
}

// SignOut ends the server session. The local session is only cleared once
// the server accepted the request or the session turned out to be expired.
func (c *Client) SignOut(ctx context.Context) error {
	logout := func() (string, error) {
		c.mu.Lock()
		tokens := c.tokens
		c.mu.Unlock()
		if tokens == nil {
			return "", ErrNotSignedIn
		}
		body := models.RefreshRequest{RefreshToken: tokens.RefreshToken}
		return tokens.AccessToken, c.send(ctx, http.MethodPost, "/auth/logout", tokens.AccessToken, body, nil)
	}

	access, err := logout()
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		if err := c.refresh(ctx, access); err != nil {
			if c.CurrentUser() == nil {
				return nil
			}
			return err
		}
		_, err = logout()
	}
	if err != nil {
		return err
	}
	c.setSession(nil, true)
	return nil
}

// GetRecord returns the stored record for dateID, or nil when the day was
// never written.
func (c *Client) GetRecord(ctx context.Context, userID uuid.UUID, dateID string) (*prayers.Record, error) {
	if err := c.checkUser(userID); err != nil {
		return nil, err
	}

	var resp models.RecordResponse
	if err := c.do(ctx, http.MethodGet, "/prayers/"+url.PathEscape(dateID), nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Exists {
		return nil, nil
	}

	rec := &prayers.Record{DateID: resp.Date, Status: resp.Prayers}
	if resp.LastModified != nil {
		rec.LastModified = *resp.LastModified
	}
	return rec, nil
}

// SetPrayerField merges {name: value} into the day's record.
func (c *Client) SetPrayerField(ctx context.Context, userID uuid.UUID, dateID, name string, value bool) error {
	if err := c.checkUser(userID); err != nil {
		return err
	}
	path := "/prayers/" + url.PathEscape(dateID) + "/" + url.PathEscape(name)
	return c.do(ctx, http.MethodPut, path, models.SetPrayerRequest{Value: &value}, nil)
}

// ListRecords returns at most limit records, most recently modified first.
func (c *Client) ListRecords(ctx context.Context, userID uuid.UUID, limit int) ([]prayers.Record, error) {
	if err := c.checkUser(userID); err != nil {
		return nil, err
	}
	var resp models.RecordsResponse
	if err := c.do(ctx, http.MethodGet, "/prayers/records?limit="+strconv.Itoa(limit), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// ListRange returns every record whose key lies in [from, to].
func (c *Client) ListRange(ctx context.Context, userID uuid.UUID, from, to string) ([]prayers.Record, error) {
	if err := c.checkUser(userID); err != nil {
		return nil, err
	}
	q := url.Values{"from": {from}, "to": {to}}
	var resp models.RecordsResponse
	if err := c.do(ctx, http.MethodGet, "/prayers/records?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// Items returns the server's tracked prayer names.
func (c *Client) Items(ctx context.Context) ([]string, error) {
	var resp models.ItemsResponse
	if err := c.send(ctx, http.MethodGet, "/prayers/items", "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Prayers, nil
}

func (c *Client) checkUser(userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens == nil {
		return ErrNotSignedIn
	}
	if c.tokens.User.ID != userID {
		return ErrSessionMismatch
	}
	return nil
}

// do sends an authenticated request, refreshing the access token once if
// the server reports it expired.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	access, err := c.accessToken()
	if err != nil {
		return err
	}

	err = c.send(ctx, method, path, access, body, out)
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		return err
	}

	if err := c.refresh(ctx, access); err != nil {
		return err
	}
	access, err = c.accessToken()
	if err != nil {
		return err
	}
	return c.send(ctx, method, path, access, body, out)
}

func (c *Client) accessToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens == nil {
		return "", ErrNotSignedIn
	}
	return c.tokens.AccessToken, nil
}

// refresh rotates the refresh token. stale is the access token that was
// rejected; if another caller already replaced it there is nothing to do.
// A failed refresh ends the session.
func (c *Client) refresh(ctx context.Context, stale string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.mu.Lock()
	tokens := c.tokens
	c.mu.Unlock()
	if tokens == nil {
		return ErrNotSignedIn
	}
	if tokens.AccessToken != stale {
		return nil
	}

	var fresh models.AuthTokens
	err := c.send(ctx, http.MethodPost, "/auth/refresh", "", models.RefreshRequest{RefreshToken: tokens.RefreshToken}, &fresh)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			c.setSession(nil, true)
		}
		return err
	}
	c.setSession(&fresh, false)
	return nil
}

// setSession replaces the tokens. Listeners are told when notify is set;
// a token rotation for the same user is not an auth change.
func (c *Client) setSession(tokens *models.AuthTokens, notify bool) {
	c.mu.Lock()
	if tokens == nil && c.tokens == nil {
		c.mu.Unlock()
		return
	}
	c.tokens = tokens
	close(c.changed)
	c.changed = make(chan struct{})
	listeners := append(([]func(*models.SessionUser))(nil), c.listeners...)
	c.mu.Unlock()

	if !notify {
		return
	}
	var user *models.SessionUser
	if tokens != nil {
		u := tokens.User
		user = &u
	}
	for _, fn := range listeners {
		fn(user)
	}
}

func (c *Client) send(ctx context.Context, method, path, access string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v1"+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var envelope models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error.Message == "" {
		return &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return &Error{
		Status:  resp.StatusCode,
		Code:    envelope.Error.Code,
		Message: envelope.Error.Message,
		Fields:  envelope.Error.Fields,
	}
}
