package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"

	"namaz-tracker/internal/models"
)

var errSessionEnded = errors.New("session ended")

const (
	reconnectBase = 500 * time.Millisecond
	reconnectCap  = 30 * time.Second
)

// Subscribe follows the server's live feed for whoever is signed in,
// reconnecting with backoff, until ctx is done. A signed_out event for this
// client's own session ends the session locally. Every other event is
// passed to onEvent.
func (c *Client) Subscribe(ctx context.Context, onEvent func(models.SessionEvent)) error {
	for {
		if err := c.waitSignedIn(ctx); err != nil {
			return err
		}

		backoff := retry.WithCappedDuration(reconnectCap, retry.NewExponential(reconnectBase))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			err := c.listen(ctx, onEvent)
			if err == nil || errors.Is(err, errSessionEnded) || ctx.Err() != nil {
				return nil
			}
			log.Warn().Err(err).Msg("live feed disconnected")
			return retry.RetryableError(err)
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return err
		}
	}
}

func (c *Client) waitSignedIn(ctx context.Context) error {
	for {
		c.mu.Lock()
		signedIn := c.tokens != nil
		changed := c.changed
		c.mu.Unlock()
		if signedIn {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) wsURL(access string) (string, error) {
	u, err := url.Parse(c.baseURL + "/api/v1/ws")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.RawQuery = url.Values{"token": {access}}.Encode()
	return u.String(), nil
}

// listen holds one connection until it drops, the session changes or ctx
// is done.
func (c *Client) listen(ctx context.Context, onEvent func(models.SessionEvent)) error {
	c.mu.Lock()
	tokens := c.tokens
	changed := c.changed
	c.mu.Unlock()
	if tokens == nil {
		return errSessionEnded
	}

	target, err := c.wsURL(tokens.AccessToken)
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			if rerr := c.refresh(ctx, tokens.AccessToken); rerr != nil && c.CurrentUser() == nil {
				return errSessionEnded
			}
		}
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-changed:
		case <-done:
			return
		}
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-changed:
				return errSessionEnded
			default:
			}
			return err
		}

		var ev models.SessionEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Warn().Err(err).Msg("malformed live event")
			continue
		}

		if c.endsOwnSession(ev) {
			c.setSession(nil, true)
			return errSessionEnded
		}
		onEvent(ev)
	}
}

// endsOwnSession reports whether ev signs out the session this client holds.
// Events without a session id concern every session of the user.
func (c *Client) endsOwnSession(ev models.SessionEvent) bool {
	if ev.Type != models.EventSession || ev.State != models.StateSignedOut {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens == nil {
		return false
	}
	return ev.Session == "" || strings.EqualFold(ev.Session, models.SessionID(c.tokens.RefreshToken))
}
