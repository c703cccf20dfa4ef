package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	ws "github.com/isdelr/jobboard-be/internal/websocket"
)

// WatchApplied subscribes to the server's push channel and calls fn with
// the job key of every application recorded for the session's user,
// including ones made from other devices. It blocks until ctx is done
// (returning nil) or the connection fails.
func (c *Client) WatchApplied(ctx context.Context, fn func(jobKey string)) error {
	token := c.session.Token()
	if token == "" {
		return ErrNotAuthenticated
	}

	wsURL := c.baseURL + "/ws"
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			return &APIError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		stop()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read push message: %w", err)
		}

		var msg ws.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Err(err).Msg("Ignoring malformed push message")
			continue
		}
		if msg.Action != ws.ActionJobApplied {
			continue
		}
		var payload ws.JobAppliedPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.JobKey == "" {
			log.Warn().Bytes("message", data).Msg("Ignoring malformed job applied message")
			continue
		}
		fn(payload.JobKey)
	}
}
