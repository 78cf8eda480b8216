package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the slice of a websocket connection the AI run needs.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteJSON(v any) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// AIChannel dials the AI suggestion websocket.
type AIChannel struct {
	URL    string
	Tokens TokenSource
	dialer *websocket.Dialer
}

func NewAIChannel(url string, tokens TokenSource) *AIChannel {
	return &AIChannel{
		URL:    url,
		Tokens: tokens,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

func (a *AIChannel) Dial(ctx context.Context) (Conn, error) {
	header := http.Header{}
	if a.Tokens != nil {
		if token := a.Tokens.Token(); token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	conn, resp, err := a.dialer.DialContext(ctx, a.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect to AI channel (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to connect to AI channel: %w", err)
	}
	return conn, nil
}
