package stt

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/spec-kit/care-session/pkg/util"
)

// Handshake carries the parameters the backend authorizes a stream with.
type Handshake struct {
	URL      string
	Token    string
	UserID   string
	ClientID int
	Timeout  time.Duration
}

// Transport is a persistent bidirectional message connection.
type Transport interface {
	// Read blocks for the next inbound envelope.
	Read() (Envelope, error)
	// Write sends an envelope. Safe for use alongside Read.
	Write(env Envelope) error
	Close() error
}

// Dialer opens transports. The production implementation speaks websocket;
// tests substitute a scripted fake.
type Dialer interface {
	Dial(ctx context.Context, hs Handshake) (Transport, error)
}

// WebsocketDialer dials the transcription backend over websocket, carrying
// the bearer token in the handshake request.
type WebsocketDialer struct{}

// Dial opens the connection. A 401/403 handshake response is an
// authorization rejection, distinct from a plain transport failure.
func (WebsocketDialer) Dial(ctx context.Context, hs Handshake) (Transport, error) {
	u, err := url.Parse(hs.URL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("userId", hs.UserID)
	q.Set("clientId", strconv.Itoa(hs.ClientID))
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+hs.Token)

	dialer := websocket.Dialer{HandshakeTimeout: hs.Timeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, util.NewAuthorizationRejected("")
		}
		return nil, err
	}
	return &wsTransport{conn: conn}, nil
}

type wsTransport struct {
	conn *websocket.Conn

	// gorilla allows one concurrent writer; Write is called from both the
	// dispatcher and teardown.
	writeMu sync.Mutex
}

func (t *wsTransport) Read() (Envelope, error) {
	var env Envelope
	if err := t.conn.ReadJSON(&env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

func (t *wsTransport) Write(env Envelope) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteJSON(env)
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}
