package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// ErrStreamClosed is returned by Next after Close.
var ErrStreamClosed = errors.New("push stream closed")

// WSDialer opens push streams to the backend websocket endpoint.
type WSDialer struct {
	url    string
	dialer *websocket.Dialer
	log    *zap.Logger
}

// NewWSDialer creates a dialer for the given websocket URL
// (e.g. "ws://127.0.0.1:5000/ws").
func NewWSDialer(url string, log *zap.Logger) *WSDialer {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSDialer{
		url:    url,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:    log,
	}
}

// Dial connects with the given bearer credential. It blocks until the
// handshake completes or ctx is done.
func (d *WSDialer) Dial(ctx context.Context, token string) (*WSStream, error) {
	hdr := http.Header{}
	if token != "" {
		hdr.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := d.dialer.DialContext(ctx, d.url, hdr)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("dial %s: %w", d.url, ErrUnauthorized)
		}
		return nil, &NetworkError{Op: "dial " + d.url, Err: err}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &WSStream{conn: conn, cancel: cancel, log: d.log}
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})
	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	go s.pingLoop(ctx)
	d.log.Info("push stream connected", zap.String("url", d.url))
	return s, nil
}

// WSStream is one live websocket connection delivering push events.
type WSStream struct {
	conn   *websocket.Conn
	cancel context.CancelFunc
	log    *zap.Logger

	writeMu sync.Mutex // serialises ping and close frames
	mu      sync.Mutex
	closed  bool
}

// Next blocks until the next recognised push event arrives. Frames of
// unknown kinds and undecodable payloads are skipped.
func (s *WSStream) Next() (PushEvent, error) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.isClosed() {
				return PushEvent{}, ErrStreamClosed
			}
			return PushEvent{}, err
		}
		ev, ok := decodePush(data)
		if !ok {
			s.log.Debug("ignoring push frame", zap.ByteString("frame", data))
			continue
		}
		return ev, nil
	}
}

// Close sends a close frame and releases the connection. It is safe to
// call more than once.
func (s *WSStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.writeMu.Lock()
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
	s.writeMu.Unlock()
	return s.conn.Close()
}

func (s *WSStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *WSStream) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.writeMu.Lock()
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := s.conn.WriteMessage(websocket.PingMessage, nil)
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func decodePush(data []byte) (PushEvent, bool) {
	var env PushEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return PushEvent{}, false
	}
	switch env.Type {
	case PushUpcomingEvent:
		var p UpcomingEventPayload
		if json.Unmarshal(env.Payload, &p) == nil {
			return PushEvent{Kind: env.Type, Upcoming: &p}, true
		}
	case PushNewEventAdded:
		var p NewEventAddedPayload
		if json.Unmarshal(env.Payload, &p) == nil {
			return PushEvent{Kind: env.Type, NewEvent: &p}, true
		}
	}
	return PushEvent{}, false
}
