// Package realtime binds the push channel to the authentication state.
// The channel is open exactly while the user is authenticated; it never
// reconnects on its own after a drop.
package realtime

import (
	"context"
	"fmt"

	"github.com/Breadstickhemmo/42Brat/internal/client"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// State is the connection state of the channel.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Stream is one live push connection.
type Stream interface {
	Next() (client.PushEvent, error)
	Close() error
}

// Dialer opens push connections.
type Dialer interface {
	Dial(ctx context.Context, token string) (Stream, error)
}

// DialFunc adapts a function to Dialer.
type DialFunc func(ctx context.Context, token string) (Stream, error)

// Dial implements Dialer.
func (f DialFunc) Dial(ctx context.Context, token string) (Stream, error) { return f(ctx, token) }

// FromWS adapts the websocket dialer.
func FromWS(d *client.WSDialer) Dialer {
	return DialFunc(func(ctx context.Context, token string) (Stream, error) {
		s, err := d.Dial(ctx, token)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Permission reports whether the user has decided about notifications.
type Permission interface {
	Decided() bool
}

// Handler consumes one push event.
type Handler func(ev client.PushEvent) tea.Cmd

// ConnectedMsg reports a completed dial.
type ConnectedMsg struct {
	Gen    uint64
	Stream Stream
}

// DroppedMsg reports a failed dial or a lost connection.
type DroppedMsg struct {
	Gen uint64
	Err error
}

// PushMsg carries one decoded push event.
type PushMsg struct {
	Gen   uint64
	Event client.PushEvent
}

// PermissionNeededMsg asks the UI to prompt for the notification decision.
type PermissionNeededMsg struct{}

// Stats counts channel lifecycle transitions.
type Stats struct {
	Opens  int
	Closes int
}

// Channel is the push channel state machine. It is owned by the UI loop.
type Channel struct {
	dialer Dialer
	perm   Permission
	sink   Handler
	log    *zap.Logger

	authenticated bool
	state         State
	// gen identifies the current connection attempt; messages carrying an
	// older generation are stale.
	gen        uint64
	stream     Stream
	cancelDial context.CancelFunc
	handlers   map[client.PushKind]Handler
	lastErr    error
	stats      Stats
}

// New creates a disconnected channel that forwards push events to sink.
func New(dialer Dialer, perm Permission, sink Handler, log *zap.Logger) *Channel {
	if log == nil {
		log = zap.NewNop()
	}
	return &Channel{dialer: dialer, perm: perm, sink: sink, log: log}
}

// SetAuthenticated applies an authentication change. Only edges act: gaining
// authentication opens the channel, losing it closes the channel.
func (c *Channel) SetAuthenticated(auth bool, token string) tea.Cmd {
	if auth == c.authenticated {
		return nil
	}
	c.authenticated = auth
	if !auth {
		c.teardown("logged out")
		return nil
	}
	if c.state == Disconnected {
		return c.open(token)
	}
	return nil
}

// Reevaluate re-applies the current authentication state. It reopens a
// dropped channel while authenticated.
func (c *Channel) Reevaluate(auth bool, token string) tea.Cmd {
	c.authenticated = auth
	if !auth {
		c.teardown("not authenticated")
		return nil
	}
	if c.state == Disconnected {
		return c.open(token)
	}
	return nil
}

// Close tears the channel down regardless of authentication.
func (c *Channel) Close() {
	c.teardown("closed")
}

func (c *Channel) open(token string) tea.Cmd {
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelDial = cancel
	c.state = Connecting
	c.lastErr = nil
	c.stats.Opens++
	c.log.Info("opening push channel", zap.Uint64("gen", gen))

	dialer := c.dialer
	return func() tea.Msg {
		s, err := dialer.Dial(ctx, token)
		if err != nil {
			return DroppedMsg{Gen: gen, Err: err}
		}
		return ConnectedMsg{Gen: gen, Stream: s}
	}
}

// HandleConnected installs the push handlers on the fresh connection.
// A connection that arrives for a superseded attempt is closed at once.
func (c *Channel) HandleConnected(msg ConnectedMsg) tea.Cmd {
	if msg.Gen != c.gen || c.state != Connecting {
		c.log.Debug("closing superseded push connection", zap.Uint64("gen", msg.Gen))
		msg.Stream.Close()
		return nil
	}
	c.cancelDial = nil
	c.stream = msg.Stream
	c.state = Connected
	c.handlers = map[client.PushKind]Handler{
		client.PushUpcomingEvent: c.sink,
		client.PushNewEventAdded: c.sink,
	}
	c.log.Info("push channel connected", zap.Uint64("gen", msg.Gen))

	cmds := []tea.Cmd{c.readNext(msg.Gen, msg.Stream)}
	if c.perm != nil && !c.perm.Decided() {
		cmds = append(cmds, func() tea.Msg { return PermissionNeededMsg{} })
	}
	return tea.Batch(cmds...)
}

// HandlePush dispatches one event and keeps reading.
func (c *Channel) HandlePush(msg PushMsg) tea.Cmd {
	if msg.Gen != c.gen || c.state != Connected {
		return nil
	}
	var cmd tea.Cmd
	if h := c.handlers[msg.Event.Kind]; h != nil {
		cmd = h(msg.Event)
	}
	return tea.Batch(cmd, c.readNext(msg.Gen, c.stream))
}

// HandleDropped moves a failed or lost live connection to Disconnected and
// returns the failure as an advisory. Drops of superseded attempts are
// ignored.
func (c *Channel) HandleDropped(msg DroppedMsg) error {
	if msg.Gen != c.gen || c.state == Disconnected {
		return nil
	}
	c.log.Warn("push channel lost", zap.Uint64("gen", msg.Gen), zap.Error(msg.Err))
	c.teardown("dropped")
	c.lastErr = msg.Err
	return msg.Err
}

// teardown removes the handlers before releasing the connection, so no
// event can be dispatched once it starts.
func (c *Channel) teardown(reason string) {
	c.handlers = nil
	if c.state == Disconnected {
		return
	}
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	if c.stream != nil {
		c.stream.Close()
		c.stream = nil
	}
	c.gen++
	c.state = Disconnected
	c.stats.Closes++
	c.log.Info("push channel closed", zap.String("reason", reason))
}

func (c *Channel) readNext(gen uint64, s Stream) tea.Cmd {
	return func() tea.Msg {
		ev, err := s.Next()
		if err != nil {
			return DroppedMsg{Gen: gen, Err: err}
		}
		return PushMsg{Gen: gen, Event: ev}
	}
}

// State returns the current connection state.
func (c *Channel) State() State { return c.state }

// Err returns the failure that last dropped the channel.
func (c *Channel) Err() error { return c.lastErr }

// Stats returns the lifecycle counters.
func (c *Channel) Stats() Stats { return c.stats }

// HandlersInstalled reports whether push events are currently dispatched.
func (c *Channel) HandlersInstalled() bool { return c.handlers != nil }

// Describe returns the notification title and text for a push event.
func Describe(ev client.PushEvent) (title, message string) {
	switch {
	case ev.Upcoming != nil:
		return ev.Upcoming.Title, ev.Upcoming.Message
	case ev.NewEvent != nil:
		return "New event", fmt.Sprintf("\"%s\" has been added", ev.NewEvent.EventTitle)
	}
	return "Notification", string(ev.Kind)
}
