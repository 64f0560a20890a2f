package app

import (
	"context"
	"fmt"

	"github.com/Breadstickhemmo/42Brat/internal/client"
	"github.com/Breadstickhemmo/42Brat/internal/config"
	"github.com/Breadstickhemmo/42Brat/internal/credstore"
	"github.com/Breadstickhemmo/42Brat/internal/eventlist"
	"github.com/Breadstickhemmo/42Brat/internal/notify"
	"github.com/Breadstickhemmo/42Brat/internal/query"
	"github.com/Breadstickhemmo/42Brat/internal/realtime"
	"github.com/Breadstickhemmo/42Brat/internal/session"
	"github.com/Breadstickhemmo/42Brat/internal/views/activity"
	"github.com/Breadstickhemmo/42Brat/internal/views/agenda"
	"github.com/Breadstickhemmo/42Brat/internal/views/detail"
	"github.com/Breadstickhemmo/42Brat/internal/views/form"
	"github.com/Breadstickhemmo/42Brat/internal/views/prompt"
	"github.com/Breadstickhemmo/42Brat/internal/views/status"
	"github.com/Breadstickhemmo/42Brat/internal/views/toast"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayDetail
	OverlayFilters
	OverlayLogin
	OverlayRegister
	OverlayEventForm
	OverlayConfirmDelete
	OverlayPermission
	OverlayActivity
)

// protected reports whether the overlay only makes sense while signed in.
func (o Overlay) protected() bool {
	switch o {
	case OverlayDetail, OverlayFilters, OverlayEventForm, OverlayConfirmDelete, OverlayPermission:
		return true
	}
	return false
}

// Deps are the collaborators of the root model.
type Deps struct {
	Config  *config.Config
	API     *client.API
	Session *session.Manager
	Dialer  realtime.Dialer
	Prefs   PermissionStore
	Log     *zap.Logger
}

// Model is the root Bubble Tea model.
type Model struct {
	cfg     *config.Config
	api     *client.API
	session *session.Manager
	channel *realtime.Channel
	query   *query.Coordinator
	events  *eventlist.Store
	push    *notify.Queue
	notices *notify.Queue
	perm    *permission
	log     *zap.Logger
	catalog client.Catalog
	ctx     context.Context
	cancel  context.CancelFunc

	keys     KeyMap
	help     help.Model
	spinner  spinner.Model
	spinning bool
	width    int
	height   int

	// lastAuth is the authentication state reconcile last applied.
	lastAuth bool

	// Navigation.
	overlay     Overlay
	returnTo    Overlay
	searching   bool
	permPending bool

	// Sub-views.
	search      textinput.Model
	form        form.Model
	editID      int
	confirm     prompt.Model
	deleteID    int
	detail      detail.Model
	agenda      agenda.Model
	statusBar   status.Model
	activity    *activity.Model
	pushToast   toast.Model
	noticeToast toast.Model
}

// New creates the root model.
func New(d Deps) Model {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	cfg := d.Config
	if cfg == nil {
		cfg = config.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	act := activity.New()
	events := eventlist.New()
	perm := loadPermission(d.Prefs, log)
	push := notify.New("push", cfg.Notifications.Duration)
	notices := notify.New("notices", cfg.Notifications.NoticeDuration)
	cat := cfg.EventCatalog()

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search titles and descriptions"
	search.CharLimit = 128

	return Model{
		cfg:         cfg,
		api:         d.API,
		session:     d.Session,
		channel:     realtime.New(d.Dialer, perm, pushSink(push, perm, &act), log.Named("realtime")),
		query:       query.NewCoordinator(d.API, events, cfg.Search.Debounce, log.Named("query")),
		events:      events,
		push:        push,
		notices:     notices,
		perm:        perm,
		log:         log,
		catalog:     cat,
		ctx:         ctx,
		cancel:      cancel,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		search:      search,
		agenda:      agenda.New(cat),
		statusBar:   status.New(),
		activity:    &act,
		pushToast:   toast.New(push.Name()),
		noticeToast: toast.New(notices.Name()),
	}
}

// pushSink turns push events into notifications. A denied permission keeps
// them in the activity log only.
func pushSink(q *notify.Queue, perm *permission, log *activity.Model) realtime.Handler {
	return func(ev client.PushEvent) tea.Cmd {
		title, msg := realtime.Describe(ev)
		log.Addf(activity.KindPush, "%s: %s", ev.Kind, msg)
		if perm.value == credstore.PermissionDenied {
			return nil
		}
		id := ev.EventID()
		return q.Show(notify.KindPush, title, msg, &id)
	}
}

// Init restores the persisted session and starts verifying it.
func (m Model) Init() tea.Cmd {
	if !m.session.Restore() {
		return nil
	}
	m.activity.Add(activity.KindAuth, "verifying stored session")
	return m.session.Verify(m.ctx, m.api)
}

// Update handles messages. The authentication state is reconciled before
// and after routing so that a session lost on a request goroutine tears
// down the channel and the list before the failing result is seen.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.reconcile()}
	cmds = append(cmds, m.route(msg))
	cmds = append(cmds, m.reconcile())
	cmds = append(cmds, m.sync())
	return m, tea.Batch(cmds...)
}

// reconcile applies an authentication edge to the channel, the query and
// the list.
func (m *Model) reconcile() tea.Cmd {
	auth := m.session.Authenticated()
	m.keys.admin = m.session.IsAdmin()
	if auth == m.lastAuth {
		return nil
	}
	m.lastAuth = auth
	m.keys.authenticated = auth

	if !auth {
		m.channel.SetAuthenticated(false, "")
		m.activity.Add(activity.KindAuth, "session ended, push channel closed")
		m.query.SetAuthenticated(false)
		if m.overlay.protected() {
			m.overlay = OverlayNone
		}
		m.permPending = false
		m.searching = false
		m.search.Blur()
		m.search.Reset()
		m.push.Dismiss()
		return m.notices.Show(notify.KindInfo, "Signed out", "You have been signed out.", nil)
	}

	if u := m.session.User(); u != nil {
		m.activity.Addf(activity.KindAuth, "signed in as %s", u.Username)
	}
	return tea.Batch(
		m.channel.SetAuthenticated(true, m.session.Token()),
		m.query.SetAuthenticated(true),
	)
}

func (m *Model) route(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.statusBar.Width = msg.Width
		m.agenda.Width = msg.Width
		m.agenda.Height = msg.Height - 8
		return nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.busy() {
			m.spinning = false
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case session.VerifiedMsg:
		if err := m.session.ApplyVerified(msg); err != nil {
			m.activity.Addf(activity.KindErr, "verify session: %v", err)
			return m.notices.Show(notify.KindError, "Could not verify session", client.Message(err), nil)
		}
		return nil

	case session.LoginMsg:
		return m.handleLogin(msg)

	case session.RegisteredMsg:
		return m.handleRegistered(msg)

	case realtime.ConnectedMsg:
		cmd := m.channel.HandleConnected(msg)
		if m.channel.State() == realtime.Connected {
			m.activity.Add(activity.KindPush, "push channel connected")
		}
		return cmd

	case realtime.PushMsg:
		return m.channel.HandlePush(msg)

	case realtime.DroppedMsg:
		if err := m.channel.HandleDropped(msg); err != nil {
			if client.IsUnauthorized(err) {
				m.activity.Addf(activity.KindAuth, "push channel rejected credential: %v", err)
				m.session.Logout()
				return nil
			}
			m.activity.Addf(activity.KindErr, "push channel lost: %v", err)
			return m.notices.Show(notify.KindError, "Live updates unavailable", "Press r to reconnect.", nil)
		}
		return nil

	case realtime.PermissionNeededMsg:
		if !m.perm.Decided() {
			m.permPending = true
		}
		return nil

	case notify.ExpiredMsg:
		m.push.Expire(msg)
		m.notices.Expire(msg)
		return nil

	case toast.FrameMsg:
		return tea.Batch(m.pushToast.Update(msg), m.noticeToast.Update(msg))

	case query.DebounceMsg:
		return m.query.HandleDebounce(msg)

	case query.ResultMsg:
		if err := m.query.ApplyResult(msg); err != nil {
			m.activity.Addf(activity.KindHTTP, "list events: %v", err)
			return m.notices.Show(notify.KindError, "Could not load events", client.Message(err), nil)
		}
		return nil

	case eventSavedMsg:
		return m.handleSaved(msg)

	case eventDeletedMsg:
		return m.handleDeleted(msg)

	case eventLoadedMsg:
		m.handleLoaded(msg)
		return nil
	}
	return nil
}

func (m *Model) handleLogin(msg session.LoginMsg) tea.Cmd {
	if err := m.session.ApplyLogin(msg); err != nil {
		m.activity.Addf(activity.KindAuth, "login failed: %v", err)
		if m.overlay == OverlayLogin && !client.IsNetwork(err) {
			m.form.SetError(client.Message(err))
			return nil
		}
		return m.notices.Show(notify.KindError, "Login failed", client.Message(err), nil)
	}
	if m.overlay == OverlayLogin {
		m.overlay = OverlayNone
	}
	name := ""
	if u := m.session.User(); u != nil {
		name = u.Username
	}
	return m.notices.Show(notify.KindSuccess, "Welcome", fmt.Sprintf("Welcome, %s!", name), nil)
}

func (m *Model) handleRegistered(msg session.RegisteredMsg) tea.Cmd {
	if msg.Err != nil {
		m.activity.Addf(activity.KindAuth, "registration failed: %v", msg.Err)
		if m.overlay == OverlayRegister && !client.IsNetwork(msg.Err) {
			m.form.SetError(client.Message(msg.Err))
			return nil
		}
		return m.notices.Show(notify.KindError, "Registration failed", client.Message(msg.Err), nil)
	}
	m.activity.Addf(activity.KindAuth, "registered %s", msg.Username)
	if !m.session.Authenticated() {
		m.form = loginForm(msg.Username)
		m.overlay = OverlayLogin
	}
	text := msg.Message
	if text == "" {
		text = "Registration successful"
	}
	return m.notices.Show(notify.KindSuccess, "Registered", text+". You can log in now.", nil)
}

func (m *Model) handleSaved(msg eventSavedMsg) tea.Cmd {
	verb := "update"
	if msg.ID == 0 {
		verb = "create"
	}
	if msg.Err != nil {
		m.activity.Addf(activity.KindHTTP, "%s event: %v", verb, msg.Err)
		switch {
		case client.IsUnauthorized(msg.Err):
			return nil
		case m.overlay == OverlayEventForm && !client.IsNetwork(msg.Err):
			m.form.SetError(client.Message(msg.Err))
			return nil
		}
		return m.notices.Show(notify.KindError, "Could not save event", client.Message(msg.Err), nil)
	}

	title := ""
	if msg.Event != nil {
		title = msg.Event.Title
	}
	if m.overlay == OverlayEventForm {
		m.overlay = OverlayNone
		if m.returnTo == OverlayDetail && msg.Event != nil && m.detail.ID() == msg.Event.ID {
			m.detail = detail.New(*msg.Event, m.catalog, m.session.IsAdmin())
			m.overlay = OverlayDetail
		}
	}
	text := fmt.Sprintf("\"%s\" was %sd", title, verb)
	return tea.Batch(
		m.notices.Show(notify.KindSuccess, "Event saved", text, nil),
		m.query.Refresh(),
	)
}

func (m *Model) handleDeleted(msg eventDeletedMsg) tea.Cmd {
	if msg.Err != nil {
		m.activity.Addf(activity.KindHTTP, "delete event %d: %v", msg.ID, msg.Err)
		if client.IsUnauthorized(msg.Err) {
			return nil
		}
		return m.notices.Show(notify.KindError, "Could not delete event", client.Message(msg.Err), nil)
	}
	m.activity.Addf(activity.KindHTTP, "deleted event %d", msg.ID)
	if m.overlay == OverlayDetail && m.detail.ID() == msg.ID {
		m.overlay = OverlayNone
	}
	return tea.Batch(
		m.notices.Show(notify.KindSuccess, "Event deleted", "The event has been removed.", nil),
		m.query.Refresh(),
	)
}

func (m *Model) handleLoaded(msg eventLoadedMsg) {
	if m.overlay != OverlayDetail || m.detail.ID() != msg.ID {
		return
	}
	if msg.Err != nil || msg.Event == nil {
		if msg.Err != nil && !client.IsUnauthorized(msg.Err) {
			m.activity.Addf(activity.KindHTTP, "refresh event %d: %v", msg.ID, msg.Err)
			m.detail.Stale = true
		}
		return
	}
	m.detail = detail.New(*msg.Event, m.catalog, m.session.IsAdmin())
}

// openDetail shows the listed event with the given id and fetches a fresh
// copy of it.
func (m *Model) openDetail(id int) tea.Cmd {
	e, ok := m.events.Find(id)
	if !ok {
		return nil
	}
	m.agenda.Select(id)
	m.detail = detail.New(e, m.catalog, m.session.IsAdmin())
	m.overlay = OverlayDetail
	return loadEvent(m.ctx, m.api, id)
}

func (m *Model) busy() bool {
	return m.session.Loading() || m.events.Loading()
}

// sync copies component state into the views after every message.
func (m *Model) sync() tea.Cmd {
	m.agenda.SetEvents(m.events.Events())
	m.agenda.Loading = m.events.Loading()
	m.agenda.Err = ""
	if err := m.events.Err(); err != nil {
		m.agenda.Err = client.Message(err)
	}

	snap := m.session.Snapshot()
	m.statusBar.User = ""
	m.statusBar.Admin = false
	if snap.Identity != nil {
		m.statusBar.User = snap.Identity.Username
		m.statusBar.Admin = snap.Identity.IsAdmin
	}
	m.statusBar.Channel = m.channel.State()
	m.statusBar.Events = m.events.Len()
	m.statusBar.Loading = m.events.Loading()
	m.statusBar.Filtering = m.query.Filters().Active()
	m.statusBar.Search = m.query.Search()

	if m.permPending && m.overlay == OverlayNone && !m.searching && snap.Authenticated {
		m.permPending = false
		m.confirm = prompt.Model{
			Title:    "Notifications",
			Question: "Show pop-up notifications for live event updates?",
		}
		m.overlay = OverlayPermission
	}

	var cmds []tea.Cmd
	cmds = append(cmds, m.pushToast.Sync(m.push.Current()))
	cmds = append(cmds, m.noticeToast.Sync(m.notices.Current()))
	if m.busy() && !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m *Model) quit() tea.Cmd {
	m.channel.Close()
	m.cancel()
	return tea.Quit
}
