// Package fakeapi is an in-process events backend used by tests. It
// implements the REST endpoints and the push websocket of the real server
// on top of httptest, with hooks for revoking credentials and injecting
// failures.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Breadstickhemmo/42Brat/internal/client"
	"github.com/gorilla/websocket"
)

// Request is one recorded HTTP request.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Auth     string
}

type account struct {
	user     client.User
	password string
}

type fault struct {
	status  int
	message string
}

// Server is a fake events backend.
type Server struct {
	srv *httptest.Server
	hub *hub

	mu         sync.Mutex
	accounts   map[string]*account
	tokens     map[string]int
	events     map[int]client.Event
	nextUserID int
	nextEvent  int
	nextToken  int
	requests   []Request
	faults     map[string][]fault
	holds      map[string]chan struct{}
}

// New starts a fake backend. Call Close when done.
func New() *Server {
	s := &Server{
		hub:      newHub(),
		accounts: make(map[string]*account),
		tokens:   make(map[string]int),
		events:   make(map[int]client.Event),
		faults:   make(map[string][]fault),
		holds:    make(map[string]chan struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /api/me", s.handleMe)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("GET /api/events", s.handleList)
	mux.HandleFunc("POST /api/events", s.handleCreate)
	mux.HandleFunc("GET /api/events/{id}", s.handleGet)
	mux.HandleFunc("PUT /api/events/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /api/events/{id}", s.handleDelete)
	s.srv = httptest.NewServer(s.record(mux))
	return s
}

// URL is the http base URL of the server.
func (s *Server) URL() string { return s.srv.URL }

// WSURL is the websocket endpoint of the server.
func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws"
}

// Close drops every websocket client and shuts the server down.
func (s *Server) Close() {
	s.mu.Lock()
	for key, ch := range s.holds {
		close(ch)
		delete(s.holds, key)
	}
	s.mu.Unlock()
	s.hub.dropAll()
	s.srv.Close()
}

// AddUser registers an account and returns its identity.
func (s *Server) AddUser(username, password string, admin bool) client.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, password, admin)
}

func (s *Server) addUserLocked(username, password string, admin bool) client.User {
	s.nextUserID++
	u := client.User{ID: s.nextUserID, Username: username, IsAdmin: admin}
	s.accounts[username] = &account{user: u, password: password}
	return u
}

// IssueToken mints a credential for the user with the given id.
func (s *Server) IssueToken(userID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokenLocked(userID)
}

func (s *Server) issueTokenLocked(userID int) string {
	s.nextToken++
	tok := fmt.Sprintf("tok-%d-%d", userID, s.nextToken)
	s.tokens[tok] = userID
	return tok
}

// Revoke invalidates token: protected calls with it get 401 and websocket
// clients that authenticated with it are disconnected.
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
	s.hub.dropToken(token)
}

// SeedEvent stores e (assigning an id when e.ID is zero) and returns it.
func (s *Server) SeedEvent(e client.Event) client.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		s.nextEvent++
		e.ID = s.nextEvent
	} else if e.ID > s.nextEvent {
		s.nextEvent = e.ID
	}
	s.events[e.ID] = e
	return e
}

// Event returns the stored event with the given id.
func (s *Server) Event(id int) (client.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	return e, ok
}

// Broadcast pushes a frame to every connected websocket client.
func (s *Server) Broadcast(kind client.PushKind, payload any) error {
	return s.hub.broadcast(kind, payload)
}

// BroadcastRaw pushes data verbatim to every connected websocket client.
func (s *Server) BroadcastRaw(data []byte) error {
	return s.hub.broadcastRaw(data)
}

// DropClients disconnects every websocket client without revoking anything.
func (s *Server) DropClients() { s.hub.dropAll() }

// ClientCount is the number of connected websocket clients.
func (s *Server) ClientCount() int { return s.hub.count() }

// ConnectionsOpened is the number of websocket upgrades served so far.
func (s *Server) ConnectionsOpened() int { return s.hub.total() }

// Fail makes the next request to method+path fail with status. Calls stack.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.faults[key] = append(s.faults[key], fault{status: status, message: message})
}

// Hold blocks requests to method+path until the returned release func is
// called.
func (s *Server) Hold(method, path string) (release func()) {
	ch := make(chan struct{})
	key := method + " " + path
	s.mu.Lock()
	s.holds[key] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.holds[key] == ch {
				delete(s.holds, key)
				close(ch)
			}
			s.mu.Unlock()
		})
	}
}

// Requests returns a copy of the request log.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Count returns how many requests hit method+path.
func (s *Server) Count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Auth:     r.Header.Get("Authorization"),
		})
		var f *fault
		if q := s.faults[key]; len(q) > 0 {
			f = &q[0]
			s.faults[key] = q[1:]
		}
		hold := s.holds[key]
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if f != nil {
			writeJSON(w, f.status, map[string]string{"error": f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authorize resolves the bearer credential. It writes a 401 and returns
// false when the credential is missing or unknown.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) (client.User, string, bool) {
	auth := r.Header.Get("Authorization")
	tok, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || tok == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Missing Authorization Header"})
		return client.User{}, "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[tok]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Token has expired"})
		return client.User{}, "", false
	}
	for _, a := range s.accounts {
		if a.user.ID == id {
			return a.user, tok, true
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Unknown user"})
	return client.User{}, "", false
}

func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	u, _, ok := s.authorize(w, r)
	if !ok {
		return false
	}
	if !u.IsAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Administrator rights required"})
		return false
	}
	return true
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	_, tok, ok := s.authorize(w, r)
	if !ok {
		return
	}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := s.hub.add(conn, tok)
	go func() {
		defer s.hub.remove(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, _, ok := s.authorize(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds client.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	s.mu.Lock()
	a, ok := s.accounts[creds.Username]
	if !ok || a.password != creds.Password {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid username or password"})
		return
	}
	tok := s.issueTokenLocked(a.user.ID)
	u := a.user
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, client.LoginResponse{AccessToken: tok, User: &u})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg client.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if reg.Username == "" || reg.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Username and password are required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[reg.Username]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "User already exists"})
		return
	}
	s.addUserLocked(reg.Username, reg.Password, false)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Registration successful"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authorize(w, r); !ok {
		return
	}
	q := r.URL.Query()
	s.mu.Lock()
	out := make([]client.Event, 0, len(s.events))
	for _, e := range s.events {
		if matches(e, q.Get("startDate"), q.Get("endDate"), q.Get("role"), q.Get("location"), q.Get("type"), q.Get("search")) {
			out = append(out, e)
		}
	}
	s.mu.Unlock()
	slices.SortFunc(out, func(a, b client.Event) int {
		if c := a.Start.Compare(b.Start.Time); c != 0 {
			return c
		}
		return a.ID - b.ID
	})
	writeJSON(w, http.StatusOK, out)
}

func matches(e client.Event, startDate, endDate, role, location, typ, search string) bool {
	if search != "" {
		needle := strings.ToLower(search)
		if !strings.Contains(strings.ToLower(e.Title), needle) &&
			!strings.Contains(strings.ToLower(e.Description), needle) {
			return false
		}
	}
	if startDate != "" {
		if from, err := time.Parse(time.DateOnly, startDate); err == nil {
			ends := e.End != nil && !e.End.Before(from)
			if !ends && e.Start.Before(from) {
				return false
			}
		}
	}
	if endDate != "" {
		if to, err := time.Parse(time.DateOnly, endDate); err == nil {
			if e.Start.After(to.Add(24*time.Hour - time.Nanosecond)) {
				return false
			}
		}
	}
	if role != "" && !slices.Contains(e.Roles, role) {
		return false
	}
	if location != "" && e.Location != location {
		return false
	}
	if typ != "" && e.Type != typ {
		return false
	}
	return true
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := s.authorize(w, r); !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Event not found"})
		return
	}
	e, ok := s.Event(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Event not found"})
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	var in client.EventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No data"})
		return
	}
	e, msg := eventFromInput(client.Event{}, in)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}
	e = s.SeedEvent(e)
	s.hub.broadcast(client.PushNewEventAdded, client.NewEventAddedPayload{EventID: e.ID, EventTitle: e.Title})
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	id, _ := strconv.Atoi(r.PathValue("id"))
	prev, ok := s.Event(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Event not found"})
		return
	}
	var in client.EventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No data to update"})
		return
	}
	e, msg := eventFromInput(prev, in)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}
	e = s.SeedEvent(e)
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	id, _ := strconv.Atoi(r.PathValue("id"))
	s.mu.Lock()
	_, ok := s.events[id]
	delete(s.events, id)
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Event not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Event deleted"})
}

// eventFromInput applies in on top of base, returning a validation message
// on failure.
func eventFromInput(base client.Event, in client.EventInput) (client.Event, string) {
	var missing []string
	for _, f := range []struct {
		name string
		ok   bool
	}{
		{"title", in.Title != ""},
		{"description", in.Description != ""},
		{"start_datetime", in.Start != ""},
		{"location", in.Location != ""},
		{"event_type", in.Type != ""},
		{"roles_available", len(in.Roles) > 0},
	} {
		if !f.ok {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return base, "Required fields missing: " + strings.Join(missing, ", ")
	}
	start, err := client.ParseTime(in.Start)
	if err != nil {
		return base, "Invalid start date"
	}
	e := base
	e.Title = in.Title
	e.Description = in.Description
	e.Start = start
	e.End = nil
	if in.End != "" {
		end, err := client.ParseTime(in.End)
		if err != nil {
			return base, "Invalid end date"
		}
		if end.Before(start.Time) {
			return base, "End date cannot be before start date"
		}
		e.End = &end
	}
	e.Location = in.Location
	e.LocationDetails = in.LocationDetails
	e.Type = in.Type
	e.Roles = slices.Clone(in.Roles)
	e.RegistrationLinkParticipant = in.RegistrationLinkParticipant
	e.RegistrationLinkVolunteer = in.RegistrationLinkVolunteer
	e.RegistrationLinkOrganizer = in.RegistrationLinkOrganizer
	return e, ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
