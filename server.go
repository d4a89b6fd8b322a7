package hxpage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Defaults for Server.
const (
	DefaultDispatchPath = "/_hx/dispatch"
	DefaultCookieName   = "hxpage_session"
	DefaultSessionTTL   = 30 * time.Minute
)

// Update is the JSON body returned from a dispatch.
type Update struct {
	Region   string `json:"region"`
	ScriptID string `json:"script_id"`
	Script   string `json:"script"`
	Path     string `json:"path"`
	URL      string `json:"url"`
}

type session struct {
	app      *Application
	doc      *MemoryDocument
	lastSeen time.Time // guarded by Server.mu
}

// Server serves applications over HTTP, one per browser session.
//
// GET requests render the full page for the requested path; paths missing
// from the tree are answered with 404. POST requests to the dispatch path run
// a server-side handler named by a signed token and answer with an Update.
// Sessions idle longer than the session TTL are closed and dropped.
type Server struct {
	mu        sync.Mutex
	build     TreeBuilder
	encoder   *Encoder
	sessions  map[string]*session
	appOpts   []Option
	title     string
	dispatch  string
	cookie    string
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
	logger    zerolog.Logger

	// OnError is called when a request fails.
	// Customize this to handle errors appropriately for your application.
	OnError func(http.ResponseWriter, *http.Request, error)
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAppOptions passes options to every Application the server creates.
func WithAppOptions(opts ...Option) ServerOption {
	return func(s *Server) { s.appOpts = append(s.appOpts, opts...) }
}

// WithTitle sets the page title.
func WithTitle(title string) ServerOption {
	return func(s *Server) { s.title = title }
}

// WithDispatchPath sets the endpoint for server-side handlers.
func WithDispatchPath(path string) ServerOption {
	return func(s *Server) { s.dispatch = path }
}

// WithCookieName sets the session cookie name.
func WithCookieName(name string) ServerOption {
	return func(s *Server) { s.cookie = name }
}

// WithSessionTTL sets how long a session may sit idle before it is closed.
// Zero or negative keeps sessions until Close.
func WithSessionTTL(d time.Duration) ServerOption {
	return func(s *Server) { s.ttl = d }
}

// WithServerLogger sets the logger.
func WithServerLogger(l zerolog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a server building each session's tree with build.
// Dispatch tokens are signed with key.
func NewServer(build TreeBuilder, key []byte, opts ...ServerOption) (*Server, error) {
	enc, err := NewEncoder(key)
	if err != nil {
		return nil, fmt.Errorf("hxpage: failed to create encoder: %w", err)
	}

	s := &Server{
		build:    build,
		encoder:  enc,
		sessions: make(map[string]*session),
		title:    "hxpage",
		dispatch: DefaultDispatchPath,
		cookie:   DefaultCookieName,
		ttl:      DefaultSessionTTL,
		now:      time.Now,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Default error handler
	s.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
		switch {
		case IsTokenError(err):
			http.Error(w, "Bad request", http.StatusBadRequest)
		case errors.Is(err, ErrUnknownHandler), errors.Is(err, ErrNoSession):
			http.Error(w, "Not found", http.StatusNotFound)
		default:
			http.Error(w, "Internal error", http.StatusInternalServerError)
		}
	}

	return s, nil
}

// DispatchPath returns the dispatch endpoint.
func (s *Server) DispatchPath() string {
	return s.dispatch
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Handler returns the HTTP handler for pages and dispatches.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.dispatch, s.handleDispatch)
	mux.HandleFunc("/", s.handlePage)
	return mux
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	sess, created, err := s.session(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	// Unknown paths must not move an existing session off its page.
	if !sess.app.Router().Has(r.URL.Path) {
		if created {
			sess.app.Close()
		}
		http.NotFound(w, r)
		return
	}
	if created {
		s.store(w, sess)
		err = sess.app.Render(ctx)
	} else if sess.app.Router().Location().Path != r.URL.Path {
		err = sess.app.Navigate(ctx, r.URL.RequestURI())
	} else {
		err = sess.app.Render(ctx)
	}
	if err == nil {
		err = sess.app.Flush()
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	page := sess.doc.Page(PageOptions{Title: s.title, DispatchPath: s.dispatch})
	if err := Render(w, r, page); err != nil {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Writing page failed")
	}
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// CSRF protection: dispatches must come from the client runtime.
	if !IsHTMX(r) {
		http.Error(w, "Forbidden: hxpage request required", http.StatusForbidden)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	sess, err := s.existing(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.logger.Debug().
		Str("page", CurrentURL(r)).
		Str("path", sess.app.Router().Location().Path).
		Msg("Dispatch")

	ctx := r.Context()
	form := url.Values{}
	for k, v := range r.PostForm {
		if k != "t" {
			form[k] = v
		}
	}
	if err := sess.app.Dispatch(ctx, r.PostForm.Get("t"), form); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := sess.app.Flush(); err != nil {
		s.fail(w, r, err)
		return
	}

	loc := sess.app.Router().Location()
	update := Update{Region: sess.doc.Region(), Path: loc.Path, URL: loc.URL}
	if script, ok := sess.doc.LastScript(); ok {
		update.ScriptID = script.ID
		update.Script = script.Body
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(update); err != nil {
		s.logger.Error().Err(err).Msg("Writing update failed")
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
	s.OnError(w, r, err)
}

// session returns the caller's session, or a new unstored one when the
// cookie is missing or stale. New sessions are kept only once store is
// called.
func (s *Server) session(r *http.Request) (*session, bool, error) {
	if sess, err := s.existing(r); err == nil {
		return sess, false, nil
	}

	sess, err := s.newSession(r)
	if err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// store registers sess under a new id and sets the session cookie.
func (s *Server) store(w http.ResponseWriter, sess *session) {
	id := uuid.NewString()
	s.mu.Lock()
	sess.lastSeen = s.now()
	s.sessions[id] = sess
	expired := s.sweep()
	s.mu.Unlock()
	closeSessions(expired)

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) existing(r *http.Request) (*session, error) {
	c, err := r.Cookie(s.cookie)
	if err != nil {
		return nil, ErrNoSession
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return nil, ErrNoSession
	}

	s.mu.Lock()
	expired := s.sweep()
	sess, ok := s.sessions[c.Value]
	if ok && s.idle(sess) {
		expired = append(expired, sess)
		delete(s.sessions, c.Value)
		ok = false
	}
	if ok {
		sess.lastSeen = s.now()
	}
	s.mu.Unlock()
	closeSessions(expired)

	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

// sweep removes sessions idle past the TTL and returns them for closing.
// It runs at most once per quarter TTL. s.mu must be held.
func (s *Server) sweep() []*session {
	if s.ttl <= 0 {
		return nil
	}
	now := s.now()
	if now.Sub(s.lastSweep) < s.ttl/4 {
		return nil
	}
	s.lastSweep = now

	var expired []*session
	for id, sess := range s.sessions {
		if s.idle(sess) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	if len(expired) > 0 {
		s.logger.Debug().Int("expired", len(expired)).Int("live", len(s.sessions)).Msg("Evicted idle sessions")
	}
	return expired
}

func (s *Server) idle(sess *session) bool {
	return s.ttl > 0 && s.now().Sub(sess.lastSeen) > s.ttl
}

func closeSessions(sessions []*session) {
	for _, sess := range sessions {
		sess.app.Close()
	}
}

func (s *Server) newSession(r *http.Request) (*session, error) {
	history, err := NewMemoryHistory(requestURL(r))
	if err != nil {
		return nil, err
	}
	doc := NewMemoryDocument()

	opts := append([]Option{
		WithLogger(s.logger),
	}, s.appOpts...)
	opts = append(opts,
		WithDocument(doc),
		WithHistory(history),
		WithEncoder(s.encoder),
	)

	app, err := New(s.build, opts...)
	if err != nil {
		return nil, err
	}
	return &session{app: app, doc: doc}, nil
}

// Close stops every session's pending refresh and drops the sessions.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if err := ctx.Err(); err != nil {
			return err
		}
		sess.app.Close()
		delete(s.sessions, id)
	}
	return nil
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: r.URL.RawQuery}
	return u.String()
}
