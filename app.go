package hxpage

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pthm/hxpage/lib/ident"
)

// DefaultRefreshDelay is the pause between a render and the listener script
// refresh.
const DefaultRefreshDelay = 100 * time.Millisecond

// Timer is a pending deferred call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// TreeBuilder builds the component tree. It receives the application's
// identifier registry so generated element ids come from the same pool as
// script ids and entry names.
type TreeBuilder func(ids *ident.Registry) (Tree, error)

// StaticTree returns a TreeBuilder for a tree that needs no identifiers.
func StaticTree(t Tree) TreeBuilder {
	return func(*ident.Registry) (Tree, error) {
		return t, nil
	}
}

type options struct {
	doc       Document
	history   History
	ids       *ident.Registry
	idLength  int
	scheduler Scheduler
	delay     time.Duration
	logger    zerolog.Logger
	busOpts   []BusOption
	emOpts    []EventManagerOption
}

// Option configures an Application.
type Option func(*options)

// WithDocument sets the document rendered into. Defaults to a MemoryDocument.
func WithDocument(d Document) Option {
	return func(o *options) { o.doc = d }
}

// WithHistory sets the navigation environment. Defaults to a MemoryHistory
// at http://localhost/.
func WithHistory(h History) Option {
	return func(o *options) { o.history = h }
}

// WithIdentifiers sets the identifier registry.
func WithIdentifiers(ids *ident.Registry) Option {
	return func(o *options) { o.ids = ids }
}

// WithIdentifierLength sets the length of generated element ids, script ids
// and entry names. Ignored when WithIdentifiers supplies a registry.
func WithIdentifierLength(n int) Option {
	return func(o *options) { o.idLength = n }
}

// WithScheduler sets how the post-render refresh is deferred.
func WithScheduler(s Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// WithRefreshDelay sets the pause between a render and the script refresh.
func WithRefreshDelay(d time.Duration) Option {
	return func(o *options) { o.delay = d }
}

// WithLogger sets the logger for the application and its collaborators.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBusOptions passes options to the bus.
func WithBusOptions(opts ...BusOption) Option {
	return func(o *options) { o.busOpts = append(o.busOpts, opts...) }
}

// WithEventOptions passes options to the event manager.
func WithEventOptions(opts ...EventManagerOption) Option {
	return func(o *options) { o.emOpts = append(o.emOpts, opts...) }
}

// WithEncoder sets the dispatch token encoder.
func WithEncoder(enc *Encoder) Option {
	return WithEventOptions(WithTokenEncoder(enc))
}

// Application wires the bus, state, router and event manager together and
// drives rendering.
//
// All entry points serialize on one mutex. Bus subscribers run inside that
// control flow, so a HandlerFunc must use the Event it is given rather than
// calling Application methods.
type Application struct {
	mu        sync.Mutex
	ids       *ident.Registry
	bus       *Bus
	state     *State
	router    *Router
	events    *EventManager
	doc       Document
	scheduler Scheduler
	delay     time.Duration
	logger    zerolog.Logger

	generation uint64
	dirty      bool
	pending    Timer
	closed     bool
}

// New builds an application. Collaborators are created in order: identifier
// registry, bus, state, router, event manager, all sharing one bus.
func New(build TreeBuilder, opts ...Option) (*Application, error) {
	o := options{
		scheduler: timeScheduler{},
		delay:     DefaultRefreshDelay,
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ids == nil {
		o.ids = ident.NewRegistry(ident.WithLength(o.idLength))
	}
	if o.doc == nil {
		o.doc = NewMemoryDocument()
	}
	if o.history == nil {
		h, err := NewMemoryHistory("http://localhost/")
		if err != nil {
			return nil, err
		}
		o.history = h
	}

	tree, err := build(o.ids)
	if err != nil {
		return nil, fmt.Errorf("hxpage: build tree: %w", err)
	}

	a := &Application{
		ids:       o.ids,
		doc:       o.doc,
		scheduler: o.scheduler,
		delay:     o.delay,
		logger:    o.logger,
	}
	a.bus = NewBus(append([]BusOption{WithBusLogger(o.logger)}, o.busOpts...)...)
	a.state = NewState(a.bus)
	a.router = NewRouter(a.bus, o.history, tree, o.logger)
	a.events, err = NewEventManager(a.bus, a.ids, a.doc,
		append([]EventManagerOption{WithEventLogger(o.logger)}, o.emOpts...)...)
	if err != nil {
		return nil, err
	}

	rerender := func(any) {
		if err := a.render(context.Background()); err != nil {
			a.logger.Error().Err(err).Msg("Render failed")
		}
	}
	a.bus.Subscribe(EventRerender, rerender)
	a.bus.Subscribe(EventRouteChanged, rerender)

	return a, nil
}

// Bus returns the application bus.
func (a *Application) Bus() *Bus { return a.bus }

// State returns the application state.
func (a *Application) State() *State { return a.state }

// Router returns the router.
func (a *Application) Router() *Router { return a.router }

// Events returns the event manager.
func (a *Application) Events() *EventManager { return a.events }

// Document returns the document rendered into.
func (a *Application) Document() Document { return a.doc }

// Identifiers returns the identifier registry.
func (a *Application) Identifiers() *ident.Registry { return a.ids }

// Render replaces the document region with the router's markup and
// schedules a listener script refresh.
func (a *Application) Render(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.render(ctx)
}

func (a *Application) render(ctx context.Context) error {
	markup, err := a.router.Render(ctx)
	if err != nil {
		return err
	}
	a.doc.ReplaceRegion(markup)
	a.scheduleRefresh()
	return nil
}

// scheduleRefresh defers a refresh tagged with the current generation. A
// later render bumps the generation, so an earlier pending refresh finds
// itself superseded and does nothing.
func (a *Application) scheduleRefresh() {
	if a.closed {
		return
	}
	a.generation++
	gen := a.generation
	a.dirty = true
	if a.pending != nil {
		a.pending.Stop()
	}
	a.pending = a.scheduler.AfterFunc(a.delay, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if gen != a.generation || !a.dirty {
			a.logger.Debug().Uint64("generation", gen).Msg("Skipping superseded refresh")
			return
		}
		if err := a.refresh(); err != nil {
			a.logger.Error().Err(err).Msg("Listener refresh failed")
		}
	})
}

func (a *Application) refresh() error {
	a.dirty = false
	a.pending = nil
	return a.events.Refresh()
}

// Flush runs a pending refresh now instead of waiting for the delay. It is
// a no-op when nothing was rendered since the last refresh.
func (a *Application) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.dirty {
		return nil
	}
	if a.pending != nil {
		a.pending.Stop()
	}
	return a.refresh()
}

// Navigate moves the router to path, which re-renders through
// EventRouteChanged.
func (a *Application) Navigate(ctx context.Context, path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.router.NavigateTo(path)
}

// Rerender publishes EventRerender.
func (a *Application) Rerender() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bus.Publish(EventRerender, nil)
}

// Dispatch resolves a dispatch token to its server-side handler and runs it.
func (a *Application) Dispatch(ctx context.Context, token string, form url.Values) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, err := a.events.Resolve(token)
	if err != nil {
		return err
	}
	return e.Handler.Func(ctx, Event{
		Name:      e.EventName,
		ElementID: e.ElementID,
		Form:      form,
		Bus:       a.bus,
		State:     a.state,
		Router:    a.router,
	})
}

// Close stops any pending refresh. Later renders no longer schedule one.
func (a *Application) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	if a.pending != nil {
		a.pending.Stop()
		a.pending = nil
	}
}
