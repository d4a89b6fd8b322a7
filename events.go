package hxpage

import (
	"crypto/rand"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pthm/hxpage/lib/encoding"
	"github.com/pthm/hxpage/lib/ident"
	"github.com/pthm/hxpage/lib/jscheck"
)

// Mode selects how the EventManager treats repeated listener requests.
type Mode int

const (
	// ModeKeyed keeps one entry per (element id, event name). A new request
	// for the same pair replaces the old entry in place, so repeated renders
	// bind each handler once.
	ModeKeyed Mode = iota

	// ModeLog appends every request. Repeated renders before a refresh bind
	// the same handler several times, and the log grows with every render.
	ModeLog
)

// String returns the config name of the mode.
func (m Mode) String() string {
	if m == ModeLog {
		return "log"
	}
	return "keyed"
}

// ParseMode maps "keyed" or "log" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "keyed":
		return ModeKeyed, nil
	case "log":
		return ModeLog, nil
	}
	return ModeKeyed, fmt.Errorf("hxpage: unknown listener mode %q", s)
}

// Entry is a recorded listener.
type Entry struct {
	Name      string // unique per live entry, drawn from the identifier registry
	ElementID string
	EventName string
	Handler   Handler
}

type entryKey struct {
	element string
	event   string
}

// EventManager collects listener requests from the bus and materializes
// them as one injected script.
//
// Script lifecycle: created empty with a reserved id, populated on the
// first Refresh, then replaced wholesale on every later Refresh. Entries are
// never cleared by Refresh; each refresh replays every entry because a full
// render drops every native binding.
type EventManager struct {
	mu       sync.Mutex
	bus      *Bus
	ids      *ident.Registry
	doc      Document
	encoder  *encoding.Encoder
	mode     Mode
	validate bool
	sealed   bool
	logger   zerolog.Logger

	entries []*Entry
	byKey   map[entryKey]*Entry
	byName  map[string]*Entry

	scriptID  string
	inserted  bool
	refreshes int
}

// EventManagerOption configures an EventManager.
type EventManagerOption func(*EventManager)

// WithListenerMode sets how repeated requests are recorded.
func WithListenerMode(m Mode) EventManagerOption {
	return func(em *EventManager) {
		em.mode = m
	}
}

// WithTokenEncoder sets the encoder used to sign dispatch tokens.
func WithTokenEncoder(enc *encoding.Encoder) EventManagerOption {
	return func(em *EventManager) {
		em.encoder = enc
	}
}

// WithSealedTokens encrypts dispatch tokens so the page cannot read the
// handler name or element id they carry. Signed tokens are rejected.
func WithSealedTokens() EventManagerOption {
	return func(em *EventManager) {
		em.sealed = true
	}
}

// WithScriptValidation parses script handlers when they are recorded and the
// generated script before it is injected.
func WithScriptValidation() EventManagerOption {
	return func(em *EventManager) {
		em.validate = true
	}
}

// WithEventLogger sets the logger.
func WithEventLogger(l zerolog.Logger) EventManagerOption {
	return func(em *EventManager) {
		em.logger = l
	}
}

// NewEventManager creates a manager and subscribes it to EventAddListener.
func NewEventManager(bus *Bus, ids *ident.Registry, doc Document, opts ...EventManagerOption) (*EventManager, error) {
	em := &EventManager{
		bus:    bus,
		ids:    ids,
		doc:    doc,
		logger: log.Logger,
		byKey:  make(map[entryKey]*Entry),
		byName: make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(em)
	}

	if em.encoder == nil {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("hxpage: token key: %w", err)
		}
		enc, err := encoding.NewEncoder(key)
		if err != nil {
			return nil, err
		}
		em.encoder = enc
	}

	id, err := ids.Generate(0)
	if err != nil {
		return nil, fmt.Errorf("hxpage: initial script id: %w", err)
	}
	em.scriptID = id

	bus.Subscribe(EventAddListener, func(payload any) {
		req, ok := payload.(ListenerRequest)
		if !ok {
			em.logger.Warn().Type("payload", payload).Msg("Ignoring malformed listener request")
			return
		}
		if _, err := em.Record(req.ElementID, req.EventName, req.Handler); err != nil {
			em.logger.Error().Err(err).
				Str("element", req.ElementID).
				Str("event", req.EventName).
				Msg("Listener request rejected")
		}
	})

	return em, nil
}

// Record adds a listener entry and returns it.
func (em *EventManager) Record(elementID, eventName string, h Handler) (*Entry, error) {
	if h.IsZero() {
		return nil, fmt.Errorf("%w: empty handler for %s on %q", ErrInvalidScript, eventName, elementID)
	}
	if em.validate && !h.IsServer() {
		if err := jscheck.Expression(elementID+"."+eventName, h.Script); err != nil {
			return nil, wrapScriptError(err)
		}
	}

	em.mu.Lock()
	defer em.mu.Unlock()

	name, err := em.ids.Generate(0)
	if err != nil {
		return nil, fmt.Errorf("hxpage: entry name: %w", err)
	}
	e := &Entry{Name: name, ElementID: elementID, EventName: eventName, Handler: h}

	key := entryKey{element: elementID, event: eventName}
	if old, ok := em.byKey[key]; ok && em.mode == ModeKeyed {
		i := slices.Index(em.entries, old)
		em.entries[i] = e
		delete(em.byName, old.Name)
		em.ids.Release(old.Name)
	} else {
		em.entries = append(em.entries, e)
	}
	em.byKey[key] = e
	em.byName[name] = e
	return e, nil
}

// Entries returns a copy of the recorded entries in binding order.
func (em *EventManager) Entries() []Entry {
	em.mu.Lock()
	defer em.mu.Unlock()
	out := make([]Entry, len(em.entries))
	for i, e := range em.entries {
		out[i] = *e
	}
	return out
}

// Len returns the number of recorded entries.
func (em *EventManager) Len() int {
	em.mu.Lock()
	defer em.mu.Unlock()
	return len(em.entries)
}

// ScriptID returns the id of the live script, or of the reserved empty
// script before the first refresh.
func (em *EventManager) ScriptID() string {
	em.mu.Lock()
	defer em.mu.Unlock()
	return em.scriptID
}

// Refreshes returns how many scripts have been injected.
func (em *EventManager) Refreshes() int {
	em.mu.Lock()
	defer em.mu.Unlock()
	return em.refreshes
}

// Refresh rebuilds the injected script from every recorded entry and swaps
// it into the document.
//
// A previous script missing from the document is logged and otherwise
// ignored.
func (em *EventManager) Refresh() error {
	em.mu.Lock()
	defer em.mu.Unlock()

	body, err := em.body()
	if err != nil {
		return err
	}
	if em.validate {
		if err := jscheck.Script("hxpage-script", body); err != nil {
			return wrapScriptError(err)
		}
	}

	id, err := em.ids.Generate(0)
	if err != nil {
		return fmt.Errorf("hxpage: script id: %w", err)
	}

	if em.inserted {
		if err := em.doc.RemoveScript(em.scriptID); err != nil {
			em.logger.Warn().
				Err(errors.Join(ErrScriptRemovalFailed, err)).
				Str("script", em.scriptID).
				Msg("Previous script already gone")
		}
	}
	em.ids.Release(em.scriptID)

	em.doc.AppendScript(id, body)
	em.scriptID = id
	em.inserted = true
	em.refreshes++

	em.logger.Debug().
		Str("script", id).
		Int("entries", len(em.entries)).
		Msg("Injected listener script")
	return nil
}

// Body returns the script Refresh would inject now.
func (em *EventManager) Body() (string, error) {
	em.mu.Lock()
	defer em.mu.Unlock()
	return em.body()
}

func (em *EventManager) body() (string, error) {
	var sb scriptBuilder
	for _, e := range em.entries {
		src := e.Handler.Script
		if e.Handler.IsServer() {
			token, err := em.token(e)
			if err != nil {
				return "", err
			}
			src = dispatchStub(token)
		}
		sb.bind(e, src)
	}
	return sb.String(), nil
}

// Lookup returns the live entry with the given name.
func (em *EventManager) Lookup(name string) (Entry, bool) {
	em.mu.Lock()
	defer em.mu.Unlock()
	e, ok := em.byName[name]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// dispatchRef is the payload of a dispatch token.
type dispatchRef struct {
	Name    string `msgpack:"n"`
	Element string `msgpack:"e"`
	Event   string `msgpack:"v"`
}

func (em *EventManager) token(e *Entry) (string, error) {
	return em.encoder.Encode(dispatchRef{Name: e.Name, Element: e.ElementID, Event: e.EventName}, em.sealed)
}

// Resolve verifies a dispatch token and returns the entry it names.
func (em *EventManager) Resolve(token string) (Entry, error) {
	var ref dispatchRef
	if err := em.encoder.Decode(token, em.sealed, &ref); err != nil {
		return Entry{}, wrapTokenError(err)
	}

	e, ok := em.Lookup(ref.Name)
	if !ok || e.ElementID != ref.Element || e.EventName != ref.Event {
		return Entry{}, fmt.Errorf("%w: %s on %q", ErrUnknownHandler, ref.Event, ref.Element)
	}
	if !e.Handler.IsServer() {
		return Entry{}, fmt.Errorf("%w: %s on %q is a client handler", ErrUnknownHandler, ref.Event, ref.Element)
	}
	return e, nil
}
