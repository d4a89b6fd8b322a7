package hxpage

import (
	"context"
	"net/url"
)

// HandlerFunc is a server-side event handler. It runs in the application's
// control flow, so it may use anything it closes over.
type HandlerFunc func(ctx context.Context, ev Event) error

// Handler describes what runs when a bound DOM event fires.
//
// A Script handler is client source text, typically a function expression,
// inlined verbatim into the injected script. It must be self-contained:
// variables it closes over in Go or in another script are not available on
// the page.
//
// A Func handler stays on the server. The injected script binds a stub that
// posts a signed dispatch token, and the Application looks the handler up by
// that token and calls it. When both are set, Func wins.
type Handler struct {
	Script string
	Func   HandlerFunc
}

// ScriptHandler returns a client-side handler.
func ScriptHandler(src string) Handler {
	return Handler{Script: src}
}

// FuncHandler returns a server-side handler.
func FuncHandler(fn HandlerFunc) Handler {
	return Handler{Func: fn}
}

// IsZero reports whether the handler has nothing to run.
func (h Handler) IsZero() bool {
	return h.Func == nil && h.Script == ""
}

// IsServer reports whether the handler is dispatched to the server.
func (h Handler) IsServer() bool {
	return h.Func != nil
}

// Listener pairs a DOM event name with a handler.
type Listener struct {
	Event   string
	Handler Handler
}

// ListenerRequest is the payload of EventAddListener.
type ListenerRequest struct {
	ElementID string
	EventName string
	Handler   Handler
}

// Event is passed to a HandlerFunc.
type Event struct {
	Name      string // DOM event name, e.g. "click"
	ElementID string
	Form      url.Values // values posted with the dispatch, if any

	Bus    *Bus
	State  *State
	Router *Router
}

// Navigate requests navigation to path through the bus.
func (e Event) Navigate(path string) {
	e.Bus.Publish(EventNavigate, path)
}

// Rerender requests a full render through the bus.
func (e Event) Rerender() {
	e.Bus.Publish(EventRerender, nil)
}
