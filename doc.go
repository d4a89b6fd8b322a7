// Package hxpage is a small UI framework that renders component trees into
// one page region and re-binds DOM event handlers after every render.
//
// Every render replaces the region's markup wholesale, which drops every
// native event binding. Components therefore ask for their listeners again
// each time they render, and after each render the framework writes one
// injected script that binds all recorded listeners.
//
// # Core Concepts
//
// The Application owns one of each collaborator, all sharing a Bus:
//
//   - Bus: synchronous publish/subscribe. Publish runs subscribers in
//     subscription order before returning.
//   - State: a keyed bag whose writes publish EventStateChanged.
//   - Router: maps paths to ordered component lists and renders the list
//     for the current Location. Navigation publishes EventRouteChanged.
//   - EventManager: records EventAddListener requests and rebuilds the
//     injected script on Refresh.
//
// Render and refresh are decoupled: Application.Render writes the region
// and schedules a refresh after a short delay, so the elements exist before
// the script looks them up. Each render supersedes any refresh still
// pending.
//
// # Components
//
// Components implement Render(ctx, Props) templ.Component. The Router
// injects itself and the bus under PropRouter and PropEmitter:
//
//	tree := hxpage.Tree{
//	    "/": {
//	        {Component: hxpage.NewTitle(nil), Props: hxpage.Props{"text": "Hello World"}},
//	        {Component: button},
//	    },
//	}
//
// # Handlers
//
// A Script handler is client source inlined verbatim into the injected
// script; it cannot see anything it closed over. A Func handler stays on the
// server: the script binds a stub that posts a signed token (encrypted with
// WithSealedTokens), and Application.Dispatch runs the Go function with its
// closure intact.
//
//	nav := hxpage.FuncHandler(func(ctx context.Context, ev hxpage.Event) error {
//	    ev.Navigate("/about")
//	    return nil
//	})
//
// # Serving
//
// Server gives every browser session its own Application and serves full
// pages on GET and JSON updates on dispatch. Paths outside the tree get a
// 404, and sessions idle past WithSessionTTL are closed:
//
//	srv, _ := hxpage.NewServer(buildTree, key)
//	http.ListenAndServe(":8080", srv.Handler())
package hxpage
