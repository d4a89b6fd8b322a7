package hxpage

import (
	"context"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/rs/zerolog"
)

// Mount places a component with static props in a Tree.
type Mount struct {
	Component Component
	Props     Props
}

// Tree maps a path to the components rendered at it, in order.
type Tree map[string][]Mount

// Router owns the current location and renders the tree for it.
//
// Location may be read from any goroutine; navigation is expected to be
// serialized by the caller.
type Router struct {
	bus     *Bus
	history History
	tree    Tree
	logger  zerolog.Logger

	mu       sync.RWMutex
	location Location
}

// NewRouter creates a router positioned at the history's current location.
// The tree is copied; later changes to it are not seen.
//
// The router subscribes to EventNavigate so components can request
// navigation through the bus.
func NewRouter(bus *Bus, history History, tree Tree, logger zerolog.Logger) *Router {
	copied := make(Tree, len(tree))
	for path, mounts := range tree {
		copied[path] = slices.Clone(mounts)
	}

	r := &Router{
		bus:      bus,
		history:  history,
		tree:     copied,
		location: history.Location(),
		logger:   logger,
	}

	bus.Subscribe(EventNavigate, func(payload any) {
		path, ok := payload.(string)
		if !ok {
			r.logger.Warn().Type("payload", payload).Msg("Ignoring navigation request without a path")
			return
		}
		if err := r.NavigateTo(path); err != nil {
			r.logger.Error().Err(err).Str("path", path).Msg("Navigation failed")
		}
	})
	return r
}

// Location returns the current location.
func (r *Router) Location() Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.location
}

// Has reports whether path is registered in the tree.
func (r *Router) Has(path string) bool {
	_, ok := r.tree[path]
	return ok
}

// Paths returns the registered paths in sorted order.
func (r *Router) Paths() []string {
	return slices.Sorted(maps.Keys(r.tree))
}

// NavigateTo pushes path onto the history, re-reads the location and
// publishes EventRouteChanged with the new path.
func (r *Router) NavigateTo(path string) error {
	if err := r.history.Push(path); err != nil {
		return err
	}
	loc := r.history.Location()
	r.mu.Lock()
	r.location = loc
	r.mu.Unlock()

	r.logger.Debug().Str("path", loc.Path).Msg("Route changed")
	r.bus.Publish(EventRouteChanged, loc.Path)
	return nil
}

// View returns a templ component rendering every mount registered for the
// current path, in order and without separators. An unregistered path
// renders nothing.
func (r *Router) View() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, m := range r.tree[r.Location().Path] {
			props := m.Props.Merge(Props{
				PropRouter:  r,
				PropEmitter: r.bus,
			})
			if err := m.Component.Render(ctx, props).Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

// Render returns the markup for the current path.
func (r *Router) Render(ctx context.Context) (string, error) {
	var sb strings.Builder
	if err := r.View().Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
