// Package pages is the demo component tree: a home page with a theme toggle
// and a link to a second page holding a click counter.
package pages

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/a-h/templ"

	"github.com/pthm/hxpage"
	"github.com/pthm/hxpage/lib/ident"
)

// Paths served by the demo.
const (
	HomePath    = "/index.html"
	AnotherPath = "/index.html/anotherPage"
)

// ToggleTheme flips the page between the dark and white themes. It runs in
// the browser and looks the root up itself.
const ToggleTheme = `function(){var root=document.querySelector("#root");root.classList.toggle("dark");root.classList.toggle("white");}`

// Counter renders how often its button was clicked. The count lives in the
// Go closure of a server-side handler.
type Counter struct {
	clicks atomic.Int64
	button *hxpage.Button
}

// NewCounter creates a counter whose button id is drawn from ids.
func NewCounter(ids *ident.Registry) (*Counter, error) {
	c := &Counter{}
	btn, err := hxpage.NewButton(ids, hxpage.Props{
		hxpage.PropLabel: "Count",
		hxpage.PropEventListeners: []hxpage.Listener{{
			Event: "click",
			Handler: hxpage.FuncHandler(func(ctx context.Context, ev hxpage.Event) error {
				n := c.clicks.Add(1)
				ev.State.Set("clicks", n)
				ev.Rerender()
				return nil
			}),
		}},
	})
	if err != nil {
		return nil, err
	}
	c.button = btn
	return c, nil
}

// Clicks returns the click count.
func (c *Counter) Clicks() int64 {
	return c.clicks.Load()
}

// ButtonID returns the id of the counter's button.
func (c *Counter) ButtonID() string {
	return c.button.ID()
}

// Render implements hxpage.Component.
func (c *Counter) Render(ctx context.Context, props hxpage.Props) templ.Component {
	btn := c.button.Render(ctx, props)
	n := c.clicks.Load()
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<p>Clicked %d times</p>", n); err != nil {
			return err
		}
		return btn.Render(ctx, w)
	})
}

// Site holds the demo components so callers can reach their ids.
type Site struct {
	Theme   *hxpage.Button
	Forward *hxpage.Button
	Back    *hxpage.Button
	Counter *Counter
}

// NewSite builds the demo components.
func NewSite(ids *ident.Registry) (*Site, error) {
	theme, err := hxpage.NewButton(ids, hxpage.Props{
		hxpage.PropLabel: "Toggle theme",
		hxpage.PropEventListeners: []hxpage.Listener{
			{Event: "click", Handler: hxpage.ScriptHandler(ToggleTheme)},
		},
	})
	if err != nil {
		return nil, err
	}
	forward, err := hxpage.NewLink(ids, "Go to another page", AnotherPath)
	if err != nil {
		return nil, err
	}
	back, err := hxpage.NewLink(ids, "Back home", HomePath)
	if err != nil {
		return nil, err
	}
	counter, err := NewCounter(ids)
	if err != nil {
		return nil, err
	}
	return &Site{Theme: theme, Forward: forward, Back: back, Counter: counter}, nil
}

// Tree returns the component tree for the site.
func (s *Site) Tree() hxpage.Tree {
	return hxpage.Tree{
		HomePath: {
			{Component: hxpage.NewTitle(nil), Props: hxpage.Props{hxpage.PropText: "Hello World"}},
			{Component: s.Theme},
			{Component: s.Forward},
		},
		AnotherPath: {
			{Component: hxpage.NewTitle(nil), Props: hxpage.Props{hxpage.PropText: "another Page"}},
			{Component: s.Counter},
			{Component: s.Back},
		},
	}
}

// Build is a hxpage.TreeBuilder for the demo.
func Build(ids *ident.Registry) (hxpage.Tree, error) {
	site, err := NewSite(ids)
	if err != nil {
		return nil, err
	}
	return site.Tree(), nil
}
