package hxpage

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/pthm/hxpage/lib/ident"
)

// DefaultButtonLabel is the label of a Button built without one.
const DefaultButtonLabel = "Click Me"

// DefaultClickHandler is bound to a Button built without listeners.
var DefaultClickHandler = ScriptHandler(`function(){console.log("hello, World");}`)

// Func wraps a caller-supplied render function and its initial props.
type Func struct {
	props  Props
	render RenderFunc
}

// NewFunc creates a custom component. Render passes the incoming props to
// fn unchanged.
func NewFunc(props Props, fn RenderFunc) *Func {
	return &Func{props: props, render: fn}
}

// Props returns the props the component was created with.
func (c *Func) Props() Props {
	return c.props
}

// Render implements Component.
func (c *Func) Render(ctx context.Context, props Props) templ.Component {
	if c.render == nil {
		return templ.NopComponent
	}
	return c.render(ctx, props)
}

// Static returns a component that always renders markup as-is.
func Static(markup string) *Func {
	return NewFunc(nil, func(context.Context, Props) templ.Component {
		return templ.Raw(markup)
	})
}

// Title renders an <h1> around its text property.
//
// The text is not escaped; callers supply trusted markup.
type Title struct {
	props Props
}

// NewTitle creates a title with the given stored props.
func NewTitle(props Props) *Title {
	return &Title{props: props.Merge(nil)}
}

// Render merges props over the stored props and renders the heading.
func (c *Title) Render(ctx context.Context, props Props) templ.Component {
	c.props = c.props.Merge(props)
	text := c.props.String(PropText)
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<h1>"+text+"</h1>")
		return err
	})
}

// Button renders a <button> and requests its listeners on every render.
type Button struct {
	props Props
}

// NewButton creates a button, filling in the label, listeners and id when
// props leave them unset. The id is drawn from ids at its configured length.
func NewButton(ids *ident.Registry, props Props) (*Button, error) {
	p := props.Merge(nil)
	if p.String(PropLabel) == "" {
		p[PropLabel] = DefaultButtonLabel
	}
	if len(p.Listeners()) == 0 {
		p[PropEventListeners] = []Listener{{Event: "click", Handler: DefaultClickHandler}}
	}
	if p.String(PropID) == "" {
		id, err := ids.Generate(0)
		if err != nil {
			return nil, err
		}
		p[PropID] = id
	}
	return &Button{props: p}, nil
}

// ID returns the element id the button renders with.
func (c *Button) ID() string {
	return c.props.String(PropID)
}

// Render merges props over the stored props. Rendering the returned
// component publishes one EventAddListener per listener before writing the
// markup; without an emitter in props nothing is published.
func (c *Button) Render(ctx context.Context, props Props) templ.Component {
	c.props = c.props.Merge(props)
	p := c.props
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		id := p.String(PropID)
		if bus := p.Bus(); bus != nil {
			for _, l := range p.Listeners() {
				bus.Publish(EventAddListener, ListenerRequest{
					ElementID: id,
					EventName: l.Event,
					Handler:   l.Handler,
				})
			}
		}
		_, err := io.WriteString(w, `<button id="`+id+`">`+p.String(PropLabel)+`</button>`)
		return err
	})
}

// NewLink creates a button that navigates to path when clicked. Navigation
// goes through EventNavigate, so the link needs no Router reference.
func NewLink(ids *ident.Registry, label, path string) (*Button, error) {
	return NewButton(ids, Props{
		PropLabel: label,
		PropEventListeners: []Listener{{
			Event: "click",
			Handler: FuncHandler(func(ctx context.Context, ev Event) error {
				ev.Navigate(path)
				return nil
			}),
		}},
	})
}
