package hxpage

import (
	"context"
	"strings"

	"github.com/a-h/templ"
)

// Component turns a property set into markup.
//
// Render may have side effects, and the returned templ.Component may have
// more when it is rendered: Button publishes EventAddListener while its
// markup is written, so listeners are requested again on every render.
//
// Example:
//
//	type Badge struct{}
//
//	func (Badge) Render(ctx context.Context, props hxpage.Props) templ.Component {
//	    return templ.Raw(`<span class="badge">` + props.String("text") + `</span>`)
//	}
type Component interface {
	Render(ctx context.Context, props Props) templ.Component
}

// RenderFunc adapts a function to the render half of Component.
type RenderFunc func(ctx context.Context, props Props) templ.Component

// RenderString renders c with props and returns the markup.
func RenderString(ctx context.Context, c Component, props Props) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, props).Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
