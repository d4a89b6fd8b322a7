package hxpage

// Well-known property keys.
const (
	PropRouter         = "router"
	PropEmitter        = "emitter"
	PropID             = "id"
	PropText           = "text"
	PropLabel          = "label"
	PropEventListeners = "eventListeners"
)

// Props is the property set passed to Component.Render.
type Props map[string]any

// Merge returns a new Props holding p overlaid with other. Neither input is
// modified.
func (p Props) Merge(other Props) Props {
	out := make(Props, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// String returns the string stored under key, or "".
func (p Props) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Bus returns the injected emitter, or nil outside a Router render.
func (p Props) Bus() *Bus {
	b, _ := p[PropEmitter].(*Bus)
	return b
}

// Router returns the injected router, or nil outside a Router render.
func (p Props) Router() *Router {
	r, _ := p[PropRouter].(*Router)
	return r
}

// Listeners returns the listeners stored under PropEventListeners.
func (p Props) Listeners() []Listener {
	switch v := p[PropEventListeners].(type) {
	case []Listener:
		return v
	case Listener:
		return []Listener{v}
	}
	return nil
}
