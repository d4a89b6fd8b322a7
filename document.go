package hxpage

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/a-h/templ"
)

//go:embed client.js
var clientRuntime string

// Document is the page the application renders into. The application owns
// one region, replaced wholesale on every render, and at most one injected
// script at a time.
type Document interface {
	ReplaceRegion(markup string)
	AppendScript(id, body string)
	RemoveScript(id string) error
}

// Script is an injected script element.
type Script struct {
	ID   string
	Body string
}

// MemoryDocument is a Document held in memory and serialized as HTML.
type MemoryDocument struct {
	mu      sync.Mutex
	region  string
	scripts []Script
}

// NewMemoryDocument creates an empty document.
func NewMemoryDocument() *MemoryDocument {
	return &MemoryDocument{}
}

// ReplaceRegion implements Document.
func (d *MemoryDocument) ReplaceRegion(markup string) {
	d.mu.Lock()
	d.region = markup
	d.mu.Unlock()
}

// AppendScript implements Document.
func (d *MemoryDocument) AppendScript(id, body string) {
	d.mu.Lock()
	d.scripts = append(d.scripts, Script{ID: id, Body: body})
	d.mu.Unlock()
}

// RemoveScript implements Document.
func (d *MemoryDocument) RemoveScript(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := slices.IndexFunc(d.scripts, func(s Script) bool { return s.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrScriptNotFound, id)
	}
	d.scripts = slices.Delete(d.scripts, i, i+1)
	return nil
}

// Region returns the region markup.
func (d *MemoryDocument) Region() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.region
}

// Scripts returns the injected scripts in document order.
func (d *MemoryDocument) Scripts() []Script {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.scripts)
}

// LastScript returns the most recently appended script.
func (d *MemoryDocument) LastScript() (Script, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.scripts) == 0 {
		return Script{}, false
	}
	return d.scripts[len(d.scripts)-1], true
}

// PageOptions controls the HTML shell written by MemoryDocument.Page.
type PageOptions struct {
	Title        string
	RootID       string // defaults to "root"
	DispatchPath string // endpoint for server-side handlers
}

// Page returns a full HTML page: the region inside the root element, the
// client runtime, then the injected scripts at the end of the body.
func (d *MemoryDocument) Page(opts PageOptions) templ.Component {
	if opts.RootID == "" {
		opts.RootID = "root"
	}
	region := d.Region()
	scripts := d.Scripts()

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
		sb.WriteString(html.EscapeString(opts.Title))
		sb.WriteString("</title>\n</head>\n<body>\n")
		fmt.Fprintf(&sb, "<div id=\"%s\" data-hxpage-dispatch=\"%s\">",
			html.EscapeString(opts.RootID), html.EscapeString(opts.DispatchPath))
		sb.WriteString(region)
		sb.WriteString("</div>\n<script>")
		sb.WriteString(scriptSafe(clientRuntime))
		sb.WriteString("</script>\n")
		for _, s := range scripts {
			fmt.Fprintf(&sb, "<script id=\"%s\">", html.EscapeString(s.ID))
			sb.WriteString(scriptSafe(s.Body))
			sb.WriteString("</script>\n")
		}
		sb.WriteString("</body>\n</html>\n")
		_, err := io.WriteString(w, sb.String())
		return err
	})
}

var scriptEnd = regexp.MustCompile(`(?i)</(script)`)

// scriptSafe keeps a script body from closing its own element early.
func scriptSafe(body string) string {
	return scriptEnd.ReplaceAllString(body, `<\/$1`)
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
