package hxpage

import (
	"net/http"

	"github.com/a-h/templ"
)

// Render writes a templ component to the HTTP response.
//
// Sets Content-Type to text/html and renders the component using the
// request's context.
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    hxpage.Render(w, r, doc.Page(hxpage.PageOptions{Title: "Home"}))
//	}
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

// IsHTMX returns true if the request carries HX-Request: true.
//
// The client runtime sends it on every dispatch. Browsers do not add it to
// cross-origin form posts, which is what the dispatch endpoint relies on for
// CSRF protection.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// CurrentURL returns the page URL the request was sent from, taken from the
// HX-Current-URL header, or "" when absent.
func CurrentURL(r *http.Request) string {
	return r.Header.Get("HX-Current-URL")
}
