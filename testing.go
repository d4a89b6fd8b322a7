package hxpage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
)

// TestResult holds the result of rendering a component or page for testing.
type TestResult struct {
	HTML       string
	StatusCode int
	Headers    http.Header
	Cookies    []*http.Cookie

	// Listeners are the EventAddListener requests published while rendering.
	Listeners []ListenerRequest
}

// TestRender renders a component with a fresh bus injected as the emitter
// and records every listener request it publishes.
//
// Use this for unit tests of a single component:
//
//	btn, _ := hxpage.NewButton(ident.NewRegistry(), nil)
//	result, err := hxpage.TestRender(btn, nil)
//	if len(result.Listeners) != 1 {
//	    t.Fatal("expected one listener request")
//	}
func TestRender(c Component, props Props) (*TestResult, error) {
	return TestRenderWithContext(context.Background(), c, props)
}

// TestRenderWithContext renders a component with a custom context.
func TestRenderWithContext(ctx context.Context, c Component, props Props) (*TestResult, error) {
	bus := NewBus()
	result := &TestResult{
		StatusCode: http.StatusOK,
		Headers:    make(http.Header),
	}
	bus.Subscribe(EventAddListener, func(payload any) {
		if req, ok := payload.(ListenerRequest); ok {
			result.Listeners = append(result.Listeners, req)
		}
	})

	html, err := RenderString(ctx, c, props.Merge(Props{PropEmitter: bus}))
	if err != nil {
		return nil, err
	}
	result.HTML = html
	return result, nil
}

// TestGet issues a GET for path against h, sending cookies, and returns the
// response.
func TestGet(h http.Handler, path string, cookies ...*http.Cookie) *TestResult {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	return testDo(h, req, cookies)
}

// TestDispatch posts a dispatch token to the server's dispatch endpoint the
// way the client runtime does.
func TestDispatch(s *Server, token string, cookies ...*http.Cookie) *TestResult {
	form := url.Values{"t": {token}}
	req := httptest.NewRequest(http.MethodPost, s.DispatchPath(), strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return testDo(s.Handler(), req, cookies)
}

func testDo(h http.Handler, req *http.Request, cookies []*http.Cookie) *TestResult {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return &TestResult{
		HTML:       rec.Body.String(),
		StatusCode: rec.Code,
		Headers:    rec.Header(),
		Cookies:    rec.Result().Cookies(),
	}
}

// HTMLContains checks if the HTML contains a substring.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll checks if the HTML contains all the given substrings.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.HTML, s) {
			return false
		}
	}
	return true
}

// HasListener checks if a listener was requested for the element and event.
func (r *TestResult) HasListener(elementID, event string) bool {
	for _, l := range r.Listeners {
		if l.ElementID == elementID && l.EventName == event {
			return true
		}
	}
	return false
}

// IsOK returns true if the status code is 2xx.
func (r *TestResult) IsOK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
