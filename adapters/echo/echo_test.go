package hxpageecho

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pthm/hxpage"
	"github.com/pthm/hxpage/example/pages"
)

func newServer(t *testing.T) *hxpage.Server {
	t.Helper()
	srv, err := hxpage.NewServer(pages.Build, make([]byte, 32),
		hxpage.WithServerLogger(zerolog.Nop()),
		hxpage.WithAppOptions(hxpage.WithLogger(zerolog.Nop())),
	)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func TestMountServesPage(t *testing.T) {
	e := echo.New()
	Mount(e, newServer(t))

	req := httptest.NewRequest(http.MethodGet, pages.HomePath, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET should succeed, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<h1>Hello World</h1>") {
		t.Errorf("page missing title: %s", rec.Body.String())
	}
}

func TestMountGroup(t *testing.T) {
	e := echo.New()
	g := e.Group("")
	MountGroup(g, newServer(t))

	req := httptest.NewRequest(http.MethodGet, pages.AnotherPath, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET should succeed, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<h1>another Page</h1>") {
		t.Errorf("page missing title: %s", rec.Body.String())
	}
}

func TestCSRFProtection(t *testing.T) {
	e := echo.New()
	srv := newServer(t)
	Mount(e, srv)

	// POST without HX-Request header should be forbidden
	req := httptest.NewRequest(http.MethodPost, srv.DispatchPath(), strings.NewReader("t=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("POST without HX-Request should be 403, got %d", rec.Code)
	}
}

func TestDispatchWithoutSession(t *testing.T) {
	e := echo.New()
	srv := newServer(t)
	Mount(e, srv)

	req := httptest.NewRequest(http.MethodPost, srv.DispatchPath(), strings.NewReader("t=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("dispatch without session should be 404, got %d", rec.Code)
	}
}

func TestRender(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	comp := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>hi</p>")
		return err
	})
	if err := Render(c, comp); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if rec.Body.String() != "<p>hi</p>" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
