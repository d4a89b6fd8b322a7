// Package hxpageecho provides Echo framework integration for hxpage servers.
//
// Mount a server onto an Echo instance or group:
//
//	e := echo.New()
//	srv, _ := hxpage.NewServer(pages.Build, key)
//	hxpageecho.Mount(e, srv)
//
// Or mount on a group with middleware:
//
//	g := e.Group("", authMiddleware)
//	hxpageecho.MountGroup(g, srv)
package hxpageecho

import (
	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/pthm/hxpage"
)

// Mount routes the dispatch endpoint and every page path of srv on e.
func Mount(e *echo.Echo, srv *hxpage.Server) {
	h := echo.WrapHandler(srv.Handler())
	e.POST(srv.DispatchPath(), h)
	e.GET("/*", h)
	e.HEAD("/*", h)
}

// MountGroup routes srv on a group so pages and dispatches share the
// group's middleware (auth, logging, etc.).
func MountGroup(g *echo.Group, srv *hxpage.Server) {
	h := echo.WrapHandler(srv.Handler())
	g.POST(srv.DispatchPath(), h)
	g.GET("/*", h)
	g.HEAD("/*", h)
}

// Render writes a templ component to the Echo response.
//
//	func handler(c echo.Context) error {
//	    return hxpageecho.Render(c, page)
//	}
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.Request().Context(), c.Response())
}
