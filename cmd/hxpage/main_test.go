package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/hxpage"
	"github.com/pthm/hxpage/example/pages"
	"github.com/pthm/hxpage/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log.level=disabled"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "hxpage dev")
}

func TestRenderCommand(t *testing.T) {
	out, err := execute(t, "render", pages.HomePath)
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Hello World</h1>")
	assert.Contains(t, out, "Go to another page")
	assert.Contains(t, out, `data-hxpage-dispatch="/_hx/dispatch"`)
	assert.Contains(t, out, `addEventListener("click"`)
	assert.Contains(t, out, "window.hxpage.dispatch(")
}

func TestRenderCommandSecondPage(t *testing.T) {
	out, err := execute(t, "render", "--title", "Demo", pages.AnotherPath)
	require.NoError(t, err)
	assert.Contains(t, out, "<title>Demo</title>")
	assert.Contains(t, out, "<h1>another Page</h1>")
	assert.Contains(t, out, "Clicked 0 times")
}

func TestRenderCommandUnknownPath(t *testing.T) {
	out, err := execute(t, "render", "/nowhere")
	require.NoError(t, err)
	assert.Contains(t, out, `<div id="root" data-hxpage-dispatch="/_hx/dispatch"></div>`)
}

func TestRenderCommandRejectsBadMode(t *testing.T) {
	_, err := execute(t, "--app.mode=sometimes", "render", pages.HomePath)
	assert.Error(t, err)
}

func TestRenderCommandRequiresPath(t *testing.T) {
	_, err := execute(t, "render")
	assert.Error(t, err)
}

func TestAppOptionsRejectsUnknownMode(t *testing.T) {
	cfg := config.Default().App
	cfg.Mode = "both"
	_, err := appOptions(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestAppOptionsIdentifierLength(t *testing.T) {
	cfg := config.Default().App
	cfg.IDLength = 8
	cfg.SealedTokens = true
	opts, err := appOptions(cfg, zerolog.Nop())
	require.NoError(t, err)

	app, err := hxpage.New(pages.Build, opts...)
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, 8, app.Identifiers().Length())
	assert.Len(t, app.Events().ScriptID(), 8)
}

func TestNewEchoServesPages(t *testing.T) {
	cc := &cliContext{cfg: config.Default(), logger: zerolog.Nop()}
	e, srv, err := newEcho(cc)
	require.NoError(t, err)
	defer srv.Close(context.Background())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, pages.HomePath, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Hello World</h1>")
}
