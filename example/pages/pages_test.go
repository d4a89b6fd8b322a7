package pages

import (
	"context"
	"regexp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/hxpage"
	"github.com/pthm/hxpage/lib/ident"
)

// bindingPattern pairs an element id with the dispatch token bound to it.
var bindingPattern = regexp.MustCompile(`getElementById\("([^"]+)"\).*\n.*window\.hxpage\.dispatch\("([^"]+)"`)

func tokenFor(t *testing.T, app *hxpage.Application, elementID string) string {
	t.Helper()
	body, err := app.Events().Body()
	require.NoError(t, err)
	for _, m := range bindingPattern.FindAllStringSubmatch(body, -1) {
		if m[1] == elementID {
			return m[2]
		}
	}
	t.Fatalf("no dispatch token for %q in:\n%s", elementID, body)
	return ""
}

func newApp(t *testing.T, start string) (*hxpage.Application, *hxpage.MemoryDocument, *Site) {
	t.Helper()
	history, err := hxpage.NewMemoryHistory("http://localhost" + start)
	require.NoError(t, err)
	doc := hxpage.NewMemoryDocument()

	var site *Site
	app, err := hxpage.New(func(ids *ident.Registry) (hxpage.Tree, error) {
		s, err := NewSite(ids)
		if err != nil {
			return nil, err
		}
		site = s
		return s.Tree(), nil
	},
		hxpage.WithLogger(zerolog.Nop()),
		hxpage.WithDocument(doc),
		hxpage.WithHistory(history),
		hxpage.WithRefreshDelay(0),
	)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	require.NoError(t, app.Render(context.Background()))
	require.NoError(t, app.Flush())
	return app, doc, site
}

func TestHomePage(t *testing.T) {
	_, doc, site := newApp(t, HomePath)

	assert.Contains(t, doc.Region(), "<h1>Hello World</h1>")
	assert.Contains(t, doc.Region(), `<button id="`+site.Theme.ID()+`">Toggle theme</button>`)
	assert.Contains(t, doc.Region(), `<button id="`+site.Forward.ID()+`">Go to another page</button>`)

	script, ok := doc.LastScript()
	require.True(t, ok)
	assert.Contains(t, script.Body, ToggleTheme, "script handlers are inlined verbatim")
}

func TestNavigateToAnotherPage(t *testing.T) {
	app, doc, site := newApp(t, HomePath)

	var routes []any
	app.Bus().Subscribe(hxpage.EventRouteChanged, func(p any) { routes = append(routes, p) })

	require.NoError(t, app.Dispatch(context.Background(), tokenFor(t, app, site.Forward.ID()), nil))
	assert.Equal(t, []any{AnotherPath}, routes)
	assert.Contains(t, doc.Region(), "<h1>another Page</h1>")
	assert.Contains(t, doc.Region(), "Clicked 0 times")
	assert.Equal(t, AnotherPath, app.Router().Location().Path)

	require.NoError(t, app.Flush())
	require.NoError(t, app.Dispatch(context.Background(), tokenFor(t, app, site.Back.ID()), nil))
	assert.Contains(t, doc.Region(), "<h1>Hello World</h1>")
}

func TestCounterKeepsClosureState(t *testing.T) {
	app, doc, site := newApp(t, AnotherPath)

	for i := 1; i <= 3; i++ {
		require.NoError(t, app.Dispatch(context.Background(), tokenFor(t, app, site.Counter.ButtonID()), nil))
		require.NoError(t, app.Flush())
	}
	assert.Equal(t, int64(3), site.Counter.Clicks())
	assert.Contains(t, doc.Region(), "Clicked 3 times")
	v, ok := app.State().Get("clicks")
	require.True(t, ok)
	assert.Equal(t, int64(3), v)
	assert.Len(t, doc.Scripts(), 1)
}

func TestBuild(t *testing.T) {
	tree, err := Build(ident.NewRegistry())
	require.NoError(t, err)
	assert.Len(t, tree, 2)
	assert.Len(t, tree[HomePath], 3)
	assert.Len(t, tree[AnotherPath], 3)
}
