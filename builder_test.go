package trasse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopEffect(c *Context) {}

func TestRouteBuilderFullChain(t *testing.T) {
	mw := func(c *Context) { c.Next() }

	route, err := NewRoute().
		Path("/users/:id").
		Method(MethodGet).
		Use(mw).
		Handle(noopEffect)
	require.NoError(t, err)
	require.NotNil(t, route)

	assert.Equal(t, MethodGet, route.Method())
	assert.Equal(t, "/users/:id", route.Path())
	assert.Len(t, route.Middlewares(), 1)
	assert.NotNil(t, route.Effect())
}

func TestRouteBuilderMissingPath(t *testing.T) {
	_, err := NewRoute().Handle(noopEffect)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteRoute)
}

func TestRouteBuilderMissingMethod(t *testing.T) {
	_, err := NewRoute().Path("/x").Handle(noopEffect)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteRoute)
}

func TestRouteBuilderMissingEffect(t *testing.T) {
	_, err := NewRoute().Path("/x").Method(MethodGet).Handle(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteRoute)
}

func TestRouteBuilderMethodBeforePath(t *testing.T) {
	_, err := NewRoute().Method(MethodGet).Path("/x").Handle(noopEffect)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteRoute)
}

func TestRouteBuilderPathSetTwice(t *testing.T) {
	_, err := NewRoute().Path("/x").Path("/y").Method(MethodGet).Handle(noopEffect)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteRoute)
}

func TestRouteBuilderBadTemplate(t *testing.T) {
	_, err := NewRoute().Path("/:rest*/x").Method(MethodGet).Handle(noopEffect)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPatternSyntax, "Template errors surface from finalization")
}

func TestRouteBuilderUnknownMethod(t *testing.T) {
	_, err := NewRoute().Path("/x").Method("FETCH").Handle(noopEffect)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteRoute)
}

func TestRouteBuilderMethodAny(t *testing.T) {
	route, err := NewRoute().Path("/x").Method(MethodAny).Handle(noopEffect)
	require.NoError(t, err)
	assert.Equal(t, MethodAny, route.Method())
}

func TestRouteBuilderUseInterleaves(t *testing.T) {
	var order []string
	first := func(c *Context) { order = append(order, "first") }
	second := func(c *Context) { order = append(order, "second") }
	third := func(c *Context) { order = append(order, "third") }

	route, err := NewRoute().
		Use(first).
		Path("/x").
		Use(second).
		Method(MethodGet).
		Use(third).
		Handle(noopEffect)
	require.NoError(t, err)
	require.Len(t, route.Middlewares(), 3)

	for _, mw := range route.Middlewares() {
		mw(nil)
	}
	assert.Equal(t, []string{"first", "second", "third"}, order, "Call order must be preserved")
}

func TestRouteBuilderFinalizedTwice(t *testing.T) {
	b := NewRoute().Path("/x").Method(MethodGet)

	_, err := b.Handle(noopEffect)
	require.NoError(t, err)

	_, err = b.Handle(noopEffect)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteRoute)
}

func TestRouteBuilderChainFrozenAtFinalization(t *testing.T) {
	mw := func(c *Context) {}
	b := NewRoute().Path("/x").Method(MethodGet).Use(mw)

	route, err := b.Handle(noopEffect)
	require.NoError(t, err)

	b.Use(mw)
	assert.Len(t, route.Middlewares(), 1, "Finalized routes must not observe later Use calls")
}

func TestMustHandle(t *testing.T) {
	assert.Panics(t, func() {
		NewRoute().Path("/x").MustHandle(noopEffect)
	}, "Missing method should panic")

	assert.NotPanics(t, func() {
		NewRoute().Path("/x").Method(MethodGet).MustHandle(noopEffect)
	})
}
