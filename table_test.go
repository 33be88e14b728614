package trasse

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTableEmpty(t *testing.T) {
	table, err := BuildTable(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())

	_, ok := table.Dispatch(MethodGet, "/anything", "")
	assert.False(t, ok, "An empty table always reports not-found")
}

func TestBuildTableOrdersRoots(t *testing.T) {
	a := buildRoute(t, MethodGet, "/a")
	group := Combine("/g", []Mountable{buildRoute(t, MethodGet, "/b")})
	c := buildRoute(t, MethodGet, "/c")

	table, err := BuildTable([]Mountable{a, group, c})
	require.NoError(t, err)
	assert.Equal(t, []string{"GET /a", "GET /g/b", "GET /c"}, routeSignatures(table))
}

func TestMatchMethodFiltering(t *testing.T) {
	table, err := BuildTable([]Mountable{
		buildRoute(t, MethodGet, "/x"),
		buildRoute(t, MethodPost, "/x"),
	})
	require.NoError(t, err)

	matched, _, ok := table.Match(MethodPost, "/x")
	require.True(t, ok)
	assert.Equal(t, MethodPost, matched.Method())

	_, _, ok = table.Match(MethodDelete, "/x")
	assert.False(t, ok)
}

func TestMatchMethodAny(t *testing.T) {
	table, err := BuildTable([]Mountable{buildRoute(t, MethodAny, "/x")})
	require.NoError(t, err)

	for _, method := range allMethods {
		_, _, ok := table.Match(method, "/x")
		assert.True(t, ok, "MethodAny should match %s", method)
	}
}

func TestMatchFirstMatchWins(t *testing.T) {
	first := buildRoute(t, MethodGet, "/dup")
	second := buildRoute(t, MethodGet, "/dup")

	table, err := BuildTable([]Mountable{first, second}, WithoutCache())
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len(), "Duplicate registrations are kept, not rejected")

	matched, _, ok := table.Match(MethodGet, "/dup")
	require.True(t, ok)
	assert.Same(t, table.Routes()[0], matched, "The earlier declaration shadows later ones")
}

func TestMatchStaticShadowsLaterParam(t *testing.T) {
	static := buildRoute(t, MethodGet, "/users/me")
	param := buildRoute(t, MethodGet, "/users/:id")

	table, err := BuildTable([]Mountable{static, param})
	require.NoError(t, err)

	matched, params, ok := table.Match(MethodGet, "/users/me")
	require.True(t, ok)
	assert.Equal(t, "/users/me", matched.Path())
	assert.Equal(t, 0, params.Len())

	matched, params, ok = table.Match(MethodGet, "/users/42")
	require.True(t, ok)
	assert.Equal(t, "/users/:id", matched.Path())
	assert.Equal(t, "42", params.Get("id"))
}

func TestMatchCacheReturnsSameResolution(t *testing.T) {
	table, err := BuildTable(
		[]Mountable{buildRoute(t, MethodGet, "/users/:id")},
		WithCacheSize(16),
	)
	require.NoError(t, err)
	require.NotNil(t, table.cache)

	first, firstParams, ok := table.Match(MethodGet, "/users/7")
	require.True(t, ok)

	cached, cachedParams, ok := table.Match(MethodGet, "/users/7")
	require.True(t, ok)
	assert.Same(t, first, cached)
	assert.Equal(t, firstParams.Get("id"), cachedParams.Get("id"))
	assert.Equal(t, 1, table.cache.Len())
}

func TestMatchCacheSkipsUncacheableMethods(t *testing.T) {
	table, err := BuildTable([]Mountable{buildRoute(t, MethodPost, "/x")})
	require.NoError(t, err)

	_, _, ok := table.Match(MethodPost, "/x")
	require.True(t, ok)
	assert.Equal(t, 0, table.cache.Len(), "Only GET and HEAD resolutions are cached")
}

func TestMatchWithoutCache(t *testing.T) {
	table, err := BuildTable([]Mountable{buildRoute(t, MethodGet, "/x")}, WithoutCache())
	require.NoError(t, err)
	assert.Nil(t, table.cache)

	_, _, ok := table.Match(MethodGet, "/x")
	assert.True(t, ok)
}

func TestDispatchCarriesParamsAndQuery(t *testing.T) {
	table, err := BuildTable([]Mountable{buildRoute(t, MethodGet, "/users/:id/files/:rest*")})
	require.NoError(t, err)

	d, ok := table.Dispatch(MethodGet, "/users/7/files/a/b", "sort=asc&filter[status]=open")
	require.True(t, ok)

	assert.Equal(t, "7", d.Params.Get("id"))
	assert.Equal(t, []string{"a", "b"}, d.Params.Wildcard("rest"))
	assert.Equal(t, "asc", d.Query.Get("sort"))

	filter, ok := d.Query["filter"].Object()
	require.True(t, ok)
	assert.Equal(t, "open", filter.Get("status"))
}

func TestDispatchNotFoundIsAValue(t *testing.T) {
	table, err := BuildTable([]Mountable{buildRoute(t, MethodGet, "/x")})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		d, ok := table.Dispatch(MethodGet, "/y", "a=1")
		assert.False(t, ok)
		assert.Nil(t, d.Route)
	})
}

func TestMatchConcurrent(t *testing.T) {
	table, err := BuildTable([]Mountable{
		buildRoute(t, MethodGet, "/users/:id"),
		buildRoute(t, MethodPost, "/users"),
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, params, ok := table.Match(MethodGet, "/users/7")
				assert.True(t, ok)
				assert.Equal(t, "7", params.Get("id"))
			}
		}()
	}
	wg.Wait()
}

func TestAllowedMethods(t *testing.T) {
	table, err := BuildTable([]Mountable{
		buildRoute(t, MethodGet, "/x"),
		buildRoute(t, MethodPost, "/x"),
		buildRoute(t, MethodDelete, "/y"),
	})
	require.NoError(t, err)

	allow := table.allowedMethods("/x", MethodDelete)
	assert.Contains(t, allow, MethodGet)
	assert.Contains(t, allow, MethodPost)
	assert.Contains(t, allow, MethodOptions)
	assert.NotContains(t, allow, MethodDelete)

	assert.Equal(t, "", table.allowedMethods("/missing", MethodGet))
}

func TestAllowedMethodsExpandsMethodAny(t *testing.T) {
	table, err := BuildTable([]Mountable{buildRoute(t, MethodAny, "/x")})
	require.NoError(t, err)

	allow := table.allowedMethods("/x", MethodGet)
	assert.Contains(t, allow, MethodPost)
	assert.Contains(t, allow, MethodDelete)
	assert.NotContains(t, allow, MethodGet)
}
