package httpcache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct{ hits, misses atomic.Int32 }

func (o *countingObserver) ObserveCache(hit bool) {
	if hit {
		o.hits.Add(1)
	} else {
		o.misses.Add(1)
	}
}

func newUpstream(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"path":%q,"body":%q,"call":%d}`, r.URL.Path, body, n)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func get(t *testing.T, c *http.Client, ctx context.Context, url string) (string, *http.Response) {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b), resp
}

func TestTransportCachesWithTTL(t *testing.T) {
	srv, calls := newUpstream(t)
	obs := &countingObserver{}
	tr := NewTransport(nil, NewMemoryStore())
	tr.Observer = obs
	c := &http.Client{Transport: tr}
	ctx := WithTTL(context.Background(), time.Minute)

	first, resp := get(t, c, ctx, srv.URL+"/a")
	assert.Empty(t, resp.Header.Get(HeaderCache))
	second, resp := get(t, c, ctx, srv.URL+"/a")
	assert.Equal(t, "hit", resp.Header.Get(HeaderCache))

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), obs.hits.Load())
	assert.Equal(t, int32(1), obs.misses.Load())
}

func TestTransportSkipsWithoutTTL(t *testing.T) {
	srv, calls := newUpstream(t)
	c := &http.Client{Transport: NewTransport(nil, NewMemoryStore())}

	get(t, c, context.Background(), srv.URL+"/a")
	get(t, c, context.Background(), srv.URL+"/a")
	assert.Equal(t, int32(2), calls.Load())
}

func TestTransportKeysByURL(t *testing.T) {
	srv, calls := newUpstream(t)
	c := &http.Client{Transport: NewTransport(nil, NewMemoryStore())}
	ctx := WithTTL(context.Background(), time.Minute)

	a, _ := get(t, c, ctx, srv.URL+"/repos/alice/madea.blog")
	b, _ := get(t, c, ctx, srv.URL+"/repos/bob/madea.blog")
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "alice")
	assert.Contains(t, b, "bob")
	assert.Equal(t, int32(2), calls.Load())
}

func TestTransportDoesNotCacheErrors(t *testing.T) {
	srv, calls := newUpstream(t)
	c := &http.Client{Transport: NewTransport(nil, NewMemoryStore())}
	ctx := WithTTL(context.Background(), time.Minute)

	_, resp := get(t, c, ctx, srv.URL+"/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_, resp = get(t, c, ctx, srv.URL+"/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTransportKeysPostByBody(t *testing.T) {
	srv, calls := newUpstream(t)
	c := &http.Client{Transport: NewTransport(nil, NewMemoryStore())}
	ctx := WithTTL(context.Background(), time.Minute)

	post := func(body string) string {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/graphql", strings.NewReader(body))
		require.NoError(t, err)
		resp, err := c.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return string(b)
	}

	q1 := post(`{"query":"q","variables":{"path":"a.md"}}`)
	q1again := post(`{"query":"q","variables":{"path":"a.md"}}`)
	q2 := post(`{"query":"q","variables":{"path":"b.md"}}`)

	assert.Equal(t, q1, q1again)
	assert.NotEqual(t, q1, q2)
	assert.Contains(t, q1, "a.md", "upstream must still receive the request body")
	assert.Equal(t, int32(2), calls.Load())
}

func TestTransportSkipsGraphQLErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"repository":null},"errors":[{"type":"NOT_FOUND"}]}`)
	}))
	t.Cleanup(srv.Close)
	c := &http.Client{Transport: NewTransport(nil, NewMemoryStore())}
	ctx := WithTTL(context.Background(), time.Minute)

	for range 2 {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, srv.URL+"/graphql", strings.NewReader(`{"query":"q"}`))
		require.NoError(t, err)
		resp, err := c.Do(req)
		require.NoError(t, err)
		b, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.Contains(t, string(b), "NOT_FOUND", "caller must still see the body")
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestTransportIgnoresOtherMethods(t *testing.T) {
	srv, calls := newUpstream(t)
	c := &http.Client{Transport: NewTransport(nil, NewMemoryStore())}
	ctx := WithTTL(context.Background(), time.Minute)

	for range 2 {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, srv.URL+"/a", http.NoBody)
		require.NoError(t, err)
		resp, err := c.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestTTLFrom(t *testing.T) {
	_, ok := TTLFrom(context.Background())
	assert.False(t, ok)
	_, ok = TTLFrom(WithTTL(context.Background(), 0))
	assert.False(t, ok)
	d, ok := TTLFrom(WithTTL(context.Background(), TTLContent))
	assert.True(t, ok)
	assert.Equal(t, 10*time.Minute, d)
}
