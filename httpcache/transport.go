package httpcache

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
)

// HeaderCache is set on responses served from the cache.
const HeaderCache = "X-Madea-Cache"

// Observer is notified of every cache decision.
type Observer interface {
	ObserveCache(hit bool)
}

// Transport is an http.RoundTripper that serves and stores responses for
// requests whose context carries a TTL (see WithTTL). Only GET and POST
// requests with a 200 response are stored, and a POST response is stored
// only when it is a JSON document without a GraphQL "errors" entry. Store failures are ignored; the
// request simply goes to the network.
type Transport struct {
	Base     http.RoundTripper // nil means http.DefaultTransport
	Store    Store
	Observer Observer // optional
}

// NewTransport wraps base with a cache backed by store.
func NewTransport(base http.RoundTripper, store Store) *Transport {
	return &Transport{Base: base, Store: store}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ttl, ok := TTLFrom(req.Context())
	if !ok || t.Store == nil || (req.Method != http.MethodGet && req.Method != http.MethodPost) {
		return t.base().RoundTrip(req)
	}

	req, key, err := requestKey(req)
	if err != nil {
		return nil, err
	}

	ctx := req.Context()
	if data, found, err := t.Store.Get(ctx, key); err == nil && found {
		if resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(data)), req); err == nil {
			t.observe(true)
			resp.Header.Set(HeaderCache, "hit")
			return resp, nil
		}
	}
	t.observe(false)

	resp, err := t.base().RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		return resp, err
	}
	if req.Method == http.MethodPost {
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		resp.Body = io.NopCloser(bytes.NewReader(body))
		if !cacheableGraphQL(body) {
			return resp, nil
		}
	}
	dump, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return resp, nil
	}
	_ = t.Store.Set(ctx, key, dump, ttl)
	return resp, nil
}

// cacheableGraphQL reports whether body is a GraphQL result without errors.
// GitHub answers missing repositories and rate limits with 200 and an
// errors array.
func cacheableGraphQL(body []byte) bool {
	var doc struct {
		Errors []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return false
	}
	return len(doc.Errors) == 0
}

func (t *Transport) observe(hit bool) {
	if t.Observer != nil {
		t.Observer.ObserveCache(hit)
	}
}

// requestKey derives the cache key for req. POST bodies are read and hashed,
// so a clone of req with a fresh body is returned alongside the key.
func requestKey(req *http.Request) (*http.Request, string, error) {
	key := req.Method + " " + req.URL.String()
	if accept := req.Header.Get("Accept"); accept != "" {
		key += " accept=" + accept
	}
	if req.Method != http.MethodPost || req.Body == nil || req.Body == http.NoBody {
		return req, key, nil
	}

	body, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, "", fmt.Errorf("read request body: %w", err)
	}
	clone := req.Clone(req.Context())
	clone.Body = io.NopCloser(bytes.NewReader(body))
	clone.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	sum := sha256.Sum256(body)
	return clone, key + " body=" + hex.EncodeToString(sum[:]), nil
}
