package github

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
)

// fakeGitHub serves the slice of the REST and GraphQL APIs the providers use.
type fakeGitHub struct {
	owner, repo string
	branch      string
	files       map[string]string // path -> content
	dirs        []string
	noRepo      bool
	rateLimited bool
	noUser      bool
	searchRepos []map[string]any

	mu    sync.Mutex
	calls map[string]int
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{
		owner:  "jdoe",
		repo:   RepoName,
		branch: "trunk",
		files: map[string]string{
			"hello-world.md":  "# Hello World\n\nFirst post on the blog.",
			"posts/second.md": "Second post without a heading.",
			"notes/draft.mdx": "# Draft\n\nStill thinking.",
			"README.txt":      "not markdown",
			"img/logo.png":    "binary",
		},
		dirs:  []string{"posts", "notes", "img", "old.md"},
		calls: map[string]int{},
	}
}

func blobSHA(content string) string {
	sum := sha1.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

func (f *fakeGitHub) count(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeGitHub) setNoRepo(v bool) {
	f.mu.Lock()
	f.noRepo = v
	f.mu.Unlock()
}

func (f *fakeGitHub) repoMissing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.noRepo
}

func (f *fakeGitHub) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeGitHub) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	repoPath := "/repos/" + f.owner + "/" + f.repo

	mux.HandleFunc("GET "+repoPath, func(w http.ResponseWriter, r *http.Request) {
		f.count("repo")
		if !f.guard(w) {
			return
		}
		writeJSON(w, map[string]any{"name": f.repo, "full_name": f.owner + "/" + f.repo, "default_branch": f.branch})
	})
	mux.HandleFunc("GET "+repoPath+"/git/trees/{sha}", func(w http.ResponseWriter, r *http.Request) {
		f.count("tree")
		if !f.guard(w) {
			return
		}
		if r.PathValue("sha") != f.branch || r.URL.Query().Get("recursive") == "" {
			notFound(w)
			return
		}
		var entries []map[string]any
		for _, d := range f.dirs {
			entries = append(entries, map[string]any{"path": d, "type": "tree", "sha": blobSHA(d)})
		}
		for _, p := range f.sortedPaths() {
			entries = append(entries, map[string]any{"path": p, "type": "blob", "sha": blobSHA(f.files[p])})
		}
		writeJSON(w, map[string]any{"sha": "root", "tree": entries, "truncated": false})
	})
	mux.HandleFunc("GET "+repoPath+"/git/blobs/{sha}", func(w http.ResponseWriter, r *http.Request) {
		f.count("blob")
		for _, c := range f.files {
			if blobSHA(c) == r.PathValue("sha") {
				writeJSON(w, map[string]any{"sha": blobSHA(c), "encoding": "base64", "content": wrap76(base64.StdEncoding.EncodeToString([]byte(c)))})
				return
			}
		}
		notFound(w)
	})
	mux.HandleFunc("GET "+repoPath+"/commits", func(w http.ResponseWriter, r *http.Request) {
		f.count("commits")
		q := r.URL.Query()
		if q.Get("per_page") != "1" || q.Get("sha") != f.branch {
			http.Error(w, `{"message":"bad query"}`, http.StatusUnprocessableEntity)
			return
		}
		path := q.Get("path")
		if path == "notes/draft.mdx" {
			writeJSON(w, []any{})
			return
		}
		writeJSON(w, []map[string]any{{
			"sha": "c0ffee",
			"commit": map[string]any{"author": map[string]any{
				"name": "Jane Doe", "email": "jane@example.com", "date": "2025-03-04T05:06:07Z",
			}},
			"author": map[string]any{"login": f.owner, "avatar_url": "https://avatars.example/jdoe"},
		}})
	})
	mux.HandleFunc("GET "+repoPath+"/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		f.count("contents")
		if !f.guard(w) {
			return
		}
		path := r.PathValue("path")
		if r.URL.Query().Get("ref") != f.branch {
			notFound(w)
			return
		}
		for _, d := range f.dirs {
			if d == path {
				writeJSON(w, []map[string]any{{"type": "file", "path": d + "/x.md", "name": "x.md"}})
				return
			}
		}
		c, ok := f.files[path]
		if !ok {
			notFound(w)
			return
		}
		writeJSON(w, map[string]any{
			"type": "file", "path": path, "sha": blobSHA(c),
			"encoding": "base64", "content": base64.StdEncoding.EncodeToString([]byte(c)),
		})
	})
	mux.HandleFunc("GET /users/{user}", func(w http.ResponseWriter, r *http.Request) {
		f.count("user")
		if f.noUser || r.PathValue("user") != f.owner {
			notFound(w)
			return
		}
		writeJSON(w, map[string]any{"login": f.owner, "name": "Jane Doe", "bio": "Writes things.", "avatar_url": "https://avatars.example/jdoe"})
	})
	mux.HandleFunc("GET /search/repositories", func(w http.ResponseWriter, r *http.Request) {
		f.count("search")
		if r.URL.Query().Get("q") != f.repo+" in:name" {
			http.Error(w, `{"message":"bad query"}`, http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, map[string]any{"total_count": len(f.searchRepos), "items": f.searchRepos})
	})
	mux.HandleFunc("POST /graphql", f.graphql)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// guard fails the request the way GitHub does for a missing repository or
// an exhausted rate limit.
func (f *fakeGitHub) guard(w http.ResponseWriter) bool {
	switch {
	case f.rateLimited:
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1893456000")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"API rate limit exceeded for 127.0.0.1."}`)
		return false
	case f.repoMissing():
		notFound(w)
		return false
	}
	return true
}

func (f *fakeGitHub) graphql(w http.ResponseWriter, r *http.Request) {
	f.count("graphql")
	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if f.repoMissing() || req.Variables["owner"] != f.owner {
		writeJSON(w, map[string]any{
			"data":   map[string]any{"repository": nil},
			"errors": []map[string]any{{"type": "NOT_FOUND", "message": "Could not resolve to a Repository."}},
		})
		return
	}
	branchRef := map[string]any{"name": f.branch}
	repo := map[string]any{"defaultBranchRef": branchRef}
	if strings.Contains(req.Query, "object(") {
		f.count("graphql_article")
		path, _ := req.Variables["path"].(string)
		if req.Variables["expression"] != "HEAD:"+path {
			http.Error(w, "bad expression", http.StatusBadRequest)
			return
		}
		if c, ok := f.files[path]; ok {
			repo["object"] = map[string]any{"__typename": "Blob", "oid": blobSHA(c), "text": c, "isBinary": false}
		} else {
			repo["object"] = nil
		}
		nodes := []any{}
		if path != "notes/draft.mdx" {
			nodes = append(nodes, map[string]any{
				"committedDate": "2025-03-05T00:00:00Z",
				"author": map[string]any{
					"name": "Jane Doe", "email": "jane@example.com", "date": "2025-03-04T05:06:07Z",
					"avatarUrl": "https://avatars.example/jdoe", "user": map[string]any{"login": f.owner},
				},
			})
		}
		branchRef["target"] = map[string]any{"history": map[string]any{"nodes": nodes}}
	}
	writeJSON(w, map[string]any{"data": map[string]any{"repository": repo}})
}

func (f *fakeGitHub) sortedPaths() []string {
	paths := make([]string, 0, len(f.files))
	for p := range f.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprint(w, `{"message":"Not Found"}`)
}

// wrap76 breaks base64 text into lines the way the blobs API does.
func wrap76(s string) string {
	var b strings.Builder
	for len(s) > 76 {
		b.WriteString(s[:76])
		b.WriteByte('\n')
		s = s[76:]
	}
	b.WriteString(s)
	return b.String()
}
