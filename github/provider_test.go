package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/madea/blog"
	"github.com/eringen/madea/httpcache"
)

func newProvider(t *testing.T, f *fakeGitHub, strategy Strategy, hc *http.Client) blog.DataProvider {
	t.Helper()
	srv := f.start(t)
	if hc == nil {
		hc = srv.Client()
	}
	p, err := New(Options{
		Username:   f.owner,
		HTTPClient: hc,
		BaseURL:    srv.URL,
		Strategy:   strategy,
	})
	require.NoError(t, err)
	return p
}

func eachStrategy(t *testing.T, fn func(t *testing.T, s Strategy)) {
	for _, s := range []Strategy{StrategyREST, StrategyGraphQL} {
		t.Run(string(s), func(t *testing.T) { fn(t, s) })
	}
}

func TestArticleList(t *testing.T) {
	eachStrategy(t, func(t *testing.T, s Strategy) {
		f := newFakeGitHub()
		p := newProvider(t, f, s, nil)

		files, err := p.ArticleList(context.Background())
		require.NoError(t, err)

		sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
		require.Len(t, files, 3)
		assert.Equal(t, []string{"hello-world.md", "notes/draft.mdx", "posts/second.md"},
			[]string{files[0].Path, files[1].Path, files[2].Path})

		hello := files[0]
		assert.Equal(t, "Hello World", hello.Title)
		assert.Equal(t, "# Hello World\n\nFirst post on the blog.", hello.Content)
		assert.Equal(t, blobSHA(hello.Content), hello.SHA)
		assert.Equal(t, "https://github.com/jdoe/madea.blog/blob/trunk/hello-world.md", hello.URL)
		assert.Equal(t, "Jane Doe", hello.CommitInfo.AuthorName)
		assert.Equal(t, "jane@example.com", hello.CommitInfo.AuthorEmail)
		assert.Equal(t, "jdoe", hello.CommitInfo.AuthorUsername)
		assert.Equal(t, "https://avatars.example/jdoe", hello.CommitInfo.AuthorAvatarURL)
		assert.True(t, hello.CommitInfo.Date.Equal(time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)))

		assert.Equal(t, "second", files[2].Title, "title falls back to the file name")
		assert.Equal(t, "jdoe", files[1].CommitInfo.AuthorName, "no history falls back to the owner")
	})
}

func TestArticleListMissingRepo(t *testing.T) {
	eachStrategy(t, func(t *testing.T, s Strategy) {
		f := newFakeGitHub()
		f.noRepo = true
		p := newProvider(t, f, s, nil)

		_, err := p.ArticleList(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, blog.ErrSourceUnavailable)
		assert.NotErrorIs(t, err, blog.ErrNotFound)
	})
}

func TestArticleListRateLimited(t *testing.T) {
	f := newFakeGitHub()
	f.rateLimited = true
	p := newProvider(t, f, StrategyREST, nil)

	_, err := p.ArticleList(context.Background())
	assert.ErrorIs(t, err, blog.ErrSourceUnavailable)
}

func TestArticle(t *testing.T) {
	eachStrategy(t, func(t *testing.T, s Strategy) {
		f := newFakeGitHub()
		p := newProvider(t, f, s, nil)

		a, err := p.Article(context.Background(), "posts/second.md")
		require.NoError(t, err)
		assert.Equal(t, "posts/second.md", a.Path)
		assert.Equal(t, "Second post without a heading.", a.Content)
		assert.Equal(t, blobSHA(a.Content), a.SHA)
		assert.Equal(t, "https://github.com/jdoe/madea.blog/blob/trunk/posts/second.md", a.URL)
		assert.Equal(t, "Jane Doe", a.CommitInfo.AuthorName)
	})
}

func TestArticleNotFound(t *testing.T) {
	eachStrategy(t, func(t *testing.T, s Strategy) {
		f := newFakeGitHub()
		p := newProvider(t, f, s, nil)

		for _, path := range []string{"missing.md", "README.txt", "old.md", "posts"} {
			_, err := p.Article(context.Background(), path)
			assert.ErrorIs(t, err, blog.ErrNotFound, path)
		}
	})
}

func TestArticleMissingRepo(t *testing.T) {
	eachStrategy(t, func(t *testing.T, s Strategy) {
		f := newFakeGitHub()
		f.noRepo = true
		p := newProvider(t, f, s, nil)

		_, err := p.Article(context.Background(), "hello-world.md")
		assert.ErrorIs(t, err, blog.ErrSourceUnavailable)
	})
}

func TestDefaultBranch(t *testing.T) {
	eachStrategy(t, func(t *testing.T, s Strategy) {
		f := newFakeGitHub()
		p := newProvider(t, f, s, nil)

		b, err := p.DefaultBranch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "trunk", b)
	})
}

func TestSourceInfo(t *testing.T) {
	f := newFakeGitHub()
	p := newProvider(t, f, StrategyGraphQL, nil)

	info, err := p.SourceInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, blog.SourceInfo{
		Name:      "Jane Doe",
		Bio:       "Writes things.",
		AvatarURL: "https://avatars.example/jdoe",
		SourceURL: "https://github.com/jdoe/madea.blog",
	}, info)
}

func TestSourceInfoFallsBackToUsername(t *testing.T) {
	f := newFakeGitHub()
	f.noUser = true
	p := newProvider(t, f, StrategyREST, nil)

	info, err := p.SourceInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jdoe", info.Name)
	assert.Equal(t, "https://github.com/jdoe.png", info.AvatarURL)
	assert.Equal(t, "https://github.com/jdoe/madea.blog", info.SourceURL)
}

func TestListingIsServedFromCache(t *testing.T) {
	eachStrategy(t, func(t *testing.T, s Strategy) {
		f := newFakeGitHub()
		hc := &http.Client{Transport: httpcache.NewTransport(nil, httpcache.NewMemoryStore())}
		p := newProvider(t, f, s, hc)

		_, err := p.ArticleList(context.Background())
		require.NoError(t, err)
		before := map[string]int{"repo": f.callCount("repo"), "tree": f.callCount("tree"), "graphql": f.callCount("graphql")}

		_, err = p.ArticleList(context.Background())
		require.NoError(t, err)
		assert.Equal(t, before["repo"], f.callCount("repo"))
		assert.Equal(t, before["tree"], f.callCount("tree"))
		assert.Equal(t, before["graphql"], f.callCount("graphql"))
	})
}

func TestMissingRepoIsNotCached(t *testing.T) {
	eachStrategy(t, func(t *testing.T, s Strategy) {
		f := newFakeGitHub()
		f.setNoRepo(true)
		hc := &http.Client{Transport: httpcache.NewTransport(nil, httpcache.NewMemoryStore())}
		p := newProvider(t, f, s, hc)
		ctx := context.Background()

		_, err := p.DefaultBranch(ctx)
		require.Error(t, err)
		_, err = p.Article(ctx, "hello-world.md")
		require.Error(t, err)

		f.setNoRepo(false)

		b, err := p.DefaultBranch(ctx)
		require.NoError(t, err)
		assert.Equal(t, "trunk", b)
		art, err := p.Article(ctx, "hello-world.md")
		require.NoError(t, err)
		assert.Equal(t, "Hello World", art.Title)
	})
}

func TestNewValidation(t *testing.T) {
	_, err := New(Options{Credentials: Credentials{Token: "t"}})
	assert.ErrorIs(t, err, blog.ErrConfiguration, "username is required")

	_, err = New(Options{Username: "jdoe"})
	assert.ErrorIs(t, err, blog.ErrConfiguration, "credentials are required")

	_, err = New(Options{Username: "jdoe", Credentials: Credentials{Token: "t"}, Strategy: "soap"})
	assert.ErrorIs(t, err, blog.ErrConfiguration)

	p, err := New(Options{Username: "jdoe", Credentials: Credentials{Token: "t"}})
	require.NoError(t, err)
	assert.IsType(t, &GraphQLProvider{}, p, "graphql is the default strategy")
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", StrategyGraphQL, false},
		{"graphql", StrategyGraphQL, false},
		{" REST ", StrategyREST, false},
		{"grpc", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, blog.ErrConfiguration, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewHTTPClientToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
	}))
	t.Cleanup(srv.Close)

	hc, err := NewHTTPClient(Credentials{Token: "s3cret"}, "", nil)
	require.NoError(t, err)
	resp, err := hc.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer s3cret", auth)
}

func TestNewHTTPClientApp(t *testing.T) {
	_, err := NewHTTPClient(Credentials{AppID: 1, InstallationID: 2, PrivateKeyPath: filepath.Join(t.TempDir(), "missing.pem")}, "", nil)
	assert.ErrorIs(t, err, blog.ErrConfiguration)

	bad := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not a key"), 0o600))
	_, err = NewHTTPClient(Credentials{AppID: 1, InstallationID: 2, PrivateKeyPath: bad}, "", nil)
	assert.ErrorIs(t, err, blog.ErrConfiguration)

	_, err = NewHTTPClient(Credentials{AppID: 1}, "", nil)
	assert.ErrorIs(t, err, blog.ErrConfiguration, "partial app credentials")
}

func TestGraphQLEndpoint(t *testing.T) {
	tests := []struct{ base, want string }{
		{"", ""},
		{"https://api.github.com", ""},
		{"https://ghe.example.com/api/v3/", "https://ghe.example.com/api/graphql"},
		{"http://127.0.0.1:9090", "http://127.0.0.1:9090/graphql"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, graphQLEndpoint(tt.base), tt.base)
	}
}

func TestBlobURLEscapesSegments(t *testing.T) {
	ref := repoRef{owner: "jdoe", repo: RepoName, webURL: "https://github.com"}
	tests := []struct{ branch, path, want string }{
		{"main", "hello.md", "https://github.com/jdoe/madea.blog/blob/main/hello.md"},
		{"main", "my notes/a #1.md", "https://github.com/jdoe/madea.blog/blob/main/my%20notes/a%20%231.md"},
		{"release/v1", "posts/x?.md", "https://github.com/jdoe/madea.blog/blob/release/v1/posts/x%3F.md"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ref.blobURL(tt.branch, tt.path), tt.path)
	}
}

func TestArticleURLWithSpaces(t *testing.T) {
	f := newFakeGitHub()
	f.files["my notes/first post.md"] = "# First\n\nBody."
	p := newProvider(t, f, StrategyGraphQL, nil)

	a, err := p.Article(context.Background(), "my notes/first post.md")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/jdoe/madea.blog/blob/trunk/my%20notes/first%20post.md", a.URL)
}
