package madea

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/madea/blog"
)

type stubProvider struct {
	articles []blog.FileInfo
	source   blog.SourceInfo
	branch   string
	err      error
}

func (s *stubProvider) ArticleList(context.Context) ([]blog.FileInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]blog.FileInfo, len(s.articles))
	copy(out, s.articles)
	return out, nil
}

func (s *stubProvider) Article(_ context.Context, path string) (*blog.FileInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, a := range s.articles {
		if a.Path == path {
			a := a
			return &a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", blog.ErrNotFound, path)
}

func (s *stubProvider) SourceInfo(context.Context) (blog.SourceInfo, error) {
	if s.err != nil {
		return blog.SourceInfo{}, s.err
	}
	return s.source, nil
}

func (s *stubProvider) DefaultBranch(context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.branch, nil
}

func sampleProvider() *stubProvider {
	return &stubProvider{
		articles: []blog.FileInfo{
			blog.NewFileInfo("hello.md", "# Hello\n\nFirst post body.", "a1", "https://github.com/jdoe/madea.blog/blob/main/hello.md",
				blog.CommitInfo{Date: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), AuthorName: "Jane Doe"}),
			blog.NewFileInfo("posts/newer.md", "# Newer\n\nSecond post body.", "b2", "https://github.com/jdoe/madea.blog/blob/main/posts/newer.md",
				blog.CommitInfo{Date: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), AuthorName: "Jane Doe"}),
		},
		source: blog.SourceInfo{Name: "Jane Doe", SourceURL: "https://github.com/jdoe/madea.blog"},
		branch: "main",
	}
}

func textComponent(format string, args ...any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, format, args...)
		return err
	})
}

func testViews() ViewFuncs {
	return ViewFuncs{
		Landing: func(Page) templ.Component { return textComponent("landing") },
		FileBrowser: func(page Page, p blog.FileBrowserProps) templ.Component {
			return textComponent("browser:%s:%d:%s", p.Username, len(p.Articles), page.BaseURL)
		},
		Article: func(_ Page, p blog.ArticleProps) templ.Component {
			return textComponent("article:%s:%s", p.Article.Path, p.Branch)
		},
		NoRepoFound: func(_ Page, p blog.NoRepoFoundProps) templ.Component {
			return textComponent("no-repo:%s", p.Username)
		},
		NotFound:    func(Page) templ.Component { return textComponent("not-found") },
		ServerError: func(Page) templ.Component { return textComponent("server-error") },
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestApp serves every username from p.
func newTestApp(t *testing.T, cfg SiteConfig, p blog.DataProvider, opts ...Option) *App {
	t.Helper()
	factory := func(string) (blog.DataProvider, error) { return p, nil }
	return newTestAppWithFactory(t, cfg, factory, opts...)
}

func newTestAppWithFactory(t *testing.T, cfg SiteConfig, factory ProviderFactory, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	a := New(cfg, testViews(), factory, opts...)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func get(t *testing.T, a *App, rawURL string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, rawURL, nil)
	// A server sees only the origin form in the request line.
	req.RequestURI = req.URL.RequestURI()
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

var errBackend = errors.New("backend down")
