package blog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/eringen/madea/blog")

// Options carries request context resolved upstream of the controller.
type Options struct {
	// HasUsername is false when no blog owner could be derived from the
	// request, e.g. the bare apex domain.
	HasUsername bool
}

// Views maps each renderable outcome to a presentation callback. R is
// whatever the presentation layer produces; the controller never inspects it.
type Views[R any] struct {
	FileBrowser func(FileBrowserProps) R
	Article     func(ArticleProps) R
	NoRepoFound func(NoRepoFoundProps) R
	Landing     func(LandingProps) R
}

// Config bundles one provider with the views used to present its content.
type Config[R any] struct {
	Provider DataProvider
	Username string
	Views    Views[R]
	Logger   *slog.Logger // nil means slog.Default()
}

// RenderMadeaBlog resolves path against the configured provider and invokes
// the matching view. The bool result is false for the not-found outcome, in
// which case the caller renders its own generic not-found response.
func RenderMadeaBlog[R any](ctx context.Context, cfg Config[R], path string, opts Options) (Outcome, R, bool) {
	out := resolve(ctx, cfg.Provider, cfg.Username, path, opts, cfg.Logger)
	r, ok := Present(cfg.Views, out)
	return out, r, ok
}

// Present invokes the view matching out.
func Present[R any](views Views[R], out Outcome) (R, bool) {
	var zero R
	switch o := out.(type) {
	case Landing:
		return views.Landing(o.Props), true
	case FileBrowser:
		return views.FileBrowser(o.Props), true
	case ArticlePage:
		return views.Article(o.Props), true
	case NoRepoFound:
		return views.NoRepoFound(o.Props), true
	case NotFound:
		return zero, false
	default:
		return zero, false
	}
}

// Resolve decides which page a request renders and fetches the data it needs.
// Provider errors never escape: they become NoRepoFound on the root path and
// NotFound on article paths.
func Resolve(ctx context.Context, p DataProvider, username, path string, opts Options) Outcome {
	return resolve(ctx, p, username, path, opts, nil)
}

func resolve(ctx context.Context, p DataProvider, username, path string, opts Options, log *slog.Logger) Outcome {
	if log == nil {
		log = slog.Default()
	}

	ctx, span := tracer.Start(ctx, "blog.Resolve", trace.WithAttributes(
		attribute.String("blog.username", username),
		attribute.String("blog.path", path),
	))
	defer span.End()

	var out Outcome
	switch {
	case !opts.HasUsername:
		out = Landing{}
	case isRoot(path):
		out = resolveIndex(ctx, p, username, log)
	default:
		out = resolveArticle(ctx, p, username, strings.TrimPrefix(path, "/"), log)
	}

	span.SetAttributes(attribute.String("blog.outcome", string(out.Kind())))
	return out
}

func resolveIndex(ctx context.Context, p DataProvider, username string, log *slog.Logger) Outcome {
	var (
		articles []FileInfo
		source   SourceInfo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		articles, err = p.ArticleList(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		source, err = p.SourceInfo(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Warn("blog index unavailable", "username", username, "error", err)
		return NoRepoFound{Props: NoRepoFoundProps{Username: username}}
	}
	return FileBrowser{Props: FileBrowserProps{
		Articles:   articles,
		SourceInfo: source,
		Username:   username,
	}}
}

func resolveArticle(ctx context.Context, p DataProvider, username, path string, log *slog.Logger) Outcome {
	var (
		article *FileInfo
		branch  string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		article, err = p.Article(gctx, path)
		return err
	})
	g.Go(func() error {
		var err error
		branch, err = p.DefaultBranch(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Debug("article not found", "username", username, "path", path)
		} else {
			log.Warn("article unavailable", "username", username, "path", path, "error", err)
		}
		return NotFound{}
	}
	if article == nil {
		return NotFound{}
	}
	return ArticlePage{Props: ArticleProps{
		Article:  *article,
		Username: username,
		Branch:   branch,
	}}
}

func isRoot(path string) bool {
	return path == "" || path == "/"
}
