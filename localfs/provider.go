// Package localfs serves a madea blog from a directory of markdown files,
// reading commit metadata from git when the directory is a working copy.
package localfs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/madea/blog"
)

const hydrateLimit = 8

// Compile-time check: *Provider implements blog.DataProvider.
var _ blog.DataProvider = (*Provider)(nil)

// Options configures a local provider.
type Options struct {
	ContentDir string
	AuthorName string
	SourceURL  string // defaults to file://<abs ContentDir>

	// Git reads commit metadata; nil uses ExecGit. DisableGit skips git
	// entirely and dates articles by mtime.
	Git        Git
	DisableGit bool
}

// Provider implements blog.DataProvider on the local filesystem.
type Provider struct {
	dir       string
	author    string
	sourceURL string
	git       Git
}

// New validates opts and builds a Provider. The directory itself is only
// checked when it is read.
func New(opts Options) (*Provider, error) {
	if opts.ContentDir == "" {
		return nil, fmt.Errorf("%w: content directory is required", blog.ErrConfiguration)
	}
	if opts.AuthorName == "" {
		return nil, fmt.Errorf("%w: author name is required", blog.ErrConfiguration)
	}
	dir, err := filepath.Abs(opts.ContentDir)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %w", blog.ErrConfiguration, opts.ContentDir, err)
	}
	p := &Provider{
		dir:       dir,
		author:    opts.AuthorName,
		sourceURL: strings.TrimSuffix(opts.SourceURL, "/"),
		git:       opts.Git,
	}
	if p.sourceURL == "" {
		p.sourceURL = "file://" + filepath.ToSlash(dir)
	}
	if p.git == nil && !opts.DisableGit {
		p.git = ExecGit{}
	}
	return p, nil
}

// ArticleList walks the content directory for markdown files, skipping
// dot-directories and node_modules.
func (p *Provider) ArticleList(ctx context.Context) ([]blog.FileInfo, error) {
	root, err := os.OpenRoot(p.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", blog.ErrSourceUnavailable, p.dir, err)
	}
	defer root.Close()
	fsys := root.FS()

	var paths []string
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && skipDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && blog.IsMarkdownFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk %s: %w", blog.ErrSourceUnavailable, p.dir, err)
	}

	files := make([]blog.FileInfo, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateLimit)
	for i, path := range paths {
		g.Go(func() error {
			fi, err := p.read(gctx, fsys, path)
			if err != nil {
				return fmt.Errorf("%w: %w", blog.ErrSourceUnavailable, err)
			}
			files[i] = fi
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}

// inSkippedDir reports whether a directory on rel is one ArticleList skips.
func inSkippedDir(rel string) bool {
	segs := strings.Split(rel, "/")
	for _, seg := range segs[:len(segs)-1] {
		if skipDir(seg) {
			return true
		}
	}
	return false
}

// Article reads one markdown file. Paths that leave the content directory,
// name a directory, sit under a directory ArticleList skips, or are not
// markdown are reported as not found.
func (p *Provider) Article(ctx context.Context, path string) (*blog.FileInfo, error) {
	rel := strings.TrimPrefix(filepath.ToSlash(path), "/")
	if !fs.ValidPath(rel) || !blog.IsMarkdownFile(rel) || inSkippedDir(rel) {
		return nil, fmt.Errorf("%w: %s", blog.ErrNotFound, path)
	}
	root, err := os.OpenRoot(p.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", blog.ErrSourceUnavailable, p.dir, err)
	}
	defer root.Close()
	fsys := root.FS()

	st, err := fs.Stat(fsys, rel)
	if err != nil || !st.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", blog.ErrNotFound, path)
	}
	fi, err := p.read(ctx, fsys, rel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", blog.ErrSourceUnavailable, err)
	}
	return &fi, nil
}

func (p *Provider) read(ctx context.Context, fsys fs.FS, path string) (blog.FileInfo, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return blog.FileInfo{}, fmt.Errorf("read %s: %w", path, err)
	}
	commit, err := p.commitInfo(ctx, fsys, path)
	if err != nil {
		return blog.FileInfo{}, err
	}
	sum := sha256.Sum256(data)
	return blog.NewFileInfo(path, string(data), hex.EncodeToString(sum[:]), p.sourceURL+"/"+path, commit), nil
}

// commitInfo prefers git history and falls back to the file mtime with the
// configured author.
func (p *Provider) commitInfo(ctx context.Context, fsys fs.FS, path string) (blog.CommitInfo, error) {
	if p.git != nil {
		c, err := p.git.LastCommit(ctx, p.dir, path)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrNoHistory) {
			return blog.CommitInfo{}, err
		}
	}
	st, err := fs.Stat(fsys, path)
	if err != nil {
		return blog.CommitInfo{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return blog.CommitInfo{Date: st.ModTime(), AuthorName: p.author}, nil
}

// SourceInfo names the configured author and the content directory.
func (p *Provider) SourceInfo(context.Context) (blog.SourceInfo, error) {
	return blog.SourceInfo{Name: p.author, SourceURL: p.sourceURL}, nil
}

// DefaultBranch is the checked-out git branch, or blog.DefaultBranchName.
func (p *Provider) DefaultBranch(ctx context.Context) (string, error) {
	if p.git != nil {
		if b, err := p.git.CurrentBranch(ctx, p.dir); err == nil && b != "" {
			return b, nil
		}
	}
	return blog.DefaultBranchName, nil
}
