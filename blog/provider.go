package blog

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means the requested article does not exist.
	ErrNotFound = errors.New("article not found")

	// ErrSourceUnavailable means the backing store could not be reached,
	// does not exist, or refused the request.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrConfiguration is returned by provider constructors when required
	// arguments or credentials are missing.
	ErrConfiguration = errors.New("invalid provider configuration")
)

// DataProvider is the single point of variation between content sources.
// Every method either returns a fully populated value or an error; none of
// them mutate the backing store.
type DataProvider interface {
	// ArticleList returns every markdown file in the source, hydrated.
	// Ordering is unspecified.
	ArticleList(ctx context.Context) ([]FileInfo, error)

	// Article returns the article at path, or an error wrapping ErrNotFound
	// when path is not an existing markdown file.
	Article(ctx context.Context, path string) (*FileInfo, error)

	// SourceInfo returns owner metadata, falling back to identifier-only
	// values when richer metadata is missing.
	SourceInfo(ctx context.Context) (SourceInfo, error)

	// DefaultBranch returns the branch used to build permalinks.
	DefaultBranch(ctx context.Context) (string, error)
}

// DefaultBranchName is returned by sources without version history.
const DefaultBranchName = "main"
