package github

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gogithub "github.com/google/go-github/v75/github"

	"github.com/eringen/madea/blog"
)

// RepoName is the repository every madea user publishes from.
const RepoName = "madea.blog"

// hydrateLimit bounds concurrent per-article requests during a listing.
const hydrateLimit = 8

// Strategy selects the GitHub API a provider reads through.
type Strategy string

const (
	StrategyGraphQL Strategy = "graphql"
	StrategyREST    Strategy = "rest"
)

// ParseStrategy maps a configuration value to a Strategy. Empty means GraphQL.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyGraphQL:
		return StrategyGraphQL, nil
	case StrategyREST:
		return StrategyREST, nil
	default:
		return "", fmt.Errorf("%w: unknown github strategy %q", blog.ErrConfiguration, s)
	}
}

// Options configures a GitHub-backed provider.
type Options struct {
	Username string
	Repo     string // defaults to RepoName

	// Credentials are used when HTTPClient is nil.
	Credentials

	// HTTPClient, when set, is used as is and must already authenticate
	// its requests (see NewHTTPClient).
	HTTPClient *http.Client

	BaseURL    string // REST API root; defaults to https://api.github.com
	GraphQLURL string // derived from BaseURL when empty
	WebURL     string // defaults to https://github.com

	Strategy Strategy
}

func (o *Options) setDefaults() {
	if o.Repo == "" {
		o.Repo = RepoName
	}
	if o.WebURL == "" {
		o.WebURL = defaultWebURL
	}
	o.WebURL = strings.TrimSuffix(o.WebURL, "/")
	if o.Strategy == "" {
		o.Strategy = StrategyGraphQL
	}
}

func (o *Options) httpClient() (*http.Client, error) {
	if o.HTTPClient != nil {
		return o.HTTPClient, nil
	}
	return NewHTTPClient(o.Credentials, o.BaseURL, nil)
}

// New builds the provider selected by opts.Strategy.
func New(opts Options) (blog.DataProvider, error) {
	opts.setDefaults()
	switch opts.Strategy {
	case StrategyREST:
		return NewREST(opts)
	case StrategyGraphQL:
		return NewGraphQL(opts)
	default:
		return nil, fmt.Errorf("%w: unknown github strategy %q", blog.ErrConfiguration, opts.Strategy)
	}
}

// repoRef holds what every provider knows about its repository.
type repoRef struct {
	owner  string
	repo   string
	webURL string
}

func (r repoRef) fullName() string { return r.owner + "/" + r.repo }

func (r repoRef) sourceURL() string { return r.webURL + "/" + r.fullName() }

func (r repoRef) blobURL(branch, path string) string {
	return r.sourceURL() + "/blob/" + escapePath(branch) + "/" + escapePath(path)
}

// escapePath escapes each slash-separated segment of p.
func escapePath(p string) string {
	segs := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// classify wraps err with a blog sentinel. A 404 maps to notFound, anything
// else (rate limits, auth failures, transport errors) means the source is
// unavailable.
func classify(err error, notFound error, format string, args ...any) error {
	op := fmt.Sprintf(format, args...)
	if isNotFound(err) {
		return fmt.Errorf("%w: %s: %w", notFound, op, err)
	}
	return fmt.Errorf("%w: %s: %w", blog.ErrSourceUnavailable, op, err)
}

func isNotFound(err error) bool {
	var rle *gogithub.RateLimitError
	var arle *gogithub.AbuseRateLimitError
	if errors.As(err, &rle) || errors.As(err, &arle) {
		return false
	}
	var er *gogithub.ErrorResponse
	return errors.As(err, &er) && er.Response != nil && er.Response.StatusCode == http.StatusNotFound
}
