// Package github reads madea blogs out of GitHub repositories. It provides
// two blog.DataProvider implementations, one on the REST API and one on the
// GraphQL API, plus a Directory that discovers every public madea.blog
// repository.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gogithub "github.com/google/go-github/v75/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/eringen/madea/blog"
)

const (
	defaultAPIURL = "https://api.github.com"
	defaultWebURL = "https://github.com"
)

// Credentials authenticate against GitHub. Either Token or the three GitHub
// App fields must be set.
type Credentials struct {
	Token          string
	AppID          int64
	InstallationID int64
	PrivateKeyPath string
}

func (c Credentials) isApp() bool {
	return c.AppID != 0 && c.InstallationID != 0 && c.PrivateKeyPath != ""
}

// Empty reports whether no usable credential is configured.
func (c Credentials) Empty() bool {
	return c.Token == "" && !c.isApp()
}

// NewHTTPClient returns an *http.Client that authenticates every request
// with creds. base is the transport the credentials are layered on (usually
// an httpcache.Transport); nil means http.DefaultTransport. Build it once and
// share it: GitHub App installation tokens are cached by the transport.
func NewHTTPClient(creds Credentials, baseURL string, base http.RoundTripper) (*http.Client, error) {
	if base == nil {
		base = http.DefaultTransport
	}
	switch {
	case creds.Token != "":
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Transport: base})
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.Token})
		return oauth2.NewClient(ctx, ts), nil
	case creds.isApp():
		tr, err := ghinstallation.NewKeyFromFile(base, creds.AppID, creds.InstallationID, creds.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("%w: github app auth: %w", blog.ErrConfiguration, err)
		}
		if baseURL != "" {
			tr.BaseURL = strings.TrimSuffix(baseURL, "/")
		}
		return &http.Client{Transport: tr}, nil
	default:
		return nil, fmt.Errorf("%w: a GitHub token or GitHub App credentials are required", blog.ErrConfiguration)
	}
}

func newRESTClient(hc *http.Client, baseURL string) *gogithub.Client {
	c := gogithub.NewClient(hc)
	applyBaseURL(c, baseURL)
	return c
}

func applyBaseURL(c *gogithub.Client, baseURL string) {
	if baseURL == "" || baseURL == defaultAPIURL {
		return
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return
	}
	c.BaseURL = u
}

func newGraphQLClient(hc *http.Client, baseURL, graphqlURL string) *githubv4.Client {
	if graphqlURL == "" {
		graphqlURL = graphQLEndpoint(baseURL)
	}
	if graphqlURL == "" {
		return githubv4.NewClient(hc)
	}
	return githubv4.NewEnterpriseClient(graphqlURL, hc)
}

// graphQLEndpoint derives the GraphQL URL from a REST base URL. GitHub
// Enterprise serves REST under /api/v3 and GraphQL under /api/graphql.
func graphQLEndpoint(baseURL string) string {
	if baseURL == "" || baseURL == defaultAPIURL {
		return ""
	}
	base := strings.TrimSuffix(baseURL, "/")
	if strings.HasSuffix(base, "/api/v3") {
		return strings.TrimSuffix(base, "/v3") + "/graphql"
	}
	return base + "/graphql"
}
