package github

import (
	"context"
	"fmt"

	"github.com/shurcooL/githubv4"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/madea/blog"
	"github.com/eringen/madea/httpcache"
)

// Compile-time check: *GraphQLProvider implements blog.DataProvider.
var _ blog.DataProvider = (*GraphQLProvider)(nil)

// GraphQLProvider fetches each article with a single GraphQL query that
// returns the blob and its latest commit together. The tree listing and the
// user profile have no cheaper GraphQL form and go through REST.
type GraphQLProvider struct {
	gql  *githubv4.Client
	rest *RESTProvider
	repoRef
}

// NewGraphQL builds a GraphQLProvider.
func NewGraphQL(opts Options) (*GraphQLProvider, error) {
	opts.setDefaults()
	if opts.Username == "" {
		return nil, fmt.Errorf("%w: github username is required", blog.ErrConfiguration)
	}
	hc, err := opts.httpClient()
	if err != nil {
		return nil, err
	}
	ref := repoRef{owner: opts.Username, repo: opts.Repo, webURL: opts.WebURL}
	return &GraphQLProvider{
		gql:     newGraphQLClient(hc, opts.BaseURL, opts.GraphQLURL),
		rest:    &RESTProvider{gh: newRESTClient(hc, opts.BaseURL), repoRef: ref},
		repoRef: ref,
	}, nil
}

type commitNode struct {
	CommittedDate githubv4.DateTime
	Author        struct {
		Name      string
		Email     string
		Date      githubv4.DateTime
		AvatarURL string `graphql:"avatarUrl"`
		User      struct {
			Login string
		}
	}
}

type articleQuery struct {
	Repository struct {
		DefaultBranchRef struct {
			Name   string
			Target struct {
				Commit struct {
					History struct {
						Nodes []commitNode
					} `graphql:"history(first: 1, path: $path)"`
				} `graphql:"... on Commit"`
			}
		}
		Object struct {
			Typename string `graphql:"__typename"`
			Blob     struct {
				Oid      string
				Text     string
				IsBinary bool
			} `graphql:"... on Blob"`
		} `graphql:"object(expression: $expression)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

type branchQuery struct {
	Repository struct {
		DefaultBranchRef struct {
			Name string
		}
	} `graphql:"repository(owner: $owner, name: $name)"`
}

func (p *GraphQLProvider) repoVars() map[string]any {
	return map[string]any{
		"owner": githubv4.String(p.owner),
		"name":  githubv4.String(p.repo),
	}
}

// DefaultBranch returns the repository's default branch.
func (p *GraphQLProvider) DefaultBranch(ctx context.Context) (string, error) {
	var q branchQuery
	if err := p.gql.Query(httpcache.WithTTL(ctx, httpcache.TTLRepoMeta), &q, p.repoVars()); err != nil {
		return "", fmt.Errorf("%w: query default branch %s: %w", blog.ErrSourceUnavailable, p.fullName(), err)
	}
	if b := q.Repository.DefaultBranchRef.Name; b != "" {
		return b, nil
	}
	return blog.DefaultBranchName, nil
}

// Article fetches path from the default branch in one round trip.
func (p *GraphQLProvider) Article(ctx context.Context, path string) (*blog.FileInfo, error) {
	if !blog.IsMarkdownFile(path) {
		return nil, fmt.Errorf("%w: %s is not a markdown file", blog.ErrNotFound, path)
	}
	vars := p.repoVars()
	vars["expression"] = githubv4.String("HEAD:" + path)
	vars["path"] = githubv4.String(path)

	var q articleQuery
	if err := p.gql.Query(httpcache.WithTTL(ctx, httpcache.TTLContent), &q, vars); err != nil {
		return nil, fmt.Errorf("%w: query article %s:%s: %w", blog.ErrSourceUnavailable, p.fullName(), path, err)
	}
	obj := q.Repository.Object
	if obj.Typename != "Blob" || obj.Blob.IsBinary {
		return nil, fmt.Errorf("%w: %s:%s", blog.ErrNotFound, p.fullName(), path)
	}

	branch := q.Repository.DefaultBranchRef.Name
	if branch == "" {
		branch = blog.DefaultBranchName
	}
	fi := blog.NewFileInfo(path, obj.Blob.Text, obj.Blob.Oid, p.blobURL(branch, path),
		p.commitInfo(q.Repository.DefaultBranchRef.Target.Commit.History.Nodes))
	return &fi, nil
}

func (p *GraphQLProvider) commitInfo(nodes []commitNode) blog.CommitInfo {
	if len(nodes) == 0 {
		return blog.CommitInfo{AuthorName: p.owner, AuthorUsername: p.owner}
	}
	n := nodes[0]
	date := n.Author.Date.Time
	if date.IsZero() {
		date = n.CommittedDate.Time
	}
	return blog.CommitInfo{
		Date:            date,
		AuthorName:      n.Author.Name,
		AuthorEmail:     n.Author.Email,
		AuthorUsername:  n.Author.User.Login,
		AuthorAvatarURL: n.Author.AvatarURL,
	}
}

// ArticleList lists markdown paths from the REST tree, then hydrates each
// with Article.
func (p *GraphQLProvider) ArticleList(ctx context.Context) ([]blog.FileInfo, error) {
	branch, err := p.rest.DefaultBranch(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := p.rest.markdownEntries(ctx, branch)
	if err != nil {
		return nil, err
	}

	files := make([]blog.FileInfo, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrateLimit)
	for i, e := range entries {
		g.Go(func() error {
			fi, err := p.Article(gctx, e.GetPath())
			if err != nil {
				return fmt.Errorf("%w: hydrate %s: %w", blog.ErrSourceUnavailable, e.GetPath(), err)
			}
			files[i] = *fi
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// SourceInfo describes the blog owner from their GitHub profile.
func (p *GraphQLProvider) SourceInfo(ctx context.Context) (blog.SourceInfo, error) {
	return userSourceInfo(ctx, p.rest.gh, p.repoRef), nil
}
