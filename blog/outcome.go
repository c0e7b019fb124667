package blog

// Kind names an outcome for logging, metrics and tests.
type Kind string

const (
	KindLanding     Kind = "landing"
	KindFileBrowser Kind = "file-browser"
	KindArticle     Kind = "article"
	KindNoRepoFound Kind = "no-repo-found"
	KindNotFound    Kind = "404"
)

// Outcome is the result of resolving a blog request. The set of variants is
// closed: Landing, FileBrowser, ArticlePage, NoRepoFound and NotFound.
type Outcome interface {
	Kind() Kind
	outcome()
}

// LandingProps is empty; the landing page needs no data.
type LandingProps struct{}

// FileBrowserProps feeds the article listing page.
type FileBrowserProps struct {
	Articles   []FileInfo
	SourceInfo SourceInfo
	Username   string
}

// ArticleProps feeds a single article page.
type ArticleProps struct {
	Article  FileInfo
	Username string
	Branch   string
}

// NoRepoFoundProps feeds the page shown when the source cannot be read.
type NoRepoFoundProps struct {
	Username string
}

type (
	Landing     struct{ Props LandingProps }
	FileBrowser struct{ Props FileBrowserProps }
	ArticlePage struct{ Props ArticleProps }
	NoRepoFound struct{ Props NoRepoFoundProps }
	NotFound    struct{}
)

func (Landing) Kind() Kind     { return KindLanding }
func (FileBrowser) Kind() Kind { return KindFileBrowser }
func (ArticlePage) Kind() Kind { return KindArticle }
func (NoRepoFound) Kind() Kind { return KindNoRepoFound }
func (NotFound) Kind() Kind    { return KindNotFound }

func (Landing) outcome()     {}
func (FileBrowser) outcome() {}
func (ArticlePage) outcome() {}
func (NoRepoFound) outcome() {}
func (NotFound) outcome()    {}
