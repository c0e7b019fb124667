package blog

import (
	"context"
	"errors"
	"time"
)

// Recorder receives one observation per provider call.
type Recorder interface {
	ObserveProviderCall(op, result string, d time.Duration)
}

// Result labels passed to Recorder.
const (
	ResultOK          = "ok"
	ResultNotFound    = "not_found"
	ResultUnavailable = "unavailable"
	ResultError       = "error"
)

// ResultOf classifies err into one of the Result labels.
func ResultOf(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, ErrNotFound):
		return ResultNotFound
	case errors.Is(err, ErrSourceUnavailable):
		return ResultUnavailable
	default:
		return ResultError
	}
}

type instrumented struct {
	next DataProvider
	rec  Recorder
}

// Instrument wraps p so every call is reported to rec.
func Instrument(p DataProvider, rec Recorder) DataProvider {
	if rec == nil {
		return p
	}
	return &instrumented{next: p, rec: rec}
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	i.rec.ObserveProviderCall(op, ResultOf(err), time.Since(start))
}

func (i *instrumented) ArticleList(ctx context.Context) ([]FileInfo, error) {
	start := time.Now()
	v, err := i.next.ArticleList(ctx)
	i.observe("article_list", start, err)
	return v, err
}

func (i *instrumented) Article(ctx context.Context, path string) (*FileInfo, error) {
	start := time.Now()
	v, err := i.next.Article(ctx, path)
	i.observe("article", start, err)
	return v, err
}

func (i *instrumented) SourceInfo(ctx context.Context) (SourceInfo, error) {
	start := time.Now()
	v, err := i.next.SourceInfo(ctx)
	i.observe("source_info", start, err)
	return v, err
}

func (i *instrumented) DefaultBranch(ctx context.Context) (string, error) {
	start := time.Now()
	v, err := i.next.DefaultBranch(ctx)
	i.observe("default_branch", start, err)
	return v, err
}
