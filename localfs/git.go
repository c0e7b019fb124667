package localfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/eringen/madea/blog"
)

// ErrNoHistory is returned by Git when a file has no commits, or the
// directory is not a working copy.
var ErrNoHistory = errors.New("no git history")

// Git reads commit metadata from a working copy.
type Git interface {
	LastCommit(ctx context.Context, dir, path string) (blog.CommitInfo, error)
	CurrentBranch(ctx context.Context, dir string) (string, error)
}

// ExecGit shells out to the git binary.
type ExecGit struct {
	Binary string // defaults to "git"
}

func (g ExecGit) run(ctx context.Context, dir string, args ...string) (string, error) {
	bin := g.Binary
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: git %s: %v: %s", ErrNoHistory, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(string(out)), nil
}

// LastCommit returns the author and date of the newest commit touching path.
func (g ExecGit) LastCommit(ctx context.Context, dir, path string) (blog.CommitInfo, error) {
	out, err := g.run(ctx, dir, "log", "-1", "--format=%aI%x00%an%x00%ae", "--", path)
	if err != nil {
		return blog.CommitInfo{}, err
	}
	if out == "" {
		return blog.CommitInfo{}, fmt.Errorf("%w: %s is untracked", ErrNoHistory, path)
	}
	return parseLogLine(out)
}

// CurrentBranch returns the checked-out branch, which may not have commits yet.
func (g ExecGit) CurrentBranch(ctx context.Context, dir string) (string, error) {
	return g.run(ctx, dir, "symbolic-ref", "--short", "HEAD")
}

func parseLogLine(line string) (blog.CommitInfo, error) {
	parts := strings.Split(line, "\x00")
	if len(parts) != 3 {
		return blog.CommitInfo{}, fmt.Errorf("unexpected git log output %q", line)
	}
	date, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return blog.CommitInfo{}, fmt.Errorf("parse commit date: %w", err)
	}
	return blog.CommitInfo{Date: date, AuthorName: parts[1], AuthorEmail: parts[2]}, nil
}
