// Package source resolves the contracts root, cloning it from git when the
// configuration names a repository.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/contractcatalog/internal/config"
	ferrors "git.home.luguber.info/inful/contractcatalog/internal/foundation/errors"
	"git.home.luguber.info/inful/contractcatalog/internal/logfields"
)

// ErrPathEscapesClone is returned when repository.path points outside the clone.
var ErrPathEscapesClone = errors.New("repository path escapes the clone")

// Checkout is a resolved contracts root. Close releases any clone behind it.
type Checkout struct {
	Dir    string
	Commit string // empty for local directories

	ws *Workspace
}

// Close removes the clone, if any.
func (c *Checkout) Close() error {
	if c == nil {
		return nil
	}
	return c.ws.Cleanup()
}

// Resolve returns the contracts root for cfg. Without a repository the local
// directory is used as is.
func Resolve(ctx context.Context, cfg config.ContractsConfig, workspaceBase string) (*Checkout, error) {
	repo := cfg.Repository
	if repo == nil || repo.URL == "" {
		return &Checkout{Dir: cfg.Dir}, nil
	}

	ws, err := NewWorkspace(workspaceBase)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to prepare workspace").Fatal().Build()
	}
	co, err := clone(ctx, repo, ws)
	if err != nil {
		_ = ws.Cleanup()
		return nil, err
	}
	return co, nil
}

func clone(ctx context.Context, repo *config.Repository, ws *Workspace) (*Checkout, error) {
	clonePath := filepath.Join(ws.Path(), "repo")
	opts := &git.CloneOptions{URL: repo.URL, Tags: git.NoTags}
	if repo.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(repo.Branch)
		opts.SingleBranch = true
	}
	if isRemote(repo.URL) {
		opts.Depth = 1
	}
	if auth := authFor(repo); auth != nil {
		opts.Auth = auth
	}

	slog.Info("Cloning contracts repository", logfields.URL(repo.URL), slog.String("branch", repo.Branch))
	r, err := git.PlainCloneContext(ctx, clonePath, false, opts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, classifyCloneError(repo.URL, err)
	}

	dir, err := subPath(clonePath, repo.Path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid contracts.repository.path").
			WithContext("path", repo.Path).Fatal().Build()
	}

	co := &Checkout{Dir: dir, ws: ws}
	if head, herr := r.Head(); herr == nil {
		co.Commit = head.Hash().String()
		slog.Info("Contracts repository cloned", logfields.URL(repo.URL), slog.String("commit", co.Commit[:8]), logfields.Path(dir))
	}
	return co, nil
}

func authFor(repo *config.Repository) transport.AuthMethod {
	if repo.Token == "" {
		return nil
	}
	return &http.BasicAuth{Username: "token", Password: repo.Token}
}

// isRemote reports whether url needs a network transport; shallow clones are
// only requested there.
func isRemote(url string) bool {
	for _, p := range []string{"http://", "https://", "ssh://", "git://", "git@"} {
		if strings.HasPrefix(url, p) {
			return true
		}
	}
	return false
}

func subPath(root, rel string) (string, error) {
	if rel == "" {
		return root, nil
	}
	p := filepath.Join(root, filepath.FromSlash(rel))
	r, err := filepath.Rel(root, p)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesClone, rel)
	}
	return p, nil
}

// classifyCloneError turns go-git failures into git-category errors with a reason hint.
func classifyCloneError(url string, err error) error {
	reason := "clone_failed"
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired), errors.Is(err, transport.ErrAuthorizationFailed):
		reason = "auth"
	case errors.Is(err, transport.ErrRepositoryNotFound):
		reason = "not_found"
	case errors.Is(err, plumbing.ErrReferenceNotFound), errors.Is(err, git.NoMatchingRefSpecError{}):
		reason = "branch_not_found"
	default:
		l := strings.ToLower(err.Error())
		if strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported") {
			reason = "unsupported_protocol"
		}
	}
	return ferrors.GitError("failed to clone contracts repository").WithCause(err).
		WithContext("url", url).
		WithContext("reason", reason).
		Fatal().
		Build()
}
