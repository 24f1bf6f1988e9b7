// Package gitvc wraps the version-control side of a series repository: it
// reads working-tree files, reads historical blobs by path and revision, and
// lists locally modified paths. It never writes history; staging and
// committing stay with the git tooling itself.
package gitvc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotFound reports that a path does not exist in the working tree, or in
// any revision at or before the requested one.
var ErrNotFound = errors.New("path not found")

// Repo is a handle on the git repository backing a series store. All paths
// are repository-relative and slash-separated, as git records them.
type Repo struct {
	root string
	repo *git.Repository
}

// Open opens the repository rooted at dir, initializing a fresh one if the
// directory is not yet under version control.
func Open(dir string) (*Repo, error) {
	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(dir, false)
	}
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", dir, err)
	}
	return &Repo{root: dir, repo: repo}, nil
}

// Root returns the working-tree root directory.
func (r *Repo) Root() string {
	return r.root
}

// ReadWorkingTree returns the current contents of a repository-relative path.
func (r *Repo) ReadWorkingTree(path string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(path)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

// ReadAtRevision returns the contents of path as recorded by the nearest
// ancestor of ref (ref included) that touched the path. The returned bytes
// are not necessarily from ref's own tree: an unrelated later commit leaves
// the path's content at its last touch.
func (r *Repo) ReadAtRevision(ref, path string) ([]byte, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("resolve revision %q: %w", ref, err)
	}

	iter, err := r.repo.Log(&git.LogOptions{
		From:       *hash,
		PathFilter: func(p string) bool { return p == path },
	})
	if err != nil {
		return nil, fmt.Errorf("walk history of %s: %w", path, err)
	}
	defer iter.Close()

	commit, err := iter.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s at %s: %w", path, ref, ErrNotFound)
		}
		return nil, fmt.Errorf("walk history of %s: %w", path, err)
	}

	file, err := commit.File(path)
	if err != nil {
		// The nearest touch was a deletion: the path is unknown here.
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%s at %s: %w", path, ref, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s at %s: %w", path, commit.Hash, err)
	}

	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("read %s at %s: %w", path, commit.Hash, err)
	}
	return []byte(contents), nil
}

// ListChanges returns the repository-relative paths currently flagged as
// modified, restricted to those below prefix when prefix is non-empty. Only
// the modified status counts: added, deleted and renamed paths are ignored.
// git reports status in no particular order, so the result is sorted to give
// callers a stable set.
func (r *Repo) ListChanges(prefix string) ([]string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open working tree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("working tree status: %w", err)
	}

	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var paths []string
	for path, s := range status {
		if s.Staging != git.Modified && s.Worktree != git.Modified {
			continue
		}
		if prefix != "" && !strings.HasPrefix(path, prefix) {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}
