package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// lockFile guards a repository clone against concurrent batch runs. The
// session itself does no write coordination; one batch job per clone is the
// contract, and this lock enforces it.
const lockFile = ".seriesmake.lock"

func lockRepository(ctx context.Context, root string) (func(), error) {
	fl := flock.New(filepath.Join(root, lockFile))

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 250*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("lock repository at %s: %w", root, err)
	}
	if !locked {
		return nil, fmt.Errorf("another batch run holds the lock on %s", root)
	}
	return func() { _ = fl.Unlock() }, nil
}
