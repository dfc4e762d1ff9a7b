package workflow

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Get for an unknown thread id.
var ErrNotFound = errors.New("workflow: not found")

// Store is the checkpoint store: the latest State per thread id.
// Put is last-write-wins with no versioning; concurrent writers to the same
// key race with undefined ordering.
type Store interface {
	Put(ctx context.Context, threadID string, state State) error
	Get(ctx context.Context, threadID string) (State, error)
	Close() error
}
