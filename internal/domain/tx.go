package domain

import "context"

// TxManager runs a function inside one atomic unit of work. Repositories
// called with the context passed to fn operate on the same transaction; if fn
// returns an error the whole unit rolls back and no partial writes are
// visible.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
