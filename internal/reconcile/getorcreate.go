package reconcile

import (
	"context"
	"errors"

	"github.com/importusers/import-service/internal/store"
)

// getOrCreate looks an entity up by its natural key. A found entity is
// refreshed in place when refresh is set and returned with created false;
// otherwise create inserts a new one and created is true.
func getOrCreate[T any](
	ctx context.Context,
	lookup func(context.Context) (*T, error),
	create func(context.Context) (*T, error),
	refresh func(context.Context, *T) error,
) (*T, bool, error) {
	existing, err := lookup(ctx)
	if err == nil {
		if refresh != nil {
			if err := refresh(ctx, existing); err != nil {
				return nil, false, err
			}
		}
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	created, err := create(ctx)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}
