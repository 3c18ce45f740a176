package authz

import "context"

// Guard holds a privileged store and lends it out only after Authorize allows the action.
// Components that need elevated writes receive a Guard, never the store itself.
type Guard[S any] struct {
	store S
}

// NewGuard wraps store.
func NewGuard[S any](store S) *Guard[S] {
	return &Guard[S]{store: store}
}

// Run checks caller against action and res, then calls fn with the privileged store.
func (g *Guard[S]) Run(ctx context.Context, caller *Caller, action Action, res Resource, fn func(ctx context.Context, store S) error) error {
	if err := Authorize(caller, action, res).Err(); err != nil {
		return err
	}
	return fn(ctx, g.store)
}
