// Package store holds the session state of the browser: genres, movies by
// release year and search results.
//
// Each store is a pure reducer plus a container. Effect-issuing methods
// dispatch their pending action right away and hand back an Effect that does
// the network call off the main loop; the action it returns must be
// dispatched back on the loop that owns the container. Containers are not
// safe for concurrent use.
package store

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// Effect performs the out-of-band half of an action and returns the action
// that completes it.
type Effect[A any] func(ctx context.Context) A

// Reducer computes the next state. It must not mutate its input.
type Reducer[S any, A any] func(S, A) S

type container[S any, A any] struct {
	state  S
	reduce Reducer[S, A]
	logger hclog.Logger
}

func newContainer[S any, A any](initial S, reduce Reducer[S, A], logger hclog.Logger, name string) container[S, A] {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return container[S, A]{
		state:  initial,
		reduce: reduce,
		logger: logger.Named(name),
	}
}

func (c *container[S, A]) dispatch(action A) {
	c.logger.Trace("dispatch", "action", fmt.Sprintf("%T", action))
	c.state = c.reduce(c.state, action)
}

// Run executes eff on the calling goroutine and passes its completion action
// to dispatch. It reports whether an effect was run.
func Run[A any](ctx context.Context, eff Effect[A], dispatch func(A)) bool {
	if eff == nil {
		return false
	}
	dispatch(eff(ctx))
	return true
}
