// Package middleware wraps ports.ProjectStore implementations with
// cross-cutting behavior: encryption at rest and validation on save.
package middleware

import "github.com/aretw0/arche/pkg/ports"

// Middleware allows wrapping a ProjectStore to add behavior.
type Middleware func(ports.ProjectStore) ports.ProjectStore

// Chain applies middlewares so that the first one is the outermost.
func Chain(store ports.ProjectStore, mws ...Middleware) ports.ProjectStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
