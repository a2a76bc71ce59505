// Package command is the orchestration layer between the UI and the
// connection/state/aggregation/transfer/shell packages: every mutating or
// long-running action is a named function here that follows the same
// five-step contract (snapshot, loading, submit, stale-checked reconcile,
// terminal event).
package command

import (
	"context"
	"sync"
)

// OpType identifies the kind of operation being performed, spanning every
// command in this package rather than just CRUD as in a model-bound ODM.
type OpType string

const (
	OpConnect       OpType = "connect"
	OpDisconnect    OpType = "disconnect"
	OpDatabase      OpType = "database"
	OpCollection    OpType = "collection"
	OpDocumentRead  OpType = "document_read"
	OpDocumentWrite OpType = "document_write"
	OpIndex         OpType = "index"
	OpAggregation   OpType = "aggregation"
	OpTransfer      OpType = "transfer"
	OpShell         OpType = "shell"
)

// OpInfo describes the operation in progress to middleware.
type OpInfo struct {
	Operation  OpType
	ConnID     string
	Database   string
	Collection string
}

// MiddlewareFunc wraps a command. Call next(ctx) to continue the chain, or
// return an error to abort before the command runs.
type MiddlewareFunc func(ctx context.Context, op *OpInfo, next func(context.Context) error) error

var (
	mwMu    sync.RWMutex
	globalMW []MiddlewareFunc
	opMW     map[OpType][]MiddlewareFunc
)

// Use registers global middleware applied to every command. Middleware
// executes in registration order: global first, then per-OpType.
func Use(fns ...MiddlewareFunc) {
	mwMu.Lock()
	defer mwMu.Unlock()
	globalMW = append(globalMW, fns...)
}

// UseFor registers middleware that only runs for the given operation type.
func UseFor(op OpType, fns ...MiddlewareFunc) {
	mwMu.Lock()
	defer mwMu.Unlock()
	if opMW == nil {
		opMW = make(map[OpType][]MiddlewareFunc)
	}
	opMW[op] = append(opMW[op], fns...)
}

// ClearMiddleware removes all registered middleware. Useful for tests.
func ClearMiddleware() {
	mwMu.Lock()
	defer mwMu.Unlock()
	globalMW = nil
	opMW = nil
}

// runMiddleware builds and executes the middleware chain for an operation.
// If no middleware is registered, fn runs directly.
func runMiddleware(ctx context.Context, info *OpInfo, fn func(context.Context) error) error {
	mwMu.RLock()
	chain := make([]MiddlewareFunc, 0, len(globalMW))
	chain = append(chain, globalMW...)
	if m, ok := opMW[info.Operation]; ok {
		chain = append(chain, m...)
	}
	mwMu.RUnlock()

	if len(chain) == 0 {
		return fn(ctx)
	}

	var build func(int) func(context.Context) error
	build = func(i int) func(context.Context) error {
		if i == len(chain) {
			return fn
		}
		return func(ctx context.Context) error {
			return chain[i](ctx, info, build(i+1))
		}
	}
	return build(0)(ctx)
}
