package connection

import "sync/atomic"

// CancelToken is a cheaply cloned cancellation flag shared between a long
// running operation (transfer, aggregation) and whatever UI affordance can
// cancel it, mirroring the spec's Arc<AtomicBool>.
type CancelToken struct {
	flag *atomic.Bool
}

// NewCancelToken returns a fresh, unfired token.
func NewCancelToken() CancelToken {
	return CancelToken{flag: new(atomic.Bool)}
}

// Cancel fires the token. Safe to call more than once or from any goroutine.
func (t CancelToken) Cancel() {
	if t.flag != nil {
		t.flag.Store(true)
	}
}

// Cancelled reports whether Cancel has been called.
func (t CancelToken) Cancelled() bool {
	return t.flag != nil && t.flag.Load()
}
