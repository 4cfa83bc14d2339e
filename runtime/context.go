package runtime

import (
	"sync/atomic"

	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// contextLock is the process-wide test-and-set spinlock serializing
// Acquire/Release (spec.md §5 "Runtime side": "Acquisition serialises on
// a test-and-set spinlock; callers must always pair acquire with
// release. At most one thread holds the context at a time.").
var contextLock uint32

// Context holds one acquired Device for the duration of a runtime
// operation. Callers must call Release exactly once for every successful
// Acquire, on every exit path including error returns.
type Context struct {
	Device    Device
	SessionID uuid.UUID
}

// Acquire spins until it wins the process-wide lock, then wraps dev in a
// Context with a fresh session id used to correlate log lines across one
// held context (spec.md §5). Acquire never blocks on device work, only on
// the lock itself.
func Acquire(dev Device) *Context {
	for !atomic.CompareAndSwapUint32(&contextLock, 0, 1) {
		// busy-wait: matches the original __atomic_test_and_set spin,
		// no backoff, no fairness guarantee.
	}
	ctx := &Context{Device: dev, SessionID: uuid.New()}
	klog.V(3).InfoS("runtime: context acquired", "session", ctx.SessionID)
	return ctx
}

// Release gives up the context's hold on the process-wide lock. Calling
// Release on an already-released Context, or one never returned by
// Acquire, is a caller bug; the lock is simply cleared either way since
// there is no sentinel-value way to distinguish that at the type level.
func (ctx *Context) Release() {
	klog.V(3).InfoS("runtime: context released", "session", ctx.SessionID)
	atomic.StoreUint32(&contextLock, 0)
}
