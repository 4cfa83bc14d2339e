package runtime

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquireRelease_SerializesConcurrentCallers(t *testing.T) {
	dev := newFakeDevice()
	var holders int32
	var maxHolders int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := Acquire(dev)
			defer ctx.Release()

			n := atomic.AddInt32(&holders, 1)
			for {
				max := atomic.LoadInt32(&maxHolders)
				if n <= max || atomic.CompareAndSwapInt32(&maxHolders, max, n) {
					break
				}
			}
			atomic.AddInt32(&holders, -1)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), maxHolders)
}

func TestAcquire_AssignsDistinctSessionIDs(t *testing.T) {
	dev := newFakeDevice()
	ctx1 := Acquire(dev)
	ctx1.Release()
	ctx2 := Acquire(dev)
	defer ctx2.Release()

	require.NotEqual(t, ctx1.SessionID, ctx2.SessionID)
}
