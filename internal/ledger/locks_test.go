package ledger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLockTable_DropsIdleEntries(t *testing.T) {
	locks := newLockTable()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
		peak    int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			group, release := locks.group(1)
			defer release()
			group.Lock()
			defer group.Unlock()

			mu.Lock()
			holders++
			if holders > peak {
				peak = holders
			}
			mu.Unlock()

			member, releaseMember := locks.member(1, "alice")
			member.Lock()
			member.Unlock()
			releaseMember()

			mu.Lock()
			holders--
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, 1, peak, "group lock is exclusive")
	require.Zero(t, locks.size())

	a, releaseA := locks.group(2)
	b, releaseB := locks.group(2)
	require.Same(t, a, b, "callers of one group share its lock")
	releaseA()
	require.Equal(t, 1, locks.size(), "entry lives while referenced")
	releaseB()
	require.Zero(t, locks.size())
}
