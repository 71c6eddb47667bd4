package ledger

import "sync"

type memberKey struct {
	groupID int64
	account string
}

type groupLock struct {
	sync.RWMutex
	refs int
}

type memberLock struct {
	sync.Mutex
	refs int
}

// lockTable hands out per-group and per-membership locks. Group locks
// serialize stake, attestation and settlement on one group; membership
// locks serialize retries of one account's claim while other accounts
// claim concurrently under the group's read lock.
//
// Entries are reference counted and dropped once nobody holds or waits on
// them, so the table only grows with in-flight calls.
type lockTable struct {
	mu      sync.Mutex
	groups  map[int64]*groupLock
	members map[memberKey]*memberLock
}

func newLockTable() *lockTable {
	return &lockTable{
		groups:  make(map[int64]*groupLock),
		members: make(map[memberKey]*memberLock),
	}
}

// group returns the lock for id. The caller must call release after
// unlocking it.
func (t *lockTable) group(id int64) (lock *sync.RWMutex, release func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.groups[id]
	if !ok {
		l = &groupLock{}
		t.groups[id] = l
	}
	l.refs++

	return &l.RWMutex, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if l.refs--; l.refs == 0 {
			delete(t.groups, id)
		}
	}
}

// member returns the lock for one account in a group. The caller must call
// release after unlocking it.
func (t *lockTable) member(id int64, account string) (lock *sync.Mutex, release func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := memberKey{groupID: id, account: account}
	l, ok := t.members[k]
	if !ok {
		l = &memberLock{}
		t.members[k] = l
	}
	l.refs++

	return &l.Mutex, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if l.refs--; l.refs == 0 {
			delete(t.members, k)
		}
	}
}

func (t *lockTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.groups) + len(t.members)
}
