package session

import "sync"

// locker is a reference-counted exclusive-access lock around a
// physical reader's channel, grounded on OpenSC's sc_lock/sc_unlock.
// The underlying reader
// lock/unlock is invoked exactly once per 0->1 and 1->0 transition, so
// nested Lock calls from code that is already holding the lock (e.g.
// the apdu engine locking around a retry sequence that a higher-level
// card operation already locked) are cheap recursive increments rather
// than redundant reader calls.
type locker struct {
	mu    sync.Mutex
	count int

	// reader-level primitives; nil is treated as a no-op.
	readerLock   func() error
	readerUnlock func() error

	// invalidate is called when the count drops back to zero, so any
	// cache the card keeps is dropped along with exclusive access.
	invalidate func()
}

func newLocker(readerLock, readerUnlock func() error, invalidate func()) *locker {
	return &locker{readerLock: readerLock, readerUnlock: readerUnlock, invalidate: invalidate}
}

// Lock claims exclusive access, physically locking the reader only on
// the transition from 0 held references to 1.
func (l *locker) Lock() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count == 0 && l.readerLock != nil {
		if err := l.readerLock(); err != nil {
			return err
		}
	}
	l.count++
	return nil
}

// Unlock releases one reference, physically unlocking the reader (and
// invalidating any cache) only when the count returns to 0.
//
// Calling Unlock without a matching prior Lock is a programming error;
// like sc_unlock's assert(card->lock_count >= 0), it panics rather
// than silently going negative.
func (l *locker) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count--
	if l.count < 0 {
		panic("session: Unlock called without a matching Lock")
	}

	if l.count == 0 {
		var err error
		if l.readerUnlock != nil {
			err = l.readerUnlock()
		}
		if l.invalidate != nil {
			l.invalidate()
		}
		return err
	}
	return nil
}

// Count reports the current number of outstanding Lock calls. Intended
// for tests and Disconnect's precondition check.
func (l *locker) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
