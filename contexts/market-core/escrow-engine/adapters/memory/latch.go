package memory

import (
	"context"
	"sync"

	domainerrors "caravel/contexts/market-core/escrow-engine/domain/errors"
)

// Latch is the in-process entry guard: unlocked at idle, locked for the
// duration of exactly one guarded operation. A second Acquire while held
// fails fast instead of waiting, which is what turns a re-entering external
// call into a hard error.
type Latch struct {
	mu     sync.Mutex
	locked bool
}

func NewLatch() *Latch {
	return &Latch{}
}

// Acquire locks the latch and returns a release closure. The release is safe
// to call more than once.
func (l *Latch) Acquire(_ context.Context) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locked {
		return nil, domainerrors.ErrReentrantCall
	}
	l.locked = true

	released := false
	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if released {
			return
		}
		released = true
		l.locked = false
	}
	return release, nil
}
