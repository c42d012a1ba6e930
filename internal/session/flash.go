package session

import (
	"sync"

	"murlie/internal/cartstore"
)

const maxNotices = 20

// Flash queues notices until the next response drains them.
type Flash struct {
	mu      sync.Mutex
	notices []cartstore.Notice
}

func (f *Flash) Notify(n cartstore.Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, n)
	if len(f.notices) > maxNotices {
		f.notices = f.notices[len(f.notices)-maxNotices:]
	}
}

// Drain returns the queued notices oldest first and empties the queue.
func (f *Flash) Drain() []cartstore.Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.notices
	f.notices = nil
	if out == nil {
		out = []cartstore.Notice{}
	}
	return out
}

// Pending reports how many notices are queued.
func (f *Flash) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notices)
}
