// Package session holds per-browser-session state: who is signed in, the
// cart store scoped to that identity, and the notices waiting to be shown.
package session

import (
	"sync"

	"github.com/asaskevich/EventBus"

	"murlie/internal/domain"
)

const topicIdentity = "identity"

// Provider is the identity of one browser session. Listeners are told about
// every change of signed-in user, including sign-out (a nil user).
type Provider struct {
	sid string
	bus EventBus.Bus

	// pub orders each identity write with its notification
	pub sync.Mutex

	mu   sync.RWMutex
	user *domain.User
	subs []func(*domain.User)
}

func NewProvider(sid string) *Provider {
	return &Provider{sid: sid, bus: EventBus.New()}
}

func (p *Provider) SID() string { return p.sid }

// User returns the signed-in user or nil.
func (p *Provider) User() *domain.User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user
}

// Set records the signed-in user and notifies listeners when the identity
// differs from the current one. It reports whether anything changed.
// Listeners run synchronously on the caller's goroutine and must not call
// Set themselves.
func (p *Provider) Set(u *domain.User) bool {
	p.pub.Lock()
	defer p.pub.Unlock()

	p.mu.Lock()
	if domain.SameIdentity(p.user, u) {
		// refresh profile fields without a change notification
		p.user = u
		p.mu.Unlock()
		return false
	}
	p.user = u
	p.mu.Unlock()

	p.bus.Publish(topicIdentity, u)
	return true
}

func (p *Provider) Subscribe(fn func(*domain.User)) error {
	if err := p.bus.Subscribe(topicIdentity, fn); err != nil {
		return err
	}
	p.mu.Lock()
	p.subs = append(p.subs, fn)
	p.mu.Unlock()
	return nil
}

// Close detaches every listener.
func (p *Provider) Close() {
	p.mu.Lock()
	subs := p.subs
	p.subs = nil
	p.mu.Unlock()
	for _, fn := range subs {
		_ = p.bus.Unsubscribe(topicIdentity, fn)
	}
}
