package session

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"murlie/internal/cartstore"
	"murlie/internal/domain"
)

// Scope bundles what lives exactly as long as one browser session.
type Scope struct {
	ID       string
	Identity *Provider
	Cart     *cartstore.Store
	Flash    *Flash

	lastSeen time.Time
}

// Registry owns every live Scope, keyed by session id. A scope is created on
// first use and torn down by End or by the idle sweep.
type Registry struct {
	remote cartstore.Remote
	opts   []cartstore.Option
	ttl    time.Duration
	log    *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	scopes map[string]*Scope
	sched  *cron.Cron
}

func NewRegistry(remote cartstore.Remote, ttl time.Duration, log *zap.Logger, opts ...cartstore.Option) *Registry {
	if log == nil {
		log = zap.L()
	}
	return &Registry{
		remote: remote,
		opts:   opts,
		ttl:    ttl,
		log:    log,
		now:    time.Now,
		scopes: map[string]*Scope{},
	}
}

// Acquire returns the scope for sid, creating it when missing.
func (r *Registry) Acquire(sid string) *Scope {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sc, ok := r.scopes[sid]; ok {
		sc.lastSeen = r.now()
		return sc
	}
	sc := r.build(sid)
	r.scopes[sid] = sc
	return sc
}

// Get returns the live scope for sid and marks it as seen.
func (r *Registry) Get(sid string) (*Scope, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.scopes[sid]
	if ok {
		sc.lastSeen = r.now()
	}
	return sc, ok
}

// Detached builds a scope for sid that the registry does not hold. It lives
// for one request unless handed to Adopt.
func (r *Registry) Detached(sid string) *Scope {
	return r.build(sid)
}

// Adopt registers a detached scope and returns the live scope for its id.
// When another scope already holds the id, the detached scope's pending
// notices move to it and the detached scope is closed.
func (r *Registry) Adopt(sc *Scope) *Scope {
	r.mu.Lock()
	cur, ok := r.scopes[sc.ID]
	if !ok {
		sc.lastSeen = r.now()
		r.scopes[sc.ID] = sc
	}
	r.mu.Unlock()
	if !ok || cur == sc {
		return sc
	}
	for _, n := range sc.Flash.Drain() {
		cur.Flash.Notify(n)
	}
	sc.Identity.Close()
	return cur
}

func (r *Registry) build(sid string) *Scope {
	flash := &Flash{}
	opts := append([]cartstore.Option{cartstore.WithLogger(r.log)}, r.opts...)
	store := cartstore.New(r.remote, flash, opts...)
	id := NewProvider(sid)
	_ = id.Subscribe(func(u *domain.User) {
		// SetUser reports failures through the flash already
		_ = store.SetUser(context.Background(), u)
	})
	return &Scope{ID: sid, Identity: id, Cart: store, Flash: flash, lastSeen: r.now()}
}

// Peek returns the scope for sid without creating or touching it.
func (r *Registry) Peek(sid string) (*Scope, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.scopes[sid]
	return sc, ok
}

// End tears down the scope for sid. The durable cart is not affected.
func (r *Registry) End(sid string) {
	r.mu.Lock()
	sc, ok := r.scopes[sid]
	delete(r.scopes, sid)
	r.mu.Unlock()
	if ok {
		sc.Identity.Close()
	}
}

// Sweep ends every scope idle for longer than the TTL and returns how many.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	var idle []*Scope
	for sid, sc := range r.scopes {
		if now.Sub(sc.lastSeen) > r.ttl {
			idle = append(idle, sc)
			delete(r.scopes, sid)
		}
	}
	r.mu.Unlock()
	for _, sc := range idle {
		sc.Identity.Close()
	}
	return len(idle)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scopes)
}

// Start schedules the idle sweep.
func (r *Registry) Start(spec string) error {
	r.sched = cron.New()
	_, err := r.sched.AddFunc(spec, func() {
		if n := r.Sweep(r.now()); n > 0 {
			r.log.Info("session.sweep", zap.Int("ended", n), zap.Int("live", r.Len()))
		}
	})
	if err != nil {
		return err
	}
	r.sched.Start()
	return nil
}

func (r *Registry) Stop() {
	if r.sched == nil {
		return
	}
	<-r.sched.Stop().Done()
}
