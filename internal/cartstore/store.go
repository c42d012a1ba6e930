// Package cartstore keeps one signed-in user's cart as in-memory state that
// reads and writes through to a remote store.
//
// Every mutation is followed by a refresh, so local state never trails the
// remote store by more than one round trip. Refresh responses carry a
// sequence number and a response older than the one on display is dropped,
// which makes the last issued refresh win rather than the last to arrive.
package cartstore

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"murlie/internal/domain"
)

// Remote is the durable cart store. Calls that take a user id must only
// affect that user's lines.
type Remote interface {
	ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error)
	Upsert(ctx context.Context, item domain.CartItem, mode domain.MergeMode) error
	DeleteByID(ctx context.Context, userID, itemID string) error
	UpdateQuantity(ctx context.Context, userID, itemID string, qty int) error
	DeleteByUser(ctx context.Context, userID string) error
}

// State is a point-in-time copy of the cart.
type State struct {
	Items      []domain.CartItem `json:"items"`
	Loading    bool              `json:"loading"`
	TotalItems int               `json:"total_items"`
	TotalPrice decimal.Decimal   `json:"total_price"`
}

// Option configures a Store.
type Option func(*Store)

// WithMergeMode sets how a repeated add of the same line is merged.
func WithMergeMode(m domain.MergeMode) Option { return func(s *Store) { s.mode = m } }

// WithLogger sets the logger for identity and refresh events.
func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.log = l } }

// Store is the cart of whichever user it is currently scoped to.
type Store struct {
	remote Remote
	notify Notifier
	mode   domain.MergeMode
	log    *zap.Logger

	mu       sync.Mutex
	user     *domain.User
	gen      uint64 // bumped on every identity change
	items    []domain.CartItem
	inflight int    // refreshes outstanding for the current identity
	issued   uint64 // last sequence number handed out
	applied  uint64 // sequence number of the items on display
}

// New returns an empty store with no user. A nil notify discards notices.
func New(remote Remote, notify Notifier, opts ...Option) *Store {
	if notify == nil {
		notify = Discard
	}
	s := &Store{remote: remote, notify: notify, mode: domain.MergeAdd, log: zap.L()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// User returns the identity the store is scoped to, or nil.
func (s *Store) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// MergeMode reports how repeated adds are merged.
func (s *Store) MergeMode() domain.MergeMode { return s.mode }

// SetUser rescopes the store to a new identity. The previous identity's
// items are dropped at once and responses still in flight for it are
// ignored. A nil user leaves the store empty without touching the remote.
func (s *Store) SetUser(ctx context.Context, u *domain.User) error {
	s.mu.Lock()
	if domain.SameIdentity(s.user, u) {
		s.mu.Unlock()
		return nil
	}
	s.user = u
	s.gen++
	s.items = nil
	s.inflight = 0
	s.applied = s.issued
	s.mu.Unlock()

	if u == nil {
		s.log.Debug("cart.identity.cleared")
		return nil
	}
	s.log.Debug("cart.identity.set", zap.String("user_id", u.ID))
	return s.Refresh(ctx)
}

// Refresh reloads the cart of the current user. On failure the items on
// display are kept.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.user == nil {
		s.items = nil
		s.applied = s.issued
		s.mu.Unlock()
		return nil
	}
	uid, gen := s.user.ID, s.gen
	s.issued++
	seq := s.issued
	s.inflight++
	s.mu.Unlock()

	items, err := s.remote.ListByUser(ctx, uid)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.log.Debug("cart.refresh.stale_identity", zap.Uint64("seq", seq))
		return nil
	}
	s.inflight--
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("cart.refresh.fail", zap.String("user_id", uid), zap.Error(err))
		s.notify.Notify(Notice{Kind: Failure, Message: "Failed to load cart items"})
		return &RemoteError{Op: "refresh", Err: err}
	}
	if seq < s.applied {
		s.mu.Unlock()
		s.log.Debug("cart.refresh.discarded", zap.Uint64("seq", seq))
		return nil
	}
	s.items = items
	s.applied = seq
	s.mu.Unlock()
	return nil
}

// AddToCart adds quantity of a product line. A line that already exists for
// (product, size, color) is merged according to the store's MergeMode.
func (s *Store) AddToCart(ctx context.Context, productID string, quantity int, size, color string) error {
	u := s.User()
	if u == nil {
		s.notify.Notify(Notice{Kind: Failure, Message: "Please sign in to add items to cart"})
		return ErrAuthenticationRequired
	}
	if quantity < 1 {
		quantity = 1
	}
	item := domain.CartItem{UserID: u.ID, ProductID: productID, Quantity: quantity, Size: size, Color: color}
	if err := s.remote.Upsert(ctx, item, s.mode); err != nil {
		s.log.Warn("cart.add.fail", zap.String("product_id", productID), zap.Error(err))
		s.notify.Notify(Notice{Kind: Failure, Message: "Failed to add to cart"})
		return &RemoteError{Op: "add", Err: err}
	}
	_ = s.Refresh(ctx)
	s.notify.Notify(Notice{Kind: Success, Message: "Added to cart!"})
	return nil
}

func (s *Store) RemoveFromCart(ctx context.Context, itemID string) error {
	u := s.User()
	if u == nil {
		s.notify.Notify(Notice{Kind: Failure, Message: "Please sign in to manage your cart"})
		return ErrAuthenticationRequired
	}
	if err := s.remote.DeleteByID(ctx, u.ID, itemID); err != nil {
		s.log.Warn("cart.remove.fail", zap.String("item_id", itemID), zap.Error(err))
		s.notify.Notify(Notice{Kind: Failure, Message: "Failed to remove from cart"})
		return &RemoteError{Op: "remove", Err: err}
	}
	_ = s.Refresh(ctx)
	s.notify.Notify(Notice{Kind: Success, Message: "Removed from cart"})
	return nil
}

// UpdateQuantity sets a line's quantity. Zero or less removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveFromCart(ctx, itemID)
	}
	u := s.User()
	if u == nil {
		s.notify.Notify(Notice{Kind: Failure, Message: "Please sign in to manage your cart"})
		return ErrAuthenticationRequired
	}
	if err := s.remote.UpdateQuantity(ctx, u.ID, itemID, quantity); err != nil {
		s.log.Warn("cart.update.fail", zap.String("item_id", itemID), zap.Error(err))
		s.notify.Notify(Notice{Kind: Failure, Message: "Failed to update quantity"})
		return &RemoteError{Op: "update", Err: err}
	}
	_ = s.Refresh(ctx)
	s.notify.Notify(Notice{Kind: Success, Message: "Quantity updated"})
	return nil
}

// ClearCart empties the local cart immediately, then deletes every line
// remotely. If the remote delete fails the previous items come back, unless
// a newer refresh has replaced them in the meantime.
func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		s.notify.Notify(Notice{Kind: Failure, Message: "Please sign in to manage your cart"})
		return ErrAuthenticationRequired
	}
	uid, gen := s.user.ID, s.gen
	snapshot := s.items
	s.items = nil
	// the local clear takes a sequence number so older refreshes cannot undo it
	s.issued++
	s.applied = s.issued
	mark := s.applied
	s.mu.Unlock()

	if err := s.remote.DeleteByUser(ctx, uid); err != nil {
		s.mu.Lock()
		restored := gen == s.gen && s.applied == mark
		if restored {
			s.items = snapshot
		}
		s.mu.Unlock()
		s.log.Warn("cart.clear.fail", zap.String("user_id", uid), zap.Bool("restored", restored), zap.Error(err))
		s.notify.Notify(Notice{Kind: Failure, Message: "Failed to clear cart"})
		return &RemoteError{Op: "clear", Err: err}
	}
	s.notify.Notify(Notice{Kind: Success, Message: "Cart cleared"})
	return nil
}

// State returns a copy of the items with totals derived from them.
func (s *Store) State() State {
	s.mu.Lock()
	items := make([]domain.CartItem, len(s.items))
	copy(items, s.items)
	loading := s.inflight > 0
	s.mu.Unlock()

	st := State{Items: items, Loading: loading, TotalPrice: decimal.Zero}
	for _, it := range items {
		st.TotalItems += it.Quantity
		st.TotalPrice = st.TotalPrice.Add(it.Subtotal())
	}
	return st
}

// TotalItems is the sum of quantities over the loaded items.
func (s *Store) TotalItems() int { return s.State().TotalItems }
