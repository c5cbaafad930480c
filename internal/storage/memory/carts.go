package memory

import (
	"sync"
	"time"

	"github.com/tramline/merch-shop/internal/domain/cart"
	"github.com/tramline/merch-shop/internal/domain/merch"
)

// cartEntry pairs a session's cart with its last-touched time for eviction.
type cartEntry struct {
	store    *cart.Store
	lastUsed time.Time
}

// CartRegistry maps session tokens to their carts. A cart is created on first
// use and evicted after sitting idle for the configured TTL, matching the
// session lifecycle: one cart per active session, destroyed when the session
// ends.
type CartRegistry struct {
	catalog merch.Catalog
	ttl     time.Duration

	mu      sync.Mutex
	entries map[string]*cartEntry

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewCartRegistry creates the registry and starts its eviction goroutine.
// Call Close to stop it.
func NewCartRegistry(catalog merch.Catalog, ttl time.Duration) *CartRegistry {
	r := &CartRegistry{
		catalog: catalog,
		ttl:     ttl,
		entries: make(map[string]*cartEntry),
		stop:    make(chan struct{}),
	}
	r.wg.Add(1)
	go r.evictLoop()
	return r
}

func (r *CartRegistry) evictLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			r.evictIdle(now)
		case <-r.stop:
			return
		}
	}
}

func (r *CartRegistry) evictIdle(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, e := range r.entries {
		if now.Sub(e.lastUsed) > r.ttl {
			delete(r.entries, token)
		}
	}
}

// Cart returns the cart for the given session token, creating it on first
// use. Each call refreshes the idle timer.
func (r *CartRegistry) Cart(token string) *cart.Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[token]
	if !ok {
		e = &cartEntry{store: cart.NewStore(r.catalog)}
		r.entries[token] = e
	}
	e.lastUsed = time.Now()
	return e.store
}

// Drop destroys the cart for the given session token, if any.
func (r *CartRegistry) Drop(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, token)
}

// Close stops the eviction goroutine and waits for it to finish.
func (r *CartRegistry) Close() error {
	close(r.stop)
	r.wg.Wait()
	return nil
}
