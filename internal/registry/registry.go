// Package registry maintains the mapping between live connections and the
// tickers they are subscribed to. It keeps a forward index (connection →
// tickers) and an inverse index (ticker → connections) as two views of one
// relation; every mutation updates both halves under a single lock so readers
// never observe a half-applied change.
package registry

import (
	"sort"
	"sync"

	"github.com/ShrutiSutar/stock-broker-dashboard/internal/catalog"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/domain"
)

// connection is the registry-side state for one live connection.
type connection struct {
	meta domain.UserMeta
	subs map[string]struct{}
}

// Registry is the concurrent-safe subscription registry. The zero value is
// not usable; construct with New.
type Registry struct {
	mu       sync.RWMutex
	conns    map[string]*connection         // forward: conn id → state
	interest map[string]map[string]struct{} // inverse: ticker → conn id set
}

// New creates an empty Registry with an inverse-index bucket for every
// catalog ticker.
func New() *Registry {
	interest := make(map[string]map[string]struct{})
	for _, sym := range catalog.Symbols() {
		interest[sym] = make(map[string]struct{})
	}
	return &Registry{
		conns:    make(map[string]*connection),
		interest: interest,
	}
}

// AddConnection registers a connection with an empty subscription set. It
// returns ErrDuplicateConnection if id is already present; the transport's
// identity scheme makes that a programming error rather than a user error.
func (r *Registry) AddConnection(id string, meta domain.UserMeta) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[id]; ok {
		return domain.ErrDuplicateConnection
	}
	r.conns[id] = &connection{
		meta: meta,
		subs: make(map[string]struct{}),
	}
	return nil
}

// RemoveConnection removes the connection and all its subscription edges in
// one step. Calling it for an unknown id is a no-op, so disconnect handlers
// may fire more than once without harm.
func (r *Registry) RemoveConnection(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[id]
	if !ok {
		return
	}
	for ticker := range c.subs {
		delete(r.interest[ticker], id)
	}
	delete(r.conns, id)
}

// Subscribe adds ticker to the connection's set and the connection to the
// ticker's interested set. Unknown tickers and unknown connections are
// silently ignored.
func (r *Registry) Subscribe(id, ticker string) {
	if !catalog.Supports(ticker) {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[id]
	if !ok {
		return
	}
	c.subs[ticker] = struct{}{}
	r.interest[ticker][id] = struct{}{}
}

// Unsubscribe removes the edge if present; no-op otherwise.
func (r *Registry) Unsubscribe(id, ticker string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[id]
	if !ok {
		return
	}
	delete(c.subs, ticker)
	if set, ok := r.interest[ticker]; ok {
		delete(set, id)
	}
}

// ReplaceSubscriptions atomically sets the connection's subscription set to
// the catalog-valid subset of tickers. Edges absent from the new set are
// removed and new edges added under one lock, so a concurrent Subscribers
// call sees either the old set or the new set, never a mix. It returns the
// applied set in sorted order.
func (r *Registry) ReplaceSubscriptions(id string, tickers []string) []string {
	next := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		if catalog.Supports(t) {
			next[t] = struct{}{}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[id]
	if !ok {
		return nil
	}

	for ticker := range c.subs {
		if _, keep := next[ticker]; !keep {
			delete(r.interest[ticker], id)
		}
	}
	for ticker := range next {
		r.interest[ticker][id] = struct{}{}
	}
	c.subs = next

	return sortedKeys(next)
}

// Subscribers returns a point-in-time snapshot of the connection ids
// interested in ticker. The returned slice is owned by the caller.
func (r *Registry) Subscribers(ticker string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.interest[ticker]
	if !ok || len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// SubscriptionsOf returns the connection's current subscriptions in sorted
// order, or nil for an unknown connection.
func (r *Registry) SubscriptionsOf(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[id]
	if !ok {
		return nil
	}
	return sortedKeys(c.subs)
}

// MetaOf returns the user metadata recorded for the connection.
func (r *Registry) MetaOf(id string) (domain.UserMeta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[id]
	if !ok {
		return domain.UserMeta{}, false
	}
	return c.meta, true
}

// ConnectionCount returns the number of registered connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
