package registry

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/ShrutiSutar/stock-broker-dashboard/internal/catalog"
	"github.com/ShrutiSutar/stock-broker-dashboard/internal/domain"
)

func meta(email string) domain.UserMeta {
	return domain.UserMeta{UserID: "uid-" + email, Email: email}
}

// checkConsistent verifies the forward and inverse indexes agree: a ticker is
// in a connection's set iff the connection is in the ticker's interested set.
func checkConsistent(t *testing.T, r *Registry) {
	t.Helper()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, c := range r.conns {
		for ticker := range c.subs {
			if _, ok := r.interest[ticker][id]; !ok {
				t.Errorf("forward edge (%s, %s) missing from inverse index", id, ticker)
			}
		}
	}
	for ticker, set := range r.interest {
		for id := range set {
			c, ok := r.conns[id]
			if !ok {
				t.Errorf("inverse index holds unknown connection %s for %s", id, ticker)
				continue
			}
			if _, ok := c.subs[ticker]; !ok {
				t.Errorf("inverse edge (%s, %s) missing from forward index", ticker, id)
			}
		}
	}
}

func TestAddConnection_Duplicate(t *testing.T) {
	r := New()

	if err := r.AddConnection("c1", meta("a@x.com")); err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}
	if err := r.AddConnection("c1", meta("a@x.com")); err != domain.ErrDuplicateConnection {
		t.Errorf("duplicate AddConnection = %v, want ErrDuplicateConnection", err)
	}
}

func TestSubscribe_UnknownTickerIgnored(t *testing.T) {
	r := New()
	r.AddConnection("c1", meta("a@x.com"))

	r.Subscribe("c1", "FAKE")

	if subs := r.SubscriptionsOf("c1"); len(subs) != 0 {
		t.Errorf("SubscriptionsOf after unknown-ticker subscribe = %v, want empty", subs)
	}
	checkConsistent(t, r)
}

func TestSubscribe_UnknownConnectionIgnored(t *testing.T) {
	r := New()

	r.Subscribe("ghost", "GOOG")

	if subs := r.Subscribers("GOOG"); len(subs) != 0 {
		t.Errorf("Subscribers after ghost subscribe = %v, want empty", subs)
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	r := New()
	r.AddConnection("c1", meta("a@x.com"))
	r.AddConnection("c2", meta("b@x.com"))

	r.Subscribe("c1", "GOOG")
	r.Subscribe("c1", "TSLA")
	r.Subscribe("c2", "GOOG")
	checkConsistent(t, r)

	goog := r.Subscribers("GOOG")
	sort.Strings(goog)
	if len(goog) != 2 || goog[0] != "c1" || goog[1] != "c2" {
		t.Errorf("Subscribers(GOOG) = %v, want [c1 c2]", goog)
	}

	subs := r.SubscriptionsOf("c1")
	if len(subs) != 2 || subs[0] != "GOOG" || subs[1] != "TSLA" {
		t.Errorf("SubscriptionsOf(c1) = %v, want [GOOG TSLA]", subs)
	}

	r.Unsubscribe("c1", "GOOG")
	checkConsistent(t, r)
	if got := r.Subscribers("GOOG"); len(got) != 1 || got[0] != "c2" {
		t.Errorf("Subscribers(GOOG) after unsubscribe = %v, want [c2]", got)
	}
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	r := New()
	r.AddConnection("c1", meta("a@x.com"))
	r.Subscribe("c1", "GOOG")

	r.Unsubscribe("c1", "GOOG")
	first := r.SubscriptionsOf("c1")
	r.Unsubscribe("c1", "GOOG")
	second := r.SubscriptionsOf("c1")

	if len(first) != 0 || len(second) != 0 {
		t.Errorf("subscriptions after repeated unsubscribe = %v then %v, want empty both times", first, second)
	}
	checkConsistent(t, r)
}

func TestReplaceSubscriptions(t *testing.T) {
	r := New()
	r.AddConnection("c1", meta("a@x.com"))
	r.Subscribe("c1", "AAPL")
	r.Subscribe("c1", "MSFT")

	applied := r.ReplaceSubscriptions("c1", []string{"GOOG", "TSLA", "FAKE"})
	checkConsistent(t, r)

	if len(applied) != 2 || applied[0] != "GOOG" || applied[1] != "TSLA" {
		t.Errorf("applied = %v, want [GOOG TSLA]", applied)
	}
	if got := r.SubscriptionsOf("c1"); len(got) != 2 || got[0] != "GOOG" || got[1] != "TSLA" {
		t.Errorf("SubscriptionsOf = %v, want [GOOG TSLA]", got)
	}
	// No residual edges from the prior set.
	if got := r.Subscribers("AAPL"); len(got) != 0 {
		t.Errorf("Subscribers(AAPL) after replace = %v, want empty", got)
	}
	if got := r.Subscribers("MSFT"); len(got) != 0 {
		t.Errorf("Subscribers(MSFT) after replace = %v, want empty", got)
	}
}

func TestReplaceSubscriptions_EmptyThenSet(t *testing.T) {
	r := New()
	r.AddConnection("c1", meta("a@x.com"))
	r.Subscribe("c1", "NFLX")

	r.ReplaceSubscriptions("c1", nil)
	if got := r.SubscriptionsOf("c1"); len(got) != 0 {
		t.Fatalf("SubscriptionsOf after empty replace = %v, want empty", got)
	}

	got := r.ReplaceSubscriptions("c1", []string{"GOOG", "TSLA"})
	if len(got) != 2 || got[0] != "GOOG" || got[1] != "TSLA" {
		t.Errorf("SubscriptionsOf = %v, want [GOOG TSLA]", got)
	}
	checkConsistent(t, r)
}

func TestRemoveConnection_CleansInverseIndex(t *testing.T) {
	r := New()
	r.AddConnection("c1", meta("a@x.com"))
	for _, sym := range catalog.Symbols() {
		r.Subscribe("c1", sym)
	}

	r.RemoveConnection("c1")
	checkConsistent(t, r)

	for _, sym := range catalog.Symbols() {
		if got := r.Subscribers(sym); len(got) != 0 {
			t.Errorf("Subscribers(%s) after remove = %v, want empty", sym, got)
		}
	}
	if n := r.ConnectionCount(); n != 0 {
		t.Errorf("ConnectionCount = %d, want 0", n)
	}

	// Removing again is a no-op, not an error.
	r.RemoveConnection("c1")
}

func TestRemoveConnection_DuringSubscriberIteration(t *testing.T) {
	r := New()
	r.AddConnection("c1", meta("a@x.com"))
	r.AddConnection("c2", meta("b@x.com"))
	r.Subscribe("c1", "GOOG")
	r.Subscribe("c2", "GOOG")

	// The snapshot is decoupled from registry state: removing c1 while the
	// caller walks the snapshot must not panic or affect the slice.
	snapshot := r.Subscribers("GOOG")
	r.RemoveConnection("c1")

	if len(snapshot) != 2 {
		t.Errorf("snapshot mutated by RemoveConnection: %v", snapshot)
	}
	after := r.Subscribers("GOOG")
	if len(after) != 1 || after[0] != "c2" {
		t.Errorf("Subscribers(GOOG) after remove = %v, want [c2]", after)
	}
	checkConsistent(t, r)
}

func TestMetaOf(t *testing.T) {
	r := New()
	r.AddConnection("c1", meta("a@x.com"))

	m, ok := r.MetaOf("c1")
	if !ok || m.Email != "a@x.com" {
		t.Errorf("MetaOf(c1) = %+v, %v", m, ok)
	}
	if _, ok := r.MetaOf("ghost"); ok {
		t.Error("MetaOf(ghost) reported ok")
	}
}

func TestConcurrentMutations(t *testing.T) {
	r := New()
	symbols := catalog.Symbols()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		id := fmt.Sprintf("c%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.AddConnection(id, meta(id+"@x.com"))
			for j := 0; j < 100; j++ {
				sym := symbols[j%len(symbols)]
				r.Subscribe(id, sym)
				r.Subscribers(sym)
				r.Unsubscribe(id, sym)
				r.ReplaceSubscriptions(id, symbols[:j%len(symbols)])
			}
			r.RemoveConnection(id)
		}()
	}
	wg.Wait()

	checkConsistent(t, r)
	if n := r.ConnectionCount(); n != 0 {
		t.Errorf("ConnectionCount after churn = %d, want 0", n)
	}
}
