// Package latest guards state slots against stale asynchronous responses.
//
// Every request takes a tag before it starts. When the response arrives it may
// write its slot only if no newer tag has been issued in the meantime; the check
// and the write happen under the same lock, so each slot has a single writer.
package latest

import (
	"errors"
	"sync"
)

// ErrStale is returned when a response was superseded by a newer request.
// It is a discard signal, not a failure.
var ErrStale = errors.New("stale response discarded")

// Gate hands out monotonically increasing sequence tags for one slot
type Gate struct {
	mu     sync.Mutex
	issued uint64
}

// Next issues a new tag and makes every earlier tag stale
func (g *Gate) Next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued++
	return g.issued
}

// Advance invalidates all in-flight tags without starting a request
func (g *Gate) Advance() {
	g.Next()
}

// Current returns the most recently issued tag
func (g *Gate) Current() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.issued
}

// IsCurrent reports whether seq is still the latest tag
func (g *Gate) IsCurrent(seq uint64) bool {
	return g.Current() == seq
}

// Apply runs write only if seq is still the latest tag
func (g *Gate) Apply(seq uint64, write func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seq != g.issued {
		return ErrStale
	}
	write()
	return nil
}

// Keyed gates writes by the current reactive key instead of a counter.
// A response may write only while its key is still the current one.
type Keyed[K comparable] struct {
	mu      sync.Mutex
	current K
	epoch   uint64
}

// Ticket identifies one request issued under a key
type Ticket[K comparable] struct {
	Key   K
	epoch uint64
}

// Switch makes key current and returns a ticket for a request under it.
// Switching to the same key again still invalidates earlier tickets.
func (k *Keyed[K]) Switch(key K) Ticket[K] {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.current = key
	k.epoch++
	return Ticket[K]{Key: key, epoch: k.epoch}
}

// Key returns the current key
func (k *Keyed[K]) Key() K {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.current
}

// Apply runs write only if t was issued for the current key and nothing switched since
func (k *Keyed[K]) Apply(t Ticket[K], write func()) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if t.epoch != k.epoch || t.Key != k.current {
		return ErrStale
	}
	write()
	return nil
}
