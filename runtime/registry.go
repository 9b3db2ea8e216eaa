// Package runtime hosts the process-local moving parts of the
// messaging core: the presence registry and the delivery state machine.
// It carries no business rules about message content; those live in
// domain and repositories.
package runtime

import (
	"sync"

	"market-chat/contract"
)

// Registry is the in-memory presence table: user identity -> live
// connection sinks. A user is online iff its set is non-empty; the
// entry is removed entirely when the last connection leaves.
//
// Registry is process-local by design. Multi-instance deployments need
// a shared backing store behind contract.PresenceRegistry; callers
// never see the map.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[string]contract.EventSink // user -> connID -> sink
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]map[string]contract.EventSink)}
}

// MarkOnline binds a connection sink to a user, creating the user entry
// if absent. Returns true when this is the user's first connection, so
// the caller knows to broadcast a "now online" notification.
func (r *Registry) MarkOnline(userID, connID string, sink contract.EventSink) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		set = make(map[string]contract.EventSink)
		r.conns[userID] = set
	}
	set[connID] = sink
	return !ok
}

// MarkOffline removes a connection. When the set becomes empty the
// entry is dropped and true is returned: the user is now fully offline.
func (r *Registry) MarkOffline(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		return false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(r.conns, userID)
		return true
	}
	return false
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID]) > 0
}

// SinksFor returns the user's live connection sinks for targeted push.
// Empty when offline.
func (r *Registry) SinksFor(userID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]contract.EventSink, 0, len(r.conns[userID]))
	for _, sink := range r.conns[userID] {
		sinks = append(sinks, sink)
	}
	return sinks
}

// AllSinks returns every live connection sink, used for presence
// broadcasts.
func (r *Registry) AllSinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for _, set := range r.conns {
		for _, sink := range set {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}
