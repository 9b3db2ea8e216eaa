// Package directory is the stand-in for the external account and
// listing services. The inbox view only needs display data, so the
// implementation is a seedable in-memory table; a real deployment
// plugs the upstream services in behind contract.Directory.
package directory

import (
	"sync"

	"market-chat/contract"
)

type InMemory struct {
	mu       sync.RWMutex
	users    map[string]contract.UserProfile
	listings map[string]contract.ListingSummary
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:    make(map[string]contract.UserProfile),
		listings: make(map[string]contract.ListingSummary),
	}
}

func (d *InMemory) AddUser(profile contract.UserProfile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[profile.ID] = profile
}

func (d *InMemory) AddListing(listing contract.ListingSummary) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listings[listing.ID] = listing
}

func (d *InMemory) User(userID string) (contract.UserProfile, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	profile, ok := d.users[userID]
	return profile, ok
}

func (d *InMemory) Listing(listingID string) (contract.ListingSummary, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	listing, ok := d.listings[listingID]
	return listing, ok
}
