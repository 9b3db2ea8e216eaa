package directory

import (
	"encoding/json"
	"fmt"
	"os"

	"market-chat/contract"
)

type seedFile struct {
	Users    []contract.UserProfile    `json:"users"`
	Listings []contract.ListingSummary `json:"listings"`
}

// LoadFile seeds the directory from a JSON file of users and listings.
// Meant for local runs and demos; production resolves these upstream.
func (d *InMemory) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading directory seed: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parsing directory seed: %w", err)
	}
	for _, user := range seed.Users {
		d.AddUser(user)
	}
	for _, listing := range seed.Listings {
		d.AddListing(listing)
	}
	return nil
}
