package models

import "time"

// Account is a tracked ledger account.
type Account struct {
	Address    string    `json:"address" badgerhold:"key"`
	Name       string    `json:"name,omitempty"`
	Desc       string    `json:"desc,omitempty"`
	LastSynced time.Time `json:"last_synced,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
