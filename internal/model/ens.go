package model

import "time"

// ENSRegistration maps an ENS name to the address that registered it.
// Owner is always lowercase.
type ENSRegistration struct {
	ID           string    `json:"id"`
	ENSName      string    `json:"ensName"`
	NodeHash     string    `json:"nodeHash"`
	Owner        string    `json:"owner"`
	RegisteredAt time.Time `json:"registeredAt"`
}
