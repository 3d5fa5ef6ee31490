package models

import "time"

// Invite is a short-lived co-ownership code for a pet. Codes stay valid
// until expiry even after being redeemed, so several users may join from
// the same code.
type Invite struct {
	ID        string    `json:"id"`
	PetID     string    `json:"pet_id"`
	Code      string    `json:"code"`
	CreatedBy string    `json:"created_by"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the invite can no longer be redeemed. An invite
// whose expiry equals the current instant is already expired.
func (i Invite) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}
