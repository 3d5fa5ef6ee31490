package models

import "time"

type Pet struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Species   string     `json:"species"`
	Breed     string     `json:"breed,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Microchip string     `json:"microchip,omitempty"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Owner is a pet_owners row joined with the owning user's profile fields.
// Every pet keeps at least one owner row at all times; all owners hold the
// same symmetric rights.
type Owner struct {
	PetID    string    `json:"pet_id"`
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joined_at"`
}
