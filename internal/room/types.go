package room

import "time"

// Room represents a physical space protected by access control.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	Capacity  int       `json:"capacity,omitempty"`
	OwnerID   string    `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Update carries the mutable room fields. Nil pointers leave the
// corresponding field unchanged.
type Update struct {
	Name     *string `json:"name,omitempty"`
	Location *string `json:"location,omitempty"`
	Capacity *int    `json:"capacity,omitempty"`
	OwnerID  *string `json:"owner_id,omitempty"`
}
