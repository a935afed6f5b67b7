package access

import (
	"time"

	"github.com/atrium-access/atrium-core/internal/identity"
)

// Grant represents a single ACL entry: the holder of identifier may
// enter the room.
type Grant struct {
	RoomID       string        `json:"room_id"`
	Identifier   string        `json:"identifier"`
	IdentityType identity.Type `json:"identity_type"`
	GrantedAt    time.Time     `json:"granted_at"`
}

// ResolvedGrant pairs a grant with the directory identity it currently
// resolves to. Name is the identity's display name at resolution time.
type ResolvedGrant struct {
	Grant Grant  `json:"grant"`
	Name  string `json:"name"`
}
