package audit

import "time"

// Actions recorded in the audit trail.
const (
	ActionGrant       = "grant"
	ActionRevoke      = "revoke"
	ActionAuthSuccess = "auth_success"
	ActionAuthFailed  = "auth_failed"
	ActionRoomEntry   = "room_entry"
)

// Event represents a single audit trail entry. ID and Timestamp are
// assigned by the log at append time.
type Event struct {
	ID           int64          `json:"id"`
	Action       string         `json:"action"`
	RoomID       string         `json:"room_id,omitempty"`
	Subject      string         `json:"subject"`
	IdentityType string         `json:"identity_type,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}
