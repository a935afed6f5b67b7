package identity

import "time"

// Type distinguishes the two identity kinds held in the directory.
type Type string

// Identity type values, as stored in grants and audit events.
const (
	TypeRFID Type = "rfid"
	TypeFace Type = "face"
)

// Valid reports whether t is a known identity type.
func (t Type) Valid() bool {
	return t == TypeRFID || t == TypeFace
}

// RFIDIdentity is a person record keyed by a physical tag's unique identifier.
type RFIDIdentity struct {
	UID          string    `json:"uid"`
	Name         string    `json:"name"`
	Active       bool      `json:"active"`
	LinkedFaceID string    `json:"face_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// FaceIdentity is a person record keyed by a recognition-system username,
// holding associated class memberships.
type FaceIdentity struct {
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	ClassIDs  []int     `json:"class_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// HasClass reports whether the identity belongs to the given class.
func (f *FaceIdentity) HasClass(classID int) bool {
	for _, id := range f.ClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}

// RFIDUpdate lists the RFID identity fields allowed to mutate.
// Nil fields are left unchanged.
type RFIDUpdate struct {
	Name         *string `json:"name,omitempty"`
	Active       *bool   `json:"active,omitempty"`
	LinkedFaceID *string `json:"face_id,omitempty"`
}

// FaceUpdate lists the face identity fields allowed to mutate.
// Nil fields are left unchanged. Class membership changes go through
// AddClass/RemoveClass, not through updates.
type FaceUpdate struct {
	Name *string `json:"name,omitempty"`
}
