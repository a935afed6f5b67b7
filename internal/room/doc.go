// Package room manages the physical spaces access control operates on.
//
// A room is the unit of access: grants, entry checks, and audit records
// all reference a room by its identifier. Rooms carry light metadata
// (location, capacity, owner) used by the admin API; the access engine
// only cares that the room exists.
package room
