// Package identity provides the identity directory and subject resolution
// for Atrium Core.
//
// Two identity kinds exist: RFID identities keyed by the tag's unique
// identifier, and face-recognition identities keyed by username. Both are
// persisted behind repository interfaces with uniqueness enforced on the
// natural key.
//
// The Resolver maps a raw subject string - as delivered by a sensor event or
// an authentication request - to a canonical identity, or to an explicit
// unresolved result. The same resolver instance is shared by the access
// control engine and the notification ingestion pipeline so the
// classification heuristic exists exactly once.
package identity
