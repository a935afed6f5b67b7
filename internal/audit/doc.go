// Package audit maintains the append-only trail of access control
// activity: grants, revocations, authentication attempts, and room
// entries observed on the sensor bus.
//
// The log is deliberately append-only. There is no update or delete
// operation, so the trail stays a reliable forensic record even when
// ACL state is later changed or reverted. Event ids are strictly
// increasing and timestamps never move backwards, which lets readers
// order events without comparing wall clocks.
package audit
