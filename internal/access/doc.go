// Package access implements the access control engine: the grant,
// revoke, check, and authenticate operations over the ACL store.
//
// The engine is the only writer of ACL state. Every mutation and every
// authentication attempt is recorded in the audit log; pure reads
// (Check, ListRoomAccess) never are. Duplicate grants are rejected by
// the storage layer's composite primary key, so concurrent callers
// cannot race a check-then-insert into a double grant.
package access
