package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atrium-access/atrium-core/internal/audit"
	"github.com/atrium-access/atrium-core/internal/identity"
	"github.com/atrium-access/atrium-core/internal/infrastructure/logging"
	"github.com/atrium-access/atrium-core/internal/room"
)

// Engine coordinates grants, revocations, and authentication over the
// ACL store, recording every mutation and auth attempt in the audit log.
type Engine struct {
	grants   GrantRepository
	rooms    room.Repository
	resolver *identity.Resolver
	log      *audit.Log
	logger   *logging.Logger

	// requireKnown refuses grants whose identifier does not resolve
	// to a directory identity.
	requireKnown bool
}

// Config carries the engine's collaborators and policy knobs.
type Config struct {
	Grants   GrantRepository
	Rooms    room.Repository
	Resolver *identity.Resolver
	Audit    *audit.Log
	Logger   *logging.Logger

	// RequireKnownIdentity makes Grant fail with ErrUnknownIdentity
	// when the identifier matches nothing in the identity directory.
	// Off by default: grants may be issued ahead of enrolment.
	RequireKnownIdentity bool
}

// NewEngine creates an access control engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		grants:       cfg.Grants,
		rooms:        cfg.Rooms,
		resolver:     cfg.Resolver,
		log:          cfg.Audit,
		logger:       cfg.Logger,
		requireKnown: cfg.RequireKnownIdentity,
	}
}

// Grant inserts an ACL entry allowing identifier into roomID and
// appends a grant event to the audit log.
//
// Returns room.ErrNotFound if the room is absent and ErrGrantExists if
// the (room, identifier) pair is already granted. A duplicate grant is
// a no-op for the ACL but still reported as a conflict so the caller
// learns its request changed nothing.
func (e *Engine) Grant(ctx context.Context, roomID, identifier string, identityType identity.Type) (*Grant, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("%w: identifier is required", ErrValidation)
	}
	if !identityType.Valid() {
		return nil, fmt.Errorf("%w: invalid identity type %q", ErrValidation, identityType)
	}
	if _, err := e.rooms.Get(ctx, roomID); err != nil {
		return nil, err
	}

	if e.requireKnown {
		res, err := e.resolver.ResolveTyped(ctx, identifier, identityType)
		if err != nil {
			return nil, fmt.Errorf("resolving identifier %q: %w", identifier, err)
		}
		if !res.Resolved() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownIdentity, identifier)
		}
	}

	g := &Grant{RoomID: roomID, Identifier: identifier, IdentityType: identityType}
	if err := e.grants.Insert(ctx, g); err != nil {
		return nil, err
	}

	e.appendAudit(ctx, &audit.Event{
		Action:       audit.ActionGrant,
		RoomID:       roomID,
		Subject:      identifier,
		IdentityType: string(identityType),
	})
	return g, nil
}

// Revoke removes the grant for (roomID, identifier) and appends a
// revoke event. Returns ErrGrantNotFound without touching the audit
// log when no such grant exists.
func (e *Engine) Revoke(ctx context.Context, roomID, identifier string) error {
	if err := e.grants.Delete(ctx, roomID, identifier); err != nil {
		return err
	}
	e.appendAudit(ctx, &audit.Event{
		Action:  audit.ActionRevoke,
		RoomID:  roomID,
		Subject: identifier,
	})
	return nil
}

// Check reports whether identifier currently holds a grant for roomID.
// It is a pure read: no audit entry, no state change.
func (e *Engine) Check(ctx context.Context, roomID, identifier string) (bool, error) {
	return e.grants.Exists(ctx, roomID, identifier)
}

// ListRoomAccess returns the room's grants joined against the identity
// directory. Grants whose identifier no longer resolves are skipped
// with a warning; partial results are valid.
func (e *Engine) ListRoomAccess(ctx context.Context, roomID string) ([]ResolvedGrant, error) {
	if _, err := e.rooms.Get(ctx, roomID); err != nil {
		return nil, err
	}
	grants, err := e.grants.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	resolved := []ResolvedGrant{}
	for _, g := range grants {
		res, err := e.resolver.ResolveTyped(ctx, g.Identifier, g.IdentityType)
		if err != nil {
			return nil, fmt.Errorf("resolving grant %s/%s: %w", g.RoomID, g.Identifier, err)
		}
		if !res.Resolved() {
			e.logger.Warn("grant identifier no longer resolves, skipping",
				"room_id", g.RoomID, "identifier", g.Identifier, "identity_type", g.IdentityType)
			continue
		}
		resolved = append(resolved, ResolvedGrant{Grant: g, Name: res.DisplayName()})
	}
	return resolved, nil
}

// ListIdentifierRooms returns the rooms an identifier currently holds
// grants for. The identifier must resolve to a directory identity;
// otherwise ErrUnknownIdentity is returned. A grant whose room has
// since disappeared is skipped with a warning, mirroring how
// ListRoomAccess treats stale identifiers.
func (e *Engine) ListIdentifierRooms(ctx context.Context, identifier string) ([]room.Room, error) {
	res, err := e.resolver.Resolve(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("resolving identifier %q: %w", identifier, err)
	}
	if !res.Resolved() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIdentity, identifier)
	}

	grants, err := e.grants.ListByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	rooms := []room.Room{}
	for _, g := range grants {
		rm, err := e.rooms.Get(ctx, g.RoomID)
		if err != nil {
			if errors.Is(err, room.ErrNotFound) {
				e.logger.Warn("granted room no longer exists, skipping",
					"room_id", g.RoomID, "identifier", identifier)
				continue
			}
			return nil, err
		}
		rooms = append(rooms, *rm)
	}
	return rooms, nil
}

// Authenticate classifies raw against the identity directory,
// constrained to source when given, and records the outcome.
//
// Success appends an auth_success event and returns the resolution.
// Failure appends an auth_failed event carrying the resolver's reason
// and returns ErrUnauthorized. Authentication never mutates ACL state.
func (e *Engine) Authenticate(ctx context.Context, raw string, source identity.Type) (identity.Resolution, error) {
	res, err := e.resolver.ResolveTyped(ctx, raw, source)
	if err != nil {
		return identity.Resolution{}, fmt.Errorf("resolving %q: %w", raw, err)
	}

	if !res.Resolved() {
		e.appendAudit(ctx, &audit.Event{
			Action:  audit.ActionAuthFailed,
			Subject: res.Value,
			Details: map[string]any{"reason": res.Reason},
		})
		return res, fmt.Errorf("%w: %s", ErrUnauthorized, res.Reason)
	}

	e.appendAudit(ctx, &audit.Event{
		Action:       audit.ActionAuthSuccess,
		Subject:      res.DisplayName(),
		IdentityType: res.TypeLabel(),
	})
	return res, nil
}

// appendAudit records an event, logging rather than failing the
// calling operation when the audit backend is unreachable. The ACL
// mutation has already committed at that point.
func (e *Engine) appendAudit(ctx context.Context, event *audit.Event) {
	if _, err := e.log.Append(ctx, event); err != nil {
		if errors.Is(err, audit.ErrUnavailable) {
			e.logger.Error("audit log unavailable, event dropped",
				"action", event.Action, "subject", event.Subject, "error", err)
			return
		}
		e.logger.Error("appending audit event failed",
			"action", event.Action, "subject", event.Subject, "error", err)
	}
}
