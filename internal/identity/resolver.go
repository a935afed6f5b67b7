package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UIDPrefix is the explicit tag marker sensors prepend to RFID reads.
// A subject carrying it is looked up in the RFID directory only.
const UIDPrefix = "UID:"

// rfidLengthThreshold drives the fallback classification heuristic: raw
// subjects longer than this look like tag UIDs, shorter ones like usernames.
// Sensor payloads carry no reliable type tag, so this trade-off is deliberate.
const rfidLengthThreshold = 8

// Unresolved reason tags, recorded in audit events for unclassifiable subjects.
const (
	// ReasonRFIDUnknown marks a UID-prefixed subject with no matching RFID identity.
	ReasonRFIDUnknown = "rfid_unknown"

	// ReasonUnknown marks a subject that matched neither directory.
	ReasonUnknown = "unknown"
)

// Resolution is the outcome of classifying a raw subject string.
// Exactly one of RFID or Face is non-nil when the subject resolved;
// otherwise Reason carries the unresolved tag.
type Resolution struct {
	RFID *RFIDIdentity
	Face *FaceIdentity

	// Value is the identifier that was looked up: the raw subject, or the
	// stripped value when a UID: marker was present.
	Value string

	// Reason is empty for resolved subjects, otherwise ReasonRFIDUnknown
	// or ReasonUnknown.
	Reason string
}

// Resolved reports whether the subject mapped to a directory identity.
func (r Resolution) Resolved() bool {
	return r.RFID != nil || r.Face != nil
}

// DisplayName returns the resolved identity's name, or the looked-up value
// for unresolved subjects.
func (r Resolution) DisplayName() string {
	switch {
	case r.RFID != nil:
		return r.RFID.Name
	case r.Face != nil:
		return r.Face.Name
	default:
		return r.Value
	}
}

// TypeLabel returns the identity type for resolved subjects ("rfid", "face"),
// or the unresolved reason tag otherwise.
func (r Resolution) TypeLabel() string {
	switch {
	case r.RFID != nil:
		return string(TypeRFID)
	case r.Face != nil:
		return string(TypeFace)
	default:
		return r.Reason
	}
}

// Resolver classifies raw subject strings against the identity directory.
//
// Resolution is read-only: it never mutates directory state. DB-level
// failures surface as errors; a subject that simply matches nothing is a
// Resolution with a Reason, not an error.
type Resolver struct {
	rfid RFIDRepository
	face FaceRepository
}

// NewResolver creates a resolver over the two identity repositories.
func NewResolver(rfid RFIDRepository, face FaceRepository) *Resolver {
	return &Resolver{rfid: rfid, face: face}
}

// Resolve classifies a raw subject string.
//
// A subject carrying the UID: marker is stripped and looked up in the RFID
// directory only; a miss is unresolved with reason rfid_unknown, preserving
// the stripped value. Unmarked subjects fall back to a length heuristic:
// values longer than eight characters try the RFID directory first, shorter
// values try the face directory first, and a miss falls through to the other
// directory before giving up with reason unknown.
func (r *Resolver) Resolve(ctx context.Context, rawSubject string) (Resolution, error) {
	if strings.HasPrefix(rawSubject, UIDPrefix) {
		value := strings.TrimPrefix(rawSubject, UIDPrefix)
		res, err := r.lookupRFID(ctx, value)
		if err != nil {
			return Resolution{}, err
		}
		if res != nil {
			return *res, nil
		}
		return Resolution{Value: value, Reason: ReasonRFIDUnknown}, nil
	}

	order := []Type{TypeFace, TypeRFID}
	if len(rawSubject) > rfidLengthThreshold {
		order = []Type{TypeRFID, TypeFace}
	}

	for _, t := range order {
		res, err := r.lookupTyped(ctx, rawSubject, t)
		if err != nil {
			return Resolution{}, err
		}
		if res != nil {
			return *res, nil
		}
	}

	return Resolution{Value: rawSubject, Reason: ReasonUnknown}, nil
}

// ResolveTyped classifies a subject constrained to a single directory.
// An empty constraint falls back to the full Resolve heuristic.
func (r *Resolver) ResolveTyped(ctx context.Context, rawSubject string, constraint Type) (Resolution, error) {
	if constraint == "" {
		return r.Resolve(ctx, rawSubject)
	}
	if !constraint.Valid() {
		return Resolution{}, fmt.Errorf("unknown identity type %q", constraint)
	}

	value := strings.TrimPrefix(rawSubject, UIDPrefix)
	res, err := r.lookupTyped(ctx, value, constraint)
	if err != nil {
		return Resolution{}, err
	}
	if res != nil {
		return *res, nil
	}

	reason := ReasonUnknown
	if constraint == TypeRFID {
		reason = ReasonRFIDUnknown
	}
	return Resolution{Value: value, Reason: reason}, nil
}

// lookupTyped checks one directory for the value. A nil, nil return means
// not found; errors are upstream failures.
func (r *Resolver) lookupTyped(ctx context.Context, value string, t Type) (*Resolution, error) {
	if t == TypeRFID {
		return r.lookupRFID(ctx, value)
	}

	face, err := r.face.Get(ctx, value)
	if err != nil {
		if errors.Is(err, ErrFaceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolving face identity: %w", err)
	}
	return &Resolution{Face: face, Value: value}, nil
}

func (r *Resolver) lookupRFID(ctx context.Context, value string) (*Resolution, error) {
	rfid, err := r.rfid.Get(ctx, value)
	if err != nil {
		if errors.Is(err, ErrRFIDNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolving rfid identity: %w", err)
	}
	return &Resolution{RFID: rfid, Value: value}, nil
}
