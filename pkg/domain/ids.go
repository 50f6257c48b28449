// Package domain holds shared value types used across module boundaries.
//
// IDs are distinct named types over uuid.UUID so the compiler rejects
// cross-type assignment (a VouchID can never be passed where a UserID is
// expected). Construct them via the Parse* functions at trust boundaries;
// direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "fides/pkg/domain-errors"
)

// UserID identifies a registered principal. It is opaque to the engine:
// the host's auth layer decides what it denotes.
type UserID uuid.UUID

// VouchID identifies a single vouch record in the ledger.
type VouchID uuid.UUID

// SkillID identifies a skill in the catalog.
type SkillID uuid.UUID

// CircleID identifies an exclusive membership group.
type CircleID uuid.UUID

// ProposalID is a monotonic counter assigned by the proposal store.
type ProposalID uint64

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return u, nil
}

// ParseUserID constructs a UserID from external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseVouchID constructs a VouchID from external input.
func ParseVouchID(s string) (VouchID, error) {
	u, err := parseUUID(s, "vouch id")
	return VouchID(u), err
}

// ParseSkillID constructs a SkillID from external input.
func ParseSkillID(s string) (SkillID, error) {
	u, err := parseUUID(s, "skill id")
	return SkillID(u), err
}

// ParseCircleID constructs a CircleID from external input.
func ParseCircleID(s string) (CircleID, error) {
	u, err := parseUUID(s, "circle id")
	return CircleID(u), err
}

func (id UserID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id VouchID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id SkillID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id CircleID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id UserID) String() string   { return uuid.UUID(id).String() }
func (id VouchID) String() string  { return uuid.UUID(id).String() }
func (id SkillID) String() string  { return uuid.UUID(id).String() }
func (id CircleID) String() string { return uuid.UUID(id).String() }

// The ids cross JSON boundaries as their canonical string form, not as
// raw byte arrays.

func (id UserID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id VouchID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id SkillID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id CircleID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *VouchID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *SkillID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CircleID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// NewUserID mints a fresh random user id. Production user ids arrive via
// token subjects; this exists for tests and seeding.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewVouchID mints a fresh random vouch id. Random ids replace the
// hash-of-(giver,receiver,skill,timestamp) scheme, which silently collides
// when the same pair vouches for the same skill within one clock tick.
func NewVouchID() VouchID { return VouchID(uuid.New()) }

// NewSkillID mints a fresh random skill id.
func NewSkillID() SkillID { return SkillID(uuid.New()) }

// NewCircleID mints a fresh random circle id.
func NewCircleID() CircleID { return CircleID(uuid.New()) }
