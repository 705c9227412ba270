// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	dErrors "mastery/pkg/domain-errors"
)

// NullPrincipalWire is the reserved "no address" principal used by external
// wire formats that cannot express an absent address. Internally absence is
// the zero Principal.
const NullPrincipalWire = "SP000000000000000000002Q6VF78"

// Distinct ID types - compiler prevents passing a CourseID where a VerificationID is expected.
type (
	// Principal is an opaque identity used for callers, owners and collaborator addresses.
	Principal string
	// VerificationID is allocated monotonically by the ledger, starting at 0.
	VerificationID uint64
	// CourseID identifies a course; valid values are positive.
	CourseID int64
	// BlockHeight is the ledger's logical clock.
	BlockHeight uint64
	// EventID identifies an emitted ledger event.
	EventID uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, API inputs).

// ParsePrincipal accepts any non-blank identity. The reserved wire sentinel
// parses to the zero Principal so callers can detect it with IsNil.
func ParsePrincipal(s string) (Principal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "principal cannot be empty")
	}
	if s == NullPrincipalWire {
		return "", nil
	}
	return Principal(s), nil
}

func ParseVerificationID(s string) (VerificationID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid verification ID format")
	}
	return VerificationID(v), nil
}

// ParseCourseID parses a signed course ID. Range checks belong to the ledger,
// which reports non-positive values as invalid_course_id.
func ParseCourseID(s string) (CourseID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid course ID format")
	}
	return CourseID(v), nil
}

func NewEventID() EventID { return EventID(uuid.New()) }

// String methods - for logging and debugging.

func (p Principal) String() string      { return string(p) }
func (id VerificationID) String() string { return strconv.FormatUint(uint64(id), 10) }
func (id CourseID) String() string       { return strconv.FormatInt(int64(id), 10) }
func (h BlockHeight) String() string     { return strconv.FormatUint(uint64(h), 10) }
func (id EventID) String() string        { return uuid.UUID(id).String() }

func (id EventID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *EventID) UnmarshalText(data []byte) error {
	u, err := uuid.ParseBytes(data)
	if err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid event ID format")
	}
	*id = EventID(u)
	return nil
}

// IsNil reports whether the principal is absent.
func (p Principal) IsNil() bool { return p == "" }

// Wire returns the principal as it must appear in formats without optional
// addresses: the reserved sentinel when absent.
func (p Principal) Wire() string {
	if p.IsNil() {
		return NullPrincipalWire
	}
	return string(p)
}
