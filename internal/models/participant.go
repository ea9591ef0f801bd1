package models

import (
	"fmt"
	"strings"
)

// ParticipantKind tags which identifier space a Participant belongs to.
type ParticipantKind uint8

const (
	// KindAccount references a user account id.
	KindAccount ParticipantKind = iota + 1
	// KindPending references a pending group_members row id.
	KindPending
)

func (k ParticipantKind) String() string {
	switch k {
	case KindAccount:
		return "account"
	case KindPending:
		return "pending"
	default:
		return "none"
	}
}

// Participant is a reference to whoever paid for or owes part of an expense.
// The zero value references nobody.
type Participant struct {
	kind ParticipantKind
	id   string
}

// Account returns a reference to an active member's user account.
func Account(userID string) Participant {
	return Participant{kind: KindAccount, id: userID}
}

// Pending returns a reference to a pending member by its member row id.
func Pending(memberID string) Participant {
	return Participant{kind: KindPending, id: memberID}
}

func (p Participant) Kind() ParticipantKind { return p.kind }
func (p Participant) ID() string            { return p.id }
func (p Participant) IsZero() bool          { return p.kind == 0 || p.id == "" }
func (p Participant) IsAccount() bool       { return p.kind == KindAccount && p.id != "" }
func (p Participant) IsPending() bool       { return p.kind == KindPending && p.id != "" }

// String renders the reference as "account:<id>" or "pending:<id>".
func (p Participant) String() string {
	if p.IsZero() {
		return ""
	}
	return p.kind.String() + ":" + p.id
}

// ParseParticipant is the inverse of String.
func ParseParticipant(s string) (Participant, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return Participant{}, fmt.Errorf("invalid participant reference %q", s)
	}
	switch kind {
	case "account":
		return Account(id), nil
	case "pending":
		return Pending(id), nil
	default:
		return Participant{}, fmt.Errorf("invalid participant kind %q", kind)
	}
}

// MarshalText lets Participant be used as a JSON value and map key.
func (p Participant) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Participant) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*p = Participant{}
		return nil
	}
	parsed, err := ParseParticipant(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Columns splits the reference into the (user_id, pending_member_id) column
// pair used by storage. Exactly one of the two is non-nil for a valid
// reference.
func (p Participant) Columns() (userID, pendingID any) {
	switch {
	case p.IsAccount():
		return p.id, nil
	case p.IsPending():
		return nil, p.id
	default:
		return nil, nil
	}
}

// ParticipantFromColumns rebuilds a reference from its storage columns.
func ParticipantFromColumns(userID, pendingID string) Participant {
	if userID != "" {
		return Account(userID)
	}
	if pendingID != "" {
		return Pending(pendingID)
	}
	return Participant{}
}
