package models

// MemberStatus is the lifecycle state of a group membership.
type MemberStatus string

const (
	MemberActive   MemberStatus = "active"
	MemberPending  MemberStatus = "pending"
	MemberInactive MemberStatus = "inactive"
)

// MemberRole controls who may administer a group.
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// Member is one row of a group's roster.
//
// Active members have a UserID. Pending members have only a PendingEmail
// until they accept the invitation, at which point the row is linked to an
// account and its history claimed.
type Member struct {
	ID           string
	GroupID      string
	UserID       string
	PendingEmail string
	DisplayName  string
	Email        string
	Role         MemberRole
	Status       MemberStatus
	JoinedAt     int64
}

// Participant returns the reference used in expenses and splits for this
// member: the account for linked members, the row id otherwise.
func (m Member) Participant() Participant {
	if m.UserID != "" {
		return Account(m.UserID)
	}
	return Pending(m.ID)
}

// IsActive reports whether the member holds a settleable balance.
func (m Member) IsActive() bool {
	return m.Status == MemberActive && m.UserID != ""
}

// Label is the best human-readable name available, or "" if none.
func (m Member) Label() string {
	switch {
	case m.DisplayName != "":
		return m.DisplayName
	case m.Email != "":
		return m.Email
	default:
		return m.PendingEmail
	}
}
