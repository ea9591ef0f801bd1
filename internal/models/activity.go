package models

// ActivityType classifies an entry in a group's activity feed.
type ActivityType string

const (
	ActivityGroupCreated      ActivityType = "group_created"
	ActivityExpenseCreated    ActivityType = "expense_created"
	ActivityExpenseUpdated    ActivityType = "expense_updated"
	ActivityExpenseDeleted    ActivityType = "expense_deleted"
	ActivityMemberAdded       ActivityType = "member_added"
	ActivityMemberInvited     ActivityType = "member_invited"
	ActivityMemberRemoved     ActivityType = "member_removed"
	ActivityMemberAccepted    ActivityType = "member_accepted"
	ActivitySettlementCreated ActivityType = "settlement_created"
)

// Activity is an audit entry describing a change to a group.
type Activity struct {
	ID      string
	GroupID string
	UserID  string
	Type    ActivityType

	// Details holds type-specific fields (amounts, names, ids) for display.
	Details map[string]any

	CreatedAt int64
}
