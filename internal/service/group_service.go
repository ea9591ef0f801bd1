package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/groupsplit/internal/events"
	"github.com/mmynk/groupsplit/internal/middleware"
	"github.com/mmynk/groupsplit/internal/models"
	"github.com/mmynk/groupsplit/internal/storage"
	"github.com/mmynk/groupsplit/pkg/rpc"
)

// maxActivities caps ListActivity.
const maxActivities = 100

// GroupService implements the Connect GroupService: groups, rosters,
// invitations and the activity feed.
type GroupService struct {
	base
}

var _ rpc.GroupServiceHandler = (*GroupService)(nil)

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, publisher events.Publisher) *GroupService {
	return &GroupService{base: newBase(store, publisher)}
}

// CreateGroup creates a group with the caller as its first admin.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[rpc.CreateGroupRequest]) (*connect.Response[rpc.CreateGroupResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received", "name", req.Msg.Name, "user_id", userID)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("group name required")
	}
	currency, err := normalizeCurrency(req.Msg.BaseCurrency, models.DefaultCurrency)
	if err != nil {
		return nil, err
	}

	group := &models.Group{Name: name, BaseCurrency: currency, CreatedBy: userID}
	creator := &models.Member{
		UserID:      userID,
		DisplayName: strings.TrimSpace(req.Msg.DisplayName),
		Email:       middleware.GetEmail(ctx),
	}
	if err := s.store.CreateGroup(ctx, group, creator); err != nil {
		return nil, rpcError("create group", err)
	}

	s.record(ctx, group.ID, userID, models.ActivityGroupCreated, map[string]any{"name": group.Name})
	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&rpc.CreateGroupResponse{
		Group:   toRPCGroup(group),
		Members: []*rpc.Member{toRPCMember(creator)},
	}), nil
}

// GetGroup returns a group and its full roster.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[rpc.GetGroupRequest]) (*connect.Response[rpc.GetGroupResponse], error) {
	group, _, err := s.requireMember(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	members, err := s.store.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, rpcError("list members", err)
	}

	return connect.NewResponse(&rpc.GetGroupResponse{
		Group:   toRPCGroup(group),
		Members: toRPCMembers(members),
	}), nil
}

// ListGroups returns the groups the caller is an active member of.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[rpc.ListGroupsRequest]) (*connect.Response[rpc.ListGroupsResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, rpcError("list groups", err)
	}

	out := make([]*rpc.Group, len(groups))
	for i, g := range groups {
		out[i] = toRPCGroup(g)
	}
	slog.Info("ListGroups successful", "user_id", userID, "count", len(groups))

	return connect.NewResponse(&rpc.ListGroupsResponse{Groups: out}), nil
}

// DeleteGroup removes a group and its whole ledger. Admins only.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[rpc.DeleteGroupRequest]) (*connect.Response[rpc.DeleteGroupResponse], error) {
	group, member, err := s.requireMember(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	if member.Role != models.RoleAdmin {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("only admins can delete a group"))
	}

	if err := s.store.DeleteGroup(ctx, group.ID); err != nil {
		return nil, rpcError("delete group", err)
	}
	slog.Info("Group deleted", "group_id", group.ID, "user_id", member.UserID)

	return connect.NewResponse(&rpc.DeleteGroupResponse{}), nil
}

// AddMember adds an existing account to the group. A previously removed
// member is reactivated.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[rpc.AddMemberRequest]) (*connect.Response[rpc.AddMemberResponse], error) {
	group, actor, err := s.requireMember(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	userID := strings.TrimSpace(req.Msg.UserID)
	if userID == "" {
		return nil, invalidArgument("user_id required")
	}

	existing, err := s.store.GetMemberByUser(ctx, group.ID, userID)
	switch {
	case err == nil && existing.Status == models.MemberActive:
		return nil, connect.NewError(connect.CodeAlreadyExists, errors.New("already a member"))
	case err == nil:
		if err := s.store.SetMemberStatus(ctx, existing.ID, models.MemberActive); err != nil {
			return nil, rpcError("reactivate member", err)
		}
		existing.Status = models.MemberActive
	case errors.Is(err, storage.ErrNotFound):
		existing = &models.Member{
			GroupID:     group.ID,
			UserID:      userID,
			DisplayName: strings.TrimSpace(req.Msg.DisplayName),
			Email:       strings.ToLower(strings.TrimSpace(req.Msg.Email)),
			Role:        models.RoleMember,
			Status:      models.MemberActive,
		}
		if err := s.store.AddMember(ctx, existing); err != nil {
			return nil, rpcError("add member", err)
		}
	default:
		return nil, rpcError("load member", err)
	}

	s.record(ctx, group.ID, actor.UserID, models.ActivityMemberAdded, map[string]any{
		"member_id": existing.ID,
		"name":      existing.Label(),
	})
	slog.Info("Member added", "group_id", group.ID, "member_id", existing.ID)

	return connect.NewResponse(&rpc.AddMemberResponse{Member: toRPCMember(existing)}), nil
}

// InviteMember adds a pending member identified by email. The pending row
// can pay for and take part in expenses before its owner signs up.
func (s *GroupService) InviteMember(ctx context.Context, req *connect.Request[rpc.InviteMemberRequest]) (*connect.Response[rpc.InviteMemberResponse], error) {
	group, actor, err := s.requireMember(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Msg.Email))
	if _, domain, ok := strings.Cut(email, "@"); !ok || domain == "" || strings.HasPrefix(email, "@") {
		return nil, invalidArgument("invalid email address %q", req.Msg.Email)
	}

	invite := &models.Member{
		GroupID:      group.ID,
		PendingEmail: email,
		DisplayName:  strings.TrimSpace(req.Msg.DisplayName),
		Role:         models.RoleMember,
		Status:       models.MemberPending,
	}
	if err := s.store.AddMember(ctx, invite); err != nil {
		return nil, rpcError("invite member", err)
	}

	s.record(ctx, group.ID, actor.UserID, models.ActivityMemberInvited, map[string]any{
		"member_id": invite.ID,
		"email":     email,
	})
	slog.Info("Member invited", "group_id", group.ID, "member_id", invite.ID)

	return connect.NewResponse(&rpc.InviteMemberResponse{Member: toRPCMember(invite)}), nil
}

// RemoveMember marks a roster row inactive. Admins may remove anyone;
// other members only themselves. The last active admin cannot leave.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[rpc.RemoveMemberRequest]) (*connect.Response[rpc.RemoveMemberResponse], error) {
	group, actor, err := s.requireMember(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	target, err := s.store.GetMember(ctx, req.Msg.MemberID)
	if err != nil {
		return nil, rpcError("load member", err)
	}
	if target.GroupID != group.ID {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("member not in this group"))
	}
	if actor.Role != models.RoleAdmin && target.ID != actor.ID {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("only admins can remove other members"))
	}
	if target.Status == models.MemberInactive {
		return connect.NewResponse(&rpc.RemoveMemberResponse{}), nil
	}

	if target.Role == models.RoleAdmin && target.Status == models.MemberActive {
		members, err := s.store.ListMembers(ctx, group.ID)
		if err != nil {
			return nil, rpcError("list members", err)
		}
		admins := 0
		for _, m := range members {
			if m.Role == models.RoleAdmin && m.Status == models.MemberActive {
				admins++
			}
		}
		if admins <= 1 {
			return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("cannot remove the last admin"))
		}
	}

	if err := s.store.SetMemberStatus(ctx, target.ID, models.MemberInactive); err != nil {
		return nil, rpcError("remove member", err)
	}

	s.record(ctx, group.ID, actor.UserID, models.ActivityMemberRemoved, map[string]any{
		"member_id": target.ID,
		"name":      target.Label(),
	})
	slog.Info("Member removed", "group_id", group.ID, "member_id", target.ID)

	return connect.NewResponse(&rpc.RemoveMemberResponse{}), nil
}

// ClaimInvitation links the caller's account to pending rows invited under
// the caller's email and moves their expense history onto the account.
func (s *GroupService) ClaimInvitation(ctx context.Context, req *connect.Request[rpc.ClaimInvitationRequest]) (*connect.Response[rpc.ClaimInvitationResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	email := middleware.GetEmail(ctx)
	if email == "" {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("token carries no email address"))
	}
	slog.Info("ClaimInvitation request received", "user_id", userID, "group_id", req.Msg.GroupID)

	var pending []*models.Member
	if req.Msg.GroupID != "" {
		m, err := s.store.FindPendingByEmail(ctx, req.Msg.GroupID, email)
		if err != nil {
			return nil, rpcError("find invitation", err)
		}
		pending = append(pending, m)
	} else {
		pending, err = s.store.ListPendingByEmail(ctx, email)
		if err != nil {
			return nil, rpcError("list invitations", err)
		}
	}
	if len(pending) == 0 {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("no pending invitations"))
	}

	claimed := make([]*rpc.Member, 0, len(pending))
	for _, invite := range pending {
		name := strings.TrimSpace(req.Msg.DisplayName)
		if name == "" {
			name = invite.DisplayName
		}
		user := &models.Member{UserID: userID, DisplayName: name, Email: email}
		if err := s.store.ClaimPendingMember(ctx, invite.ID, user); err != nil {
			return nil, rpcError("claim invitation", err)
		}

		member, err := s.store.GetMember(ctx, invite.ID)
		if err != nil {
			return nil, rpcError("load member", err)
		}
		claimed = append(claimed, toRPCMember(member))

		s.record(ctx, invite.GroupID, userID, models.ActivityMemberAccepted, map[string]any{
			"member_id": invite.ID,
			"email":     email,
		})
		slog.Info("Invitation claimed", "group_id", invite.GroupID, "member_id", invite.ID, "user_id", userID)
	}

	return connect.NewResponse(&rpc.ClaimInvitationResponse{Members: claimed}), nil
}

// ListActivity returns the most recent activity entries, newest first.
func (s *GroupService) ListActivity(ctx context.Context, req *connect.Request[rpc.ListActivityRequest]) (*connect.Response[rpc.ListActivityResponse], error) {
	group, _, err := s.requireMember(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	limit := req.Msg.Limit
	if limit <= 0 || limit > maxActivities {
		limit = maxActivities
	}

	activities, err := s.store.ListActivities(ctx, group.ID, limit)
	if err != nil {
		return nil, rpcError("list activity", err)
	}

	out := make([]*rpc.Activity, len(activities))
	for i, a := range activities {
		out[i] = toRPCActivity(a)
	}
	return connect.NewResponse(&rpc.ListActivityResponse{Activities: out}), nil
}
