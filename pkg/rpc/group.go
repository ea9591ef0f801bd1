package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// GroupServiceName is the fully-qualified name of the GroupService.
const GroupServiceName = "groupsplit.v1.GroupService"

// Procedure paths of the GroupService.
const (
	GroupServiceCreateGroupProcedure     = "/" + GroupServiceName + "/CreateGroup"
	GroupServiceGetGroupProcedure        = "/" + GroupServiceName + "/GetGroup"
	GroupServiceListGroupsProcedure      = "/" + GroupServiceName + "/ListGroups"
	GroupServiceDeleteGroupProcedure     = "/" + GroupServiceName + "/DeleteGroup"
	GroupServiceAddMemberProcedure       = "/" + GroupServiceName + "/AddMember"
	GroupServiceInviteMemberProcedure    = "/" + GroupServiceName + "/InviteMember"
	GroupServiceRemoveMemberProcedure    = "/" + GroupServiceName + "/RemoveMember"
	GroupServiceClaimInvitationProcedure = "/" + GroupServiceName + "/ClaimInvitation"
	GroupServiceListActivityProcedure    = "/" + GroupServiceName + "/ListActivity"
)

type Group struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
	CreatedBy    string `json:"created_by"`
	CreatedAt    int64  `json:"created_at"`
}

// Member is one roster row. Participant is the reference used in expenses
// and splits ("account:<user id>" or "pending:<member id>").
type Member struct {
	ID           string `json:"id"`
	Participant  string `json:"participant"`
	UserID       string `json:"user_id,omitempty"`
	PendingEmail string `json:"pending_email,omitempty"`
	DisplayName  string `json:"display_name,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role"`
	Status       string `json:"status"`
	JoinedAt     int64  `json:"joined_at"`
}

type Activity struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id,omitempty"`
	Type      string         `json:"type"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt int64          `json:"created_at"`
}

type CreateGroupRequest struct {
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency,omitempty"`
	// DisplayName is the creator's name within the group.
	DisplayName string `json:"display_name,omitempty"`
}

type CreateGroupResponse struct {
	Group   *Group    `json:"group"`
	Members []*Member `json:"members"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group   *Group    `json:"group"`
	Members []*Member `json:"members"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id"`
}

type DeleteGroupResponse struct{}

type AddMemberRequest struct {
	GroupID     string `json:"group_id"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

type AddMemberResponse struct {
	Member *Member `json:"member"`
}

type InviteMemberRequest struct {
	GroupID     string `json:"group_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

type InviteMemberResponse struct {
	Member *Member `json:"member"`
}

type RemoveMemberRequest struct {
	GroupID  string `json:"group_id"`
	MemberID string `json:"member_id"`
}

type RemoveMemberResponse struct{}

// ClaimInvitationRequest accepts the caller's pending invitations. With an
// empty GroupID every group that invited the caller's email is claimed.
type ClaimInvitationRequest struct {
	GroupID     string `json:"group_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type ClaimInvitationResponse struct {
	Members []*Member `json:"members"`
}

type ListActivityRequest struct {
	GroupID string `json:"group_id"`
	Limit   int    `json:"limit,omitempty"`
}

type ListActivityResponse struct {
	Activities []*Activity `json:"activities"`
}

// GroupServiceHandler is implemented by the server side of the GroupService.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error)
	DeleteGroup(context.Context, *connect.Request[DeleteGroupRequest]) (*connect.Response[DeleteGroupResponse], error)
	AddMember(context.Context, *connect.Request[AddMemberRequest]) (*connect.Response[AddMemberResponse], error)
	InviteMember(context.Context, *connect.Request[InviteMemberRequest]) (*connect.Response[InviteMemberResponse], error)
	RemoveMember(context.Context, *connect.Request[RemoveMemberRequest]) (*connect.Response[RemoveMemberResponse], error)
	ClaimInvitation(context.Context, *connect.Request[ClaimInvitationRequest]) (*connect.Response[ClaimInvitationResponse], error)
	ListActivity(context.Context, *connect.Request[ListActivityRequest]) (*connect.Response[ListActivityResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		GroupServiceCreateGroupProcedure:     connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...),
		GroupServiceGetGroupProcedure:        connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...),
		GroupServiceListGroupsProcedure:      connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, opts...),
		GroupServiceDeleteGroupProcedure:     connect.NewUnaryHandler(GroupServiceDeleteGroupProcedure, svc.DeleteGroup, opts...),
		GroupServiceAddMemberProcedure:       connect.NewUnaryHandler(GroupServiceAddMemberProcedure, svc.AddMember, opts...),
		GroupServiceInviteMemberProcedure:    connect.NewUnaryHandler(GroupServiceInviteMemberProcedure, svc.InviteMember, opts...),
		GroupServiceRemoveMemberProcedure:    connect.NewUnaryHandler(GroupServiceRemoveMemberProcedure, svc.RemoveMember, opts...),
		GroupServiceClaimInvitationProcedure: connect.NewUnaryHandler(GroupServiceClaimInvitationProcedure, svc.ClaimInvitation, opts...),
		GroupServiceListActivityProcedure:    connect.NewUnaryHandler(GroupServiceListActivityProcedure, svc.ListActivity, opts...),
	}
	return "/" + GroupServiceName + "/", router(routes)
}

// GroupServiceClient is a client for the GroupService.
type GroupServiceClient interface {
	CreateGroup(context.Context, *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error)
	DeleteGroup(context.Context, *connect.Request[DeleteGroupRequest]) (*connect.Response[DeleteGroupResponse], error)
	AddMember(context.Context, *connect.Request[AddMemberRequest]) (*connect.Response[AddMemberResponse], error)
	InviteMember(context.Context, *connect.Request[InviteMemberRequest]) (*connect.Response[InviteMemberResponse], error)
	RemoveMember(context.Context, *connect.Request[RemoveMemberRequest]) (*connect.Response[RemoveMemberResponse], error)
	ClaimInvitation(context.Context, *connect.Request[ClaimInvitationRequest]) (*connect.Response[ClaimInvitationResponse], error)
	ListActivity(context.Context, *connect.Request[ListActivityRequest]) (*connect.Response[ListActivityResponse], error)
}

type groupServiceClient struct {
	createGroup     *connect.Client[CreateGroupRequest, CreateGroupResponse]
	getGroup        *connect.Client[GetGroupRequest, GetGroupResponse]
	listGroups      *connect.Client[ListGroupsRequest, ListGroupsResponse]
	deleteGroup     *connect.Client[DeleteGroupRequest, DeleteGroupResponse]
	addMember       *connect.Client[AddMemberRequest, AddMemberResponse]
	inviteMember    *connect.Client[InviteMemberRequest, InviteMemberResponse]
	removeMember    *connect.Client[RemoveMemberRequest, RemoveMemberResponse]
	claimInvitation *connect.Client[ClaimInvitationRequest, ClaimInvitationResponse]
	listActivity    *connect.Client[ListActivityRequest, ListActivityResponse]
}

// NewGroupServiceClient constructs a client for the GroupService at baseURL
// (for example http://localhost:8080).
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) GroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &groupServiceClient{
		createGroup:     connect.NewClient[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		getGroup:        connect.NewClient[GetGroupRequest, GetGroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		listGroups:      connect.NewClient[ListGroupsRequest, ListGroupsResponse](httpClient, baseURL+GroupServiceListGroupsProcedure, opts...),
		deleteGroup:     connect.NewClient[DeleteGroupRequest, DeleteGroupResponse](httpClient, baseURL+GroupServiceDeleteGroupProcedure, opts...),
		addMember:       connect.NewClient[AddMemberRequest, AddMemberResponse](httpClient, baseURL+GroupServiceAddMemberProcedure, opts...),
		inviteMember:    connect.NewClient[InviteMemberRequest, InviteMemberResponse](httpClient, baseURL+GroupServiceInviteMemberProcedure, opts...),
		removeMember:    connect.NewClient[RemoveMemberRequest, RemoveMemberResponse](httpClient, baseURL+GroupServiceRemoveMemberProcedure, opts...),
		claimInvitation: connect.NewClient[ClaimInvitationRequest, ClaimInvitationResponse](httpClient, baseURL+GroupServiceClaimInvitationProcedure, opts...),
		listActivity:    connect.NewClient[ListActivityRequest, ListActivityResponse](httpClient, baseURL+GroupServiceListActivityProcedure, opts...),
	}
}

func (c *groupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *groupServiceClient) DeleteGroup(ctx context.Context, req *connect.Request[DeleteGroupRequest]) (*connect.Response[DeleteGroupResponse], error) {
	return c.deleteGroup.CallUnary(ctx, req)
}

func (c *groupServiceClient) AddMember(ctx context.Context, req *connect.Request[AddMemberRequest]) (*connect.Response[AddMemberResponse], error) {
	return c.addMember.CallUnary(ctx, req)
}

func (c *groupServiceClient) InviteMember(ctx context.Context, req *connect.Request[InviteMemberRequest]) (*connect.Response[InviteMemberResponse], error) {
	return c.inviteMember.CallUnary(ctx, req)
}

func (c *groupServiceClient) RemoveMember(ctx context.Context, req *connect.Request[RemoveMemberRequest]) (*connect.Response[RemoveMemberResponse], error) {
	return c.removeMember.CallUnary(ctx, req)
}

func (c *groupServiceClient) ClaimInvitation(ctx context.Context, req *connect.Request[ClaimInvitationRequest]) (*connect.Response[ClaimInvitationResponse], error) {
	return c.claimInvitation.CallUnary(ctx, req)
}

func (c *groupServiceClient) ListActivity(ctx context.Context, req *connect.Request[ListActivityRequest]) (*connect.Response[ListActivityResponse], error) {
	return c.listActivity.CallUnary(ctx, req)
}
