package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// BalanceServiceName is the fully-qualified name of the BalanceService.
const BalanceServiceName = "groupsplit.v1.BalanceService"

// Procedure paths of the BalanceService.
const (
	BalanceServiceGetGroupBalancesProcedure   = "/" + BalanceServiceName + "/GetGroupBalances"
	BalanceServiceMarkSettlementPaidProcedure = "/" + BalanceServiceName + "/MarkSettlementPaid"
	BalanceServiceListSettlementsProcedure    = "/" + BalanceServiceName + "/ListSettlements"
)

// MemberBalance is one active member's position. Net is positive when the
// group owes the member money.
type MemberBalance struct {
	Participant string `json:"participant"`
	Name        string `json:"name"`
	TotalPaid   string `json:"total_paid"`
	TotalOwed   string `json:"total_owed"`
	Net         string `json:"net"`
	// Label is a display string such as "owes $ 30.00".
	Label string `json:"label"`
}

// Suggestion is a transfer that would settle part of the group's debts.
type Suggestion struct {
	From     string `json:"from"`
	To       string `json:"to"`
	FromName string `json:"from_name"`
	ToName   string `json:"to_name"`
	Amount   string `json:"amount"`
	Label    string `json:"label"`
}

type Violation struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

type Settlement struct {
	ID        string `json:"id"`
	GroupID   string `json:"group_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	ExpenseID string `json:"expense_id,omitempty"`
	PaidAt    int64  `json:"paid_at"`
	CreatedBy string `json:"created_by"`
}

type GetGroupBalancesRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupBalancesResponse struct {
	Currency    string           `json:"currency"`
	Balances    []*MemberBalance `json:"balances"`
	Suggestions []*Suggestion    `json:"suggestions"`
	// Unattributed is the net position held by pending or inactive members.
	Unattributed string       `json:"unattributed"`
	Violations   []*Violation `json:"violations,omitempty"`
}

type MarkSettlementPaidRequest struct {
	GroupID string `json:"group_id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Amount  string `json:"amount"`
}

type MarkSettlementPaidResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type ListSettlementsRequest struct {
	GroupID string `json:"group_id"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

// BalanceServiceHandler is implemented by the server side of the BalanceService.
type BalanceServiceHandler interface {
	GetGroupBalances(context.Context, *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error)
	MarkSettlementPaid(context.Context, *connect.Request[MarkSettlementPaidRequest]) (*connect.Response[MarkSettlementPaidResponse], error)
	ListSettlements(context.Context, *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error)
}

// NewBalanceServiceHandler builds an HTTP handler from the service
// implementation.
func NewBalanceServiceHandler(svc BalanceServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		BalanceServiceGetGroupBalancesProcedure:   connect.NewUnaryHandler(BalanceServiceGetGroupBalancesProcedure, svc.GetGroupBalances, opts...),
		BalanceServiceMarkSettlementPaidProcedure: connect.NewUnaryHandler(BalanceServiceMarkSettlementPaidProcedure, svc.MarkSettlementPaid, opts...),
		BalanceServiceListSettlementsProcedure:    connect.NewUnaryHandler(BalanceServiceListSettlementsProcedure, svc.ListSettlements, opts...),
	}
	return "/" + BalanceServiceName + "/", router(routes)
}

// BalanceServiceClient is a client for the BalanceService.
type BalanceServiceClient interface {
	GetGroupBalances(context.Context, *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error)
	MarkSettlementPaid(context.Context, *connect.Request[MarkSettlementPaidRequest]) (*connect.Response[MarkSettlementPaidResponse], error)
	ListSettlements(context.Context, *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error)
}

type balanceServiceClient struct {
	getGroupBalances   *connect.Client[GetGroupBalancesRequest, GetGroupBalancesResponse]
	markSettlementPaid *connect.Client[MarkSettlementPaidRequest, MarkSettlementPaidResponse]
	listSettlements    *connect.Client[ListSettlementsRequest, ListSettlementsResponse]
}

// NewBalanceServiceClient constructs a client for the BalanceService.
func NewBalanceServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) BalanceServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &balanceServiceClient{
		getGroupBalances:   connect.NewClient[GetGroupBalancesRequest, GetGroupBalancesResponse](httpClient, baseURL+BalanceServiceGetGroupBalancesProcedure, opts...),
		markSettlementPaid: connect.NewClient[MarkSettlementPaidRequest, MarkSettlementPaidResponse](httpClient, baseURL+BalanceServiceMarkSettlementPaidProcedure, opts...),
		listSettlements:    connect.NewClient[ListSettlementsRequest, ListSettlementsResponse](httpClient, baseURL+BalanceServiceListSettlementsProcedure, opts...),
	}
}

func (c *balanceServiceClient) GetGroupBalances(ctx context.Context, req *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error) {
	return c.getGroupBalances.CallUnary(ctx, req)
}

func (c *balanceServiceClient) MarkSettlementPaid(ctx context.Context, req *connect.Request[MarkSettlementPaidRequest]) (*connect.Response[MarkSettlementPaidResponse], error) {
	return c.markSettlementPaid.CallUnary(ctx, req)
}

func (c *balanceServiceClient) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}
