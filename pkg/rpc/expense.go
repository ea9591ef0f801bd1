package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// ExpenseServiceName is the fully-qualified name of the ExpenseService.
const ExpenseServiceName = "groupsplit.v1.ExpenseService"

// Procedure paths of the ExpenseService.
const (
	ExpenseServiceCalculateSplitProcedure = "/" + ExpenseServiceName + "/CalculateSplit"
	ExpenseServiceCreateExpenseProcedure  = "/" + ExpenseServiceName + "/CreateExpense"
	ExpenseServiceUpdateExpenseProcedure  = "/" + ExpenseServiceName + "/UpdateExpense"
	ExpenseServiceDeleteExpenseProcedure  = "/" + ExpenseServiceName + "/DeleteExpense"
	ExpenseServiceListExpensesProcedure   = "/" + ExpenseServiceName + "/ListExpenses"
)

// SplitInput selects one participant for a split. Only the field matching
// the split type is read: Amount for custom, Percentage for percentage,
// Shares for shares.
type SplitInput struct {
	Participant string `json:"participant"`
	Amount      string `json:"amount,omitempty"`
	Percentage  string `json:"percentage,omitempty"`
	Shares      string `json:"shares,omitempty"`
}

// Split is one computed share. Amounts are decimal strings with two places.
type Split struct {
	ID          string `json:"id,omitempty"`
	Participant string `json:"participant"`
	Amount      string `json:"amount"`
	Percentage  string `json:"percentage,omitempty"`
	Shares      string `json:"shares,omitempty"`
}

type Expense struct {
	ID          string   `json:"id"`
	GroupID     string   `json:"group_id"`
	Description string   `json:"description"`
	Amount      string   `json:"amount"`
	Currency    string   `json:"currency"`
	Category    string   `json:"category"`
	Notes       string   `json:"notes,omitempty"`
	Date        string   `json:"date"`
	SplitType   string   `json:"split_type"`
	Payer       string   `json:"payer"`
	ReceiptURL  string   `json:"receipt_url,omitempty"`
	CreatedBy   string   `json:"created_by"`
	CreatedAt   int64    `json:"created_at"`
	UpdatedAt   int64    `json:"updated_at"`
	Splits      []*Split `json:"splits"`
}

// ExpenseInput carries the user-editable fields of an expense. A personal
// split goes entirely to the member who created the expense; Splits may be
// empty or name only that member. Payer defaults to the caller on create and
// to the stored payer on update.
type ExpenseInput struct {
	Description string        `json:"description"`
	Amount      string        `json:"amount"`
	Currency    string        `json:"currency,omitempty"`
	Category    string        `json:"category,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	Date        string        `json:"date,omitempty"`
	SplitType   string        `json:"split_type"`
	Payer       string        `json:"payer,omitempty"`
	ReceiptURL  string        `json:"receipt_url,omitempty"`
	Splits      []*SplitInput `json:"splits,omitempty"`
}

type CalculateSplitRequest struct {
	GroupID   string        `json:"group_id"`
	Amount    string        `json:"amount"`
	SplitType string        `json:"split_type"`
	Splits    []*SplitInput `json:"splits,omitempty"`
}

type CalculateSplitResponse struct {
	Total  string   `json:"total"`
	Splits []*Split `json:"splits"`
}

type CreateExpenseRequest struct {
	GroupID string `json:"group_id"`
	ExpenseInput
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type UpdateExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
	ExpenseInput
}

type UpdateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

type ListExpensesRequest struct {
	GroupID string `json:"group_id"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

// ExpenseServiceHandler is implemented by the server side of the ExpenseService.
type ExpenseServiceHandler interface {
	CalculateSplit(context.Context, *connect.Request[CalculateSplitRequest]) (*connect.Response[CalculateSplitResponse], error)
	CreateExpense(context.Context, *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error)
}

// NewExpenseServiceHandler builds an HTTP handler from the service
// implementation.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		ExpenseServiceCalculateSplitProcedure: connect.NewUnaryHandler(ExpenseServiceCalculateSplitProcedure, svc.CalculateSplit, opts...),
		ExpenseServiceCreateExpenseProcedure:  connect.NewUnaryHandler(ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts...),
		ExpenseServiceUpdateExpenseProcedure:  connect.NewUnaryHandler(ExpenseServiceUpdateExpenseProcedure, svc.UpdateExpense, opts...),
		ExpenseServiceDeleteExpenseProcedure:  connect.NewUnaryHandler(ExpenseServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...),
		ExpenseServiceListExpensesProcedure:   connect.NewUnaryHandler(ExpenseServiceListExpensesProcedure, svc.ListExpenses, opts...),
	}
	return "/" + ExpenseServiceName + "/", router(routes)
}

// ExpenseServiceClient is a client for the ExpenseService.
type ExpenseServiceClient interface {
	CalculateSplit(context.Context, *connect.Request[CalculateSplitRequest]) (*connect.Response[CalculateSplitResponse], error)
	CreateExpense(context.Context, *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error)
}

type expenseServiceClient struct {
	calculateSplit *connect.Client[CalculateSplitRequest, CalculateSplitResponse]
	createExpense  *connect.Client[CreateExpenseRequest, CreateExpenseResponse]
	updateExpense  *connect.Client[UpdateExpenseRequest, UpdateExpenseResponse]
	deleteExpense  *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	listExpenses   *connect.Client[ListExpensesRequest, ListExpensesResponse]
}

// NewExpenseServiceClient constructs a client for the ExpenseService.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ExpenseServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &expenseServiceClient{
		calculateSplit: connect.NewClient[CalculateSplitRequest, CalculateSplitResponse](httpClient, baseURL+ExpenseServiceCalculateSplitProcedure, opts...),
		createExpense:  connect.NewClient[CreateExpenseRequest, CreateExpenseResponse](httpClient, baseURL+ExpenseServiceCreateExpenseProcedure, opts...),
		updateExpense:  connect.NewClient[UpdateExpenseRequest, UpdateExpenseResponse](httpClient, baseURL+ExpenseServiceUpdateExpenseProcedure, opts...),
		deleteExpense:  connect.NewClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL+ExpenseServiceDeleteExpenseProcedure, opts...),
		listExpenses:   connect.NewClient[ListExpensesRequest, ListExpensesResponse](httpClient, baseURL+ExpenseServiceListExpensesProcedure, opts...),
	}
}

func (c *expenseServiceClient) CalculateSplit(ctx context.Context, req *connect.Request[CalculateSplitRequest]) (*connect.Response[CalculateSplitResponse], error) {
	return c.calculateSplit.CallUnary(ctx, req)
}

func (c *expenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *expenseServiceClient) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}
