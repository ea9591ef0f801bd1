package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/groupsplit/internal/auth"
	"github.com/mmynk/groupsplit/internal/events"
	"github.com/mmynk/groupsplit/internal/metrics"
	"github.com/mmynk/groupsplit/internal/middleware"
	"github.com/mmynk/groupsplit/internal/storage/sqlite"
	"github.com/mmynk/groupsplit/pkg/rpc"
)

const (
	alice = "alice"
	bob   = "bob"
	carol = "carol"
)

type testEnv struct {
	groups   rpc.GroupServiceClient
	expenses rpc.ExpenseServiceClient
	balances rpc.BalanceServiceClient

	store    *sqlite.SQLiteStore
	events   *events.Recorder
	registry *prometheus.Registry
	jwt      *auth.JWTManager
}

// setupTestServer serves all three services over httptest behind the same
// interceptor chain as the real server.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { store.Close() })

	env := &testEnv{
		store:    store,
		events:   &events.Recorder{},
		registry: prometheus.NewRegistry(),
		jwt:      auth.NewJWTManager("test-secret", time.Hour),
	}
	m := metrics.New(env.registry)

	interceptors := connect.WithInterceptors(
		middleware.RequireAuth(env.jwt),
		middleware.LoggingInterceptor(),
		middleware.MetricsInterceptor(m),
	)

	mux := http.NewServeMux()
	mux.Handle(rpc.NewGroupServiceHandler(NewGroupService(store, env.events), interceptors))
	mux.Handle(rpc.NewExpenseServiceHandler(NewExpenseService(store, env.events), interceptors))
	mux.Handle(rpc.NewBalanceServiceHandler(NewBalanceService(store, env.events, m), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	env.groups = rpc.NewGroupServiceClient(http.DefaultClient, server.URL)
	env.expenses = rpc.NewExpenseServiceClient(http.DefaultClient, server.URL)
	env.balances = rpc.NewBalanceServiceClient(http.DefaultClient, server.URL)
	return env
}

// as builds a request authenticated as userID (email userID@example.com).
func as[T any](t *testing.T, env *testEnv, userID string, msg *T) *connect.Request[T] {
	t.Helper()
	token, err := env.jwt.Generate(auth.Identity{UserID: userID, Email: userID + "@example.com"})
	require.NoError(t, err)
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

// newGroup creates a group owned by alice with bob and carol as members.
func newGroup(t *testing.T, env *testEnv) string {
	t.Helper()
	ctx := context.Background()

	resp, err := env.groups.CreateGroup(ctx, as(t, env, alice, &rpc.CreateGroupRequest{
		Name:        "Roommates",
		DisplayName: "Alice",
	}))
	require.NoError(t, err)
	groupID := resp.Msg.Group.ID

	for _, user := range []struct{ id, name string }{{bob, "Bob"}, {carol, "Carol"}} {
		_, err := env.groups.AddMember(ctx, as(t, env, alice, &rpc.AddMemberRequest{
			GroupID:     groupID,
			UserID:      user.id,
			DisplayName: user.name,
		}))
		require.NoError(t, err)
	}
	return groupID
}

func requireCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, connect.CodeOf(err), "error: %v", err)
}

func account(userID string) string { return "account:" + userID }
