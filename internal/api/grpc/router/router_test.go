package router

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	grpccontext "github.com/dtroode/sportify-server/internal/api/grpc/context"
	"github.com/dtroode/sportify-server/internal/api/grpc/handler"
	"github.com/dtroode/sportify-server/internal/cache/sqlite"
	"github.com/dtroode/sportify-server/internal/repository/document"
	"github.com/dtroode/sportify-server/internal/repository/memory"
	"github.com/dtroode/sportify-server/internal/service"
	"github.com/dtroode/sportify-server/internal/testutil"
	"github.com/dtroode/sportify-server/internal/token"
)

type stack struct {
	router *Router
	tokens *token.JWT
	conn   *grpc.ClientConn
}

func newStack(t *testing.T) *stack {
	t.Helper()

	lg := testutil.MakeNoopLogger()
	docs := memory.NewDocumentStore()
	users := document.NewUserRepository(docs)
	events := document.NewEventRepository(docs)

	cache, err := sqlite.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	membership := service.NewMembership(users, events, 4, lg)
	eventService := service.NewEvents(users, events, membership, nil, 4, lg)
	profiles := service.NewProfiles(users, cache, nil, lg)
	cached := service.NewCached(users, eventService, membership, profiles, cache, 0, lg)

	tokens := token.NewJWT("router-test-secret", time.Hour)
	r := New(cached, profiles, tokens, grpccontext.NewManager(), lg)
	s := r.Register()

	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &stack{router: r, tokens: tokens, conn: conn}
}

func (s *stack) as(t *testing.T, userID string) context.Context {
	t.Helper()
	tok, err := s.tokens.GenerateAccessToken(userID)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+tok)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestRouter_HealthSkipsAuthentication(t *testing.T) {
	s := newStack(t)

	resp, err := healthpb.NewHealthClient(s.conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: handler.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	s.router.Shutdown()

	resp, err = healthpb.NewHealthClient(s.conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: handler.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newStack(t)
	client := handler.NewClient(s.conn)

	_, err := client.Call(context.Background(), "ListEvents", nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer garbage")
	_, err = client.Call(ctx, "ListEvents", nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	// a forged user_id header is not trusted without a token
	ctx = metadata.AppendToOutgoingContext(context.Background(), "user_id", "u1")
	_, err = client.Call(ctx, "GetProfile", nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestRouter_RegistrationFlow(t *testing.T) {
	s := newStack(t)
	client := handler.NewClient(s.conn)
	owner := s.as(t, "owner")
	member := s.as(t, "member")

	profile := map[string]any{
		"firstname":    "Ada",
		"lastname":     "Lovelace",
		"email":        "ada@example.com",
		"mobilenumber": "+100",
	}
	_, err := client.Call(owner, "CreateProfile", mustStruct(t, map[string]any{"profile": profile}))
	require.NoError(t, err)
	_, err = client.Call(member, "CreateProfile", mustStruct(t, map[string]any{"profile": profile}))
	require.NoError(t, err)

	resp, err := client.Call(owner, "CreateEvent", mustStruct(t, map[string]any{
		"event": map[string]any{
			"eventName":    "Sunday run",
			"sportType":    "running",
			"location":     "Park",
			"date":         "2026-11-01",
			"time":         "09:00:00",
			"participants": 10,
			"description":  "5k",
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, "full_success", resp.AsMap()["outcome"])
	eventID, ok := resp.AsMap()["event"].(map[string]any)["id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, eventID)

	req := mustStruct(t, map[string]any{"eventId": eventID})
	resp, err = client.Call(member, "RegisterForEvent", req)
	require.NoError(t, err)
	assert.Equal(t, "full_success", resp.AsMap()["outcome"])

	_, err = client.Call(member, "RegisterForEvent", req)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	resp, err = client.Call(member, "IsRegistered", req)
	require.NoError(t, err)
	assert.Equal(t, true, resp.AsMap()["registered"])

	resp, err = client.Call(member, "ListRegisteredEvents", nil)
	require.NoError(t, err)
	listed := resp.AsMap()["events"].([]any)
	require.Len(t, listed, 1)
	assert.Equal(t, eventID, listed[0].(map[string]any)["id"])
	assert.Equal(t, false, resp.AsMap()["fromCache"])

	_, err = client.Call(member, "DeleteEvent", req)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	resp, err = client.Call(owner, "DeleteEvent", req)
	require.NoError(t, err)
	assert.Equal(t, "full_success", resp.AsMap()["outcome"])

	resp, err = client.Call(member, "GetProfile", nil)
	require.NoError(t, err)
	assert.Empty(t, resp.AsMap()["user"].(map[string]any)["registeredEvents"])
}
