package grpc

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/bondcurve-backend/internal/domain"
	"github.com/simaogato/bondcurve-backend/internal/metrics"
	"github.com/simaogato/bondcurve-backend/internal/ratelimit"
	"github.com/simaogato/bondcurve-backend/internal/usecase/pricing"
)

const testToken = "test-token"

// memoryStore is an in-memory implementation of both repositories
type memoryStore struct {
	mu           sync.Mutex
	certificates map[uuid.UUID]*domain.Certificate
	quotes       []*domain.Quote
}

func newMemoryStore() *memoryStore {
	return &memoryStore{certificates: make(map[uuid.UUID]*domain.Certificate)}
}

func (m *memoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.certificates[id]
	if !ok {
		return nil, fmt.Errorf("certificate %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

func (m *memoryStore) Create(ctx context.Context, c *domain.Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.certificates[c.ID] = c
	return nil
}

func (m *memoryStore) List(ctx context.Context, limit, offset int) ([]*domain.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Certificate
	for _, c := range m.certificates {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) Add(ctx context.Context, q *domain.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes = append(m.quotes, q)
	return nil
}

func (m *memoryStore) ListByCertificate(ctx context.Context, certificateID uuid.UUID, limit int) ([]*domain.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Quote
	for i := len(m.quotes) - 1; i >= 0 && len(out) < limit; i-- {
		if m.quotes[i].CertificateID == certificateID {
			out = append(out, m.quotes[i])
		}
	}
	return out, nil
}

type testEnv struct {
	client   *Client
	store    *memoryStore
	registry *metrics.Registry
}

func defaultTestConfig() Config {
	return Config{
		Addr:           "bufnet",
		APIToken:       testToken,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}
}

func setupServer(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	store := newMemoryStore()
	logger := zerolog.Nop()
	registry := metrics.NewRegistry()
	service := pricing.NewPricingService(store, store, &logger)

	limiter := ratelimit.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	grpcServer := NewGRPCServer(cfg, NewServer(service, registry), limiter, registry, &logger)

	lis := bufconn.Listen(1024 * 1024)
	go func() {
		_ = grpcServer.Serve(lis)
	}()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &testEnv{client: NewClient(conn), store: store, registry: registry}
}

func authed() context.Context {
	return WithToken(context.Background(), testToken)
}

func request(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func assertField(t *testing.T, want string, resp *structpb.Struct, field string) {
	t.Helper()
	got, err := decimal.NewFromString(resp.GetFields()[field].GetStringValue())
	require.NoError(t, err, "field %s", field)
	assert.InDelta(t, decimal.RequireFromString(want).InexactFloat64(), got.InexactFloat64(), 1e-9, "field %s", field)
}

func createCertificate(t *testing.T, env *testEnv, valuation string) string {
	t.Helper()
	resp, err := env.client.CreateCertificate(authed(), request(t, map[string]any{
		"title":     "River cleanup",
		"target":    "729",
		"valuation": valuation,
	}))
	require.NoError(t, err)
	return resp.GetFields()["id"].GetStringValue()
}

func TestPricingServiceDesc(t *testing.T) {
	grpcServer := grpc.NewServer()
	RegisterPricingServiceServer(grpcServer, &Server{})

	info, ok := grpcServer.GetServiceInfo()[ServiceName]
	require.True(t, ok)
	assert.Empty(t, info.Metadata, "service must not name a descriptor file that is never registered")

	methods := make([]string, 0, len(info.Methods))
	for _, m := range info.Methods {
		methods = append(methods, m.Name)
	}
	assert.ElementsMatch(t, []string{
		"Preview", "QuotePurchase", "QuoteBudget", "CreateCertificate", "GetCertificate", "ListQuotes",
	}, methods)
}

func TestServer_Preview_Defaults(t *testing.T) {
	env := setupServer(t, defaultTestConfig())

	resp, err := env.client.Preview(authed(), nil)
	require.NoError(t, err)

	assert.Equal(t, "10000", resp.GetFields()["target"].GetStringValue())
	assert.Equal(t, "1000", resp.GetFields()["valuation"].GetStringValue())
	assert.Equal(t, "41152.26", resp.GetFields()["max_valuation"].GetStringValue()[:8])
	assert.Equal(t, "13717.42", resp.GetFields()["max_fundraise"].GetStringValue()[:8])
	assert.Equal(t, "0", resp.GetFields()["cost"].GetStringValue())
}

func TestServer_Preview_AcceptsNumbers(t *testing.T) {
	env := setupServer(t, defaultTestConfig())

	resp, err := env.client.Preview(authed(), request(t, map[string]any{
		"target":    729.0,
		"valuation": 750.0,
		"size":      0.25,
	}))
	require.NoError(t, err)

	assertField(t, "296.875", resp, "cost")
	assertField(t, "1687.5", resp, "new_valuation")
	assertField(t, "250", resp, "shares")
}

func TestServer_CertificateLifecycle(t *testing.T) {
	env := setupServer(t, defaultTestConfig())
	id := createCertificate(t, env, "750")

	// Buy a quarter of the shares from the halfway point
	quote, err := env.client.QuotePurchase(authed(), request(t, map[string]any{
		"certificate_id": id,
		"size":           "0.25",
	}))
	require.NoError(t, err)
	assert.Equal(t, "PURCHASE", quote.GetFields()["kind"].GetStringValue())
	assertField(t, "296.875", quote, "cost")
	assertField(t, "1687.5", quote, "new_valuation")

	// Spending the same amount buys the same size
	budget, err := env.client.QuoteBudget(authed(), request(t, map[string]any{
		"certificate_id": id,
		"budget":         "296.875",
	}))
	require.NoError(t, err)
	assert.Equal(t, "BUDGET", budget.GetFields()["kind"].GetStringValue())
	assertField(t, "0.25", budget, "size")

	cert, err := env.client.GetCertificate(authed(), request(t, map[string]any{"certificate_id": id}))
	require.NoError(t, err)
	assert.Equal(t, "River cleanup", cert.GetFields()["title"].GetStringValue())
	assertField(t, "0.5", cert, "sold_fraction")
	assertField(t, "500", cert, "shares_sold")
	assertField(t, "3000", cert, "max_valuation")

	list, err := env.client.ListQuotes(authed(), request(t, map[string]any{
		"certificate_id": id,
		"limit":          10,
	}))
	require.NoError(t, err)
	quotes := list.GetFields()["quotes"].GetListValue().GetValues()
	require.Len(t, quotes, 2)
	assert.Equal(t, "BUDGET", quotes[0].GetStructValue().GetFields()["kind"].GetStringValue())

	assert.Equal(t, 1.0, testutil.ToFloat64(env.registry.Quotes.WithLabelValues("PURCHASE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.registry.RPCRequests.WithLabelValues("CreateCertificate", "OK")))
}

func TestServer_ErrorCodes(t *testing.T) {
	env := setupServer(t, defaultTestConfig())
	id := createCertificate(t, env, "750")

	tests := []struct {
		name string
		call func() error
		code codes.Code
	}{
		{
			name: "Missing Token",
			call: func() error {
				_, err := env.client.Preview(context.Background(), nil)
				return err
			},
			code: codes.Unauthenticated,
		},
		{
			name: "Malformed Decimal",
			call: func() error {
				_, err := env.client.Preview(authed(), request(t, map[string]any{"target": "ten"}))
				return err
			},
			code: codes.InvalidArgument,
		},
		{
			name: "Zero Target",
			call: func() error {
				_, err := env.client.Preview(authed(), request(t, map[string]any{"target": "0"}))
				return err
			},
			code: codes.InvalidArgument,
		},
		{
			name: "Malformed Certificate ID",
			call: func() error {
				_, err := env.client.GetCertificate(authed(), request(t, map[string]any{"certificate_id": "nope"}))
				return err
			},
			code: codes.InvalidArgument,
		},
		{
			name: "Unknown Certificate",
			call: func() error {
				_, err := env.client.QuotePurchase(authed(), request(t, map[string]any{
					"certificate_id": uuid.NewString(),
					"size":           "0.1",
				}))
				return err
			},
			code: codes.NotFound,
		},
		{
			name: "Missing Size",
			call: func() error {
				_, err := env.client.QuotePurchase(authed(), request(t, map[string]any{"certificate_id": id}))
				return err
			},
			code: codes.InvalidArgument,
		},
		{
			name: "Exceeds Supply",
			call: func() error {
				_, err := env.client.QuotePurchase(authed(), request(t, map[string]any{
					"certificate_id": id,
					"size":           "0.6",
				}))
				return err
			},
			code: codes.FailedPrecondition,
		},
		{
			name: "Fractional Limit",
			call: func() error {
				_, err := env.client.ListQuotes(authed(), request(t, map[string]any{
					"certificate_id": id,
					"limit":          2.5,
				}))
				return err
			},
			code: codes.InvalidArgument,
		},
		{
			name: "Empty Title",
			call: func() error {
				_, err := env.client.CreateCertificate(authed(), request(t, map[string]any{"target": "100"}))
				return err
			},
			code: codes.InvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestServer_RateLimit(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	env := setupServer(t, cfg)

	_, err := env.client.Preview(authed(), nil)
	require.NoError(t, err)

	_, err = env.client.Preview(authed(), nil)
	require.Error(t, err)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}
