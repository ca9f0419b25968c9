package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/headphones_shop/internal/hash"
	"github.com/Skotchmaster/headphones_shop/internal/models"
	"github.com/Skotchmaster/headphones_shop/internal/payment"
	"github.com/Skotchmaster/headphones_shop/internal/repo"
	"github.com/Skotchmaster/headphones_shop/internal/service"
	"github.com/Skotchmaster/headphones_shop/internal/session"
	"github.com/Skotchmaster/headphones_shop/internal/testdb"
)

const (
	sitePassword  = "let-me-in"
	webhookSecret = "whsec_http_test"
	adminUser     = "admin"
	adminPassword = "correct horse"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, p payment.CreateIntentParams) (*payment.Intent, error) {
	args := m.Called(ctx, p)
	if v := args.Get(0); v != nil {
		return v.(*payment.Intent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*payment.Intent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGateway) CancelIntent(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type testServer struct {
	e        *echo.Echo
	db       *gorm.DB
	gw       *MockGateway
	sessions *session.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testdb.New(t)
	r := repo.New(db)
	gw := &MockGateway{}
	sessions := session.NewManager([]byte("http-test-secret"), false)

	h, err := hash.HashPassword(adminPassword)
	require.NoError(t, err)
	require.NoError(t, r.CreateAdmin(context.Background(), &models.Admin{Username: adminUser, PasswordHash: h}))

	e := echo.New()
	Register(e, &Deps{
		DB:       db,
		Sessions: sessions,
		Auth:     &AuthHTTP{Svc: &service.AuthService{Repo: r, SitePassword: sitePassword}, Sessions: sessions},
		Cart:     &CartHTTP{Svc: &service.CartService{Repo: r}},
		Catalog:  &CatalogHTTP{Svc: &service.CatalogService{Repo: r}},
		Checkout: &CheckoutHTTP{
			Svc:            &service.CheckoutService{Repo: r, Gateway: gw, Currency: "usd"},
			Webhooks:       &payment.WebhookVerifier{Secret: webhookSecret},
			PublishableKey: "pk_test_123",
		},
		Messages: &MessageHTTP{Svc: &service.MessageService{Repo: r}},
	})

	return &testServer{e: e, db: db, gw: gw, sessions: sessions}
}

func (s *testServer) do(t *testing.T, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) siteCookie(t *testing.T) *http.Cookie {
	t.Helper()
	ck, err := s.sessions.NewSiteCookie()
	require.NoError(t, err)
	return ck
}

func (s *testServer) adminCookie(t *testing.T) *http.Cookie {
	t.Helper()
	ck, err := s.sessions.NewAdminCookie(1, adminUser)
	require.NoError(t, err)
	return ck
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
