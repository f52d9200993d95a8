package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bistro-boss-server/internal/handler"
	"github.com/iliyamo/bistro-boss-server/internal/model"
	"github.com/iliyamo/bistro-boss-server/internal/repository"
	"github.com/iliyamo/bistro-boss-server/internal/service"
	"github.com/iliyamo/bistro-boss-server/internal/utils"
)

type memUsers struct{ byEmail map[string]*model.User }

func (m *memUsers) List(context.Context) ([]model.User, error) {
	out := []model.User{}
	for _, u := range m.byEmail {
		out = append(out, *u)
	}
	return out, nil
}
func (m *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}
func (m *memUsers) CreateIfAbsent(_ context.Context, u model.User) (repository.InsertResult, bool, error) {
	if _, ok := m.byEmail[u.Email]; ok {
		return repository.InsertResult{Acknowledged: true}, false, nil
	}
	m.byEmail[u.Email] = &u
	return repository.InsertResult{Acknowledged: true, InsertedID: "u" + u.Email}, true, nil
}
func (m *memUsers) PromoteToAdmin(context.Context, string) (repository.UpdateResult, error) {
	return repository.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}
func (m *memUsers) Delete(_ context.Context, id string) (repository.DeleteResult, error) {
	if id == "bad" {
		return repository.DeleteResult{}, repository.ErrInvalidID
	}
	return repository.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}
func (m *memUsers) Count(context.Context) (int64, error) { return int64(len(m.byEmail)), nil }

type memMenu struct{ items []model.MenuItem }

func (m *memMenu) List(context.Context) ([]model.MenuItem, error) { return m.items, nil }
func (m *memMenu) Get(_ context.Context, id string) (*model.MenuItem, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			return &m.items[i], nil
		}
	}
	return nil, repository.ErrNotFound
}
func (m *memMenu) Create(_ context.Context, it model.MenuItem) (repository.InsertResult, error) {
	m.items = append(m.items, it)
	return repository.InsertResult{Acknowledged: true, InsertedID: "new"}, nil
}
func (m *memMenu) Update(context.Context, string, model.MenuItem) (repository.UpdateResult, error) {
	return repository.UpdateResult{Acknowledged: true}, nil
}
func (m *memMenu) Delete(context.Context, string) (repository.DeleteResult, error) {
	return repository.DeleteResult{Acknowledged: true}, nil
}
func (m *memMenu) Count(context.Context) (int64, error) { return int64(len(m.items)), nil }

type noReviews struct{}

func (noReviews) List(context.Context) ([]model.Review, error) { return []model.Review{}, nil }

type noCarts struct{}

func (noCarts) ListByEmail(context.Context, string) ([]model.CartItem, error) {
	return []model.CartItem{}, nil
}
func (noCarts) Create(context.Context, model.CartItem) (repository.InsertResult, error) {
	return repository.InsertResult{Acknowledged: true}, nil
}
func (noCarts) Delete(context.Context, string) (repository.DeleteResult, error) {
	return repository.DeleteResult{Acknowledged: true}, nil
}

type memPayments struct{ rows []model.Payment }

func (m *memPayments) ListByEmail(_ context.Context, email string) ([]model.Payment, error) {
	out := []model.Payment{}
	for _, p := range m.rows {
		if p.Email == email {
			out = append(out, p)
		}
	}
	return out, nil
}
func (m *memPayments) Count(context.Context) (int64, error) { return int64(len(m.rows)), nil }
func (m *memPayments) Revenue(context.Context) (float64, error) {
	total := 0.0
	for _, p := range m.rows {
		total += p.Price
	}
	return total, nil
}
func (m *memPayments) OrderStats(context.Context) ([]model.CategoryStat, error) {
	return []model.CategoryStat{}, nil
}

type stubReconciler struct {
	price      float64
	validation error
}

func (s *stubReconciler) CreateIntent(_ context.Context, p float64) (string, error) {
	s.price = p
	return "secret", nil
}
func (s *stubReconciler) RecordPayment(context.Context, model.Payment) (service.RecordResult, error) {
	return service.RecordResult{}, nil
}
func (s *stubReconciler) InitiateGatewayPayment(context.Context, model.Payment) (service.GatewayStart, error) {
	return service.GatewayStart{GatewayURL: "https://gw.test"}, nil
}
func (s *stubReconciler) ValidateGatewayPayment(context.Context, string) (service.GatewayOutcome, error) {
	return service.GatewayOutcome{TransactionID: "tx-1"}, s.validation
}

type env struct {
	e        *echo.Echo
	tokens   *utils.TokenService
	users    *memUsers
	payments *memPayments
	recon    *stubReconciler
}

func newEnv() *env {
	ev := &env{
		e:      echo.New(),
		tokens: utils.NewTokenService("test-secret", time.Hour),
		users: &memUsers{byEmail: map[string]*model.User{
			"boss@bistro.io":  {Email: "boss@bistro.io", Role: model.RoleAdmin},
			"diner@bistro.io": {Email: "diner@bistro.io"},
		}},
		payments: &memPayments{},
		recon:    &stubReconciler{},
	}
	ev.e.Validator = handler.NewRequestValidator()
	menu := &memMenu{items: []model.MenuItem{{ID: "642c155b2c4774f05c36ee7e", Name: "Salad", Category: "salad", Price: 9.5}}}
	RegisterRoutes(ev.e, Handlers{
		Auth:     handler.NewAuthHandler(ev.tokens),
		Menu:     handler.NewMenuHandler(menu, noReviews{}, nil),
		Carts:    handler.NewCartHandler(noCarts{}),
		Users:    handler.NewUserHandler(ev.users),
		Payments: handler.NewPaymentHandler(ev.payments, ev.recon, "http://web.test/dashboard/payment-history"),
		Stats:    handler.NewStatsHandler(ev.users, menu, ev.payments),
	}, Guards{Tokens: ev.tokens, Users: ev.users})
	return ev
}

func (ev *env) bearer(t *testing.T, email string) string {
	t.Helper()
	tok, err := ev.tokens.Issue(map[string]any{"email": email})
	require.NoError(t, err)
	return "Bearer " + tok
}

func (ev *env) call(method, path, body, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	ev.e.ServeHTTP(rec, req)
	return rec
}

func TestRootBanner(t *testing.T) {
	rec := newEnv().call(http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Mahim Boss is Sitting", rec.Body.String())
}

func TestIssuedTokenOpensGuardedRoutes(t *testing.T) {
	ev := newEnv()
	rec := ev.call(http.MethodPost, "/jwt", `{"email":"boss@bistro.io","name":"Boss"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct{ Token string }
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	rec = ev.call(http.MethodGet, "/users", "", "Bearer "+body.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ev.call(http.MethodPost, "/jwt", `{"name":"anonymous"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutesRequireTokenThenAdmin(t *testing.T) {
	ev := newEnv()
	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/users"},
		{http.MethodGet, "/admin-stats"},
		{http.MethodGet, "/order-stats"},
		{http.MethodPatch, "/users/admin/abc"},
		{http.MethodDelete, "/users/abc"},
		{http.MethodDelete, "/menu/abc"},
	} {
		assert.Equal(t, http.StatusUnauthorized, ev.call(r.method, r.path, "", "").Code, r.path)
		assert.Equal(t, http.StatusForbidden, ev.call(r.method, r.path, "", ev.bearer(t, "diner@bistro.io")).Code, r.path)
	}
}

func TestCreateUserIsIdempotent(t *testing.T) {
	ev := newEnv()
	rec := ev.call(http.MethodPost, "/users", `{"name":"New","email":"new@bistro.io"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"insertedId":"unew@bistro.io"`)

	rec = ev.call(http.MethodPost, "/users", `{"name":"New again","email":"new@bistro.io"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"User already exists","insertedId":null}`, rec.Body.String())
	assert.Len(t, ev.users.byEmail, 3)
	assert.Equal(t, "New", ev.users.byEmail["new@bistro.io"].Name)
}

func TestCreateUserValidatesEmail(t *testing.T) {
	rec := newEnv().call(http.MethodPost, "/users", `{"name":"x","email":"nope"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIsAdmin(t *testing.T) {
	ev := newEnv()
	assert.JSONEq(t, `{"admin":true}`, ev.call(http.MethodGet, "/user/admin/boss@bistro.io", "", "").Body.String())
	assert.JSONEq(t, `{"admin":false}`, ev.call(http.MethodGet, "/user/admin/diner@bistro.io", "", "").Body.String())
	assert.JSONEq(t, `{"admin":false}`, ev.call(http.MethodGet, "/user/admin/ghost@bistro.io", "", "").Body.String())
}

func TestMalformedIDIsBadRequest(t *testing.T) {
	ev := newEnv()
	rec := ev.call(http.MethodDelete, "/users/bad", "", ev.bearer(t, "boss@bistro.io"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentHistoryOnlyForOwnEmail(t *testing.T) {
	ev := newEnv()
	ev.payments.rows = []model.Payment{{Email: "diner@bistro.io", Price: 10, TransactionID: "tx-1"}}

	rec := ev.call(http.MethodGet, "/payments/diner@bistro.io", "", ev.bearer(t, "diner@bistro.io"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"transactionId":"tx-1"`)

	rec = ev.call(http.MethodGet, "/payments/diner@bistro.io", "", ev.bearer(t, "boss@bistro.io"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"Forbidden Access"}`, rec.Body.String())
}

func TestCreateIntentAcceptsStringPrice(t *testing.T) {
	ev := newEnv()
	rec := ev.call(http.MethodPost, "/create-payment-intent", `{"price":"19.99"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"clientSecret":"secret"}`, rec.Body.String())
	assert.Equal(t, 19.99, ev.recon.price)
}

func TestGatewayCallback(t *testing.T) {
	ev := newEnv()
	form := url.Values{"val_id": {"val-1"}}.Encode()

	req := httptest.NewRequest(http.MethodPost, "/success-payment", strings.NewReader(form))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	ev.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://web.test/dashboard/payment-history", rec.Header().Get(echo.HeaderLocation))

	ev.recon.validation = service.ErrInvalidPayment
	req = httptest.NewRequest(http.MethodPost, "/success-payment", strings.NewReader(form))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec = httptest.NewRecorder()
	ev.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid payment"}`, rec.Body.String())

	ev.recon.validation = service.ErrConsistencyFault
	req = httptest.NewRequest(http.MethodPost, "/ipn-success-payment", strings.NewReader(form))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec = httptest.NewRecorder()
	ev.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAdminStats(t *testing.T) {
	ev := newEnv()
	admin := ev.bearer(t, "boss@bistro.io")

	rec := ev.call(http.MethodGet, "/admin-stats", "", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"users":2,"menuItems":1,"orders":0,"revenue":0}`, rec.Body.String())

	ev.payments.rows = []model.Payment{{Price: 10}, {Price: 5}}
	rec = ev.call(http.MethodGet, "/admin-stats", "", admin)
	assert.JSONEq(t, `{"users":2,"menuItems":1,"orders":2,"revenue":15}`, rec.Body.String())
}

func TestMenuLookup(t *testing.T) {
	ev := newEnv()
	rec := ev.call(http.MethodGet, "/menu/642c155b2c4774f05c36ee7e", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Salad"`)

	rec = ev.call(http.MethodGet, "/menu/unknown", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
}
