package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/quote-service/internal/api/http/handlers"
	"github.com/spec-kit/quote-service/internal/auth"
	"github.com/spec-kit/quote-service/internal/config"
	"github.com/spec-kit/quote-service/internal/domain"
	"github.com/spec-kit/quote-service/internal/events"
	"github.com/spec-kit/quote-service/internal/observability"
	"github.com/spec-kit/quote-service/internal/repository/memory"
	"github.com/spec-kit/quote-service/internal/service"
	"github.com/spec-kit/quote-service/internal/storage"
)

type apiEnv struct {
	app   *fiber.App
	users *service.UserService
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	logger := zap.NewNop()
	authCfg := config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 15, BcryptCost: 4}

	userRepo := memory.NewUserRepository()
	memberships := memory.NewMembershipRepository()
	groupRepo := memory.NewGroupRepository()
	quoteRepo := memory.NewQuoteRepository()
	historyRepo := memory.NewQuoteHistoryRepository()
	revoked := memory.NewTokenStore()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	policy := storage.UploadPolicy{MaxBytes: 1 << 20, AllowedTypes: []string{"text/plain"}}
	dispatcher := events.NewInMemoryDispatcher(logger)

	authService := service.NewAuthService(authCfg, service.AuthDependencies{
		UserRepo: userRepo, MembershipRepo: memberships, RevokedTokens: revoked, Logger: logger,
	})
	userService := service.NewUserService(authCfg, service.UserDependencies{
		UserRepo: userRepo, MembershipRepo: memberships, Logger: logger,
	})
	quoteService := service.NewQuoteService(service.QuoteDependencies{
		QuoteRepo: quoteRepo, HistoryRepo: historyRepo, FileStore: store,
		UploadPolicy: policy, Dispatcher: dispatcher, Logger: logger,
	})
	fileService := service.NewFileService(service.FileDependencies{
		QuoteRepo: quoteRepo, HistoryRepo: historyRepo, FileStore: store,
		UploadPolicy: policy, Dispatcher: dispatcher, Logger: logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		QuoteRepo: quoteRepo, UserRepo: userRepo, GroupRepo: groupRepo,
		HistoryRepo: historyRepo, Dispatcher: dispatcher, Logger: logger,
	})
	groupService := service.NewGroupService(service.GroupDependencies{
		GroupRepo: groupRepo, MembershipRepo: memberships, UserRepo: userRepo,
		QuoteRepo: quoteRepo, Logger: logger,
	})

	metrics := observability.NewMetrics()
	app := NewServer(ServerOptions{AppName: "quote-service-test", MaxUploadBytes: policy.MaxBytes}, logger, metrics)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("quote-service", "test", nil, nil, store, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Quotes:         handlers.NewQuotesHandler(quoteService),
		Assignments:    handlers.NewAssignmentHandler(assignmentService),
		Files:          handlers.NewFilesHandler(fileService),
		Groups:         handlers.NewGroupsHandler(groupService),
		Users:          handlers.NewUsersHandler(userService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), userRepo, memberships, revoked, logger),
	})
	return &apiEnv{app: app, users: userService}
}

type apiResponse struct {
	Status int
	Header nethttp.Header
	Body   []byte
}

func (r apiResponse) json(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &out), string(r.Body))
	return out
}

func (r apiResponse) data(t *testing.T) map[string]any {
	t.Helper()
	data, ok := r.json(t)["data"].(map[string]any)
	require.True(t, ok, string(r.Body))
	return data
}

func (r apiResponse) errorCode(t *testing.T) string {
	t.Helper()
	envelope, ok := r.json(t)["error"].(map[string]any)
	require.True(t, ok, string(r.Body))
	code, _ := envelope["code"].(string)
	return code
}

func (e *apiEnv) do(t *testing.T, method, path, token, contentType string, body io.Reader) apiResponse {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(fiber.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return apiResponse{Status: resp.StatusCode, Header: resp.Header, Body: raw}
}

func (e *apiEnv) doJSON(t *testing.T, method, path, token string, payload any) apiResponse {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return e.do(t, method, path, token, fiber.MIMEApplicationJSON, body)
}

func (e *apiEnv) doMultipart(t *testing.T, path, token string, fields map[string]string, files map[string]string) apiResponse {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return e.do(t, fiber.MethodPost, path, token, w.FormDataContentType(), &buf)
}

func (e *apiEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := e.doJSON(t, fiber.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Body))
	session := resp.data(t)["auth"].(map[string]any)
	return session["token"].(string)
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	env := newAPIEnv(t)

	resp := env.do(t, fiber.MethodGet, "/nope", "", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.Status)
	assert.Equal(t, "NOT_FOUND", resp.errorCode(t))
	assert.NotEmpty(t, resp.Header.Get(observability.RequestIDHeader))

	resp = env.do(t, fiber.MethodGet, "/quotes", "", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.Status)
	assert.Equal(t, "UNAUTHORIZED", resp.errorCode(t))
}

func TestRegisterValidation(t *testing.T) {
	env := newAPIEnv(t)

	resp := env.doJSON(t, fiber.MethodPost, "/auth/register", "", map[string]string{
		"name": "Ada", "email": "not-an-email", "password": "correct horse",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	assert.Equal(t, "VALIDATION_FAILED", resp.errorCode(t))
	details := resp.json(t)["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "email", details["email"])

	resp = env.doJSON(t, fiber.MethodPost, "/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "correct horse",
	})
	require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Body))
	user := resp.data(t)["user"].(map[string]any)
	assert.Equal(t, "customer", user["role"])
	assert.NotContains(t, string(resp.Body), "password")
}

func TestQuoteFlowOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()

	_, err := env.users.CreateUser(ctx, service.UserCreateInput{
		Name: "Quinn", Email: "quoter@example.com", Password: "quoter-pass", Role: domain.RoleQuoter,
	})
	require.NoError(t, err)
	reg := env.doJSON(t, fiber.MethodPost, "/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "correct horse",
	})
	require.Equal(t, fiber.StatusCreated, reg.Status, string(reg.Body))
	customer := reg.data(t)["auth"].(map[string]any)["token"].(string)
	quoter := env.login(t, "quoter@example.com", "quoter-pass")

	created := env.doMultipart(t, "/quotes", customer,
		map[string]string{"title": "Brackets", "description": "10 pcs"},
		map[string]string{"parts.txt": "bracket x 10"})
	require.Equal(t, fiber.StatusCreated, created.Status, string(created.Body))
	quote := created.data(t)
	id := quote["id"].(string)
	assert.Equal(t, "pending", quote["status"])
	assert.Len(t, quote["customer_files"], 1)

	resp := env.doMultipart(t, "/quotes", quoter, map[string]string{"title": "Nope"}, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.Status)

	resp = env.doJSON(t, fiber.MethodGet, "/groups/supplier", customer, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.Status)
	resp = env.doJSON(t, fiber.MethodGet, "/groups/unknown", quoter, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.Status)

	resp = env.doJSON(t, fiber.MethodPost, "/quotes/"+id+"/confirm", quoter, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	assert.Contains(t, string(resp.Body), "upload file first")

	resp = env.doJSON(t, fiber.MethodPost, "/quotes/"+id+"/reject", quoter, map[string]string{"reason": ""})
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)

	resp = env.doMultipart(t, "/quotes/"+id+"/files/quoter", quoter, nil, map[string]string{"final.txt": "45 EUR each"})
	require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Body))
	resp = env.doJSON(t, fiber.MethodPost, "/quotes/"+id+"/confirm", quoter, nil)
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Body))
	assert.Equal(t, "quoted", resp.data(t)["status"])

	resp = env.doJSON(t, fiber.MethodPost, "/quotes/"+id+"/confirm", quoter, nil)
	assert.Equal(t, fiber.StatusConflict, resp.Status)
	assert.Equal(t, "DUPLICATE_ACTION", resp.errorCode(t))

	resp = env.doJSON(t, fiber.MethodGet, "/quotes/"+id, customer, nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	view := resp.data(t)
	assert.NotContains(t, view, "quoter_id")
	assert.NotContains(t, view, "supplier_files")
	require.Len(t, view["quoter_files"], 1)

	resp = env.do(t, fiber.MethodGet, "/quotes/"+id+"/files/quoter/0", customer, "", nil)
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Body))
	assert.Equal(t, "45 EUR each", string(resp.Body))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "final.txt")

	resp = env.doJSON(t, fiber.MethodGet, "/quotes/"+id+"/history", customer, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.Status)
	resp = env.doJSON(t, fiber.MethodGet, "/quotes/"+id+"/history", quoter, nil)
	assert.Equal(t, fiber.StatusOK, resp.Status)
}

func TestAdminConfirmsSupplierQuote(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()

	_, err := env.users.CreateUser(ctx, service.UserCreateInput{
		Name: "Root", Email: "admin@example.com", Password: "admin-pass", Role: domain.RoleAdmin,
	})
	require.NoError(t, err)
	_, err = env.users.CreateUser(ctx, service.UserCreateInput{
		Name: "Quinn", Email: "quoter@example.com", Password: "quoter-pass", Role: domain.RoleQuoter,
	})
	require.NoError(t, err)
	supplier, err := env.users.CreateUser(ctx, service.UserCreateInput{
		Name: "Sam", Email: "supplier@example.com", Password: "supplier-pass", Role: domain.RoleSupplier,
	})
	require.NoError(t, err)
	reg := env.doJSON(t, fiber.MethodPost, "/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "correct horse",
	})
	require.Equal(t, fiber.StatusCreated, reg.Status, string(reg.Body))
	customer := reg.data(t)["auth"].(map[string]any)["token"].(string)
	admin := env.login(t, "admin@example.com", "admin-pass")
	quoter := env.login(t, "quoter@example.com", "quoter-pass")

	created := env.doMultipart(t, "/quotes", customer, map[string]string{"title": "Brackets"}, nil)
	require.Equal(t, fiber.StatusCreated, created.Status, string(created.Body))
	id := created.data(t)["id"].(string)

	resp := env.doJSON(t, fiber.MethodPut, "/quotes/"+id+"/supplier", admin, map[string]string{"supplier_id": supplier.ID})
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Body))
	assert.Equal(t, "in_progress", resp.data(t)["status"])
	resp = env.doMultipart(t, "/quotes/"+id+"/files/supplier", admin, nil, map[string]string{"offer.txt": "40 EUR each"})
	require.Equal(t, fiber.StatusCreated, resp.Status, string(resp.Body))

	resp = env.doJSON(t, fiber.MethodPost, "/quotes/"+id+"/supplier-confirm", quoter, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.Status)
	resp = env.doJSON(t, fiber.MethodPost, "/quotes/"+id+"/supplier-confirm", customer, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.Status)

	resp = env.doJSON(t, fiber.MethodPost, "/quotes/"+id+"/supplier-confirm", admin, nil)
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Body))
	assert.Equal(t, "supplier_quoted", resp.data(t)["status"])
}

func TestListQuotesRejectsMalformedTimes(t *testing.T) {
	env := newAPIEnv(t)
	reg := env.doJSON(t, fiber.MethodPost, "/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "correct horse",
	})
	require.Equal(t, fiber.StatusCreated, reg.Status, string(reg.Body))
	token := reg.data(t)["auth"].(map[string]any)["token"].(string)

	resp := env.doJSON(t, fiber.MethodGet, "/quotes?created_from=yesterday", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	assert.Equal(t, "VALIDATION_FAILED", resp.errorCode(t))
	details := resp.json(t)["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "yesterday", details["created_from"])

	resp = env.doJSON(t, fiber.MethodGet, "/quotes?created_to=2024-13-01", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.Status)
	assert.Equal(t, "VALIDATION_FAILED", resp.errorCode(t))

	resp = env.doJSON(t, fiber.MethodGet, "/quotes?created_from=2024-03-01T00:00:00Z", token, nil)
	assert.Equal(t, fiber.StatusOK, resp.Status, string(resp.Body))
}

func TestLogoutRevokesSession(t *testing.T) {
	env := newAPIEnv(t)
	reg := env.doJSON(t, fiber.MethodPost, "/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "correct horse",
	})
	require.Equal(t, fiber.StatusCreated, reg.Status, string(reg.Body))
	token := reg.data(t)["auth"].(map[string]any)["token"].(string)

	me := env.doJSON(t, fiber.MethodGet, "/auth/me", token, nil)
	require.Equal(t, fiber.StatusOK, me.Status)
	assert.Equal(t, "ada@example.com", me.data(t)["email"])

	resp := env.doJSON(t, fiber.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.Status)

	resp = env.doJSON(t, fiber.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.Status)
	assert.True(t, strings.Contains(string(resp.Body), "revoked"))
}

func TestHealthEndpoints(t *testing.T) {
	env := newAPIEnv(t)

	resp := env.do(t, fiber.MethodGet, "/health/live", "", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.Status)

	resp = env.do(t, fiber.MethodGet, "/health/ready", "", "", nil)
	require.Equal(t, fiber.StatusOK, resp.Status, string(resp.Body))
	deps := resp.json(t)["dependencies"].(map[string]any)
	assert.Equal(t, "disabled", deps["postgres"])
	assert.Equal(t, "ok", deps["storage"])
	assert.Equal(t, "disabled", deps["redis"])

	resp = env.do(t, fiber.MethodGet, "/health/metrics", "", "", nil)
	require.Equal(t, fiber.StatusOK, resp.Status)
	assert.Contains(t, resp.data(t), "requests")
}
