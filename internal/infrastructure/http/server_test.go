package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mrops-br/products-rbac-api/internal/app/service"
	"github.com/mrops-br/products-rbac-api/internal/domain"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/auth"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/config"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-key"

type productBody struct {
	ID             string `json:"_id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	InventoryCount int    `json:"inventoryCount"`
}

type validationBody struct {
	Errors []struct {
		Msg      string `json:"msg"`
		Param    string `json:"param"`
		Location string `json:"location"`
	} `json:"errors"`
}

type testApp struct {
	t       *testing.T
	handler http.Handler
	issuer  *auth.Issuer
}

func newTestApp(t *testing.T, repo domain.ProductRepository) *testApp {
	t.Helper()
	return newTestAppAt(t, repo, "")
}

func newTestAppAt(t *testing.T, repo domain.ProductRepository, basePath string) *testApp {
	t.Helper()

	telem, err := telemetry.NewNoOpTelemetry(&config.OTLPConfig{ServiceName: "products-api-test", Environment: "test"})
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	telem.WithLogger(logger)

	tracer := telem.TracerProvider.Tracer("test")
	if repo == nil {
		repo = memory.NewProductRepository(tracer, logger)
	}
	svc := service.NewProductService(repo, tracer, telem.MeterProvider.Meter("test"), logger)

	server := NewServer(
		&config.ServerConfig{Host: "127.0.0.1", Port: "0", BasePath: basePath},
		handler.NewProductHandler(svc, logger),
		auth.NewJWTAuth(testSecret),
		telem,
	)

	return &testApp{t: t, handler: server.Handler(), issuer: auth.NewIssuer(testSecret)}
}

func (a *testApp) token(role string) string {
	a.t.Helper()
	token, err := a.issuer.Issue(role+"-id", role, time.Hour)
	require.NoError(a.t, err)
	return token
}

func (a *testApp) do(role, method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("x-auth-token", a.token(role))
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) create(title, description string, count int) productBody {
	a.t.Helper()
	rec := a.do("admin", http.MethodPost, ProductsPath, map[string]any{
		"title": title, "description": description, "inventoryCount": count,
	})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[productBody](a.t, rec)
}

func (a *testApp) list() []productBody {
	a.t.Helper()
	rec := a.do("admin", http.MethodGet, ProductsPath, nil)
	require.Equal(a.t, http.StatusOK, rec.Code)
	return decodeBody[[]productBody](a.t, rec)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertMsg(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	assert.Equal(t, status, rec.Code)
	assert.Equal(t, msg, decodeBody[map[string]string](t, rec)["msg"])
}

func productPath(id string) string {
	return ProductsPath + "/" + id
}

func TestAuthentication(t *testing.T) {
	app := newTestApp(t, nil)

	t.Run("missing token", func(t *testing.T) {
		rec := app.do("", http.MethodGet, ProductsPath, nil)
		assertMsg(t, rec, http.StatusUnauthorized, "No token, authorization denied")
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, ProductsPath, nil)
		req.Header.Set("x-auth-token", "not-a-jwt")
		rec := httptest.NewRecorder()
		app.handler.ServeHTTP(rec, req)
		assertMsg(t, rec, http.StatusUnauthorized, "Token is not valid")
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := auth.NewIssuer("other-secret").Issue("a", "admin", time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, ProductsPath, nil)
		req.Header.Set("x-auth-token", token)
		rec := httptest.NewRecorder()
		app.handler.ServeHTTP(rec, req)
		assertMsg(t, rec, http.StatusUnauthorized, "Token is not valid")
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, ProductsPath, nil)
		req.Header.Set("Authorization", "Bearer "+app.token("manager"))
		rec := httptest.NewRecorder()
		app.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCreateProduct(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		app := newTestApp(t, nil)

		rec := app.do("admin", http.MethodPost, ProductsPath,
			`{"title":"Pen","description":"Blue pen","inventoryCount":10}`)
		require.Equal(t, http.StatusOK, rec.Code)

		p := decodeBody[productBody](t, rec)
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, "Pen", p.Title)
		assert.Equal(t, "Blue pen", p.Description)
		assert.Equal(t, 10, p.InventoryCount)
		assert.Len(t, app.list(), 1)
	})

	t.Run("non admin is forbidden and store unchanged", func(t *testing.T) {
		app := newTestApp(t, nil)
		for _, role := range []string{"manager", "user", "guest"} {
			rec := app.do(role, http.MethodPost, ProductsPath,
				`{"title":"Pen","description":"Blue pen","inventoryCount":10}`)
			assertMsg(t, rec, http.StatusForbidden, "Access denied")
		}
		assert.Empty(t, app.list())
	})

	t.Run("authorization precedes validation", func(t *testing.T) {
		app := newTestApp(t, nil)
		rec := app.do("manager", http.MethodPost, ProductsPath, `{"title":""}`)
		assertMsg(t, rec, http.StatusForbidden, "Access denied")

		rec = app.do("user", http.MethodPost, ProductsPath, `{not json`)
		assertMsg(t, rec, http.StatusForbidden, "Access denied")
	})

	t.Run("every violation reported", func(t *testing.T) {
		app := newTestApp(t, nil)
		rec := app.do("admin", http.MethodPost, ProductsPath,
			`{"title":"","description":"","inventoryCount":"1.5"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decodeBody[validationBody](t, rec)
		require.Len(t, body.Errors, 3)
		assert.Equal(t, "title", body.Errors[0].Param)
		assert.Equal(t, "Title is required", body.Errors[0].Msg)
		assert.Equal(t, "description", body.Errors[1].Param)
		assert.Equal(t, "inventoryCount", body.Errors[2].Param)
		assert.Empty(t, app.list())
	})

	t.Run("largest count kept exactly", func(t *testing.T) {
		app := newTestApp(t, nil)
		rec := app.do("admin", http.MethodPost, ProductsPath,
			`{"title":"Pen","description":"Blue pen","inventoryCount":9223372036854775807}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"inventoryCount":9223372036854775807`)
	})

	t.Run("count past int64 rejected", func(t *testing.T) {
		app := newTestApp(t, nil)
		rec := app.do("admin", http.MethodPost, ProductsPath,
			`{"title":"Pen","description":"Blue pen","inventoryCount":9223372036854775808}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody[validationBody](t, rec)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "inventoryCount", body.Errors[0].Param)
		assert.Empty(t, app.list())
	})

	t.Run("scalar title accepted", func(t *testing.T) {
		app := newTestApp(t, nil)
		rec := app.do("admin", http.MethodPost, ProductsPath,
			`{"title":2024,"description":"Calendar","inventoryCount":"3"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		p := decodeBody[productBody](t, rec)
		assert.Equal(t, "2024", p.Title)
		assert.Equal(t, 3, p.InventoryCount)
	})

	t.Run("empty body", func(t *testing.T) {
		app := newTestApp(t, nil)
		rec := app.do("admin", http.MethodPost, ProductsPath, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Len(t, decodeBody[validationBody](t, rec).Errors, 3)
	})

	t.Run("malformed json", func(t *testing.T) {
		app := newTestApp(t, nil)
		rec := app.do("admin", http.MethodPost, ProductsPath, `{"title":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody[validationBody](t, rec)
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "body", body.Errors[0].Location)
	})
}

func TestListProducts(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do("manager", http.MethodGet, ProductsPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	created := app.create("Pen", "Blue pen", 10)

	rec = app.do("manager", http.MethodGet, ProductsPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	products := decodeBody[[]productBody](t, rec)
	require.Len(t, products, 1)
	assert.Equal(t, created, products[0])

	for _, role := range []string{"user", "guest"} {
		rec := app.do(role, http.MethodGet, ProductsPath, nil)
		assertMsg(t, rec, http.StatusForbidden, "Access denied")
	}
}

func TestUpdateProduct(t *testing.T) {
	t.Run("unknown id", func(t *testing.T) {
		app := newTestApp(t, nil)
		for _, role := range []string{"admin", "manager"} {
			rec := app.do(role, http.MethodPut, productPath("does-not-exist"), `{"title":"x"}`)
			assertMsg(t, rec, http.StatusNotFound, "Product not found")
		}
	})

	t.Run("forbidden roles", func(t *testing.T) {
		app := newTestApp(t, nil)
		p := app.create("Pen", "Blue pen", 10)
		rec := app.do("user", http.MethodPut, productPath(p.ID), `{"title":"x"}`)
		assertMsg(t, rec, http.StatusForbidden, "Access denied")
		assert.Equal(t, "Pen", app.list()[0].Title)
	})

	t.Run("zero count ignored", func(t *testing.T) {
		app := newTestApp(t, nil)
		p := app.create("Pen", "Blue pen", 10)

		rec := app.do("manager", http.MethodPut, productPath(p.ID), `{"inventoryCount":0}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 10, decodeBody[productBody](t, rec).InventoryCount)
		assert.Equal(t, 10, app.list()[0].InventoryCount)
	})

	t.Run("only supplied fields change", func(t *testing.T) {
		app := newTestApp(t, nil)
		p := app.create("Pen", "Blue pen", 10)

		rec := app.do("admin", http.MethodPut, productPath(p.ID), `{"description":"new"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		updated := decodeBody[productBody](t, rec)
		assert.Equal(t, p.ID, updated.ID)
		assert.Equal(t, "Pen", updated.Title)
		assert.Equal(t, "new", updated.Description)
		assert.Equal(t, 10, updated.InventoryCount)
	})

	t.Run("false title ignored alongside valid description", func(t *testing.T) {
		app := newTestApp(t, nil)
		p := app.create("Pen", "Blue pen", 10)

		rec := app.do("admin", http.MethodPut, productPath(p.ID), `{"title":false,"description":"new"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		updated := decodeBody[productBody](t, rec)
		assert.Equal(t, "Pen", updated.Title)
		assert.Equal(t, "new", updated.Description)
	})

	t.Run("number title stored as text", func(t *testing.T) {
		app := newTestApp(t, nil)
		p := app.create("Pen", "Blue pen", 10)

		rec := app.do("manager", http.MethodPut, productPath(p.ID), `{"title":123}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "123", decodeBody[productBody](t, rec).Title)
	})

	t.Run("zero string sets count", func(t *testing.T) {
		app := newTestApp(t, nil)
		p := app.create("Pen", "Blue pen", 10)

		rec := app.do("admin", http.MethodPut, productPath(p.ID), `{"inventoryCount":"0"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, decodeBody[productBody](t, rec).InventoryCount)
		assert.Equal(t, 0, app.list()[0].InventoryCount)
	})

	t.Run("non integer count rejected", func(t *testing.T) {
		app := newTestApp(t, nil)
		p := app.create("Pen", "Blue pen", 10)

		rec := app.do("admin", http.MethodPut, productPath(p.ID), `{"inventoryCount":"lots"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 10, app.list()[0].InventoryCount)
	})
}

func TestDeleteProduct(t *testing.T) {
	app := newTestApp(t, nil)
	p := app.create("Pen", "Blue pen", 10)

	for _, role := range []string{"manager", "user"} {
		rec := app.do(role, http.MethodDelete, productPath(p.ID), nil)
		assertMsg(t, rec, http.StatusForbidden, "Access denied")
	}
	assert.Len(t, app.list(), 1)

	rec := app.do("admin", http.MethodDelete, productPath(p.ID), nil)
	assertMsg(t, rec, http.StatusOK, "Product removed")
	assert.Empty(t, app.list())

	rec = app.do("admin", http.MethodDelete, productPath(p.ID), nil)
	assertMsg(t, rec, http.StatusNotFound, "Product not found")
}

func TestProductLifecycle(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do("admin", http.MethodPost, ProductsPath,
		map[string]any{"title": "Pen", "description": "Blue pen", "inventoryCount": 10})
	require.Equal(t, http.StatusOK, rec.Code)
	pen := decodeBody[productBody](t, rec)
	require.NotEmpty(t, pen.ID)

	rec = app.do("manager", http.MethodGet, ProductsPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody[[]productBody](t, rec), pen)

	rec = app.do("manager", http.MethodPut, productPath(pen.ID), map[string]any{"inventoryCount": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[productBody](t, rec)
	assert.Equal(t, 5, updated.InventoryCount)
	assert.Equal(t, "Pen", updated.Title)

	rec = app.do("user", http.MethodDelete, productPath(pen.ID), nil)
	assertMsg(t, rec, http.StatusForbidden, "Access denied")
	assert.Len(t, app.list(), 1)

	rec = app.do("admin", http.MethodDelete, productPath(pen.ID), nil)
	assertMsg(t, rec, http.StatusOK, "Product removed")

	rec = app.do("admin", http.MethodDelete, productPath(pen.ID), nil)
	assertMsg(t, rec, http.StatusNotFound, "Product not found")
}

var errStoreDown = errors.New("connection refused")

type failingRepository struct{}

func (failingRepository) Create(context.Context, *domain.Product) error { return errStoreDown }
func (failingRepository) FindByID(context.Context, string) (*domain.Product, error) {
	return nil, errStoreDown
}
func (failingRepository) FindAll(context.Context) ([]*domain.Product, error) {
	return nil, errStoreDown
}
func (failingRepository) Update(context.Context, string, domain.ProductPatch) (*domain.Product, error) {
	return nil, errStoreDown
}
func (failingRepository) Delete(context.Context, string) error { return errStoreDown }

func TestStoreFailureIsServerError(t *testing.T) {
	app := newTestApp(t, failingRepository{})

	requests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, ProductsPath, `{"title":"Pen","description":"Blue pen","inventoryCount":1}`},
		{http.MethodGet, ProductsPath, nil},
		{http.MethodPut, productPath("abc"), `{"title":"x"}`},
		{http.MethodDelete, productPath("abc"), nil},
	}
	for _, r := range requests {
		rec := app.do("admin", r.method, r.path, r.body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, "%s %s", r.method, r.path)
		assert.Equal(t, "Server error", rec.Body.String())
		assert.NotContains(t, rec.Body.String(), errStoreDown.Error())
	}
}

func TestRootBasePath(t *testing.T) {
	app := newTestAppAt(t, nil, "/")

	rec := app.do("admin", http.MethodPost, "/", `{"title":"Pen","description":"Blue pen","inventoryCount":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decodeBody[productBody](t, rec)

	rec = app.do("manager", http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]productBody](t, rec), 1)

	rec = app.do("admin", http.MethodDelete, "/"+p.ID, nil)
	assertMsg(t, rec, http.StatusOK, "Product removed")

	rec = app.do("admin", http.MethodGet, ProductsPath, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	app := newTestApp(t, nil)

	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	app.create("Pen", "Blue pen", 10)

	rec = httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "products_created_total")
}
