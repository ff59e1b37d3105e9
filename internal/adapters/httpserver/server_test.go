package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/solutiontech/gic/internal/adapters/export"
	sqliterepo "github.com/solutiontech/gic/internal/adapters/repo/sqlite"
	"github.com/solutiontech/gic/internal/usecase"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&sqliterepo.CustomerRecord{}, &sqliterepo.AuditLog{}))

	exporter, err := export.New(t.TempDir())
	require.NoError(t, err)

	uc := &usecase.CustomerUC{Customers: sqliterepo.NewCustomerRepo(db)}
	return New(uc, exporter)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createPremium(t *testing.T, h http.Handler) {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/customers", map[string]any{
		"id": 1, "kind": "premium", "name": "María López", "email": "maria@email.com",
		"phone": "987654321", "address": "Avenida 456", "tax_id": "12345678", "tier": "gold",
	}, nil)
	require.Equal(t, 201, rec.Code, rec.Body.String())
}

func TestCustomerLifecycle(t *testing.T) {
	h := newTestServer(t)
	createPremium(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/customers/1", nil, nil)
	require.Equal(t, 200, rec.Code)
	var view map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Premium (gold)", view["type"])
	assert.Equal(t, "premium", view["kind"])

	rec = doJSON(t, h, http.MethodGet, "/api/customers/1/discount?amount=1000", nil, nil)
	require.Equal(t, 200, rec.Code)
	var quote map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.InDelta(t, 100, quote["discount"].(float64), 1e-9)

	rec = doJSON(t, h, http.MethodDelete, "/api/customers/1", nil, nil)
	require.Equal(t, 200, rec.Code)
	rec = doJSON(t, h, http.MethodGet, "/api/customers/1", nil, nil)
	assert.Equal(t, 404, rec.Code)
}

func TestCreateSurfacesValidationReason(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/api/customers", map[string]any{
		"id": 1, "kind": "standard", "name": "Juan Pérez", "email": "sin-arroba",
		"phone": "123456789", "address": "Calle 123", "tax_id": "123456",
	}, nil)
	require.Equal(t, 400, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "formato de email inválido", resp["message"])
}

func TestVariantEndpoints(t *testing.T) {
	h := newTestServer(t)
	createPremium(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/customers/1/benefits", map[string]any{"benefit": "envío gratis"}, nil)
	require.Equal(t, 200, rec.Code)
	var view map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	extra := view["extra"].(map[string]any)
	assert.Equal(t, []any{"envío gratis"}, extra["extra_benefits"])

	// points on a premium customer is a domain error, not a 500
	rec = doJSON(t, h, http.MethodPost, "/api/customers/1/points", map[string]any{"points": 10}, nil)
	assert.Equal(t, 400, rec.Code)
}

func TestSearchEndpoint(t *testing.T) {
	h := newTestServer(t)
	createPremium(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/search?q=L%C3%B3pez&fields=name,email", nil, nil)
	require.Equal(t, 200, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp["total"])

	rec = doJSON(t, h, http.MethodGet, "/api/search?q=maria&fields=name,email", nil, nil)
	require.Equal(t, 200, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp["total"])

	rec = doJSON(t, h, http.MethodGet, "/api/search?q=noexiste&fields=name,email", nil, nil)
	require.Equal(t, 200, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 0, resp["total"])

	rec = doJSON(t, h, http.MethodGet, "/api/search", nil, nil)
	assert.Equal(t, 400, rec.Code)
}

func TestValidateEndpoints(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/validate/email?value=test%40example.com", nil, nil)
	require.Equal(t, 200, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["valid"])

	rec = doJSON(t, h, http.MethodGet, "/api/validate/taxid?value=800197268-5&country=CO", nil, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["valid"])
	assert.Equal(t, "dígito verificador inválido", resp["message"])
}

func TestAdminEndpointsRequireKey(t *testing.T) {
	t.Setenv("ADMIN_API_KEY", "secreto")
	h := newTestServer(t)
	createPremium(t, h)

	rec := doJSON(t, h, http.MethodGet, "/admin/export/json", nil, nil)
	assert.Equal(t, 401, rec.Code)

	auth := map[string]string{"Authorization": "Bearer secreto"}
	rec = doJSON(t, h, http.MethodGet, "/admin/export/json", nil, auth)
	require.Equal(t, 200, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp["total"])

	rec = doJSON(t, h, http.MethodPost, "/admin/backup", nil, auth)
	require.Equal(t, 200, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/admin/backups", nil, auth)
	require.Equal(t, 200, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 2, resp["total"], "export plus backup")

	rec = doJSON(t, h, http.MethodGet, "/admin/logs", nil, auth)
	assert.Equal(t, 200, rec.Code)
}

func TestUnknownSubresource(t *testing.T) {
	h := newTestServer(t)
	createPremium(t, h)
	rec := doJSON(t, h, http.MethodPost, "/api/customers/1/unknown", map[string]any{}, nil)
	assert.Equal(t, 404, rec.Code)
}
