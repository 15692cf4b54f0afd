package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ssargent/njord/pkg/codec"
	"github.com/ssargent/njord/pkg/idgen"
	"github.com/ssargent/njord/pkg/region"
	"github.com/ssargent/njord/pkg/service"
	"github.com/ssargent/njord/pkg/store"
)

const testAPIKey = "test-api-key"

type productResponse struct {
	Success bool          `json:"success"`
	Data    codec.Product `json:"data"`
	Error   string        `json:"error"`
}

type listResponse struct {
	Success bool            `json:"success"`
	Data    []codec.Product `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	alloc, err := region.NewAllocator(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { alloc.Close() })

	counterRegion, err := alloc.Region(region.RegionIDCounter)
	require.NoError(t, err)
	sequence, err := idgen.Open(counterRegion)
	require.NoError(t, err)

	logRegion, err := alloc.Region(region.RegionProductLog)
	require.NoError(t, err)
	productStore, _, err := store.OpenLogStore(logRegion)
	require.NoError(t, err)

	tracker := service.NewTracker(service.TrackerConfig{
		Sequence: sequence,
		Store:    productStore,
	})

	server := NewServer(tracker, ServerConfig{
		Bind:   "127.0.0.1",
		Port:   0,
		APIKey: testAPIKey,
	}, zap.NewNop())
	return server.Router()
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-API-Key", testAPIKey)
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func createPayload() map[string]interface{} {
	return map[string]interface{}{
		"name":             "Arabica beans",
		"origin":           "Colombia",
		"current_location": "Bogotá",
		"status":           "Manufactured",
		"certification":    "Fairtrade",
	}
}

func TestAuthRequired(t *testing.T) {
	router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	req.Header.Set("X-API-Key", "wrong-key")
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestHealth(t *testing.T) {
	router := newTestServer(t)

	recorder := doRequest(t, router, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.NotEmpty(t, recorder.Header().Get("X-Request-ID"))
}

func TestCreateAndGetProduct(t *testing.T) {
	router := newTestServer(t)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/products", createPayload())
	require.Equal(t, http.StatusCreated, recorder.Code)

	var created productResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.Equal(t, uint64(0), created.Data.ID)
	assert.Equal(t, "Arabica beans", created.Data.Name)
	require.NotNil(t, created.Data.Certification)
	assert.Equal(t, "Fairtrade", *created.Data.Certification)
	assert.Nil(t, created.Data.LastUpdate)

	recorder = doRequest(t, router, http.MethodGet, "/api/v1/products/0", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var got productResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	assert.Equal(t, created.Data, got.Data)
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	router := newTestServer(t)

	payload := createPayload()
	payload["name"] = "   "
	recorder := doRequest(t, router, http.MethodPost, "/api/v1/products", payload)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var resp productResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "name cannot be empty")
}

func TestCreateRejectsMalformedJSON(t *testing.T) {
	router := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewBufferString("{not json"))
	req.Header.Set("X-API-Key", testAPIKey)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestUpdateProduct(t *testing.T) {
	router := newTestServer(t)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/products", createPayload())
	require.Equal(t, http.StatusCreated, recorder.Code)

	update := map[string]interface{}{
		"name":             "ignored",
		"origin":           "ignored",
		"current_location": "Rotterdam",
		"status":           "In Transit",
		"iot_data":         `{"temp":17.9}`,
	}
	recorder = doRequest(t, router, http.MethodPut, "/api/v1/products/0", update)
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp productResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "Arabica beans", resp.Data.Name)
	assert.Equal(t, "Rotterdam", resp.Data.CurrentLocation)
	assert.Equal(t, "In Transit", resp.Data.Status)
	require.NotNil(t, resp.Data.LastUpdate)
	assert.GreaterOrEqual(t, *resp.Data.LastUpdate, resp.Data.Timestamp)
}

func TestDeleteProduct(t *testing.T) {
	router := newTestServer(t)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/products", createPayload())
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = doRequest(t, router, http.MethodDelete, "/api/v1/products/0", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp productResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "Arabica beans", resp.Data.Name)

	recorder = doRequest(t, router, http.MethodGet, "/api/v1/products/0", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestMissingProductReturns404(t *testing.T) {
	router := newTestServer(t)

	for _, tc := range []struct {
		method string
		body   interface{}
	}{
		{http.MethodGet, nil},
		{http.MethodPut, createPayload()},
		{http.MethodDelete, nil},
	} {
		recorder := doRequest(t, router, tc.method, "/api/v1/products/999999", tc.body)
		assert.Equalf(t, http.StatusNotFound, recorder.Code, "%s on missing id", tc.method)
	}
}

func TestInvalidIDReturns400(t *testing.T) {
	router := newTestServer(t)

	recorder := doRequest(t, router, http.MethodGet, "/api/v1/products/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestListProducts(t *testing.T) {
	router := newTestServer(t)

	for i := 0; i < 3; i++ {
		recorder := doRequest(t, router, http.MethodPost, "/api/v1/products", createPayload())
		require.Equal(t, http.StatusCreated, recorder.Code)
	}
	recorder := doRequest(t, router, http.MethodDelete, "/api/v1/products/1", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doRequest(t, router, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, uint64(0), resp.Data[0].ID)
	assert.Equal(t, uint64(2), resp.Data[1].ID)
}

func TestMetricsEndpointIsUnprotected(t *testing.T) {
	router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
}
