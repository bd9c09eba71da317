package responseformat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type sample struct {
	Hour int     `json:"hour"`
	Mean float64 `json:"mean"`
}

func TestWriteResponse_JSONDefault(t *testing.T) {
	f := NewFormatter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/peak", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, f.WriteResponse(rec, req, http.StatusOK, sample{Hour: 8, Mean: 100}, map[string]string{"Cache-Control": "no-store"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var got sample
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, sample{Hour: 8, Mean: 100}, got)
}

func TestWriteResponse_MsgPack(t *testing.T) {
	f := NewFormatter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/peak?format=msgpack", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, f.WriteResponse(rec, req, http.StatusOK, sample{Hour: 9, Mean: 50}, nil))

	assert.Equal(t, "application/x-msgpack", rec.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &got))
	assert.Contains(t, got, "hour")
	assert.Contains(t, got, "mean")
}

func TestWriteError(t *testing.T) {
	f := NewFormatter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/monthly/abc", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, f.WriteError(rec, req, http.StatusBadRequest, "invalid year"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Bad Request", body.Error)
	assert.Equal(t, "invalid year", body.Message)
}
