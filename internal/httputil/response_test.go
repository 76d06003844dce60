package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	RespondJSON(rec, map[string]string{"message": "ok"}, http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"ok"}`, rec.Body.String())
}

func TestRespondJSON_NullBody(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	RespondJSON(rec, nil, http.StatusOK)

	assert.Equal(t, "null\n", rec.Body.String())
}

func TestRespondErrorWithCode(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	RespondErrorWithCode(rec, "group not found", CodeGroupNotFound, http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "group not found", resp.Error)
	assert.Equal(t, CodeGroupNotFound, resp.Code)
}

func TestRespondError_OmitsCode(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	RespondError(rec, "boom", http.StatusInternalServerError)

	assert.JSONEq(t, `{"error":"boom"}`, rec.Body.String())
}
