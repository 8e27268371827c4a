package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(RequestIDKey, "req-1")
	return c, w
}

func TestSuccess_WritesEnvelope(t *testing.T) {
	c, w := newContext()
	Success(c, http.StatusCreated, map[string]string{"id": "u1"}, "created", nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "req-1", body["request_id"])
	assert.Equal(t, "created", body["message"])
	assert.Equal(t, map[string]any{"id": "u1"}, body["data"])
	assert.NotContains(t, body, "error")
}

func TestError_WritesCodeAndDetails(t *testing.T) {
	c, w := newContext()
	Error[any](c, http.StatusConflict, "CONFLICT", "Username 'bob' is already taken",
		map[string]string{"field": "username", "value": "bob"})

	assert.Equal(t, http.StatusConflict, w.Code)
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Error   struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "CONFLICT", body.Error.Code)
	assert.Equal(t, "username", body.Error.Details["field"])
}

func TestError_DefaultsToBadRequest(t *testing.T) {
	c, w := newContext()
	resp := Error[any](c, 0, "BAD_REQUEST", "bad", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
