package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-management-api/internal/domain/apperror"
)

type errorEnvelope struct {
	Status  int    `json:"status"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   struct {
		Code    string          `json:"code"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func recordError(t *testing.T, debug bool, err error) (*httptest.ResponseRecorder, errorEnvelope, *test.Hook) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, hook := test.NewNullLogger()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/users/x", nil)
	writeError(c, logger, debug, err)

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env, hook
}

func TestWriteError_DomainErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{"validation", apperror.NewValidation("email", "Invalid email format"), http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed"},
		{"conflict", &apperror.ConflictError{Field: "username", Value: "alice"}, http.StatusConflict, "CONFLICT", "Username 'alice' is already taken"},
		{"not found", apperror.UserNotFound("id", "42"), http.StatusNotFound, "NOT_FOUND", "User with ID '42' not found"},
		{"wrapped", fmt.Errorf("update: %w", apperror.UserNotFound("email", "a@b.co")), http.StatusNotFound, "NOT_FOUND", "User with email 'a@b.co' not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env, hook := recordError(t, false, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.status, env.Status)
			assert.False(t, env.Success)
			assert.Equal(t, tc.code, env.Error.Code)
			assert.Equal(t, tc.msg, env.Message)
			assert.Empty(t, hook.AllEntries())
		})
	}
}

func TestWriteError_InternalHidesDetailUnlessDebug(t *testing.T) {
	boom := errors.New("connection refused")

	w, env, hook := recordError(t, false, boom)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
	assert.Equal(t, "An unexpected error occurred", env.Message)
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)

	_, env, _ = recordError(t, true, boom)
	assert.Equal(t, "connection refused", env.Message)
}

func TestBindingError(t *testing.T) {
	verr := bindingError(io.EOF)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "body", verr.Fields[0].Field)

	var target map[string]any
	syntaxErr := json.Unmarshal([]byte("{not json"), &target)
	verr = bindingError(syntaxErr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "body", verr.Fields[0].Field)
	assert.Equal(t, "invalid json", verr.Fields[0].Message)
}
