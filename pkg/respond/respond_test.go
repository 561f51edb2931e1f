package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-service/pkg/apperror"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusCreated, Envelope{"count": 3})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 3, body["count"])
}

func TestErrorMapsKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", apperror.Validation("Text field is required"), http.StatusBadRequest, "Text field is required"},
		{"not found", apperror.NotFound("Post not found"), http.StatusNotFound, "Post not found"},
		{"forbidden", apperror.Forbidden("nope"), http.StatusForbidden, "nope"},
		{"internal hides cause", apperror.Internal("failed to list posts", errors.New("pq: boom")), http.StatusInternalServerError, internalMessage},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, internalMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.msg, body["error"])
		})
	}
}

func TestErrorListsFieldMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	err := apperror.Validation("username is required", "username is required", "Invalid email format")
	Error(rec, httptest.NewRequest(http.MethodPost, "/api/auth/signup", nil), err)

	body := decode(t, rec)
	assert.Equal(t, "username is required", body["error"])
	assert.Equal(t, []interface{}{"username is required", "Invalid email format"}, body["errors"])
}

func TestErrorWithStatusOverride(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrorWithStatus(rec, httptest.NewRequest(http.MethodDelete, "/api/posts/x", nil), http.StatusUnauthorized, apperror.Forbidden("not yours"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "not yours", decode(t, rec)["error"])
}
