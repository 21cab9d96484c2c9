package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	require.NoError(t, Init("debug"))
	_ = Sync()

	assert.Error(t, Init("loud"))
}

func TestWithLoggingHTTPMiddleware(t *testing.T) {
	var seenID string
	handler := WithLoggingHTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("{}"))
	}))

	t.Run("generates id", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/users", nil))

		assert.Equal(t, http.StatusCreated, recorder.Code)
		id := recorder.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, seenID)
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/users", nil)
		request.Header.Set(RequestIDHeader, "abc-123")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, "abc-123", recorder.Header().Get(RequestIDHeader))
		assert.Equal(t, "abc-123", seenID)
	})
}
