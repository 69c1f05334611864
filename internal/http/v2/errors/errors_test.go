package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrFlowNotFound.WithDetail("abc"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "FLOW_NOT_FOUND", body["code"])
	require.Equal(t, "abc", body["detail"])
}

func TestWriteError_WrappedAndPlain(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, fmt.Errorf("ctx: %w", ErrSubmissionRejected))
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	WriteError(rec, fmt.Errorf("boom"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "boom")
}

func TestWithDetail_DoesNotMutate(t *testing.T) {
	_ = ErrBadRequest.WithDetail("x")
	require.Empty(t, ErrBadRequest.Detail)
}
