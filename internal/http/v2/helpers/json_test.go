package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadJSON(t *testing.T) {
	var v struct {
		Email string `json:"email"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","extra":1}`))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	require.True(t, ReadJSON(rec, r, &v))
	require.Equal(t, "a@b.co", v.Email)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	r.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	require.False(t, ReadJSON(rec, r, &v))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "text/plain")
	rec = httptest.NewRecorder()
	require.False(t, ReadJSON(rec, r, &v))
	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestReadJSON_TooLarge(t *testing.T) {
	var v map[string]any
	big := `{"k":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	require.False(t, ReadJSON(rec, r, &v))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSetCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SetCookie(rec, "al_ctx", "v", 0, CookieOptions{Secure: true})
	res := rec.Result()
	require.Len(t, res.Cookies(), 1)
	c := res.Cookies()[0]
	require.Equal(t, "al_ctx", c.Name)
	require.True(t, c.HttpOnly)
	require.True(t, c.Secure)
	require.Equal(t, 0, c.MaxAge)
}
