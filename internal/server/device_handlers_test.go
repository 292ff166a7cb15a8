package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refactron/auth-front/internal/cookie"
)

func authCookie() *http.Cookie {
	return &http.Cookie{Name: cookie.AuthCookie, Value: "backend-session"}
}

func TestDevicePageUnauthenticatedCarriesCodeThroughLogin(t *testing.T) {
	app := newTestApp(t, func(w http.ResponseWriter, _ *http.Request) {})

	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/device?user_code=WDJB-MJHT", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fdevice", rec.Header().Get("Location"))

	// The code is parked for this browser and restored after login even
	// though the post-login URL carries no user_code
	bc := browserCookie(t, rec)
	req := httptest.NewRequest(http.MethodGet, "/device", nil)
	req.AddCookie(bc)
	req.AddCookie(authCookie())
	rec = httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "WDJB-MJHT")
}

func TestDevicePageAuthenticatedUsesQueryCode(t *testing.T) {
	app := newTestApp(t, func(w http.ResponseWriter, _ *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/device?user_code=ABCD-1234", nil)
	req.AddCookie(authCookie())
	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ABCD-1234")
}

func TestDevicePageWithoutCode(t *testing.T) {
	app := newTestApp(t, func(w http.ResponseWriter, _ *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/device", nil)
	req.AddCookie(authCookie())
	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "No device code provided")
}

func TestDeviceConfirmSuccessResponse(t *testing.T) {
	app := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/oauth/device/confirm", r.URL.Path)
		c, err := r.Cookie(cookie.AuthCookie)
		require.NoError(t, err, "session cookie must be forwarded to the backend")
		assert.Equal(t, "backend-session", c.Value)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/device/confirm", strings.NewReader(`{"user_code":"WDJB-MJHT"}`))
	req.AddCookie(authCookie())
	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())
	assert.Equal(t, int32(1), app.backendCalls.Load())
}

func TestDeviceConfirmRepeatAfterSuccessIsAbsorbed(t *testing.T) {
	app := newTestApp(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	first := httptest.NewRequest(http.MethodPost, "/device/confirm", strings.NewReader(`{"user_code":"WDJB-MJHT"}`))
	first.AddCookie(authCookie())
	firstRec := httptest.NewRecorder()
	app.handler.ServeHTTP(firstRec, first)
	require.Equal(t, http.StatusOK, firstRec.Code)
	bc := browserCookie(t, firstRec)

	second := httptest.NewRequest(http.MethodPost, "/device/confirm", strings.NewReader(`{"user_code":"WDJB-MJHT"}`))
	second.AddCookie(authCookie())
	second.AddCookie(bc)
	secondRec := httptest.NewRecorder()
	app.handler.ServeHTTP(secondRec, second)

	require.Equal(t, http.StatusOK, secondRec.Code)
	assert.JSONEq(t, `{"status":"success"}`, secondRec.Body.String())
	assert.Equal(t, int32(1), app.backendCalls.Load(), "repeat confirmation must not call the backend again")
}

func TestDeviceConfirmBackendRejection(t *testing.T) {
	app := newTestApp(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error_description":"code expired"}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/device/confirm", strings.NewReader(`{"user_code":"WDJB-MJHT"}`))
	req.AddCookie(authCookie())
	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "code expired")
	assert.Contains(t, rec.Body.String(), `"status":"error"`)
}

func TestDeviceConfirmMissingCode(t *testing.T) {
	app := newTestApp(t, func(w http.ResponseWriter, _ *http.Request) {})

	req := httptest.NewRequest(http.MethodPost, "/device/confirm", strings.NewReader(`{}`))
	req.AddCookie(authCookie())
	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, app.backendCalls.Load())
}
