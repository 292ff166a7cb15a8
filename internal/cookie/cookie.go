package cookie

import (
	"net/http"
	"time"

	"github.com/refactron/auth-front/internal/envutil"
	"github.com/refactron/auth-front/internal/log"
)

// Cookie names used by auth-front
const (
	// BrowserCookie identifies a browser across the redirect round trip to
	// the provider. It scopes pending flow state, nothing else.
	BrowserCookie = "authfront_browser"

	// AuthCookie is the backend's authenticated session, relayed through
	// the callback exchange. Its presence means the user is signed in.
	AuthCookie = "refactron_session"
)

// SetBrowser sets the browser identity cookie with appropriate security
// settings.
func SetBrowser(w http.ResponseWriter, value string, maxAge time.Duration) {
	secure := !envutil.IsDev()
	http.SetCookie(w, &http.Cookie{
		Name:     BrowserCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})

	log.LogDebugWithFields("cookie", "Browser cookie set", map[string]any{
		"maxAge": maxAge.String(),
		"secure": secure,
	})
}

// Clear removes a cookie by setting MaxAge to -1
func Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// Get retrieves a cookie value from the request
func Get(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

// GetBrowser retrieves the browser identity cookie value
func GetBrowser(r *http.Request) (string, error) {
	return Get(r, BrowserCookie)
}

// GetAuth retrieves the backend session cookie value
func GetAuth(r *http.Request) (string, error) {
	return Get(r, AuthCookie)
}
