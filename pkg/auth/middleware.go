package auth

import (
	"net/http"
	"strings"

	"msgdrop/pkg/logger"
	"msgdrop/pkg/session"
	"msgdrop/pkg/utils"
)

// SessionCookie is the HttpOnly cookie carrying the session token.
// UICookie carries the same token readable by the browser app so it can
// authenticate the streaming attach.
const (
	SessionCookie = "msgdrop_sess"
	UICookie      = "session-ok"
)

// TokenFromRequest extracts the session token from the session cookie,
// an Authorization bearer header, or a sessionToken query parameter,
// in that order.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return strings.Trim(c.Value, `"`)
	}
	if a := r.Header.Get("Authorization"); len(a) > 7 && strings.EqualFold(a[:7], "bearer ") {
		return a[7:]
	}
	if t := r.URL.Query().Get("sessionToken"); t != "" {
		return t
	}
	return r.URL.Query().Get("sess")
}

// RequireSession rejects any request that does not carry a valid, unexpired
// session token. The caller learns only that the session is missing or bad,
// never which check failed.
func RequireSession(a *session.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := TokenFromRequest(r)
			if tok == "" {
				utils.JSONError(w, http.StatusUnauthorized, "no session")
				return
			}
			if !a.Verify(tok) {
				logger.Warn("bad_session", "path", r.URL.Path, "remote", r.RemoteAddr)
				utils.JSONError(w, http.StatusUnauthorized, "bad session")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
