package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"msgdrop/pkg/auth"
	"msgdrop/pkg/logger"
	"msgdrop/pkg/utils"
)

type unlockBody struct {
	Code string `json:"code"`
}

// verifyCode checks the PIN against the configured sha256 hash (preferred)
// or the plain code. Both comparisons are constant-time.
func (s *Server) verifyCode(code string) bool {
	if s.UnlockCodeHash != "" {
		got := sha256.Sum256([]byte(code))
		return hmac.Equal([]byte(hex.EncodeToString(got[:])), []byte(s.UnlockCodeHash))
	}
	if s.UnlockCode != "" {
		return hmac.Equal([]byte(code), []byte(s.UnlockCode))
	}
	return false
}

// unlockHandler trades a correct 4-digit PIN for a session token delivered
// as a cookie pair: the HttpOnly session cookie plus a JS-readable copy the
// browser app uses to authenticate the streaming attach. Attempts are
// limited per client IP; a successful unlock clears the window.
func (s *Server) unlockHandler(w http.ResponseWriter, r *http.Request) {
	key := "unlock:" + auth.ClientIP(r)
	if !s.Limiter.Allow(key, s.Limits.Unlock.Max, s.Limits.Unlock.Window) {
		logger.Warn("unlock_throttled", "remote", r.RemoteAddr)
		utils.JSONError(w, http.StatusTooManyRequests, "Too many attempts. Try again in 5 minutes.")
		return
	}

	var body unlockBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	code := strings.TrimSpace(body.Code)
	if len(code) != 4 || !allDigits(code) {
		utils.JSONError(w, http.StatusBadRequest, "PIN must be 4 digits")
		return
	}
	if !s.verifyCode(code) {
		logger.Warn("unlock_rejected", "remote", r.RemoteAddr)
		utils.JSONError(w, http.StatusUnauthorized, "invalid code")
		return
	}

	s.Limiter.Reset(key)
	token := s.Auth.Issue()
	maxAge := int(s.SessionTTL.Seconds())
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		Domain:   s.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     auth.UICookie,
		Value:    token,
		Path:     "/",
		Domain:   s.CookieDomain,
		MaxAge:   maxAge,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	logger.Info("unlocked", "remote", r.RemoteAddr)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]bool{"success": true})
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
