// Package api exposes the request-style surface: unlock, chat mutations,
// streaks and blob serving. Every call passes the session gate, then its
// operation-class rate limit, then the store.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"msgdrop/pkg/auth"
	"msgdrop/pkg/blob"
	"msgdrop/pkg/hub"
	"msgdrop/pkg/notify"
	"msgdrop/pkg/ratelimit"
	"msgdrop/pkg/session"
	"msgdrop/pkg/streak"
	"msgdrop/pkg/telemetry"
	"msgdrop/pkg/utils"
)

// Class is one operation-class threshold for the sliding-window limiter.
type Class struct {
	Max    int
	Window time.Duration
}

// Limits groups the per-class thresholds. Different operation classes use
// different thresholds; they are wiring, not global constants.
type Limits struct {
	Read   Class
	Write  Class
	React  Class
	Unlock Class
}

// Server carries the wired dependencies for the REST surface.
type Server struct {
	Auth     *session.Authenticator
	Hub      *hub.Hub
	Limiter  *ratelimit.Limiter
	Limits   Limits
	Blobs    *blob.Store
	Notifier *notify.Notifier
	Streak   *streak.Calculator

	UnlockCode     string
	UnlockCodeHash string
	CookieDomain   string
	SessionTTL     time.Duration
}

// Router assembles the mux router: public unlock and health endpoints plus
// the session-guarded chat API.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/health", healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/unlock", s.unlockHandler).Methods(http.MethodPost)

	sec := r.PathPrefix("/").Subrouter()
	sec.Use(auth.RequireSession(s.Auth))
	sec.HandleFunc("/api/chat/{drop}", s.listHandler).Methods(http.MethodGet)
	sec.HandleFunc("/api/chat/{drop}", s.postHandler).Methods(http.MethodPost)
	sec.HandleFunc("/api/chat/{drop}", s.editHandler).Methods(http.MethodPatch)
	sec.HandleFunc("/api/chat/{drop}", s.deleteHandler).Methods(http.MethodDelete)
	sec.HandleFunc("/api/chat/{drop}/react", s.reactHandler).Methods(http.MethodPost)
	sec.HandleFunc("/api/chat/{drop}/images/{image}", s.imageDeleteHandler).Methods(http.MethodDelete)
	sec.HandleFunc("/api/chat/{drop}/streak", s.streakHandler).Methods(http.MethodGet, http.MethodPost)
	sec.HandleFunc("/blob/{id}", s.blobHandler).Methods(http.MethodGet, http.MethodHead)
	return r
}

// allowClass applies one operation-class window keyed by client IP.
// A false return has already written the 429.
func (s *Server) allowClass(w http.ResponseWriter, r *http.Request, class string, c Class) bool {
	key := class + ":" + auth.ClientIP(r)
	if s.Limiter.Allow(key, c.Max, c.Window) {
		return true
	}
	telemetry.RateLimited.WithLabelValues(class).Inc()
	utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
	return false
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{"ok": true, "service": "msgdrop-rest"})
}
