package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"msgdrop/pkg/utils"
)

// streakHandler computes the current consecutive-days stats for a drop.
// Registered for both GET and POST so legacy clients keep working.
func (s *Server) streakHandler(w http.ResponseWriter, r *http.Request) {
	if !s.allowClass(w, r, "read", s.Limits.Read) {
		return
	}
	dropID := mux.Vars(r)["drop"]
	st, err := s.Streak.Compute(dropID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, st)
}
