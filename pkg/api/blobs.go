package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"msgdrop/pkg/blob"
	"msgdrop/pkg/utils"
)

// blobHandler streams a stored attachment. Ids are opaque; a bad id is a 404.
func (s *Server) blobHandler(w http.ResponseWriter, r *http.Request) {
	if !s.allowClass(w, r, "read", s.Limits.Read) {
		return
	}
	id := mux.Vars(r)["id"]
	rc, size, err := s.Blobs.Open(id)
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "not found")
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", blob.ContentType(id))
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if r.Method == http.MethodHead {
		return
	}
	_, _ = io.Copy(w, rc)
}
