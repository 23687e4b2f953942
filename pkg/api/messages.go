package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"msgdrop/pkg/logger"
	"msgdrop/pkg/models"
	"msgdrop/pkg/store"
	"msgdrop/pkg/telemetry"
	"msgdrop/pkg/utils"
	"msgdrop/pkg/validation"
)

type imageRef struct {
	ID   string `json:"id"`
	Mime string `json:"mime,omitempty"`
	URL  string `json:"url"`
	TS   int64  `json:"ts"`
}

// listHandler returns up to limit most-recent records (ts < before when
// given) oldest-to-newest, plus an images digest and the drop's current max
// seq as a freshness marker.
func (s *Server) listHandler(w http.ResponseWriter, r *http.Request) {
	if !s.allowClass(w, r, "read", s.Limits.Read) {
		return
	}
	dropID := mux.Vars(r)["drop"]
	limit := 200
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			if n > 500 {
				n = 500
			}
			limit = n
		}
	}
	var before int64
	if v := r.URL.Query().Get("before"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			before = n
		}
	}

	msgs, lastSeq, err := store.List(dropID, limit, before)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]models.Message, 0, len(msgs))
	images := make([]imageRef, 0)
	for _, m := range msgs {
		if m.BlobID != "" {
			m.Img = "/blob/" + m.BlobID
			images = append(images, imageRef{ID: m.BlobID, Mime: m.Mime, URL: m.Img, TS: m.TS})
		}
		out = append(out, m)
	}
	logger.Info("messages_list", "drop", dropID, "count", len(out))
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{
		"dropId":   dropID,
		"messages": out,
		"images":   images,
		"lastSeq":  lastSeq,
	})
}

// postHandler appends a message supplied as a multipart form: optional text,
// optional author, optional file attachment. The attachment goes to the blob
// store first; the message then references it.
func (s *Server) postHandler(w http.ResponseWriter, r *http.Request) {
	if !s.allowClass(w, r, "write", s.Limits.Write) {
		return
	}
	dropID := mux.Vars(r)["drop"]
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid form")
		return
	}
	text := r.FormValue("text")
	author := r.FormValue("user")
	ts := time.Now().UnixMilli()

	var blobID, mime string
	if file, hdr, err := r.FormFile("file"); err == nil {
		defer file.Close()
		blobID, err = s.Blobs.Put(file, hdr.Filename)
		if err != nil {
			logger.Error("blob_put_failed", "drop", dropID, "error", err)
			utils.JSONError(w, http.StatusInternalServerError, "failed to store attachment")
			return
		}
		mime = hdr.Header.Get("Content-Type")
		if mime == "" {
			mime = "application/octet-stream"
		}
	}

	kind := models.KindText
	if blobID != "" {
		kind = models.KindImage
	}
	m := models.Message{
		ID:     utils.NewID(8),
		Author: author,
		TS:     ts,
		Kind:   kind,
		Text:   text,
		BlobID: blobID,
		Mime:   mime,
	}
	if err := validation.ValidateMessage(m); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	stored, err := store.Append(dropID, m)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if stored.BlobID != "" {
		stored.Img = "/blob/" + stored.BlobID
	}
	telemetry.MessagesAppended.WithLabelValues(kind).Inc()

	s.Hub.Broadcast(dropID, models.Event{Type: models.EventUpdate, Message: &stored}, nil)
	s.Notifier.Send("msg", dropID, fmt.Sprintf("New message in %s", dropID))
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{"ok": true, "id": stored.ID, "seq": stored.Seq, "ts": stored.TS})
}

type mutateBody struct {
	Seq   *int64  `json:"seq"`
	Text  *string `json:"text"`
	Emoji string  `json:"emoji"`
	Op    string  `json:"op"`
}

// editHandler updates the text of an existing record. Editing a missing
// record is a silent no-op.
func (s *Server) editHandler(w http.ResponseWriter, r *http.Request) {
	if !s.allowClass(w, r, "write", s.Limits.Write) {
		return
	}
	dropID := mux.Vars(r)["drop"]
	var body mutateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Seq == nil || body.Text == nil {
		utils.JSONError(w, http.StatusBadRequest, "seq and text required")
		return
	}
	if err := store.Edit(dropID, *body.Seq, *body.Text); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.Hub.Broadcast(dropID, models.Event{Type: models.EventUpdate}, nil)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]bool{"ok": true})
}

// deleteHandler removes a record and releases its blob. The seq stays
// retired; consumers tolerate the gap.
func (s *Server) deleteHandler(w http.ResponseWriter, r *http.Request) {
	if !s.allowClass(w, r, "write", s.Limits.Write) {
		return
	}
	dropID := mux.Vars(r)["drop"]
	var body mutateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Seq == nil {
		utils.JSONError(w, http.StatusBadRequest, "seq required")
		return
	}
	blobID, err := store.Delete(dropID, *body.Seq)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if blobID != "" {
		if err := s.Blobs.Delete(blobID); err != nil {
			logger.Warn("blob_delete_failed", "id", blobID, "error", err)
		}
	}
	s.Hub.Broadcast(dropID, models.Event{Type: models.EventUpdate}, nil)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]bool{"ok": true})
}

// reactHandler adjusts one emoji counter on a record.
func (s *Server) reactHandler(w http.ResponseWriter, r *http.Request) {
	if !s.allowClass(w, r, "react", s.Limits.React) {
		return
	}
	dropID := mux.Vars(r)["drop"]
	var body mutateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Seq == nil || body.Emoji == "" {
		utils.JSONError(w, http.StatusBadRequest, "seq and emoji required")
		return
	}
	op := body.Op
	if op == "" {
		op = "add"
	}
	reactions, err := store.React(dropID, *body.Seq, body.Emoji, op)
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.JSONError(w, http.StatusNotFound, "message not found")
		return
	case errors.Is(err, store.ErrInvalidOp):
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.Hub.Broadcast(dropID, models.Event{Type: models.EventUpdate}, nil)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]interface{}{"ok": true, "reactions": reactions})
}

// imageDeleteHandler removes a blob and every message in the drop that
// references it.
func (s *Server) imageDeleteHandler(w http.ResponseWriter, r *http.Request) {
	if !s.allowClass(w, r, "write", s.Limits.Write) {
		return
	}
	vars := mux.Vars(r)
	dropID, imageID := vars["drop"], vars["image"]
	if _, err := store.DeleteByBlob(dropID, imageID); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.Blobs.Delete(imageID); err != nil {
		logger.Warn("blob_delete_failed", "id", imageID, "error", err)
	}
	s.Hub.Broadcast(dropID, models.Event{Type: models.EventUpdate}, nil)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]bool{"ok": true})
}
