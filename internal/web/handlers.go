package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	hanparse "github.com/DevHeauk/han-parse"
	"github.com/DevHeauk/han-parse/codec"
	"github.com/DevHeauk/han-parse/format"
	"github.com/DevHeauk/han-parse/hwpx"
	"github.com/DevHeauk/han-parse/inject"
	"github.com/DevHeauk/han-parse/internal/session"
	"github.com/DevHeauk/han-parse/model"
)

type uploadResponse struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Format     string `json:"format"`
	TableCount int    `json:"table_count"`
}

type editRequest struct {
	Table int    `json:"table"`
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value string `json:"value"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("writing response", "error", err)
	}
}

// writeError maps the module's sentinel errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrIndexOutOfRange),
		errors.Is(err, model.ErrShapeMismatch),
		errors.Is(err, hanparse.ErrInvalidContainer),
		errors.Is(err, hanparse.ErrCorruptStream),
		errors.Is(err, hanparse.ErrTruncatedRecord),
		errors.Is(err, hwpx.ErrInvalidArchive):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, hanparse.ErrUnsupportedFeature):
		status = http.StatusUnsupportedMediaType
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing file field"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	doc, err := hanparse.Parse(data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	tables, err := codec.EncodeStructured(doc.Tables)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sess, err := s.store.Create(r.Context(), header.Filename, doc.Format.String(), data, tables)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("document uploaded", "session", sess.ID,
		"filename", header.Filename, "tables", doc.Tables.Len())
	s.writeJSON(w, http.StatusCreated, uploadResponse{
		ID:         sess.ID,
		Filename:   header.Filename,
		Format:     doc.Format.String(),
		TableCount: doc.Tables.Len(),
	})
}

func (s *Server) handleGetTables(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(sess.Tables)
}

func (s *Server) handlePutTables(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	// Reject table sets that do not validate before they reach the store.
	if _, err := codec.DecodeStructured(body); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.UpdateTables(r.Context(), id, body); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	set, err := codec.DecodeStructured(sess.Tables)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := set.Edit(req.Table, req.Row, req.Col, req.Value); err != nil {
		s.writeError(w, err)
		return
	}
	tables, err := codec.EncodeStructured(set)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.UpdateTables(r.Context(), id, tables); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	set, err := codec.DecodeStructured(sess.Tables)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var out []byte
	switch sess.Format {
	case format.HWPX.String():
		out, err = hwpx.Patch(sess.Original, set)
	default:
		out, err = inject.Reconstruct(set, sess.Original)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": sess.Filename})
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", fmt.Sprint(len(out)))
	w.Write(out)
}
