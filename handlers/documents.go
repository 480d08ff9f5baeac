package handlers

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/h2non/filetype"
	ierr "github.com/satheeshds/portal/errors"
)

// filetype needs at most this many leading bytes to match
const sniffLen = 262

// ListDocuments lists a client's documents
// @Summary      List documents
// @Description  List the files kept for a client. Blocked while the client has overdue invoices.
// @Tags         documents
// @Produce      json
// @Param        clientId  path      string  true  "Client ID"
// @Success      200       {object}  Response{data=[]documents.Document}
// @Failure      403       {object}  Response{error=string}
// @Router       /documents/{clientId} [get]
// @Security     BasicAuth
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientId")
	if err := h.gate.Authorize(r.Context(), clientID); err != nil {
		h.writeError(w, r, err)
		return
	}
	docs, err := h.documents.List(r.Context(), clientID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// DownloadDocument streams one document
// @Summary      Download document
// @Description  Download a client's file. Blocked while the client has overdue invoices.
// @Tags         documents
// @Produce      octet-stream
// @Param        clientId  path  string  true  "Client ID"
// @Param        name      path  string  true  "File name"
// @Success      200       {file}    file
// @Failure      403       {object}  Response{error=string}
// @Failure      404       {object}  Response{error=string}
// @Router       /documents/{clientId}/{name} [get]
// @Security     BasicAuth
func (h *Handler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientId")
	name := chi.URLParam(r, "name")
	if err := h.gate.Authorize(r.Context(), clientID); err != nil {
		h.writeError(w, r, err)
		return
	}

	rc, err := h.documents.Open(r.Context(), clientID, name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer rc.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(rc, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		h.writeError(w, r, ierr.WithError(err).WithHint("failed to read document").Mark(ierr.ErrSystem))
		return
	}
	head = head[:n]

	w.Header().Set("Content-Type", contentType(name, head))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, io.MultiReader(bytes.NewReader(head), rc)); err != nil {
		h.logger.Warn("document download interrupted", "client_id", clientID, "name", name, "error", err)
	}
}

// contentType prefers the sniffed type and falls back to the extension.
func contentType(name string, head []byte) string {
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
