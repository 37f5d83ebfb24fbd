package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/iwvelando/consultorio/internal/importer"
	"go.uber.org/zap"
)

// readUpload returns the bytes of the "file" part of a size-limited
// multipart request. It writes the error response itself and reports false
// when the upload is unusable.
func (h *handler) readUpload(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return nil, false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return nil, false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing CSV file", op)
		return nil, false
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read upload: %v", err), op)
		return nil, false
	}
	return buf.Bytes(), true
}

func (h *handler) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleImportPreview"

	data, ok := h.readUpload(w, r, op)
	if !ok {
		return
	}
	rows, _ := strconv.Atoi(strings.TrimSpace(r.FormValue("filas")))
	preview, err := h.importer.Preview(data, rows)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, preview)
}

func (h *handler) handleImport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleImport"

	data, ok := h.readUpload(w, r, op)
	if !ok {
		return
	}
	mapping := importer.Mapping{
		Patient:       strings.TrimSpace(r.FormValue("paciente")),
		Treatment:     strings.TrimSpace(r.FormValue("tratamiento")),
		Amount:        strings.TrimSpace(r.FormValue("monto")),
		Date:          strings.TrimSpace(r.FormValue("fecha")),
		PaymentMethod: strings.TrimSpace(r.FormValue("medio_pago")),
	}

	s := h.session(r)
	result, err := h.importer.Import(s.Records, data, mapping)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}

	h.metrics.importRows.WithLabelValues("ok").Add(float64(result.Imported))
	h.metrics.importRows.WithLabelValues("error").Add(float64(result.Errors))
	h.metrics.visits.WithLabelValues("import").Add(float64(result.Imported))
	h.logger.Info("visits imported",
		zap.String("op", op),
		zap.String("user", s.UserID),
		zap.Int("imported", result.Imported),
		zap.Int("errors", result.Errors),
	)
	h.writeJSON(w, http.StatusOK, result)
}
