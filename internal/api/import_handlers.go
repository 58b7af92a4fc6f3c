package api

import (
	"net/http"

	"github.com/leadtrackapp/leadtrack-server/internal/http/response"
	"github.com/leadtrackapp/leadtrack-server/internal/service"
)

// maxImportSize caps CSV uploads at 10 MiB.
const maxImportSize = 10 << 20

// handleImportForm describes the upload the import screen expects.
func (s *Server) handleImportForm(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]any{
		"field": "file",
		"columns": []string{
			"name", "email", "phone", "company", "status",
			"source", "value", "tags", "notes",
		},
	}, s.logger.Logger)
}

// handleImportCSV imports leads from an uploaded CSV file.
// The whole file lands in one transaction; on any duplicate nothing is kept.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		response.BadRequest(w, "invalid multipart upload", s.logger.Logger)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "missing file field", s.logger.Logger)
		return
	}
	defer file.Close()

	count, err := s.leadService.ImportCSV(r.Context(), getUser(r.Context()), file)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.SuccessWithMessage(w, map[string]int{"imported": count}, service.MsgImportDone(count), s.logger.Logger)
}
