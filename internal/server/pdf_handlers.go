package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/report-studio/internal/pdf"
	"github.com/sells-group/report-studio/internal/selection"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type pdfRequest struct {
	HTML string `json:"html"`
}

// handlePDF prints caller-supplied HTML. Conversion is attempted once.
func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	var req pdfRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.HTML) == "" {
		writeError(w, http.StatusBadRequest, "html is required")
		return
	}

	out, err := s.deps.Converter.Convert(r.Context(), req.HTML)
	if err != nil {
		zap.L().Error("server: convert html", zap.Error(err))
		writeError(w, http.StatusBadGateway, "pdf conversion failed")
		return
	}

	info, err := pdf.Inspect(out)
	if err != nil {
		zap.L().Error("server: converter returned invalid pdf", zap.Error(err))
		writeError(w, http.StatusBadGateway, "pdf conversion produced an invalid document")
		return
	}
	writePDF(w, out, info.Pages, "")
}

// handleReportPDF draws a resolved report with the native renderer.
func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	var rep selection.ResolvedReport
	if !s.decodeJSON(w, r, &rep) {
		return
	}
	if strings.TrimSpace(rep.ClientName) == "" {
		writeError(w, http.StatusBadRequest, "clientName is required")
		return
	}

	out, err := s.deps.Native.Render(rep)
	if err != nil {
		zap.L().Error("server: native render", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "pdf rendering failed")
		return
	}

	info, err := pdf.Inspect(out)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "pdf rendering produced an invalid document")
		return
	}
	writePDF(w, out, info.Pages, "")
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
