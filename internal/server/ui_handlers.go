package server

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/report-studio/internal/model"
	"github.com/sells-group/report-studio/internal/render"
	"github.com/sells-group/report-studio/internal/review"
	"github.com/sells-group/report-studio/internal/selection"
	"github.com/sells-group/report-studio/internal/upload"
)

//go:embed templates/*.tmpl
var pageFS embed.FS

func parsePages() (*template.Template, error) {
	t, err := template.New("pages").Funcs(template.FuncMap{
		"markdown": render.Markdown,
	}).ParseFS(pageFS, "templates/*.tmpl")
	if err != nil {
		return nil, eris.Wrap(err, "server: parse page templates")
	}
	return t, nil
}

// page writes a UI page. Execution happens into a buffer so a template
// failure still produces a clean alert.
func (s *Server) page(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		zap.L().Error("server: render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type alertData struct {
	Status  int
	Title   string
	Message string
	Back    string
}

// alert renders a blocking error page. The operator has to go back and retry.
func (s *Server) alert(w http.ResponseWriter, status int, msg, back string) {
	if back == "" {
		back = "/"
	}
	s.page(w, status, "alert", alertData{
		Status:  status,
		Title:   http.StatusText(status),
		Message: msg,
		Back:    back,
	})
}

func (s *Server) sessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, review.ErrNotFound) {
		s.alert(w, http.StatusNotFound, "That review session no longer exists. Upload the bundle again.", "/")
		return
	}
	s.alert(w, http.StatusInternalServerError, err.Error(), "/")
}

type indexData struct {
	Sessions []*review.Session
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.page(w, http.StatusOK, "index", indexData{Sessions: s.deps.Store.List()})
}

// handleUpload accepts a multipart "file". A bundle starts a new session, or
// replaces the one named by the "session" field. A drill-down table is
// attached to the named session, or starts a session of its own.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxBodyBytes); err != nil {
		s.alert(w, http.StatusBadRequest, "Could not read the upload: "+err.Error(), "/")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.alert(w, http.StatusBadRequest, "Choose a file to upload.", "/")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.alert(w, http.StatusBadRequest, "Could not read the upload: "+err.Error(), "/")
		return
	}

	opts := s.deps.Upload
	if cs := r.FormValue("charset"); cs != "" {
		opts.Charset = cs
	}

	res, err := upload.Decode(header.Filename, data, opts)
	if err != nil {
		zap.L().Warn("server: upload rejected", zap.String("file", header.Filename), zap.Error(err))
		s.alert(w, http.StatusBadRequest, err.Error(), "/")
		return
	}

	sessionID := strings.TrimSpace(r.FormValue("session"))
	var sess *review.Session
	switch {
	case res.Bundle != nil && sessionID != "":
		sess, err = s.deps.Store.Replace(sessionID, res.Bundle)
	case res.Bundle != nil:
		sess = s.deps.Store.Create(res.Bundle)
	case sessionID != "":
		sess, err = s.deps.Store.AttachDrilldown(sessionID, res.Drilldown)
	default:
		sess = s.deps.Store.Create(drilldownBundle(res))
	}
	if err != nil {
		s.sessionError(w, err)
		return
	}

	http.Redirect(w, r, "/sessions/"+sess.ID, http.StatusSeeOther)
}

func drilldownBundle(res *upload.Result) *model.DraftBundle {
	name := res.Drilldown.Title
	if name == "" {
		name = "KPI Drilldown"
	}
	return &model.DraftBundle{ClientName: name, Drilldown: res.Drilldown}
}

type optionView struct {
	Index   int
	Text    string
	Checked bool
}

type sectionView struct {
	ID      string
	Title   string
	Group   string
	Options []optionView
}

type sessionData struct {
	Session  *review.Session
	Sections []sectionView
}

func newSessionData(sess *review.Session) sessionData {
	options := selection.Options(sess.Bundle.OptionsByID())

	build := func(group string, sections []model.ReportSection) []sectionView {
		out := make([]sectionView, 0, len(sections))
		for _, sec := range sections {
			chosen := selection.Index(sess.Chosen, options, sec.ID)
			v := sectionView{ID: sec.ID, Title: sec.Title, Group: group}
			for i, text := range sec.Options {
				v.Options = append(v.Options, optionView{Index: i, Text: text, Checked: i == chosen})
			}
			out = append(out, v)
		}
		return out
	}

	data := sessionData{Session: sess}
	data.Sections = append(data.Sections, build("Key Questions", sess.Bundle.Questions)...)
	data.Sections = append(data.Sections, build("Additional Insights", sess.Bundle.GeneralSections)...)
	return data
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.page(w, http.StatusOK, "session", newSessionData(sess))
}

func (s *Server) handleChoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := "/sessions/" + id

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.alert(w, http.StatusBadRequest, "Could not read the form.", back)
		return
	}

	index, err := strconv.Atoi(r.PostFormValue("option"))
	if err != nil {
		s.alert(w, http.StatusBadRequest, "Pick one of the listed options.", back)
		return
	}

	if _, err := s.deps.Store.Choose(id, r.PostFormValue("section"), index); err != nil {
		if errors.Is(err, review.ErrNotFound) {
			s.sessionError(w, err)
			return
		}
		s.alert(w, http.StatusBadRequest, err.Error(), back)
		return
	}

	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.sessionError(w, err)
		return
	}

	html, err := s.deps.Renderer.Report(sess.Bundle, sess.Chosen)
	if err != nil {
		s.alert(w, http.StatusInternalServerError, err.Error(), "/sessions/"+sess.ID)
		return
	}
	writeHTML(w, html)
}

func (s *Server) handleDrilldownPreview(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.sessionError(w, err)
		return
	}
	if sess.Bundle.Drilldown == nil {
		s.alert(w, http.StatusNotFound, "This session has no drill-down table.", "/sessions/"+sess.ID)
		return
	}

	html, err := s.deps.Renderer.Drilldown(sess.Bundle.Drilldown)
	if err != nil {
		s.alert(w, http.StatusInternalServerError, err.Error(), "/sessions/"+sess.ID)
		return
	}
	writeHTML(w, html)
}

func (s *Server) handleSessionPDF(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.sessionError(w, err)
		return
	}

	out, info, err := s.deps.Exporter.Export(r.Context(), sess.Resolved())
	if err != nil {
		zap.L().Error("server: export session pdf", zap.String("session", sess.ID), zap.Error(err))
		s.alert(w, http.StatusBadGateway, "PDF export failed: "+err.Error(), "/sessions/"+sess.ID)
		return
	}
	writePDF(w, out, info.Pages, model.ReportFilename(sess.Bundle.ClientName))
}

func writeHTML(w http.ResponseWriter, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, html)
}

