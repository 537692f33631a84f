package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/report-studio/internal/pdf"
	"github.com/sells-group/report-studio/internal/render"
	"github.com/sells-group/report-studio/internal/review"
	"github.com/sells-group/report-studio/internal/selection"
)

type mockConverter struct {
	mock.Mock
}

func (m *mockConverter) Convert(ctx context.Context, html string) ([]byte, error) {
	args := m.Called(ctx, html)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

const bundleJSON = `{
  "clientName": "Bright Smiles",
  "date": "October 2026",
  "kpis": [{"name": "New Patients", "value": 72}],
  "questions": [{"id": "q1", "title": "Where is growth?", "options": ["Referrals.", "Walk-ins."]}],
  "generalSections": [{"id": "g1", "title": "Scheduling", "options": ["Open chairs."]}]
}`

type fixture struct {
	srv   *Server
	conv  *mockConverter
	store *review.Store
	pdf   []byte
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	theme := render.DefaultTheme()
	r, err := render.New(theme)
	require.NoError(t, err)
	native := pdf.NewNativeRenderer(theme)

	sample, err := native.Render(selection.ResolvedReport{ClientName: "Fixture"})
	require.NoError(t, err)

	conv := new(mockConverter)
	store := review.NewStore()
	srv, err := New(cfg, Dependencies{
		Renderer:  r,
		Converter: conv,
		Native:    native,
		Exporter:  &pdf.Exporter{Engine: pdf.EngineChrome, Renderer: r, Converter: conv, Native: native},
		Store:     store,
	})
	require.NoError(t, err)
	return &fixture{srv: srv, conv: conv, store: store, pdf: sample}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func multipartUpload(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (f *fixture) uploadBundle(t *testing.T) string {
	t.Helper()
	rec := f.do(multipartUpload(t, "bundle.json", bundleJSON, nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/sessions/"))
	return strings.TrimPrefix(loc, "/sessions/")
}

func TestHealth(t *testing.T) {
	f := newFixture(t, Config{})
	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPDF_Success(t *testing.T) {
	f := newFixture(t, Config{})
	f.conv.On("Convert", mock.Anything, "<h1>Hi</h1>").Return(f.pdf, nil)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/pdf", strings.NewReader(`{"html":"<h1>Hi</h1>"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", rec.Header().Get(headerPageCount))
	assert.Equal(t, f.pdf, rec.Body.Bytes())
	f.conv.AssertExpectations(t)
}

func TestPDF_BadRequests(t *testing.T) {
	f := newFixture(t, Config{MaxBodyBytes: 64})

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "invalid json", body: `{`, want: http.StatusBadRequest},
		{name: "empty html", body: `{"html":"   "}`, want: http.StatusBadRequest},
		{name: "too large", body: `{"html":"` + strings.Repeat("x", 200) + `"}`, want: http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(httptest.NewRequest(http.MethodPost, "/pdf", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
	f.conv.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything)
}

func TestPDF_ConversionFailure(t *testing.T) {
	f := newFixture(t, Config{})
	f.conv.On("Convert", mock.Anything, mock.Anything).Return(nil, assert.AnError).Once()

	rec := f.do(httptest.NewRequest(http.MethodPost, "/pdf", strings.NewReader(`{"html":"<p>x</p>"}`)))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	f.conv.AssertNumberOfCalls(t, "Convert", 1)
}

func TestReportPDF(t *testing.T) {
	f := newFixture(t, Config{})

	body, err := json.Marshal(selection.ResolvedReport{
		ClientName: "Bright Smiles",
		Questions:  []selection.ResolvedSection{{Title: "Q", Text: "A"}},
	})
	require.NoError(t, err)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/pdf/report", bytes.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = f.do(httptest.NewRequest(http.MethodPost, "/pdf/report", strings.NewReader(`{"date":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, Config{RateLimit: 0.001, RateBurst: 1})

	first := f.do(httptest.NewRequest(http.MethodPost, "/pdf", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, first.Code)

	second := f.do(httptest.NewRequest(http.MethodPost, "/pdf", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	health := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestCORS(t *testing.T) {
	f := newFixture(t, Config{})

	req := httptest.NewRequest(http.MethodOptions, "/pdf", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := f.do(req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestReviewFlow(t *testing.T) {
	f := newFixture(t, Config{})
	id := f.uploadBundle(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	assert.Contains(t, page, "Bright Smiles")
	assert.Contains(t, page, `value="0" checked`)
	assert.Contains(t, page, "/sessions/"+id+"/preview")

	form := url.Values{"section": {"q1"}, "option": {"1"}}
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/choices", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = f.do(req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
	assert.Contains(t, rec.Body.String(), `value="1" checked`)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/preview", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Walk-ins.")
	assert.NotContains(t, rec.Body.String(), "Referrals.")

	f.conv.On("Convert", mock.Anything, mock.MatchedBy(func(html string) bool {
		return strings.Contains(html, "Walk-ins.")
	})).Return(f.pdf, nil)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="bright-smiles-report.pdf"`, rec.Header().Get("Content-Disposition"))

	rec = f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Body.String(), "/sessions/"+id)
}

func TestChoice_Invalid(t *testing.T) {
	f := newFixture(t, Config{})
	id := f.uploadBundle(t)

	post := func(section, option string) *httptest.ResponseRecorder {
		form := url.Values{"section": {section}, "option": {option}}
		req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/choices", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return f.do(req)
	}

	assert.Equal(t, http.StatusBadRequest, post("q1", "abc").Code)
	assert.Equal(t, http.StatusBadRequest, post("q1", "9").Code)
	assert.Equal(t, http.StatusBadRequest, post("nope", "0").Code)
}

func TestUpload_DrilldownAttachAndStandalone(t *testing.T) {
	f := newFixture(t, Config{})
	id := f.uploadBundle(t)

	csv := "Practice Report\nGrowth Category,Category,KPI,Score\nG,New Patients,Count,80\n"
	rec := f.do(multipartUpload(t, "drill.csv", csv, map[string]string{"session": id}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/sessions/"+id, rec.Header().Get("Location"))

	sess, err := f.store.Get(id)
	require.NoError(t, err)
	require.NotNil(t, sess.Bundle.Drilldown)
	assert.Equal(t, "Practice Report", sess.Bundle.Drilldown.Title)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/drilldown", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<span class="badge">G</span>`)

	rec = f.do(multipartUpload(t, "drill.csv", csv, nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NotEqual(t, "/sessions/"+id, rec.Header().Get("Location"))
}

func TestUpload_Errors(t *testing.T) {
	f := newFixture(t, Config{})

	rec := f.do(multipartUpload(t, "bundle.json", `{"date":"no client"}`, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `role="alert"`)

	rec = f.do(multipartUpload(t, "drill.csv", "A,Score\nx,\n", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(multipartUpload(t, "bundle.json", bundleJSON, map[string]string{"session": "missing"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("nope"))
	req.Header.Set("Content-Type", "text/plain")
	rec = f.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSession_NotFound(t *testing.T) {
	f := newFixture(t, Config{})
	for _, path := range []string{"/sessions/x", "/sessions/x/preview", "/sessions/x/pdf", "/sessions/x/drilldown"} {
		rec := f.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestSessionPDF_ExportFailure(t *testing.T) {
	f := newFixture(t, Config{})
	id := f.uploadBundle(t)
	f.conv.On("Convert", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/pdf", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "PDF export failed")
}

func TestRun_Shutdown(t *testing.T) {
	f := newFixture(t, Config{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.Run(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
