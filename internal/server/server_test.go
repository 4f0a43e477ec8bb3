package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	themepdf "github.com/alnah/go-themepdf"
	"github.com/alnah/go-themepdf/internal/auth"
)

// fakeRenderer records snapshots and returns canned output.
type fakeRenderer struct {
	mu     sync.Mutex
	pdf    []byte
	err    error
	called []themepdf.Snapshot
	ctxErr error
}

func (f *fakeRenderer) Render(ctx context.Context, snap themepdf.Snapshot) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called = append(f.called, snap)
	f.ctxErr = ctx.Err()
	if f.err != nil {
		return nil, f.err
	}
	return f.pdf, nil
}

func (f *fakeRenderer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.called)
}

var fakePDF = []byte("%PDF-1.7\nnot really a document\n%%EOF")

func newTestServer(t *testing.T, opts Options, r Renderer, gate *auth.Gate) http.Handler {
	t.Helper()

	if r == nil {
		r = &fakeRenderer{pdf: fakePDF}
	}
	s, err := New(opts, r, gate, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s.Handler()
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path string, v any) *http.Request {
	var body io.Reader = http.NoBody
	switch b := v.(type) {
	case nil:
	case string:
		body = strings.NewReader(b)
	default:
		data, _ := json.Marshal(v)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, field, name, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = io.WriteString(fw, content)
	} else {
		_ = mw.WriteField("note", "no file here")
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart close: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, themepdf.PathSaveUpload, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newGate(t *testing.T, password string) *auth.Gate {
	t.Helper()

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	g, err := auth.New("", string(h), time.Hour)
	if err != nil {
		t.Fatalf("auth.New: %v", err)
	}
	return g
}

// ---------------------------------------------------------------------------
// TestNew - Construction
// ---------------------------------------------------------------------------

func TestNew_ProductionRequiresBasicUsers(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Production: true}, &fakeRenderer{}, nil, nil, nil)
	if !errors.Is(err, ErrNoBasicUsers) {
		t.Errorf("expected ErrNoBasicUsers, got %v", err)
	}
}

func TestNew_InvalidDateFormat(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{DateFormat: "[unclosed"}, &fakeRenderer{}, nil, nil, nil); err == nil {
		t.Error("expected error for invalid date format")
	}
}

// ---------------------------------------------------------------------------
// TestGeneratePDF - POST /generate-pdf
// ---------------------------------------------------------------------------

func TestGeneratePDF_Success(t *testing.T) {
	t.Parallel()

	fr := &fakeRenderer{pdf: fakePDF}
	h := newTestServer(t, Options{}, fr, nil)

	req := jsonRequest(http.MethodPost, themepdf.PathGeneratePDF, map[string]string{
		"html": `<div class="paper">Hi</div>`,
		"css":  ".paper{color:red}",
	})
	rec := do(t, h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cl := rec.Header().Get("Content-Length"); cl != fmt.Sprint(len(fakePDF)) {
		t.Errorf("Content-Length = %q, want %d", cl, len(fakePDF))
	}
	if !bytes.Equal(rec.Body.Bytes(), fakePDF) {
		t.Error("body is not the rendered PDF")
	}

	if fr.calls() != 1 {
		t.Fatalf("renderer called %d times", fr.calls())
	}
	got := fr.called[0]
	if got.HTML != `<div class="paper">Hi</div>` || got.CSS != ".paper{color:red}" {
		t.Errorf("snapshot not passed through: %+v", got)
	}
}

func TestGeneratePDF_ClientErrors(t *testing.T) {
	t.Parallel()

	// Notes:
	// - none of these may reach the renderer
	// - an absent body is the same as {}
	tests := []struct {
		name       string
		body       any
		limit      int64
		wantStatus int
		wantBody   string
	}{
		{name: "empty object", body: "{}", wantStatus: http.StatusBadRequest, wantBody: "Missing HTML content"},
		{name: "css only", body: map[string]string{"css": "p{}"}, wantStatus: http.StatusBadRequest, wantBody: "Missing HTML content"},
		{name: "no body", body: nil, wantStatus: http.StatusBadRequest, wantBody: "Missing HTML content"},
		{name: "invalid json", body: "{html:", wantStatus: http.StatusBadRequest, wantBody: "Invalid JSON body"},
		{
			name:       "too large",
			body:       map[string]string{"html": strings.Repeat("x", 2048)},
			limit:      1024,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantBody:   "Request body too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fr := &fakeRenderer{pdf: fakePDF}
			h := newTestServer(t, Options{MaxBodyBytes: tt.limit}, fr, nil)
			rec := do(t, h, jsonRequest(http.MethodPost, themepdf.PathGeneratePDF, tt.body))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			if fr.calls() != 0 {
				t.Error("renderer was called")
			}
		})
	}
}

func TestGeneratePDF_RenderFailure(t *testing.T) {
	t.Parallel()

	fr := &fakeRenderer{err: fmt.Errorf("%w: after 60s", themepdf.ErrRenderTimeout)}
	h := newTestServer(t, Options{}, fr, nil)

	rec := do(t, h, jsonRequest(http.MethodPost, themepdf.PathGeneratePDF, map[string]string{"html": "<p>x</p>"}))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	want := "PDF Generation Failed: " + fr.err.Error()
	if rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}
}

func TestGeneratePDF_DetachedFromClient(t *testing.T) {
	t.Parallel()

	fr := &fakeRenderer{pdf: fakePDF}
	h := newTestServer(t, Options{}, fr, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := jsonRequest(http.MethodPost, themepdf.PathGeneratePDF, map[string]string{"html": "<p>x</p>"}).WithContext(ctx)
	do(t, h, req)

	if fr.calls() != 1 {
		t.Fatalf("renderer called %d times", fr.calls())
	}
	if fr.ctxErr != nil {
		t.Errorf("render context canceled with the client: %v", fr.ctxErr)
	}
}

// ---------------------------------------------------------------------------
// TestSaveUpload - POST /save-upload
// ---------------------------------------------------------------------------

func TestSaveUpload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	h := newTestServer(t, Options{UploadDir: dir}, nil, nil)

	for _, content := range []string{"first draft", "second draft"} {
		rec := do(t, h, uploadRequest(t, "file", "notes.txt", content))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
		}

		var resp uploadResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Message != "File auto-saved successfully" {
			t.Errorf("message = %q", resp.Message)
		}
		want := filepath.Join(dir, "notes.txt")
		if resp.Path != want {
			t.Errorf("path = %q, want %q", resp.Path, want)
		}
		data, err := os.ReadFile(want)
		if err != nil {
			t.Fatalf("read saved file: %v", err)
		}
		if string(data) != content {
			t.Errorf("saved %q, want %q", data, content)
		}
	}
}

func TestSaveUpload_StaysInUploadDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	h := newTestServer(t, Options{UploadDir: dir}, nil, nil)

	rec := do(t, h, uploadRequest(t, "file", "../../escape.txt", "x"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); err != nil {
		t.Errorf("file not saved inside the upload dir: %v", err)
	}
}

func TestSaveUpload_NoFile(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Options{UploadDir: t.TempDir()}, nil, nil)

	tests := []struct {
		name string
		req  *http.Request
	}{
		{name: "other field", req: uploadRequest(t, "", "", "")},
		{name: "wrong field name", req: uploadRequest(t, "document", "a.txt", "x")},
		{name: "not multipart", req: jsonRequest(http.MethodPost, themepdf.PathSaveUpload, "{}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if rec.Body.String() != "No file uploaded." {
				t.Errorf("body = %q", rec.Body.String())
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestAuth - /api/login, /api/check-auth, /api/logout
// ---------------------------------------------------------------------------

func checkAuth(t *testing.T, h http.Handler, cookies ...*http.Cookie) bool {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/check-auth", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := do(t, h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("check-auth status = %d", rec.Code)
	}
	var resp map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp["authenticated"]
}

func TestLogin_Flow(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Options{}, nil, newGate(t, "letmein"))

	if checkAuth(t, h) {
		t.Error("authenticated before login")
	}

	rec := do(t, h, jsonRequest(http.MethodPost, "/api/login", map[string]string{"password": "nope"}))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status = %d, want 401", rec.Code)
	}
	var fail loginResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &fail)
	if fail.Success || fail.Message != "Invalid password" {
		t.Errorf("wrong password: response %+v", fail)
	}

	rec = do(t, h, jsonRequest(http.MethodPost, "/api/login", map[string]string{"password": "letmein"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	var ok loginResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &ok)
	if !ok.Success {
		t.Errorf("login response %+v", ok)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != auth.CookieName {
		t.Fatalf("session cookie not set: %+v", cookies)
	}
	if !checkAuth(t, h, cookies[0]) {
		t.Error("not authenticated with session cookie")
	}

	logout := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	logout.AddCookie(cookies[0])
	do(t, h, logout)
	if checkAuth(t, h, cookies[0]) {
		t.Error("session still valid after logout")
	}
}

func TestLogin_GateDisabled(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Options{}, nil, nil)

	if !checkAuth(t, h) {
		t.Error("disabled gate should report authenticated")
	}
	rec := do(t, h, jsonRequest(http.MethodPost, "/api/login", map[string]string{"password": "anything"}))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestLogin_InvalidJSON(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Options{}, nil, newGate(t, "pw"))
	rec := do(t, h, jsonRequest(http.MethodPost, "/api/login", "password=pw"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// TestWorkspace - themes, styles, preview
// ---------------------------------------------------------------------------

func TestThemes(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Options{}, nil, nil)
	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/themes", nil))

	var themes []themepdf.Theme
	if err := json.Unmarshal(rec.Body.Bytes(), &themes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(themes) != len(themepdf.Themes()) {
		t.Fatalf("got %d themes, want %d", len(themes), len(themepdf.Themes()))
	}
	for i, th := range themes {
		if th.ID != themepdf.Themes()[i].ID {
			t.Errorf("themes[%d].ID = %q, want %q", i, th.ID, themepdf.Themes()[i].ID)
		}
	}
}

func TestStyles(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Options{}, nil, nil)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{path: themepdf.StylesPath + "themes.css", wantStatus: http.StatusOK},
		{path: themepdf.StylesPath + "app.css", wantStatus: http.StatusOK},
		{path: themepdf.StylesPath + "missing.css", wantStatus: http.StatusNotFound},
		{path: themepdf.StylesPath + "..%2Fsecret.css", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, h, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/css") {
				t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Options{}, nil, nil)

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/preview?theme=luxury&mode=dark&title=Hello+World", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{`id="export-preview"`, "force-dark-mode", "Hello World", themepdf.FontStylesheetURL} {
		if !strings.Contains(body, want) && !strings.Contains(body, strings.ReplaceAll(want, "&", "&amp;")) {
			t.Errorf("preview missing %q", want)
		}
	}

	for _, q := range []string{"theme=nope", "mode=sepia"} {
		rec := do(t, h, httptest.NewRequest(http.MethodGet, "/preview?"+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, rec.Code)
		}
	}
}

// ---------------------------------------------------------------------------
// TestModes - development and production surfaces
// ---------------------------------------------------------------------------

func TestDevIndexAndHealth(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Options{}, nil, nil)

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), "Server Running (Development Mode)") {
		t.Errorf("dev index = %q", rec.Body.String())
	}
	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestProduction(t *testing.T) {
	t.Parallel()

	static := t.TempDir()
	if err := os.WriteFile(filepath.Join(static, "index.html"), []byte("<h1>app</h1>"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(static, "bundle.js"), []byte("console.log(1)"), 0o600); err != nil {
		t.Fatal(err)
	}

	h := newTestServer(t, Options{
		Production: true,
		StaticDir:  static,
		BasicUsers: map[string]string{"admin": "s3cret"},
	}, nil, nil)

	get := func(path string, authed bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if authed {
			req.SetBasicAuth("admin", "s3cret")
		}
		return do(t, h, req)
	}

	t.Run("challenge", func(t *testing.T) {
		rec := get("/healthz", false)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") == "" {
			t.Error("missing WWW-Authenticate header")
		}
	})

	t.Run("static file", func(t *testing.T) {
		rec := get("/bundle.js", true)
		if rec.Code != http.StatusOK || rec.Body.String() != "console.log(1)" {
			t.Errorf("got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("spa fallback", func(t *testing.T) {
		for _, p := range []string{"/", "/editor/42", "/settings.json"} {
			rec := get(p, true)
			if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<h1>app</h1>") {
				t.Errorf("%s: got %d %q", p, rec.Code, rec.Body.String())
			}
		}
	})

	t.Run("spa fallback on POST-only paths", func(t *testing.T) {
		for _, p := range []string{themepdf.PathGeneratePDF, themepdf.PathSaveUpload, "/api/login"} {
			rec := get(p, true)
			if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<h1>app</h1>") {
				t.Errorf("GET %s: got %d %q", p, rec.Code, rec.Body.String())
			}
		}
	})

	t.Run("other methods still rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/themes", nil)
		req.SetBasicAuth("admin", "s3cret")
		rec := do(t, h, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("DELETE /api/themes: status = %d, want 405", rec.Code)
		}
	})

	t.Run("api still routed", func(t *testing.T) {
		rec := get("/api/themes", true)
		if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
			t.Errorf("got %d %q", rec.Code, rec.Header().Get("Content-Type"))
		}
	})
}

func TestCORS_Preflight(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, Options{}, nil, nil)
	req := httptest.NewRequest(http.MethodOptions, themepdf.PathGeneratePDF, nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := do(t, h, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing Access-Control-Allow-Origin")
	}
}

func TestListenAndServe_Shutdown(t *testing.T) {
	t.Parallel()

	s, err := New(Options{Addr: "127.0.0.1:0"}, &fakeRenderer{}, nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}
