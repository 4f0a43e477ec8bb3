package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	themepdf "github.com/alnah/go-themepdf"
	"github.com/alnah/go-themepdf/internal/auth"
	"github.com/alnah/go-themepdf/internal/fileutil"
	"github.com/alnah/go-themepdf/internal/logging"
)

// Response messages.
const (
	msgMissingHTML   = "Missing HTML content"
	msgRenderFailed  = "PDF Generation Failed: "
	msgNoFile        = "No file uploaded."
	msgUploadSaved   = "File auto-saved successfully"
	msgBodyTooLarge  = "Request body too large"
	msgInvalidJSON   = "Invalid JSON body"
	msgBadPassword   = "Invalid password"
	msgInvalidName   = "Invalid file name."
	msgDevIndex      = `<h1>Server Running (Development Mode)</h1><p>The static site is not served in development mode. Start with --production to serve it.</p>`
	multipartMemory  = 32 << 20
	headerPageCount  = "X-Page-Count"
	contentTypeJSON  = "application/json"
	contentTypeHTML  = "text/html; charset=utf-8"
	contentTypeCSS   = "text/css; charset=utf-8"
	contentTypePDF   = "application/pdf"
	contentTypePlain = "text/plain; charset=utf-8"
)

type generateRequest struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
}

// handleGeneratePDF renders a snapshot. The job is detached from the client
// connection: it completes, times out or fails on its own.
func (s *Server) handleGeneratePDF(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeText(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		if !errors.Is(err, io.EOF) {
			writeText(w, http.StatusBadRequest, msgInvalidJSON)
			return
		}
	}
	if req.HTML == "" {
		writeText(w, http.StatusBadRequest, msgMissingHTML)
		return
	}

	logger.Info("received PDF generation request", "html_bytes", len(req.HTML), "css_bytes", len(req.CSS))

	ctx := context.WithoutCancel(r.Context())
	pdf, err := s.renderer.Render(ctx, themepdf.Snapshot{HTML: req.HTML, CSS: req.CSS})
	if err != nil {
		if errors.Is(err, themepdf.ErrMissingHTML) {
			writeText(w, http.StatusBadRequest, msgMissingHTML)
			return
		}
		logger.Error("PDF generation failed", "err", err)
		writeText(w, http.StatusInternalServerError, msgRenderFailed+err.Error())
		return
	}

	if info, err := themepdf.InspectPDF(pdf); err == nil {
		w.Header().Set(headerPageCount, strconv.Itoa(info.Pages))
	} else {
		logger.Warn("could not inspect PDF", "err", err)
	}
	w.Header().Set("Content-Type", contentTypePDF)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
	logger.Info("PDF sent", "bytes", len(pdf))
}

type uploadResponse struct {
	Message string `json:"message"`
	Path    string `json:"path"`
}

// handleSaveUpload stores the multipart "file" in the upload directory under
// its own base name. Same-named files are overwritten.
func (s *Server) handleSaveUpload(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeText(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		writeText(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeText(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()

	name, err := fileutil.UploadName(hdr.Filename)
	if err != nil {
		writeText(w, http.StatusBadRequest, msgInvalidName)
		return
	}

	dest, err := filepath.Abs(filepath.Join(s.opts.UploadDir, name))
	if err != nil {
		logger.Error("resolving upload path", "err", err)
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := writeUpload(dest, file); err != nil {
		logger.Error("saving upload", "path", dest, "err", err)
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("auto-saved file", "path", dest, "bytes", hdr.Size)
	writeJSON(w, http.StatusOK, uploadResponse{Message: msgUploadSaved, Path: dest})
}

func writeUpload(path string, src io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": s.gate.Authenticated(r)})
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, loginResponse{Message: msgInvalidJSON})
		return
	}

	if !s.gate.Enabled() {
		writeJSON(w, http.StatusOK, loginResponse{Success: true})
		return
	}

	token, expires, err := s.gate.Login(req.Password)
	if err != nil {
		logging.FromContext(r.Context()).Warn("failed login attempt", "remote", r.RemoteAddr)
		writeJSON(w, http.StatusUnauthorized, loginResponse{Message: msgBadPassword})
		return
	}

	secure := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
	auth.SetCookie(w, token, expires, secure)
	writeJSON(w, http.StatusOK, loginResponse{Success: true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.CookieName); err == nil {
		s.gate.Logout(c.Value)
	}
	auth.ClearCookie(w)
	writeJSON(w, http.StatusOK, loginResponse{Success: true})
}

func (s *Server) handleThemes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, themepdf.Themes())
}

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	css, err := s.styles.LoadStyle(chi.URLParam(r, "name"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", contentTypeCSS)
	_, _ = io.WriteString(w, css)
}

// handlePreview renders the workspace for ?theme=&mode=&title=.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	state := themepdf.NewAppState()
	q := r.URL.Query()

	if id := q.Get("theme"); id != "" {
		if err := state.SetTheme(id); err != nil {
			writeText(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if m := q.Get("mode"); m != "" {
		if err := state.SetMode(m); err != nil {
			writeText(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if title := q.Get("title"); title != "" {
		state.Document.Title = title
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	if err := s.previewer.RenderWorkspace(w, state, themepdf.PreviewOptions{Fonts: true}); err != nil {
		logging.FromContext(r.Context()).Error("rendering preview", "err", err)
	}
}

// handleStatic serves the front-end bundle with a fallback to index.html for
// unmatched GET requests.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	if p, ok := staticFile(s.opts.StaticDir, r.URL.Path); ok {
		http.ServeFile(w, r, p)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.opts.StaticDir, "index.html"))
}

// handleMethodNotAllowed sends page loads of POST-only paths (a reload of
// /generate-pdf, say) to the SPA like any other unknown path.
func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		s.handleStatic(w, r)
		return
	}
	writeText(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

func handleDevIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", contentTypeHTML)
	_, _ = io.WriteString(w, msgDevIndex)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", contentTypePlain)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
