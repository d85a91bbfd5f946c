package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/unitech3d/stlquote/internal/quote"
)

const multipartMemory = 32 << 20

var errMissingFile = errors.New("missing stl file")

// fallbackIndex is served when no index.html exists on disk.
const fallbackIndex = `<!doctype html><meta charset="utf-8">
<title>Unitech3D</title>
<h3>Unitech3D – سرور در حال اجراست</h3>
<p>فایل index.html پیدا نشد. لطفاً فایل‌های فرانت را در پوشهٔ پروژه قرار دهید.</p>
`

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With(zap.String("request_id", RequestIDFromContext(r.Context())))

	upload, err := s.readUpload(w, r)
	switch {
	case errors.Is(err, errMissingFile):
		writeError(w, http.StatusBadRequest, msgMissingFile)
		return
	case err != nil:
		log.Info("Rejected form", zap.Error(err))
		writeError(w, http.StatusBadRequest, msgBadForm)
		return
	}

	res, err := s.quotes.Quote(r.Context(), upload)
	if err != nil {
		log.Warn("Quote aborted", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
		return
	}

	resp, ok := newQuoteResponse(res)
	if !ok {
		log.Error("Quote is not representable",
			zap.String("filename", upload.Filename),
			zap.Float64("volume_mm3", res.Breakdown.Volume),
		)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// readUpload parses the multipart form. A body that is not multipart at all
// counts as a form without a file.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (quote.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return quote.Request{}, errMissingFile
		}
		return quote.Request{}, err
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("stl_file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return quote.Request{}, errMissingFile
		}
		return quote.Request{}, err
	}
	defer file.Close()

	if header.Filename == "" {
		return quote.Request{}, errMissingFile
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return quote.Request{}, err
	}

	form := r.MultipartForm
	return quote.Request{
		Filename: header.Filename,
		Data:     data,
		Material: firstValue(form, r, "material"),
		Quality:  firstValue(form, r, "quality"),
		Infill:   quote.ParseInfill(firstValue(form, r, "infill")),
	}, nil
}

// firstValue prefers the multipart body over the query string.
func firstValue(form *multipart.Form, r *http.Request, key string) string {
	if form != nil {
		if vs := form.Value[key]; len(vs) > 0 {
			return vs[0]
		}
	}
	return r.URL.Query().Get(key)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	for _, candidate := range s.indexFiles {
		data, err := readRegularFile(candidate)
		if err != nil {
			continue
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(data)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(fallbackIndex))
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	rel := path.Clean("/" + strings.TrimPrefix(r.URL.Path, "/static/"))
	if rel == "/" {
		writeNotFound(w)
		return
	}

	data, err := readRegularFile(filepath.Join(s.staticDir, filepath.FromSlash(rel)))
	if err != nil {
		writeNotFound(w)
		return
	}

	w.Header().Set("Content-Type", staticContentType(rel))
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeNotFound(w)
}

// staticContentType knows only the types the front end ships.
func staticContentType(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".css"):
		return "text/css; charset=utf-8"
	case strings.HasSuffix(lower, ".js"):
		return "application/javascript; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

func readRegularFile(name string) ([]byte, error) {
	info, err := os.Stat(name)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(name)
}
