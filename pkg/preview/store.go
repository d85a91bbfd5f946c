package preview

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/unitech3d/stlquote/pkg/geometry"
)

// Store renders previews into a directory that is served under URLPrefix.
type Store struct {
	dir       string
	urlPrefix string
	renderer  Renderer
	encoder   Encoder
	opts      Options
	logger    *zap.Logger
}

// NewStore creates a preview store. A nil renderer disables previews and a
// nil encoder means PNG.
func NewStore(dir, urlPrefix string, renderer Renderer, encoder Encoder, opts Options, logger *zap.Logger) *Store {
	if renderer == nil {
		renderer = NoopRenderer{}
	}
	if encoder == nil {
		encoder = PNGEncoder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		dir:       dir,
		urlPrefix: urlPrefix,
		renderer:  renderer,
		encoder:   encoder,
		opts:      opts,
		logger:    logger,
	}
}

// Dir returns the directory previews are written to.
func (s *Store) Dir() string { return s.dir }

// Save renders triangles and writes the preview for filename. It never
// fails the caller: any problem, including a panic in the renderer, is
// logged and reported as ok == false. The image is written to a temporary
// file and renamed into place, so readers never see a partial preview and a
// failed save leaves the previous one intact. Concurrent saves of the same
// filename overwrite each other.
func (s *Store) Save(ctx context.Context, filename string, triangles []geometry.Triangle) (url string, ok bool) {
	name := ArtifactName(filename, s.encoder.Extension())
	target := filepath.Join(s.dir, name)
	log := s.logger.With(zap.String("preview", name))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("Preview rendering panicked", zap.Any("panic", rec))
			url, ok = "", false
		}
	}()

	if len(triangles) == 0 {
		return "", false
	}

	img, err := s.renderer.Render(ctx, triangles, s.opts)
	if err != nil {
		log.Warn("Preview not rendered", zap.Error(err))
		return "", false
	}

	var buf bytes.Buffer
	if err := s.encoder.Encode(&buf, img); err != nil {
		log.Warn("Preview not encoded", zap.Error(err))
		return "", false
	}

	if err := s.write(target, buf.Bytes()); err != nil {
		log.Warn("Preview not written", zap.Error(err))
		return "", false
	}

	log.Debug("Preview written", zap.Int("bytes", buf.Len()))
	return path.Join(s.urlPrefix, name), true
}

func (s *Store) write(target string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create preview directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp preview: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write preview: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to set preview mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close preview: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move preview into place: %w", err)
	}
	return nil
}
