package filestorage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alumnisphere/api/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// publicPrefix is the route the router serves basePath under.
const publicPrefix = "uploads"

// LocalStorage writes uploads below basePath with random names.
type LocalStorage struct {
	basePath   string
	baseURL    string // optional, prepended to returned paths
	extensions []string
	log        zerolog.Logger
}

// NewLocalStorage creates basePath if needed. With no extensions every
// file type is accepted.
func NewLocalStorage(basePath, baseURL string, extensions ...string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &LocalStorage{
		basePath:   basePath,
		baseURL:    strings.TrimRight(baseURL, "/"),
		extensions: extensions,
		log:        logger.Component("filestorage").With().Str("root", basePath).Logger(),
	}, nil
}

// SaveFileWithPath stores the upload under dir and returns its public path.
// A nil header stores nothing.
func (ls *LocalStorage) SaveFileWithPath(fileHeader *multipart.FileHeader, dir string) (string, error) {
	if fileHeader == nil {
		return "", nil
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if len(ls.extensions) > 0 && !slices.Contains(ls.extensions, ext) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}

	dir = strings.Trim(path.Clean("/"+filepath.ToSlash(dir)), "/")
	name := uuid.NewString() + ext

	if err := ls.write(fileHeader, filepath.Join(ls.basePath, filepath.FromSlash(dir)), name); err != nil {
		ls.log.Error().Err(err).Str("upload", fileHeader.Filename).Msg("Failed to store upload")
		return "", err
	}

	public := path.Join(publicPrefix, dir, name)
	if ls.baseURL != "" {
		public = ls.baseURL + "/" + public
	}
	ls.log.Debug().Str("upload", fileHeader.Filename).Str("path", public).Msg("Upload stored")
	return public, nil
}

func (ls *LocalStorage) write(fileHeader *multipart.FileHeader, dir, name string) error {
	src, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	target := filepath.Join(dir, name)
	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(target)
		return fmt.Errorf("failed to write file: %w", err)
	}
	return dst.Close()
}

// DeleteFile removes a file previously returned by SaveFileWithPath.
func (ls *LocalStorage) DeleteFile(publicPath string) error {
	if publicPath == "" {
		return nil
	}
	target := ls.GetFullPath(publicPath)
	if target == "" {
		return fmt.Errorf("invalid file path: %s", publicPath)
	}

	err := os.Remove(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	ls.log.Debug().Str("path", publicPath).Msg("Upload deleted")
	return nil
}

// GetFullPath maps a public path back into basePath. Paths that would
// escape it, and the bare prefix, resolve to "".
func (ls *LocalStorage) GetFullPath(publicPath string) string {
	rel := strings.TrimPrefix(publicPath, ls.baseURL)
	rel = strings.TrimPrefix(strings.TrimPrefix(rel, "/"), publicPrefix+"/")

	cleaned := strings.TrimPrefix(path.Clean("/"+rel), "/")
	if cleaned == "" {
		return ""
	}
	return filepath.Join(ls.basePath, filepath.FromSlash(cleaned))
}
