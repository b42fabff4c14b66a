package filestorage

import (
	"errors"
	"mime/multipart"
)

var ErrUnsupportedFileType = errors.New("unsupported file type")

// ImageExtensions are the extensions accepted for avatar uploads.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// FileStorage keeps user uploads. Returned paths are what clients fetch.
type FileStorage interface {
	SaveFileWithPath(fileHeader *multipart.FileHeader, dir string) (string, error)
	// DeleteFile is a no-op for files that are already gone.
	DeleteFile(publicPath string) error
}
