package filestorage

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func multipartHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("avatar", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}
	return req.MultipartForm.File["avatar"][0]
}

func TestSaveAndDeleteFile(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewLocalStorage(dir, "", ImageExtensions...)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	saved, err := storage.SaveFileWithPath(multipartHeader(t, "me.PNG", []byte("png-bytes")), "avatars")
	if err != nil {
		t.Fatalf("SaveFileWithPath: %v", err)
	}
	if !strings.HasPrefix(saved, "uploads/avatars/") || !strings.HasSuffix(saved, ".png") {
		t.Errorf("unexpected accessible path %q", saved)
	}

	full := storage.GetFullPath(saved)
	if filepath.Dir(full) != filepath.Join(dir, "avatars") {
		t.Errorf("GetFullPath(%q) = %q", saved, full)
	}
	if data, err := os.ReadFile(full); err != nil || string(data) != "png-bytes" {
		t.Fatalf("stored file content = %q, err = %v", data, err)
	}

	if err := storage.DeleteFile(saved); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if _, err := os.Stat(full); !os.IsNotExist(err) {
		t.Error("file still exists after delete")
	}
	// idempotent
	if err := storage.DeleteFile(saved); err != nil {
		t.Errorf("second DeleteFile: %v", err)
	}
}

func TestSaveRejectsUnsupportedExtension(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir(), "", ImageExtensions...)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	_, err = storage.SaveFileWithPath(multipartHeader(t, "script.sh", []byte("#!/bin/sh")), "")
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Errorf("expected ErrUnsupportedFileType, got %v", err)
	}
}

func TestGetFullPathStaysInsideBase(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewLocalStorage(dir, "http://cdn.local/")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	got := storage.GetFullPath("http://cdn.local/uploads/../../etc/passwd")
	if !strings.HasPrefix(got, dir) {
		t.Errorf("GetFullPath escaped base dir: %q", got)
	}
	if storage.GetFullPath("uploads/") != "" {
		t.Error("expected empty path for bare prefix")
	}
}
