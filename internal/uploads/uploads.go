// Package uploads receives multipart image submissions and manages the file
// area where accepted images are kept.
package uploads

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

const (
	// EmailField and FilesField are the multipart field names clients send.
	EmailField = "email"
	FilesField = "autographs"

	formMemory = 8 << 20
	formSlack  = 1 << 20
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// Limits bounds a single upload request.
type Limits struct {
	MaxFiles    int
	MaxFileSize int64
}

// StoredFile is an accepted image written to the file area.
type StoredFile struct {
	Name         string
	OriginalName string
	ContentType  string
	Size         int64
}

// Upload is the validated result of one request.
type Upload struct {
	Email string
	Files []StoredFile
}

// Names returns the stored filenames in upload order.
func (u *Upload) Names() []string {
	names := make([]string, 0, len(u.Files))
	for _, f := range u.Files {
		names = append(names, f.Name)
	}
	return names
}

// RejectError reports a client-side problem with the upload.
type RejectError struct {
	Reason string
}

func (e *RejectError) Error() string {
	return e.Reason
}

func reject(format string, args ...any) error {
	return &RejectError{Reason: fmt.Sprintf(format, args...)}
}

// Area is the directory holding uploaded images, addressed by filename.
type Area struct {
	dir    string
	limits Limits
}

// NewArea returns a file area rooted at dir.
func NewArea(dir string, limits Limits) *Area {
	return &Area{dir: dir, limits: limits}
}

// Dir returns the area's root directory.
func (a *Area) Dir() string {
	return a.dir
}

// Path returns the on-disk path for a stored filename.
func (a *Area) Path(name string) string {
	return filepath.Join(a.dir, name)
}

// Exists reports whether name is a plain filename present in the area.
// Names carrying path components never match.
func (a *Area) Exists(name string) bool {
	if !validName(name) {
		return false
	}
	info, err := os.Stat(a.Path(name))
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes stored files, logging rather than failing on errors.
func (a *Area) Remove(files []StoredFile) {
	for _, f := range files {
		if !validName(f.Name) {
			continue
		}
		if err := os.Remove(a.Path(f.Name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to remove uploaded image", "filename", f.Name, "err", err)
		}
	}
}

// Receive parses the multipart request, validates every image and writes the
// accepted ones under generated names. Validation failures are *RejectError;
// when one occurs no files from this request remain in the area.
func (a *Area) Receive(w http.ResponseWriter, r *http.Request) (*Upload, error) {
	maxBody := int64(a.limits.MaxFiles)*a.limits.MaxFileSize + formSlack
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, reject("Upload too large (max %d images of %s each)", a.limits.MaxFiles, humanize.IBytes(uint64(a.limits.MaxFileSize)))
		}
		return nil, reject("Invalid upload form: %v", err)
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Debug("Failed to remove multipart temp files", "err", err)
		}
	}()

	email := strings.TrimSpace(r.FormValue(EmailField))
	if email == "" {
		return nil, reject("Email is required")
	}

	headers := r.MultipartForm.File[FilesField]
	if len(headers) > a.limits.MaxFiles {
		return nil, reject("Too many images (max %d)", a.limits.MaxFiles)
	}

	for _, header := range headers {
		if err := a.checkHeader(header); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}

	upload := &Upload{Email: email, Files: make([]StoredFile, 0, len(headers))}
	for _, header := range headers {
		stored, err := a.store(header)
		if err != nil {
			a.Remove(upload.Files)
			return nil, err
		}
		upload.Files = append(upload.Files, stored)
	}

	slog.Info("Images received", "count", len(upload.Files), "dir", a.dir)
	return upload, nil
}

func (a *Area) checkHeader(header *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return reject("Only JPEG/PNG images are accepted: %s", header.Filename)
	}
	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if !allowedContentTypes[contentType] {
		return reject("Only JPEG/PNG images are accepted: %s", header.Filename)
	}
	if header.Size > a.limits.MaxFileSize {
		return reject("Image %s exceeds %s", header.Filename, humanize.IBytes(uint64(a.limits.MaxFileSize)))
	}
	return nil
}

func (a *Area) store(header *multipart.FileHeader) (StoredFile, error) {
	src, err := header.Open()
	if err != nil {
		return StoredFile{}, fmt.Errorf("open uploaded image: %w", err)
	}
	defer src.Close()

	// The declared type is only a hint; the content has to decode as well.
	_, format, err := image.DecodeConfig(src)
	if err != nil || (format != "jpeg" && format != "png") {
		return StoredFile{}, reject("Only JPEG/PNG images are accepted: %s", header.Filename)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return StoredFile{}, fmt.Errorf("rewind uploaded image: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	name := uuid.NewString() + ext

	dst, err := os.OpenFile(a.Path(name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return StoredFile{}, fmt.Errorf("create image file: %w", err)
	}
	written, err := io.Copy(dst, io.LimitReader(src, a.limits.MaxFileSize+1))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(a.Path(name))
		return StoredFile{}, fmt.Errorf("save image: %w", err)
	}
	if written > a.limits.MaxFileSize {
		_ = os.Remove(a.Path(name))
		return StoredFile{}, reject("Image %s exceeds %s", header.Filename, humanize.IBytes(uint64(a.limits.MaxFileSize)))
	}

	slog.Debug("Image saved", "filename", name, "original", header.Filename, "format", format, "bytes", written)
	return StoredFile{
		Name:         name,
		OriginalName: filepath.Base(header.Filename),
		ContentType:  "image/" + format,
		Size:         written,
	}, nil
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.Base(name) == name
}
