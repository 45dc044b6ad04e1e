package testsupport

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
)

// PNG returns a small encoded PNG image.
func PNG(t testing.TB) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, sample()); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// JPEG returns a small encoded JPEG image.
func JPEG(t testing.TB) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, sample(), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func sample() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	return img
}

// Part is one file in a multipart upload.
type Part struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Images returns n valid JPEG parts named img1.jpg, img2.jpg, ...
func Images(t testing.TB, n int) []Part {
	t.Helper()
	data := JPEG(t)
	parts := make([]Part, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, Part{
			Filename:    fmt.Sprintf("img%d.jpg", i),
			ContentType: "image/jpeg",
			Data:        data,
		})
	}
	return parts
}

// Multipart encodes an upload form with the given email and files under field.
func Multipart(t testing.TB, email, field string, parts []Part) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if email != "" {
		if err := mw.WriteField("email", email); err != nil {
			t.Fatalf("write email field: %v", err)
		}
	}
	for _, p := range parts {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, p.Filename))
		header.Set("Content-Type", p.ContentType)
		w, err := mw.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := w.Write(p.Data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &body, mw.FormDataContentType()
}

// TouchFiles creates empty files with the given names in dir.
func TouchFiles(t testing.TB, dir string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}
