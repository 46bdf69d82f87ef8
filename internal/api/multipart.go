package api

import (
	"bytes"
	"fmt"
	"mime/multipart"

	"github.com/farmlink/farmlink-go/internal/imaging"
)

// Upload is one image attached to a listing or discussion post.
type Upload struct {
	// Name is the original filename, used only for the form part.
	Name string
	// Data is the raw image bytes (JPEG or PNG).
	Data []byte
}

// multipartForm builds a multipart/form-data body from text fields and
// image uploads. Every image is run through imaging.Process, which
// validates the format and downscales oversized photos before they go on
// the wire.
func multipartForm(fields [][2]string, imageField string, images []Upload) (*body, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("writing field %q: %w", f[0], err)
		}
	}

	for _, img := range images {
		processed, err := imaging.Process(bytes.NewReader(img.Data))
		if err != nil {
			return nil, fmt.Errorf("processing image %q: %w", img.Name, err)
		}
		part, err := w.CreateFormFile(imageField, img.Name)
		if err != nil {
			return nil, fmt.Errorf("creating form file %q: %w", img.Name, err)
		}
		if _, err := part.Write(processed.Data); err != nil {
			return nil, fmt.Errorf("writing image %q: %w", img.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}
	return &body{reader: &buf, contentType: w.FormDataContentType()}, nil
}
