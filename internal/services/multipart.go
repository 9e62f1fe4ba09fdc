package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/desertthunder/ecn/internal/models"
)

type part struct {
	name        string
	value       string
	filename    string
	contentType string
	content     io.Reader
}

// Multipart is an ordered set of form fields and files sent as one multipart/form-data body.
type Multipart struct {
	parts []part
}

func NewMultipart() *Multipart {
	return &Multipart{}
}

// MultipartFromForm adds the form's values followed by its attachments.
func MultipartFromForm(f models.Form) *Multipart {
	mp := NewMultipart()
	for _, v := range f.Values() {
		mp.Field(v.Name, v.Value)
	}
	for _, a := range f.Attachments() {
		mp.File(a.Field, a.Filename, a.ContentType, a.Content)
	}
	return mp
}

// Field appends a primitive form value.
func (m *Multipart) Field(name, value string) *Multipart {
	m.parts = append(m.parts, part{name: name, value: value})
	return m
}

// File appends a file part. An empty contentType is sent as application/octet-stream.
func (m *Multipart) File(name, filename, contentType string, content io.Reader) *Multipart {
	m.parts = append(m.parts, part{name: name, filename: filename, contentType: contentType, content: content})
	return m
}

// Encode renders the whole payload in memory so the request can carry a Content-Length.
func (m *Multipart) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range m.parts {
		if p.content == nil {
			if err := w.WriteField(p.name, p.value); err != nil {
				return nil, "", fmt.Errorf("failed to write field %s: %w", p.name, err)
			}
			continue
		}

		ct := p.contentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(p.name), escapeQuotes(p.filename)))
		h.Set("Content-Type", ct)

		fw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part %s: %w", p.name, err)
		}
		if _, err := io.Copy(fw, p.content); err != nil {
			return nil, "", fmt.Errorf("failed to copy file %s: %w", p.filename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
