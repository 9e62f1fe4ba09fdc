package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/shared"
)

// maxUploadSize caps a dashboard form with its files.
const maxUploadSize = 50 << 20

// parseForm parses url-encoded and multipart bodies alike.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return nil
}

// removeUploads deletes temporary files left by a multipart parse.
func removeUploads(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

func field(r *http.Request, name string) string {
	return strings.TrimSpace(r.FormValue(name))
}

// attachment reads the uploaded file field into memory. A missing or empty file yields nil.
func attachment(r *http.Request, name string) (*models.Attachment, error) {
	file, header, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	defer file.Close()

	if header.Filename == "" || header.Size == 0 {
		return nil, nil
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return &models.Attachment{
		Field:       name,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     bytes.NewReader(data),
	}, nil
}

func parseMemberForm(w http.ResponseWriter, r *http.Request) (models.MemberForm, error) {
	if err := parseForm(w, r); err != nil {
		return models.MemberForm{}, err
	}
	f := models.MemberForm{
		Name:        field(r, "name"),
		FatherName:  field(r, "fatherName"),
		DOB:         field(r, "dob"),
		Address:     field(r, "address"),
		Phone:       field(r, "phone"),
		Email:       field(r, "email"),
		JoiningDate: field(r, "joiningDate"),
		Status:      models.MemberStatus(field(r, "status")),
		Role:        models.MemberRole(field(r, "role")),
	}

	img, err := attachment(r, "profileImage")
	if err != nil {
		return f, err
	}
	f.ProfileImage = img
	return f, nil
}

func parseBookForm(w http.ResponseWriter, r *http.Request) (models.BookForm, error) {
	if err := parseForm(w, r); err != nil {
		return models.BookForm{}, err
	}
	f := models.BookForm{
		Title:    field(r, "title"),
		Author:   field(r, "author"),
		Category: models.BookCategory(field(r, "category")),
		PDFLink:  field(r, "pdfLink"),
	}

	var err error
	if f.CoverImage, err = attachment(r, "coverImage"); err != nil {
		return f, err
	}
	if f.PDFFile, err = attachment(r, "pdfFile"); err != nil {
		return f, err
	}
	return f, nil
}
