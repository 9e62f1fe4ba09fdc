package models

import "github.com/oapi-codegen/nullable"

type BookCategory string

const (
	CategoryIslamic BookCategory = "Islamic"
	CategoryGeneral BookCategory = "General"
	CategoryQuran   BookCategory = "Quran"
	CategoryHadith  BookCategory = "Hadith"
)

// BookCategories lists the closed set of categories.
var BookCategories = []BookCategory{CategoryIslamic, CategoryGeneral, CategoryQuran, CategoryHadith}

// Book is a library entry owned by the backend.
type Book struct {
	ID         string       `json:"_id"`
	Title      string       `json:"title"`
	Author     string       `json:"author"`
	Category   BookCategory `json:"category"`
	PDFLink    string       `json:"pdfLink,omitempty"`
	PDFFile    string       `json:"pdfFile,omitempty"`
	CoverImage string       `json:"coverImage"`
	CreatedAt  string       `json:"createdAt"`
}

func (b Book) EntityID() string { return b.ID }

// Download returns the uploaded PDF if present, else the external link.
func (b Book) Download() string {
	if b.PDFFile != "" {
		return b.PDFFile
	}
	return b.PDFLink
}

// BookForm is the add payload for a [Book]. Cover image and PDF are required uploads.
type BookForm struct {
	Title    string       `form:"title" validate:"required"`
	Author   string       `form:"author" validate:"required"`
	Category BookCategory `form:"category" validate:"required,oneof=Islamic General Quran Hadith"`
	PDFLink  string       `form:"pdfLink"`

	CoverImage *Attachment `form:"coverImage" validate:"required"`
	PDFFile    *Attachment `form:"pdfFile" validate:"required"`
}

// DefaultBookForm returns an empty form in the Islamic category.
func DefaultBookForm() BookForm {
	return BookForm{Category: CategoryIslamic}
}

func (f BookForm) Validate() error {
	return validateStruct(f)
}

func (f BookForm) Values() []Field {
	return []Field{
		{"title", f.Title},
		{"author", f.Author},
		{"category", string(f.Category)},
		{"pdfLink", f.PDFLink},
	}
}

func (f BookForm) Attachments() []Attachment {
	var out []Attachment
	if f.CoverImage != nil {
		a := *f.CoverImage
		a.Field = "coverImage"
		out = append(out, a)
	}
	if f.PDFFile != nil {
		a := *f.PDFFile
		a.Field = "pdfFile"
		out = append(out, a)
	}
	return out
}

type bookBody struct {
	Title    string                    `json:"title"`
	Author   string                    `json:"author"`
	Category BookCategory              `json:"category"`
	PDFLink  nullable.Nullable[string] `json:"pdfLink"`
}

func (f BookForm) Body() any {
	return bookBody{Title: f.Title, Author: f.Author, Category: f.Category, PDFLink: optional(f.PDFLink)}
}
