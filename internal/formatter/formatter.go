// package formatter exports member and book lists to various formats (CSV, Markdown, plain text, JSON)
// and parses member CSV files for bulk import.
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/shared"
	"github.com/desertthunder/ecn/internal/tasks"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or a common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
}

// FormatFor infers the format from a file name, defaulting to text.
func FormatFor(filename string) Format {
	f, err := ParseFormat(filepath.Ext(filename))
	if err != nil {
		return FormatText
	}
	return f
}

var memberHeaders = []string{"ID", "Name", "FatherName", "DOB", "Address", "Phone", "Email", "JoiningDate", "Status", "Role"}

var bookHeaders = []string{"ID", "Title", "Author", "Category", "Download", "CoverImage", "CreatedAt"}

// Members encodes members in the given format.
func Members(format Format, members []models.Member) ([]byte, error) {
	switch format {
	case FormatCSV:
		return MembersToCSV(members)
	case FormatMarkdown:
		return MembersToMarkdown(members)
	case FormatJSON:
		return shared.MarshalJSON(members, true)
	default:
		return MembersToText(members)
	}
}

// Books encodes books in the given format.
func Books(format Format, books []models.Book) ([]byte, error) {
	switch format {
	case FormatCSV:
		return BooksToCSV(books)
	case FormatMarkdown:
		return BooksToMarkdown(books, nil)
	case FormatJSON:
		return shared.MarshalJSON(books, true)
	default:
		return BooksToText(books)
	}
}

// MembersToCSV writes one row per member with dates truncated to YYYY-MM-DD.
func MembersToCSV(members []models.Member) ([]byte, error) {
	rows := make([][]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, []string{
			m.ID, m.Name, m.FatherName, shared.DateOnly(m.DOB), m.Address, m.Phone, m.Email,
			shared.DateOnly(m.JoiningDate), string(m.Status), string(m.Role),
		})
	}
	return writeCSV(memberHeaders, rows)
}

// BooksToCSV writes one row per book. Download is the uploaded PDF or the external link.
func BooksToCSV(books []models.Book) ([]byte, error) {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, []string{
			b.ID, b.Title, b.Author, string(b.Category), b.Download(), b.CoverImage, shared.DateOnly(b.CreatedAt),
		})
	}
	return writeCSV(bookHeaders, rows)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range rows {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// MembersToMarkdown renders the roster as a Markdown table.
func MembersToMarkdown(members []models.Member) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# ECN Members\n\n")
	fmt.Fprintf(&buf, "**Members**: %d\n\n", len(members))

	if len(members) == 0 {
		buf.WriteString("No members found.\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| Name | Father's Name | Phone | Joined | Status | Role |\n")
	buf.WriteString("| --- | --- | --- | --- | --- | --- |\n")
	for _, m := range members {
		fmt.Fprintf(&buf, "| %s | %s | %s | %s | %s | %s |\n",
			cell(m.Name), cell(m.FatherName), m.Phone, shared.FormatDate(m.JoiningDate), m.Status, m.Role)
	}
	return buf.Bytes(), nil
}

// BooksToMarkdown renders the shelf grouped by category. covers maps book IDs to local image paths.
func BooksToMarkdown(books []models.Book, covers map[string]string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# ECN Library\n\n")
	fmt.Fprintf(&buf, "**Books**: %d\n", len(books))

	if len(books) == 0 {
		buf.WriteString("\nNo books found.\n")
		return buf.Bytes(), nil
	}

	for _, category := range models.BookCategories {
		var shelf []models.Book
		for _, b := range books {
			if b.Category == category {
				shelf = append(shelf, b)
			}
		}
		if len(shelf) == 0 {
			continue
		}

		fmt.Fprintf(&buf, "\n## %s\n\n", category)
		for i, b := range shelf {
			fmt.Fprintf(&buf, "%d. **%s** by %s", i+1, b.Title, b.Author)
			if link := b.Download(); link != "" {
				fmt.Fprintf(&buf, " ([PDF](%s))", link)
			}
			buf.WriteString("\n")
			if cover := covers[b.ID]; cover != "" {
				fmt.Fprintf(&buf, "\n   ![%s](%s)\n\n", b.Title, cover)
			}
		}
	}
	return buf.Bytes(), nil
}

// MembersToText renders one numbered line per member.
func MembersToText(members []models.Member) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Members: %d\n\n", len(members))
	for i, m := range members {
		fmt.Fprintf(&buf, "%d. %s s/o %s (%s) - %s, %s\n", i+1, m.Name, m.FatherName, m.Phone, m.Status, m.Role)
	}
	return buf.Bytes(), nil
}

// BooksToText renders one numbered line per book.
func BooksToText(books []models.Book) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Books: %d\n\n", len(books))
	for i, b := range books {
		fmt.Fprintf(&buf, "%d. %s - %s [%s]\n", i+1, b.Author, b.Title, b.Category)
	}
	return buf.Bytes(), nil
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// WriteExport writes data to filename, creating parent directories.
func WriteExport(filename string, data []byte) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}

// DownloadImage fetches an image. Relative references resolve against base.
func DownloadImage(ctx context.Context, client *http.Client, base, ref string) ([]byte, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	target, err := resolve(base, ref)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return imageData, nil
}

func resolve(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: bad image URL %q", shared.ErrInvalidArgument, ref)
	}
	if r.IsAbs() {
		return r.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return "", fmt.Errorf("%w: relative image URL %q needs a base URL", shared.ErrInvalidArgument, ref)
	}
	return b.ResolveReference(r).String(), nil
}

// ShelfExportResult contains information about files created by WriteShelfExport.
type ShelfExportResult struct {
	Directory string
	Files     []string
	Covers    int
	Warnings  []string
}

// WriteShelfExport writes {dir}/README.md and, when client is non-nil, downloads each cover
// into {dir}/covers. Cover failures are collected as warnings.
func WriteShelfExport(ctx context.Context, books []models.Book, dir, base string, client *http.Client) (*ShelfExportResult, error) {
	if dir == "" {
		dir = "ecn-library"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &ShelfExportResult{Directory: dir}
	covers := make(map[string]string)

	if client != nil {
		for _, b := range books {
			if b.CoverImage == "" {
				continue
			}
			data, err := DownloadImage(ctx, client, base, b.CoverImage)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", b.Title, err))
				continue
			}
			name := path.Join("covers", b.ID+coverExt(b.CoverImage))
			if err := WriteExport(filepath.Join(dir, name), data); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", b.Title, err))
				continue
			}
			covers[b.ID] = name
			result.Covers++
			result.Files = append(result.Files, filepath.Join(dir, name))
		}
	}

	md, err := BooksToMarkdown(books, covers)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}
	readme := filepath.Join(dir, "README.md")
	if err := WriteExport(readme, md); err != nil {
		return nil, err
	}
	result.Files = append(result.Files, readme)
	return result, nil
}

func coverExt(ref string) string {
	if u, err := url.Parse(ref); err == nil {
		if ext := path.Ext(u.Path); ext != "" && len(ext) <= 5 {
			return ext
		}
	}
	return ".jpg"
}

// ErrMissingColumn is returned when an import file lacks a required header.
var ErrMissingColumn = errors.New("missing column")

var memberColumns = map[string]string{
	"name":        "name",
	"fathername":  "fatherName",
	"dob":         "dob",
	"address":     "address",
	"phone":       "phone",
	"email":       "email",
	"joiningdate": "joiningDate",
	"status":      "status",
	"role":        "role",
}

// ParseMembersCSV reads a member CSV into import rows.
//
// Headers match form field names case-insensitively; spaces and underscores are ignored and
// an ID column is skipped, so the output of [MembersToCSV] can be re-imported. Missing status
// and role default to Active and member. Rows are not validated here.
func ParseMembersCSV(r io.Reader) ([]tasks.ImportRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty CSV", shared.ErrInvalidInput)
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	index := make(map[string]int)
	for i, h := range header {
		key := strings.NewReplacer(" ", "", "_", "", "'", "").Replace(strings.ToLower(strings.TrimSpace(h)))
		if key == "fathersname" {
			key = "fathername"
		}
		if field, ok := memberColumns[key]; ok {
			index[field] = i
		}
	}
	for _, required := range []string{"name", "phone"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: %w %q", shared.ErrInvalidInput, ErrMissingColumn, required)
		}
	}

	var rows []tasks.ImportRow
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", shared.ErrInvalidInput, line, err)
		}

		get := func(field string) string {
			i, ok := index[field]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		if blank(record) {
			continue
		}

		form := models.DefaultMemberForm()
		form.Name = get("name")
		form.FatherName = get("fatherName")
		form.DOB = shared.DateOnly(get("dob"))
		form.Address = get("address")
		form.Phone = get("phone")
		form.Email = get("email")
		form.JoiningDate = shared.DateOnly(get("joiningDate"))
		if s := get("status"); s != "" {
			form.Status = models.MemberStatus(s)
		}
		if s := get("role"); s != "" {
			form.Role = models.MemberRole(strings.ToLower(s))
		}

		rows = append(rows, tasks.ImportRow{Row: line, Label: form.Name, Form: form})
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
