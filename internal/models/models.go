// package models defines the data model for the ECN admin console
package models

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/desertthunder/ecn/internal/shared"
)

// Model defines the base interface for locally persisted models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Entity is a backend-owned record managed through the list and form views.
type Entity interface {
	EntityID() string
}

// Field is a primitive form value in submission order.
type Field struct {
	Name  string
	Value string
}

// Attachment is a binary file handle submitted as a multipart file part.
type Attachment struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

// ReadAttachment loads a local file into an [Attachment], guessing the content type from the extension.
func ReadAttachment(path string) (*Attachment, error) {
	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %s", shared.ErrInvalidInput, name)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", shared.ErrInvalidInput, name)
	}
	return &Attachment{
		Filename:    name,
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(name))),
		Content:     bytes.NewReader(data),
	}, nil
}

// Form is a tagged record that can be validated and encoded for submission.
//
// Forms with attachments are sent as multipart form data built from [Form.Values] and
// [Form.Attachments]; otherwise [Form.Body] is sent as JSON.
type Form interface {
	Validate() error
	Values() []Field
	Attachments() []Attachment
	Body() any
}

// FieldError is a single failed constraint.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects the constraints a form failed. It wraps [shared.ErrValidation].
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%v: %s", shared.ErrValidation, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return shared.ErrValidation
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Messages returns field messages keyed by the form field name.
func (e *ValidationError) Messages() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if _, ok := out[f.Field]; !ok {
			out[f.Field] = f.Message
		}
	}
	return out
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// validateStruct runs the struct tag schema and converts failures into a [ValidationError].
func validateStruct(v any) error {
	err := formValidator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: describe(fe)})
	}
	return &ValidationError{Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "len", "number":
		if fe.Field() == "phone" {
			return "must be exactly 10 digits"
		}
		return fmt.Sprintf("must be %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "datetime":
		return "must be a date (YYYY-MM-DD)"
	default:
		return "is invalid"
	}
}

// Options lists the allowed values of a closed enumeration in declaration order.
func Options[S ~string](values ...S) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
