package models

import (
	"github.com/oapi-codegen/nullable"

	"github.com/desertthunder/ecn/internal/shared"
)

type MemberStatus string

const (
	StatusActive   MemberStatus = "Active"
	StatusInactive MemberStatus = "Inactive"
)

type MemberRole string

const (
	RoleMember MemberRole = "member"
	RoleAdmin  MemberRole = "admin"
)

// Member is a committee member record owned by the backend.
type Member struct {
	ID           string       `json:"_id"`
	Name         string       `json:"name"`
	FatherName   string       `json:"fatherName"`
	DOB          string       `json:"dob"`
	Address      string       `json:"address"`
	Phone        string       `json:"phone"`
	Email        string       `json:"email,omitempty"`
	JoiningDate  string       `json:"joiningDate"`
	Status       MemberStatus `json:"status"`
	Role         MemberRole   `json:"role"`
	ProfileImage string       `json:"profileImage,omitempty"`
}

func (m Member) EntityID() string { return m.ID }

// MemberForm is the add/edit payload for a [Member].
type MemberForm struct {
	Name        string       `form:"name" validate:"required"`
	FatherName  string       `form:"fatherName" validate:"required"`
	DOB         string       `form:"dob" validate:"required,datetime=2006-01-02"`
	Address     string       `form:"address" validate:"required"`
	Phone       string       `form:"phone" validate:"required,len=10,number"`
	Email       string       `form:"email" validate:"omitempty,email"`
	JoiningDate string       `form:"joiningDate" validate:"required,datetime=2006-01-02"`
	Status      MemberStatus `form:"status" validate:"required,oneof=Active Inactive"`
	Role        MemberRole   `form:"role" validate:"required,oneof=member admin"`

	// ProfileImage is optional; when set the form is sent as multipart.
	ProfileImage *Attachment `form:"profileImage" validate:"-"`
}

// DefaultMemberForm returns an empty form with status Active and role member.
func DefaultMemberForm() MemberForm {
	return MemberForm{Status: StatusActive, Role: RoleMember}
}

// MemberFormFrom prefills a form from a fetched member, truncating timestamps to dates.
func MemberFormFrom(m Member) MemberForm {
	f := MemberForm{
		Name:        m.Name,
		FatherName:  m.FatherName,
		DOB:         shared.DateOnly(m.DOB),
		Address:     m.Address,
		Phone:       m.Phone,
		Email:       m.Email,
		JoiningDate: shared.DateOnly(m.JoiningDate),
		Status:      m.Status,
		Role:        m.Role,
	}
	if f.Status == "" {
		f.Status = StatusActive
	}
	if f.Role == "" {
		f.Role = RoleMember
	}
	return f
}

func (f MemberForm) Validate() error {
	return validateStruct(f)
}

func (f MemberForm) Values() []Field {
	return []Field{
		{"name", f.Name},
		{"fatherName", f.FatherName},
		{"dob", f.DOB},
		{"address", f.Address},
		{"phone", f.Phone},
		{"email", f.Email},
		{"joiningDate", f.JoiningDate},
		{"status", string(f.Status)},
		{"role", string(f.Role)},
	}
}

func (f MemberForm) Attachments() []Attachment {
	if f.ProfileImage == nil {
		return nil
	}
	a := *f.ProfileImage
	a.Field = "profileImage"
	return []Attachment{a}
}

type memberBody struct {
	Name        string                    `json:"name"`
	FatherName  string                    `json:"fatherName"`
	DOB         string                    `json:"dob"`
	Address     string                    `json:"address"`
	Phone       string                    `json:"phone"`
	Email       nullable.Nullable[string] `json:"email"`
	JoiningDate string                    `json:"joiningDate"`
	Status      MemberStatus              `json:"status"`
	Role        MemberRole                `json:"role"`
}

// Body is the JSON request body; an empty email is sent as null.
func (f MemberForm) Body() any {
	return memberBody{
		Name:        f.Name,
		FatherName:  f.FatherName,
		DOB:         f.DOB,
		Address:     f.Address,
		Phone:       f.Phone,
		Email:       optional(f.Email),
		JoiningDate: f.JoiningDate,
		Status:      f.Status,
		Role:        f.Role,
	}
}

func optional(v string) nullable.Nullable[string] {
	if v == "" {
		return nullable.NewNullNullable[string]()
	}
	return nullable.NewNullableWithValue(v)
}
