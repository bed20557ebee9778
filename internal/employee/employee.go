// Package employee provides the directory's record type and the in-process
// store that owns the authoritative record set.
// This package has no transport or UI dependencies and can be used by any
// frontend.
package employee

import "regexp"

// Employee is a single directory entry. The ID is assigned by the store on
// creation and never changes afterwards.
type Employee struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Position  string `json:"position"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// Fields carries every employee attribute except the id. It is the payload
// for creating a record.
type Fields struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Position  string `json:"position"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// Complete reports whether every field has a value.
func (f Fields) Complete() bool {
	return f.FirstName != "" && f.LastName != "" && f.Position != "" &&
		f.Phone != "" && f.Email != ""
}

// Patch is a partial update. Nil fields are left untouched. The id cannot be
// changed through a patch.
type Patch struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Position  *string `json:"position,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// Apply merges the patch onto e.
func (p Patch) Apply(e *Employee) {
	if p.FirstName != nil {
		e.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		e.LastName = *p.LastName
	}
	if p.Position != nil {
		e.Position = *p.Position
	}
	if p.Phone != nil {
		e.Phone = *p.Phone
	}
	if p.Email != nil {
		e.Email = *p.Email
	}
}

// emailPattern accepts the basic local@domain.tld shape: no whitespace or
// extra @ on either side, at least one dot in the domain.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}
