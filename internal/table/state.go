// Package table implements the view-side state machine for the employee
// directory: one fetched record set reconciled with ordering, pagination, a
// single inline cell edit and field-level email validation, driven through
// an asynchronous transport.
//
// State is an explicit value; synchronous transitions are pure methods
// returning the successor state. The Machine owns the current State and
// orchestrates the transport calls.
package table

import (
	"sort"

	"github.com/okramsen/staffdir/internal/employee"
)

// Field identifies one of the five editable employee columns. It is a
// closed set; there is no string-keyed field access anywhere in the view.
type Field int

const (
	FieldFirstName Field = iota
	FieldLastName
	FieldPosition
	FieldPhone
	FieldEmail
)

// Fields lists every editable column in display order.
var Fields = []Field{FieldFirstName, FieldLastName, FieldPosition, FieldPhone, FieldEmail}

var fieldNames = [...]string{
	FieldFirstName: "firstName",
	FieldLastName:  "lastName",
	FieldPosition:  "position",
	FieldPhone:     "phone",
	FieldEmail:     "email",
}

func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return "unknown"
	}
	return fieldNames[f]
}

// ParseField maps a wire name onto a Field.
func ParseField(s string) (Field, bool) {
	for _, f := range Fields {
		if fieldNames[f] == s {
			return f, true
		}
	}
	return 0, false
}

// Get returns the field's current value on e.
func (f Field) Get(e employee.Employee) string {
	switch f {
	case FieldFirstName:
		return e.FirstName
	case FieldLastName:
		return e.LastName
	case FieldPosition:
		return e.Position
	case FieldPhone:
		return e.Phone
	case FieldEmail:
		return e.Email
	}
	return ""
}

// Set writes value into the field on e.
func (f Field) Set(e *employee.Employee, value string) {
	switch f {
	case FieldFirstName:
		e.FirstName = value
	case FieldLastName:
		e.LastName = value
	case FieldPosition:
		e.Position = value
	case FieldPhone:
		e.Phone = value
	case FieldEmail:
		e.Email = value
	}
}

// SetFields writes value into the field on a draft.
func (f Field) SetFields(d *employee.Fields, value string) {
	switch f {
	case FieldFirstName:
		d.FirstName = value
	case FieldLastName:
		d.LastName = value
	case FieldPosition:
		d.Position = value
	case FieldPhone:
		d.Phone = value
	case FieldEmail:
		d.Email = value
	}
}

// Patch returns a store patch setting only this field.
func (f Field) Patch(value string) employee.Patch {
	switch f {
	case FieldFirstName:
		return employee.Patch{FirstName: &value}
	case FieldLastName:
		return employee.Patch{LastName: &value}
	case FieldPosition:
		return employee.Patch{Position: &value}
	case FieldPhone:
		return employee.Patch{Phone: &value}
	case FieldEmail:
		return employee.Patch{Email: &value}
	}
	return employee.Patch{}
}

// Direction is a sort order.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// PageSizes are the only page sizes the view offers.
var PageSizes = []int{5, 10, 25}

// Edit is the single cell currently open for inline modification.
type Edit struct {
	RecordID string
	Field    Field
	Value    string
}

// State is the complete view state. Transitions never mutate a State in
// place; they return the successor value, so a held snapshot stays stable.
type State struct {
	// Records mirrors the store's last known list, in insertion order.
	Records []employee.Employee

	SortKey   Field
	SortDir   Direction
	PageIndex int
	PageSize  int

	// Active is the one cell under edit, or nil.
	Active *Edit

	// InvalidRows maps record ids failing email validation to their message.
	InvalidRows map[string]string

	// Busy and Status are set only while a transport call is in flight.
	Busy   bool
	Status string

	// Draft is the in-progress new record, or nil when the form is closed.
	Draft *employee.Fields
	// DraftError is the current validation message for the draft email.
	DraftError string
}

// NewState returns the pre-load view: no records, lastName ascending, first
// page of the smallest page size.
func NewState() State {
	return State{
		SortKey:     FieldLastName,
		SortDir:     Ascending,
		PageSize:    PageSizes[0],
		InvalidRows: map[string]string{},
	}
}

// WithSort toggles the direction when key is already the active sort key,
// otherwise activates key ascending.
func (s State) WithSort(key Field) State {
	if s.SortKey == key {
		if s.SortDir == Ascending {
			s.SortDir = Descending
		} else {
			s.SortDir = Ascending
		}
		return s
	}
	s.SortKey = key
	s.SortDir = Ascending
	return s
}

// WithPage moves to page index i, clamped to the available pages.
func (s State) WithPage(i int) State {
	if i < 0 {
		i = 0
	}
	if max := s.PageCount(); max > 0 && i >= max {
		i = max - 1
	}
	s.PageIndex = i
	return s
}

// WithPageSize switches to one of PageSizes and resets to the first page.
// Unknown sizes leave the state unchanged.
func (s State) WithPageSize(n int) State {
	valid := false
	for _, v := range PageSizes {
		if v == n {
			valid = true
			break
		}
	}
	if !valid {
		return s
	}
	s.PageSize = n
	s.PageIndex = 0
	return s
}

// PageCount returns the number of pages over the full record set.
func (s State) PageCount() int {
	if len(s.Records) == 0 || s.PageSize <= 0 {
		return 0
	}
	return (len(s.Records) + s.PageSize - 1) / s.PageSize
}

// Sorted returns a sorted copy of the full record set. Equal keys keep
// their insertion order. The underlying records are never reordered.
func (s State) Sorted() []employee.Employee {
	out := make([]employee.Employee, len(s.Records))
	copy(out, s.Records)

	key, dir := s.SortKey, s.SortDir
	sort.SliceStable(out, func(i, j int) bool {
		a, b := key.Get(out[i]), key.Get(out[j])
		if dir == Descending {
			return a > b
		}
		return a < b
	})
	return out
}

// VisibleRows returns the current page of the current ordering. The page
// window is always cut from the full sorted set, never from a pre-cut
// slice.
func (s State) VisibleRows() []employee.Employee {
	rows := s.Sorted()

	start := s.PageIndex * s.PageSize
	if start >= len(rows) {
		return nil
	}
	end := start + s.PageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// RowInvalid reports whether the record id is currently failing validation,
// with its message. Rendering layers use this for row highlighting.
func (s State) RowInvalid(id string) (string, bool) {
	msg, ok := s.InvalidRows[id]
	return msg, ok
}
