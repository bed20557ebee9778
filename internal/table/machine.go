package table

import (
	"context"
	"errors"
	"fmt"

	"github.com/okramsen/staffdir/internal/client"
	"github.com/okramsen/staffdir/internal/employee"
)

// Validation messages shown on the offending row or draft.
const (
	MsgInvalidEmail   = "Invalid email address"
	MsgDuplicateEmail = "Email address already exists"
	MsgFillAllFields  = "Please fill in all fields"
)

// Status messages displayed while a transport call is in flight.
const (
	StatusLoading  = "Loading employees..."
	StatusSaving   = "Saving changes..."
	StatusAdding   = "Adding new employee..."
	StatusDeleting = "Deleting all employees..."
)

var (
	// ErrOperationInFlight rejects an async transition while another one
	// holds the machine. Overlapping triggers fail instead of racing.
	ErrOperationInFlight = errors.New("operation already in progress")
	// ErrInvalidEmail blocks committing an email edit that is failing the
	// format check. Fix-before-save is a hard gate, not a warning.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrDuplicateEmail blocks committing an email already used by another
	// record.
	ErrDuplicateEmail = errors.New("email address already exists")
	// ErrEmptyField blocks submitting a draft with any empty field.
	ErrEmptyField = errors.New("all fields are required")
)

// Transport performs the remote record operations. *client.Client satisfies
// it; tests substitute a mock.
type Transport interface {
	Create(ctx context.Context, f employee.Fields) (employee.Employee, error)
	List(ctx context.Context) ([]employee.Employee, error)
	Update(ctx context.Context, id string, p employee.Patch) (employee.Employee, error)
	DeleteAll(ctx context.Context) error
}

var _ Transport = (*client.Client)(nil)

// Machine owns the view state and reconciles transport results back into
// it. It is meant to be driven from a single goroutine; overlapping async
// operations are rejected with ErrOperationInFlight rather than serialized.
type Machine struct {
	transport   Transport
	state       State
	excludeSelf bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithSelfExclusion makes the duplicate-email check skip the record being
// edited, so retyping a row's own address is not flagged as a duplicate.
// The default compares the candidate against every record, the edited one
// included.
func WithSelfExclusion() Option {
	return func(m *Machine) { m.excludeSelf = true }
}

// New creates a Machine in its pre-load state.
func New(t Transport, opts ...Option) *Machine {
	m := &Machine{transport: t, state: NewState()}
	for _, o := range opts {
		o(m)
	}
	return m
}

// State returns a snapshot of the current view state.
func (m *Machine) State() State {
	return m.state
}

// begin acquires the in-flight token and sets the status message.
func (m *Machine) begin(status string) error {
	if m.state.Busy {
		return ErrOperationInFlight
	}
	m.state.Busy = true
	m.state.Status = status
	return nil
}

// end releases the in-flight token.
func (m *Machine) end() {
	m.state.Busy = false
	m.state.Status = ""
}

// Load fetches the full record set. On failure the records stay empty and
// the error is returned for the caller to surface.
func (m *Machine) Load(ctx context.Context) error {
	if err := m.begin(StatusLoading); err != nil {
		return err
	}
	defer m.end()

	records, err := m.transport.List(ctx)
	if err != nil {
		return fmt.Errorf("load employees: %w", err)
	}

	m.state.Records = records
	return nil
}

// SortBy activates the column, toggling direction when it already is.
func (m *Machine) SortBy(f Field) {
	m.state = m.state.WithSort(f)
}

// SetPage moves to the given page of the current ordering.
func (m *Machine) SetPage(i int) {
	m.state = m.state.WithPage(i)
}

// SetPageSize switches the page size and returns to the first page.
func (m *Machine) SetPageSize(n int) {
	m.state = m.state.WithPageSize(n)
}

// StartEdit opens the cell for the given record and field, silently
// abandoning any prior edit. It reports whether the record exists.
func (m *Machine) StartEdit(id string, f Field) bool {
	for _, e := range m.state.Records {
		if e.ID == id {
			m.state.Active = &Edit{RecordID: id, Field: f, Value: f.Get(e)}
			return true
		}
	}
	return false
}

// EditValue replaces the pending value of the active edit. Email edits are
// re-validated on every change.
func (m *Machine) EditValue(v string) {
	if m.state.Active == nil {
		return
	}

	edit := *m.state.Active
	edit.Value = v
	m.state.Active = &edit

	if edit.Field != FieldEmail {
		return
	}

	switch {
	case !employee.ValidEmail(v):
		m.markInvalid(edit.RecordID, MsgInvalidEmail)
	case m.emailTaken(v, edit.RecordID):
		m.markInvalid(edit.RecordID, MsgDuplicateEmail)
	default:
		m.clearInvalid(edit.RecordID)
	}
}

// CommitEdit saves the active edit through the transport. With no active
// edit it is a no-op. Committing an email that is failing validation aborts
// the save and keeps the cell open. A transport failure also keeps the edit
// for a retry; the pending value is never rolled back.
func (m *Machine) CommitEdit(ctx context.Context) error {
	edit := m.state.Active
	if edit == nil {
		return nil
	}

	if edit.Field == FieldEmail {
		if msg, bad := m.state.InvalidRows[edit.RecordID]; bad {
			if msg == MsgDuplicateEmail {
				return ErrDuplicateEmail
			}
			return ErrInvalidEmail
		}
	}

	if err := m.begin(StatusSaving); err != nil {
		return err
	}
	defer m.end()

	if _, err := m.transport.Update(ctx, edit.RecordID, edit.Field.Patch(edit.Value)); err != nil {
		return fmt.Errorf("save %s: %w", edit.Field, err)
	}

	records := make([]employee.Employee, len(m.state.Records))
	copy(records, m.state.Records)
	for i := range records {
		if records[i].ID == edit.RecordID {
			edit.Field.Set(&records[i], edit.Value)
			break
		}
	}
	m.state.Records = records
	m.state.Active = nil
	m.clearInvalid(edit.RecordID)
	return nil
}

// CancelEdit discards the active edit and its pending value without any
// network call, clearing the row's validation marker.
func (m *Machine) CancelEdit() {
	if m.state.Active == nil {
		return
	}
	m.clearInvalid(m.state.Active.RecordID)
	m.state.Active = nil
}

// OpenDraft opens the add-record form with every field empty.
func (m *Machine) OpenDraft() {
	m.state.Draft = &employee.Fields{}
	m.state.DraftError = ""
}

// CloseDraft discards the draft and its input.
func (m *Machine) CloseDraft() {
	m.state.Draft = nil
	m.state.DraftError = ""
}

// SetDraftField updates one draft field. The email field is validated on
// every change, mirroring inline editing.
func (m *Machine) SetDraftField(f Field, v string) {
	if m.state.Draft == nil {
		return
	}

	draft := *m.state.Draft
	f.SetFields(&draft, v)
	m.state.Draft = &draft

	if f != FieldEmail {
		return
	}

	switch {
	case !employee.ValidEmail(v):
		m.state.DraftError = MsgInvalidEmail
	case m.emailTaken(v, ""):
		m.state.DraftError = MsgDuplicateEmail
	default:
		m.state.DraftError = ""
	}
}

// SubmitDraft validates and creates the drafted record. On success the new
// record, carrying its server-assigned id, is appended and the form closes.
// On transport failure the draft is kept intact for a retry.
func (m *Machine) SubmitDraft(ctx context.Context) error {
	draft := m.state.Draft
	if draft == nil {
		return nil
	}

	if !draft.Complete() {
		return ErrEmptyField
	}
	switch {
	case !employee.ValidEmail(draft.Email):
		m.state.DraftError = MsgInvalidEmail
		return ErrInvalidEmail
	case m.emailTaken(draft.Email, ""):
		m.state.DraftError = MsgDuplicateEmail
		return ErrDuplicateEmail
	}

	if err := m.begin(StatusAdding); err != nil {
		return err
	}
	defer m.end()

	created, err := m.transport.Create(ctx, *draft)
	if err != nil {
		return fmt.Errorf("add employee: %w", err)
	}

	records := make([]employee.Employee, len(m.state.Records), len(m.state.Records)+1)
	copy(records, m.state.Records)
	m.state.Records = append(records, created)
	m.state.Draft = nil
	m.state.DraftError = ""
	return nil
}

// DeleteAll wipes the directory. Records are cleared only on success; any
// failure, including the distinct nothing-to-delete outcome, leaves the
// view unchanged for the caller to report.
func (m *Machine) DeleteAll(ctx context.Context) error {
	if err := m.begin(StatusDeleting); err != nil {
		return err
	}
	defer m.end()

	if err := m.transport.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete all employees: %w", err)
	}

	m.state.Records = nil
	m.state.PageIndex = 0
	m.state.Active = nil
	m.state.InvalidRows = map[string]string{}
	return nil
}

// markInvalid records a validation failure for the row. The map is copied
// so held State snapshots stay stable.
func (m *Machine) markInvalid(id, msg string) {
	rows := make(map[string]string, len(m.state.InvalidRows)+1)
	for k, v := range m.state.InvalidRows {
		rows[k] = v
	}
	rows[id] = msg
	m.state.InvalidRows = rows
}

// clearInvalid removes the row's validation marker, if any.
func (m *Machine) clearInvalid(id string) {
	if _, ok := m.state.InvalidRows[id]; !ok {
		return
	}
	rows := make(map[string]string, len(m.state.InvalidRows)-1)
	for k, v := range m.state.InvalidRows {
		if k != id {
			rows[k] = v
		}
	}
	m.state.InvalidRows = rows
}

// emailTaken reports whether candidate matches an existing record's email.
// editingID identifies the row under edit; it is skipped only when the
// machine was built with WithSelfExclusion.
func (m *Machine) emailTaken(candidate, editingID string) bool {
	for _, e := range m.state.Records {
		if m.excludeSelf && editingID != "" && e.ID == editingID {
			continue
		}
		if e.Email == candidate {
			return true
		}
	}
	return false
}
