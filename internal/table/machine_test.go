package table_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/okramsen/staffdir/internal/client"
	"github.com/okramsen/staffdir/internal/employee"
	"github.com/okramsen/staffdir/internal/table"
)

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Create(ctx context.Context, f employee.Fields) (employee.Employee, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(employee.Employee), args.Error(1)
}

func (m *mockTransport) List(ctx context.Context) ([]employee.Employee, error) {
	args := m.Called(ctx)
	var list []employee.Employee
	if v := args.Get(0); v != nil {
		list = v.([]employee.Employee)
	}
	return list, args.Error(1)
}

func (m *mockTransport) Update(ctx context.Context, id string, p employee.Patch) (employee.Employee, error) {
	args := m.Called(ctx, id, p)
	return args.Get(0).(employee.Employee), args.Error(1)
}

func (m *mockTransport) DeleteAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func directory() []employee.Employee {
	return []employee.Employee{
		record("z1", "Zed", "zed@example.com"),
		record("a2", "Ann", "ann@example.com"),
		record("m3", "Mel", "mel@example.com"),
	}
}

// loadedMachine returns a machine whose initial load already happened.
func loadedMachine(t *testing.T, records []employee.Employee, opts ...table.Option) (*table.Machine, *mockTransport) {
	t.Helper()

	tr := &mockTransport{}
	tr.On("List", mock.Anything).Return(records, nil).Once()

	m := table.New(tr, opts...)
	require.NoError(t, m.Load(context.Background()))
	return m, tr
}

func TestMachine_Load(t *testing.T) {
	m, tr := loadedMachine(t, directory())

	st := m.State()
	assert.Len(t, st.Records, 3)
	assert.False(t, st.Busy)
	assert.Empty(t, st.Status)

	// Initial ordering is lastName ascending.
	rows := st.VisibleRows()
	assert.Equal(t, "Ann", rows[0].LastName)
	assert.Equal(t, "Zed", rows[2].LastName)

	tr.AssertExpectations(t)
}

func TestMachine_LoadFailure(t *testing.T) {
	tr := &mockTransport{}
	tr.On("List", mock.Anything).Return(nil, errors.New("connection refused"))

	m := table.New(tr)
	err := m.Load(context.Background())
	require.Error(t, err)

	st := m.State()
	assert.Empty(t, st.Records, "records stay empty on a failed load")
	assert.False(t, st.Busy, "busy is cleared on failure")
}

func TestMachine_RejectsOverlappingOperations(t *testing.T) {
	tr := &mockTransport{}
	m := table.New(tr)

	tr.On("List", mock.Anything).Run(func(mock.Arguments) {
		// While the load is in flight the machine is held: the status is
		// visible and a second async trigger is rejected, not raced.
		st := m.State()
		assert.True(t, st.Busy)
		assert.Equal(t, table.StatusLoading, st.Status)

		err := m.DeleteAll(context.Background())
		assert.ErrorIs(t, err, table.ErrOperationInFlight)
	}).Return([]employee.Employee{}, nil)

	require.NoError(t, m.Load(context.Background()))
	tr.AssertNotCalled(t, "DeleteAll", mock.Anything)
}

func TestMachine_StartEditUnknownRecord(t *testing.T) {
	m, _ := loadedMachine(t, directory())

	assert.False(t, m.StartEdit("missing", table.FieldPhone))
	assert.Nil(t, m.State().Active)
}

func TestMachine_StartEditSeedsCurrentValue(t *testing.T) {
	m, _ := loadedMachine(t, directory())

	require.True(t, m.StartEdit("a2", table.FieldEmail))

	active := m.State().Active
	require.NotNil(t, active)
	assert.Equal(t, "a2", active.RecordID)
	assert.Equal(t, table.FieldEmail, active.Field)
	assert.Equal(t, "ann@example.com", active.Value)
}

func TestMachine_StartEditAbandonsPriorEdit(t *testing.T) {
	m, _ := loadedMachine(t, directory())

	require.True(t, m.StartEdit("a2", table.FieldPhone))
	m.EditValue("555-0199")

	// Clicking another cell silently drops the unsaved change.
	require.True(t, m.StartEdit("m3", table.FieldPosition))

	active := m.State().Active
	assert.Equal(t, "m3", active.RecordID)
	assert.Equal(t, "Engineer", active.Value)
}

func TestMachine_EmailFormatValidation(t *testing.T) {
	m, tr := loadedMachine(t, directory())

	require.True(t, m.StartEdit("a2", table.FieldEmail))
	m.EditValue("not-an-email")

	msg, bad := m.State().RowInvalid("a2")
	require.True(t, bad)
	assert.Equal(t, table.MsgInvalidEmail, msg)

	// Commit is a hard gate: the save is aborted, the cell stays open and
	// no transport call is issued.
	err := m.CommitEdit(context.Background())
	require.ErrorIs(t, err, table.ErrInvalidEmail)
	assert.NotNil(t, m.State().Active)
	tr.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)

	// The record itself is untouched.
	for _, e := range m.State().Records {
		if e.ID == "a2" {
			assert.Equal(t, "ann@example.com", e.Email)
		}
	}
}

func TestMachine_EmailDuplicateValidation(t *testing.T) {
	m, tr := loadedMachine(t, directory())

	require.True(t, m.StartEdit("a2", table.FieldEmail))
	m.EditValue("zed@example.com")

	msg, bad := m.State().RowInvalid("a2")
	require.True(t, bad)
	assert.Equal(t, table.MsgDuplicateEmail, msg)

	err := m.CommitEdit(context.Background())
	require.ErrorIs(t, err, table.ErrDuplicateEmail)
	tr.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestMachine_EmailValidationRecovers(t *testing.T) {
	m, _ := loadedMachine(t, directory())

	require.True(t, m.StartEdit("a2", table.FieldEmail))
	m.EditValue("broken")
	_, bad := m.State().RowInvalid("a2")
	require.True(t, bad)

	m.EditValue("fixed@example.com")
	_, bad = m.State().RowInvalid("a2")
	assert.False(t, bad)
}

func TestMachine_SelfComparisonDefault(t *testing.T) {
	m, _ := loadedMachine(t, directory())

	// Retyping the row's own address compares against every record, the
	// edited one included, so it flags as a duplicate.
	require.True(t, m.StartEdit("a2", table.FieldEmail))
	m.EditValue("ann@example.com")

	msg, bad := m.State().RowInvalid("a2")
	require.True(t, bad)
	assert.Equal(t, table.MsgDuplicateEmail, msg)
}

func TestMachine_SelfComparisonExcluded(t *testing.T) {
	m, _ := loadedMachine(t, directory(), table.WithSelfExclusion())

	require.True(t, m.StartEdit("a2", table.FieldEmail))
	m.EditValue("ann@example.com")

	_, bad := m.State().RowInvalid("a2")
	assert.False(t, bad)

	// Another record's address is still a duplicate.
	m.EditValue("mel@example.com")
	_, bad = m.State().RowInvalid("a2")
	assert.True(t, bad)
}

func TestMachine_CommitEdit(t *testing.T) {
	m, tr := loadedMachine(t, directory())

	require.True(t, m.StartEdit("a2", table.FieldPosition))
	m.EditValue("Manager")

	updated := record("a2", "Ann", "ann@example.com")
	updated.Position = "Manager"
	tr.On("Update", mock.Anything, "a2",
		mock.MatchedBy(func(p employee.Patch) bool {
			return p.Position != nil && *p.Position == "Manager" && p.Email == nil
		}),
	).Return(updated, nil).Once()

	require.NoError(t, m.CommitEdit(context.Background()))

	st := m.State()
	assert.Nil(t, st.Active)
	assert.False(t, st.Busy)
	for _, e := range st.Records {
		if e.ID == "a2" {
			assert.Equal(t, "Manager", e.Position)
		}
	}
	tr.AssertExpectations(t)
}

func TestMachine_CommitEditNoActiveEdit(t *testing.T) {
	m, tr := loadedMachine(t, directory())

	require.NoError(t, m.CommitEdit(context.Background()))
	tr.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestMachine_CommitEditTransportFailure(t *testing.T) {
	m, tr := loadedMachine(t, directory())

	require.True(t, m.StartEdit("a2", table.FieldPhone))
	m.EditValue("555-0199")

	tr.On("Update", mock.Anything, "a2", mock.Anything).
		Return(employee.Employee{}, errors.New("connection reset")).Once()

	err := m.CommitEdit(context.Background())
	require.Error(t, err)

	// The edit survives for a retry, pending value intact, busy cleared.
	st := m.State()
	require.NotNil(t, st.Active)
	assert.Equal(t, "555-0199", st.Active.Value)
	assert.False(t, st.Busy)

	// The local record was not speculatively updated.
	for _, e := range st.Records {
		if e.ID == "a2" {
			assert.Equal(t, "555-0100", e.Phone)
		}
	}
}

func TestMachine_CommitEditNotFound(t *testing.T) {
	m, tr := loadedMachine(t, directory())

	require.True(t, m.StartEdit("a2", table.FieldPhone))
	m.EditValue("555-0199")

	tr.On("Update", mock.Anything, "a2", mock.Anything).
		Return(employee.Employee{}, client.ErrNotFound).Once()

	err := m.CommitEdit(context.Background())
	require.ErrorIs(t, err, client.ErrNotFound)

	// The stale row is not removed automatically.
	assert.Len(t, m.State().Records, 3)
}

func TestMachine_CancelEdit(t *testing.T) {
	m, tr := loadedMachine(t, directory())

	require.True(t, m.StartEdit("a2", table.FieldEmail))
	m.EditValue("broken")
	_, bad := m.State().RowInvalid("a2")
	require.True(t, bad)

	m.CancelEdit()

	st := m.State()
	assert.Nil(t, st.Active)
	_, bad = st.RowInvalid("a2")
	assert.False(t, bad, "cancel clears the row's validation marker")
	tr.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestMachine_SubmitDraftEmptyField(t *testing.T) {
	m, tr := loadedMachine(t, directory())

	m.OpenDraft()
	m.SetDraftField(table.FieldFirstName, "New")
	m.SetDraftField(table.FieldLastName, "Hire")
	m.SetDraftField(table.FieldEmail, "new@example.com")

	err := m.SubmitDraft(context.Background())
	require.ErrorIs(t, err, table.ErrEmptyField)
	assert.NotNil(t, m.State().Draft, "the form stays open")
	tr.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMachine_SubmitDraftEmailGate(t *testing.T) {
	m, tr := loadedMachine(t, directory())

	m.OpenDraft()
	m.SetDraftField(table.FieldFirstName, "New")
	m.SetDraftField(table.FieldLastName, "Hire")
	m.SetDraftField(table.FieldPosition, "Engineer")
	m.SetDraftField(table.FieldPhone, "555-0101")

	m.SetDraftField(table.FieldEmail, "broken")
	assert.Equal(t, table.MsgInvalidEmail, m.State().DraftError)
	err := m.SubmitDraft(context.Background())
	require.ErrorIs(t, err, table.ErrInvalidEmail)

	m.SetDraftField(table.FieldEmail, "ann@example.com")
	assert.Equal(t, table.MsgDuplicateEmail, m.State().DraftError)
	err = m.SubmitDraft(context.Background())
	require.ErrorIs(t, err, table.ErrDuplicateEmail)

	tr.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMachine_SubmitDraft(t *testing.T) {
	m, tr := loadedMachine(t, directory())

	m.OpenDraft()
	m.SetDraftField(table.FieldFirstName, "New")
	m.SetDraftField(table.FieldLastName, "Hire")
	m.SetDraftField(table.FieldPosition, "Engineer")
	m.SetDraftField(table.FieldPhone, "555-0101")
	m.SetDraftField(table.FieldEmail, "new@example.com")
	assert.Empty(t, m.State().DraftError)

	created := record("fresh-id", "Hire", "new@example.com")
	created.FirstName = "New"
	created.Phone = "555-0101"
	tr.On("Create", mock.Anything, mock.MatchedBy(func(f employee.Fields) bool {
		return f.LastName == "Hire" && f.Email == "new@example.com"
	})).Return(created, nil).Once()

	require.NoError(t, m.SubmitDraft(context.Background()))

	st := m.State()
	assert.Nil(t, st.Draft, "the form closes on success")
	require.Len(t, st.Records, 4)
	assert.Equal(t, "fresh-id", st.Records[3].ID, "the appended record carries the server-assigned id")
	tr.AssertExpectations(t)
}

func TestMachine_SubmitDraftTransportFailure(t *testing.T) {
	m, tr := loadedMachine(t, directory())

	m.OpenDraft()
	m.SetDraftField(table.FieldFirstName, "New")
	m.SetDraftField(table.FieldLastName, "Hire")
	m.SetDraftField(table.FieldPosition, "Engineer")
	m.SetDraftField(table.FieldPhone, "555-0101")
	m.SetDraftField(table.FieldEmail, "new@example.com")

	tr.On("Create", mock.Anything, mock.Anything).
		Return(employee.Employee{}, errors.New("timeout")).Once()

	err := m.SubmitDraft(context.Background())
	require.Error(t, err)

	// The form stays open with the user's input intact.
	st := m.State()
	require.NotNil(t, st.Draft)
	assert.Equal(t, "new@example.com", st.Draft.Email)
	assert.Len(t, st.Records, 3)
	assert.False(t, st.Busy)
}

func TestMachine_DeleteAll(t *testing.T) {
	m, tr := loadedMachine(t, directory())
	m.SetPage(1)

	tr.On("DeleteAll", mock.Anything).Return(nil).Once()

	require.NoError(t, m.DeleteAll(context.Background()))

	st := m.State()
	assert.Empty(t, st.Records)
	assert.Equal(t, 0, st.PageIndex)
	assert.Equal(t, 0, st.PageCount())
	tr.AssertExpectations(t)
}

func TestMachine_DeleteAllFailureKeepsRecords(t *testing.T) {
	m, tr := loadedMachine(t, directory())

	tr.On("DeleteAll", mock.Anything).Return(errors.New("connection reset")).Once()

	err := m.DeleteAll(context.Background())
	require.Error(t, err)
	assert.Len(t, m.State().Records, 3, "records untouched on failure")
	assert.False(t, m.State().Busy)
}

func TestMachine_DeleteAllNothingToDelete(t *testing.T) {
	tr := &mockTransport{}
	tr.On("List", mock.Anything).Return([]employee.Employee{}, nil).Once()
	tr.On("DeleteAll", mock.Anything).Return(client.ErrNothingToDelete).Once()

	m := table.New(tr)
	require.NoError(t, m.Load(context.Background()))

	err := m.DeleteAll(context.Background())
	require.ErrorIs(t, err, client.ErrNothingToDelete)
}
