package stores

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmployeeStore() *EmployeeStore {
	s := NewEmployeeStore(time.UTC)
	s.now = func() time.Time { return fixedNow }
	return s
}

func validEmployee() EmployeeInput {
	return EmployeeInput{
		FullName:        "Sam Rivera",
		StartDate:       "2025-01-13",
		Position:        "Engineer",
		Department:      "IT",
		WorkArrangement: Hybrid,
		Supervisor:      Supervisor{ID: "sup-1", Name: "Alex Kim", Email: "alex@example.com", Department: "IT"},
		Contact:         Contact{Email: "sam@example.com", Phone: "555-0100"},
		Priority:        PriorityMedium,
	}
}

func TestAddEmployeeCollectsAllProblems(t *testing.T) {
	s := newTestEmployeeStore()

	_, err := s.AddEmployee(EmployeeInput{
		StartDate:       "2023-06-01",
		WorkArrangement: "moon",
		Supervisor:      Supervisor{Email: "not-an-email"},
		Contact:         Contact{Email: "sam@example.com"},
	}, "hr")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{
		"Full name is required",
		"Start date cannot be more than 1 year in the past",
		"Position/role is required",
		"Department is required",
		"Work arrangement must be remote, onsite or hybrid",
		"Supervisor name is required",
		"Supervisor email must be valid",
		"Phone number is required",
	}, verr.Problems)
	assert.Empty(t, s.Employees())
	assert.Empty(t, s.AuditLogs(""))
}

func TestAddEmployeeLogsCreation(t *testing.T) {
	s := newTestEmployeeStore()

	e, err := s.AddEmployee(validEmployee(), "hr@example.com")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, e.Status)
	assert.Equal(t, PhasePreBoarding, e.OnboardingProgress.CurrentPhase)
	assert.Equal(t, "hr@example.com", e.CreatedBy)

	logs := s.AuditLogs(e.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, AuditCreated, logs[0].Action)
	assert.Equal(t, "employee", logs[0].Changes[0].Field)
}

func TestUpdateEmployeeRecordsOnlyRealChanges(t *testing.T) {
	s := newTestEmployeeStore()
	e, err := s.AddEmployee(validEmployee(), "hr")
	require.NoError(t, err)

	samePosition := "Engineer"
	newDept := "Platform"
	updated, err := s.UpdateEmployee(e.ID, EmployeePatch{Position: &samePosition, Department: &newDept}, "lead", "reorg")
	require.NoError(t, err)
	assert.Equal(t, "Platform", updated.Department)
	assert.Equal(t, "lead", updated.LastModifiedBy)

	logs := s.AuditLogs(e.ID)
	require.Len(t, logs, 2)
	assert.Equal(t, AuditUpdated, logs[1].Action)
	assert.Equal(t, "reorg", logs[1].Reason)
	assert.Equal(t, []FieldChange{{Field: "department", OldValue: "IT", NewValue: "Platform"}}, logs[1].Changes)

	empty := ""
	_, err = s.UpdateEmployee(e.ID, EmployeePatch{FullName: &empty}, "lead", "")
	require.EqualError(t, err, "Full name is required")
	got, _ := s.Employee(e.ID)
	assert.Equal(t, "Sam Rivera", got.FullName)

	_, err = s.UpdateEmployee("missing", EmployeePatch{}, "lead", "")
	require.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestArchiveRestoreAndHardDelete(t *testing.T) {
	s := newTestEmployeeStore()
	e, err := s.AddEmployee(validEmployee(), "hr")
	require.NoError(t, err)

	require.ErrorIs(t, s.RestoreEmployee(e.ID, "hr"), ErrNotArchived)

	require.NoError(t, s.DeleteEmployee(e.ID, "hr", "left", true))
	got, ok := s.Employee(e.ID)
	require.True(t, ok)
	assert.Equal(t, StatusArchived, got.Status)
	assert.Empty(t, s.ByDepartment("IT"))
	assert.Empty(t, s.BySupervisor("sup-1"))
	assert.Empty(t, s.Search("sam"))

	require.NoError(t, s.RestoreEmployee(e.ID, "hr"))
	assert.Len(t, s.Search("SAM"), 1)

	require.NoError(t, s.DeleteEmployee(e.ID, "hr", "", false))
	_, ok = s.Employee(e.ID)
	assert.False(t, ok)

	logs := s.AuditLogs(e.ID)
	var actions []AuditAction
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.Equal(t, []AuditAction{AuditCreated, AuditArchived, AuditRestored, AuditDeleted}, actions)

	require.ErrorIs(t, s.DeleteEmployee(e.ID, "hr", "", false), ErrEmployeeNotFound)
}

func TestSearchMatchesSupervisorAndEmail(t *testing.T) {
	s := newTestEmployeeStore()
	_, err := s.AddEmployee(validEmployee(), "hr")
	require.NoError(t, err)

	assert.Len(t, s.Search("alex"), 1)
	assert.Len(t, s.Search("sam@example"), 1)
	assert.Empty(t, s.Search("nobody"))
}

func TestLongTenuredEmployeeStaysEditable(t *testing.T) {
	s := newTestEmployeeStore()
	e, err := s.AddEmployee(validEmployee(), "hr")
	require.NoError(t, err)

	s.now = func() time.Time { return fixedNow.AddDate(2, 0, 0) }

	notes := "Moved to the platform team"
	updated, err := s.UpdateEmployee(e.ID, EmployeePatch{Notes: &notes}, "hr", "")
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)

	oldStart := "2024-01-02"
	_, err = s.UpdateEmployee(e.ID, EmployeePatch{StartDate: &oldStart}, "hr", "")
	require.EqualError(t, err, "Start date cannot be more than 1 year in the past")
}
