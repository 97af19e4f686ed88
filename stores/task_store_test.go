package stores

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateDueDateSkipsWeekends(t *testing.T) {
	s := NewTaskStore(time.UTC)

	cases := map[string]string{
		"2025-01-06": "2025-01-13", // Monday
		"2025-01-08": "2025-01-15", // Wednesday
		"2025-01-10": "2025-01-17", // Friday
		"2025-01-11": "2025-01-17", // Saturday
	}
	for start, want := range cases {
		got, err := s.CalculateDueDate(start)
		require.NoError(t, err, start)
		assert.Equal(t, want, got, start)
	}

	_, err := s.CalculateDueDate("06/01/2025")
	assert.Error(t, err)
}

func TestValidateDueDateBoundaries(t *testing.T) {
	s := NewTaskStore(time.UTC)
	const start = "2025-01-06"

	// start+1 business day is 2025-01-07 and start+30 is 2025-02-17.
	assert.False(t, s.ValidateDueDate("2025-01-07", start), "lower bound is exclusive")
	assert.True(t, s.ValidateDueDate("2025-01-08", start))
	assert.True(t, s.ValidateDueDate("2025-01-13", start))
	assert.True(t, s.ValidateDueDate("2025-02-14", start))
	assert.False(t, s.ValidateDueDate("2025-02-17", start), "upper bound is exclusive")
	assert.False(t, s.ValidateDueDate("2025-01-06", start))
	assert.False(t, s.ValidateDueDate("garbage", start))
}

func TestAddTaskComputesDueDateAndID(t *testing.T) {
	s := NewTaskStore(time.UTC)
	require.Len(t, s.Tasks(), 4)

	task, err := s.AddTask(TaskInput{
		Title:      "Security training",
		Department: DepartmentIT,
		Priority:   PriorityMedium,
		StartDate:  "2025-01-06",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, task.ID)
	assert.Equal(t, "2025-01-13", task.DueDate)
	assert.Equal(t, []string{}, task.Tags)

	require.True(t, s.DeleteTask(2))
	next, err := s.AddTask(TaskInput{Title: "No start", Department: DepartmentHR, Priority: PriorityLow})
	require.NoError(t, err)
	assert.Equal(t, 6, next.ID)
	assert.Empty(t, next.DueDate)
}

func TestUpdateTaskRejectsInvalidDueDate(t *testing.T) {
	s := NewTaskStore(time.UTC)
	task, err := s.AddTask(TaskInput{Title: "t", Department: DepartmentHR, Priority: PriorityHigh, StartDate: "2025-01-06"})
	require.NoError(t, err)

	tooSoon := "2025-01-07"
	title := "changed"
	_, err = s.UpdateTask(task.ID, TaskPatch{DueDate: &tooSoon, Title: &title})
	require.ErrorIs(t, err, ErrInvalidDueDate)

	got, _ := s.Task(task.ID)
	assert.Equal(t, "2025-01-13", got.DueDate)
	assert.Equal(t, "t", got.Title, "nothing is written when the due date is rejected")

	ok := "2025-01-08"
	got, err = s.UpdateTask(task.ID, TaskPatch{DueDate: &ok, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-08", got.DueDate)
	assert.Equal(t, "changed", got.Title)

	// The patched start date is the one the due date is checked against.
	start := "2025-01-20"
	_, err = s.UpdateTask(task.ID, TaskPatch{DueDate: &ok, StartDate: &start})
	require.ErrorIs(t, err, ErrInvalidDueDate)

	_, err = s.UpdateTask(999, TaskPatch{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestToggleTaskCompletion(t *testing.T) {
	s := NewTaskStore(time.UTC)

	task, ok := s.ToggleTaskCompletion(1)
	require.True(t, ok)
	assert.True(t, task.Completed)
	task, _ = s.ToggleTaskCompletion(1)
	assert.False(t, task.Completed)

	_, ok = s.ToggleTaskCompletion(42)
	assert.False(t, ok)
}
