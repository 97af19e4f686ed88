package stores

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultTaskDuration = 5
	MinTaskDuration     = 1
	MaxTaskDuration     = 30
)

type Department string

const (
	DepartmentHR      Department = "HR"
	DepartmentIT      Department = "IT"
	DepartmentManager Department = "Manager"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Tags        []string   `json:"tags"`
	DueDate     string     `json:"due_date"`
	Completed   bool       `json:"completed"`
	Description string     `json:"description"`
	Notes       string     `json:"notes,omitempty"`
	Link        string     `json:"link,omitempty"`
	Department  Department `json:"department"`
	Priority    Priority   `json:"priority"`
	StartDate   string     `json:"start_date"`
	CreatedAt   time.Time  `json:"created_at"`
}

type TaskInput struct {
	Title       string     `json:"title" validate:"required"`
	Tags        []string   `json:"tags"`
	Description string     `json:"description"`
	Notes       string     `json:"notes"`
	Link        string     `json:"link" validate:"omitempty,url"`
	Department  Department `json:"department" validate:"required,oneof=HR IT Manager"`
	Priority    Priority   `json:"priority" validate:"required,oneof=high medium low"`
	StartDate   string     `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

type TaskPatch struct {
	Title       *string     `json:"title"`
	Tags        *[]string   `json:"tags"`
	DueDate     *string     `json:"due_date"`
	Completed   *bool       `json:"completed"`
	Description *string     `json:"description"`
	Notes       *string     `json:"notes"`
	Link        *string     `json:"link"`
	Department  *Department `json:"department"`
	Priority    *Priority   `json:"priority"`
	StartDate   *string     `json:"start_date"`
}

var initialTasks = []TaskInput{
	{
		Title:       "Submit I-9 documentation",
		Tags:        []string{"admin", "hr"},
		Department:  DepartmentHR,
		Description: "Provide required identification and work authorization documents.",
		Priority:    PriorityHigh,
	},
	{
		Title:       "Complete W-4 tax forms",
		Tags:        []string{"admin", "hr"},
		Department:  DepartmentHR,
		Description: "Fill out federal and state tax withholding forms.",
		Priority:    PriorityHigh,
	},
	{
		Title:       "Set up workstation",
		Tags:        []string{"setup", "equipment"},
		Department:  DepartmentIT,
		Description: "Configure your computer and workspace setup.",
		Priority:    PriorityHigh,
	},
	{
		Title:       "Meet with manager",
		Tags:        []string{"team", "meetings"},
		Department:  DepartmentManager,
		Description: "Initial meeting with your direct supervisor.",
		Priority:    PriorityHigh,
	},
}

// TaskStore owns onboarding tasks and their business-day due dates.
type TaskStore struct {
	observable

	mu    sync.RWMutex
	tasks []Task

	loc *time.Location
	now Clock
}

// NewTaskStore seeds the default tasks. Dates are interpreted in loc, or the
// local zone when loc is nil.
func NewTaskStore(loc *time.Location) *TaskStore {
	if loc == nil {
		loc = time.Local
	}
	s := &TaskStore{loc: loc, now: time.Now}
	for i, in := range initialTasks {
		s.tasks = append(s.tasks, Task{
			ID:          i + 1,
			Title:       in.Title,
			Tags:        append([]string{}, in.Tags...),
			Description: in.Description,
			Department:  in.Department,
			Priority:    in.Priority,
			CreatedAt:   s.now(),
		})
	}
	return s
}

func (s *TaskStore) Location() *time.Location { return s.loc }

// addBusinessDays moves n weekdays forward from t, skipping Saturdays and Sundays.
func addBusinessDays(t time.Time, n int) time.Time {
	for n > 0 {
		t = t.AddDate(0, 0, 1)
		if wd := t.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n--
		}
	}
	return t
}

func (s *TaskStore) parseDate(v string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, v, s.loc)
}

// CalculateDueDate returns start plus the default number of business days as a
// date-only string.
func (s *TaskStore) CalculateDueDate(start string) (string, error) {
	t, err := s.parseDate(start)
	if err != nil {
		return "", fmt.Errorf("parse start date %q: %w", start, err)
	}
	return addBusinessDays(t, DefaultTaskDuration).Format(dateLayout), nil
}

// ValidateDueDate reports whether due lies strictly between one and thirty
// business days after start.
func (s *TaskStore) ValidateDueDate(due, start string) bool {
	d, err := s.parseDate(due)
	if err != nil {
		return false
	}
	st, err := s.parseDate(start)
	if err != nil {
		return false
	}
	return d.After(addBusinessDays(st, MinTaskDuration)) && d.Before(addBusinessDays(st, MaxTaskDuration))
}

// AddTask stores a new task whose due date is derived from its start date.
// Tasks without a start date have no due date.
func (s *TaskStore) AddTask(in TaskInput) (Task, error) {
	var due string
	if in.StartDate != "" {
		var err error
		if due, err = s.CalculateDueDate(in.StartDate); err != nil {
			return Task{}, err
		}
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	s.mu.Lock()
	id := 0
	for _, t := range s.tasks {
		id = max(id, t.ID)
	}
	task := Task{
		ID:          id + 1,
		Title:       in.Title,
		Tags:        append([]string{}, tags...),
		DueDate:     due,
		Description: in.Description,
		Notes:       in.Notes,
		Link:        in.Link,
		Department:  in.Department,
		Priority:    in.Priority,
		StartDate:   in.StartDate,
		CreatedAt:   s.now(),
	}
	s.tasks = append(s.tasks, task)
	s.mu.Unlock()

	s.emit("tasks", "created", fmt.Sprint(task.ID))
	return task, nil
}

// UpdateTask applies p. A due date change is checked against the patched start
// date, or the task's current one, and rejected with ErrInvalidDueDate before
// anything is written.
func (s *TaskStore) UpdateTask(id int, p TaskPatch) (Task, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Task{}, ErrNotFound
	}
	t := s.tasks[i]

	if p.DueDate != nil {
		start := t.StartDate
		if p.StartDate != nil {
			start = *p.StartDate
		}
		if start != "" && !s.ValidateDueDate(*p.DueDate, start) {
			s.mu.Unlock()
			return Task{}, ErrInvalidDueDate
		}
		t.DueDate = *p.DueDate
	}
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Tags != nil {
		t.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.Link != nil {
		t.Link = *p.Link
	}
	if p.Department != nil {
		t.Department = *p.Department
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	s.tasks[i] = t
	s.mu.Unlock()

	s.emit("tasks", "updated", fmt.Sprint(id))
	return t, nil
}

func (s *TaskStore) DeleteTask(id int) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.mu.Unlock()

	s.emit("tasks", "deleted", fmt.Sprint(id))
	return true
}

func (s *TaskStore) ToggleTaskCompletion(id int) (Task, bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Task{}, false
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	t := s.tasks[i]
	s.mu.Unlock()

	s.emit("tasks", "toggled", fmt.Sprint(id))
	return t, true
}

func (s *TaskStore) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, len(s.tasks))
	for i, t := range s.tasks {
		t.Tags = append([]string{}, t.Tags...)
		out[i] = t
	}
	return out
}

func (s *TaskStore) Task(id int) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		t := s.tasks[i]
		t.Tags = append([]string{}, t.Tags...)
		return t, true
	}
	return Task{}, false
}

func (s *TaskStore) indexOf(id int) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

type taskSnapshot struct {
	Tasks []Task `json:"tasks"`
}

func (s *TaskStore) snapshotKey() string  { return "onboard-buddy-tasks" }
func (s *TaskStore) snapshotVersion() int { return 1 }

func (s *TaskStore) snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(taskSnapshot{Tasks: s.tasks})
}

// restore backfills the tag list that version 0 tasks could omit.
func (s *TaskStore) restore(data []byte, version int) error {
	var snap taskSnapshot
	if err := decodeSnapshot(data, &snap); err != nil {
		return err
	}
	if snap.Tasks == nil {
		return nil
	}
	for i := range snap.Tasks {
		if snap.Tasks[i].Tags == nil {
			snap.Tasks[i].Tags = []string{}
		}
	}
	s.mu.Lock()
	s.tasks = snap.Tasks
	s.mu.Unlock()
	return nil
}
