package stores

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/badoux/checkmail"
)

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrNotArchived      = errors.New("employee not found or not archived")
)

type WorkArrangement string

const (
	Remote WorkArrangement = "remote"
	Onsite WorkArrangement = "onsite"
	Hybrid WorkArrangement = "hybrid"
)

type EmployeeStatus string

const (
	StatusActive   EmployeeStatus = "active"
	StatusInactive EmployeeStatus = "inactive"
	StatusArchived EmployeeStatus = "archived"
)

type OnboardingPhase string

const (
	PhasePreBoarding OnboardingPhase = "pre-boarding"
	PhaseFirstDay    OnboardingPhase = "first-day"
	PhaseFirstWeek   OnboardingPhase = "first-week"
	PhaseFirstMonth  OnboardingPhase = "first-month"
	PhaseCompleted   OnboardingPhase = "completed"
)

type HybridSchedule struct {
	InOffice []string `json:"in_office"`
	Remote   []string `json:"remote"`
}

type WorkArrangementDetails struct {
	Location       string          `json:"location,omitempty"`
	Schedule       string          `json:"schedule,omitempty"`
	Equipment      []string        `json:"equipment,omitempty"`
	RemoteTools    []string        `json:"remote_tools,omitempty"`
	OfficeAccess   bool            `json:"office_access,omitempty"`
	HybridSchedule *HybridSchedule `json:"hybrid_schedule,omitempty"`
}

type Supervisor struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

type EmergencyContact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

type Contact struct {
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
	EmergencyContact *EmergencyContact `json:"emergency_contact,omitempty"`
}

type OnboardingProgress struct {
	TasksCompleted    int             `json:"tasks_completed"`
	TotalTasks        int             `json:"total_tasks"`
	MissionsCompleted int             `json:"missions_completed"`
	TotalMissions     int             `json:"total_missions"`
	CurrentPhase      OnboardingPhase `json:"current_phase"`
}

type Employee struct {
	ID                     string                 `json:"id"`
	FullName               string                 `json:"full_name"`
	StartDate              string                 `json:"start_date"`
	Position               string                 `json:"position"`
	Department             string                 `json:"department"`
	WorkArrangement        WorkArrangement        `json:"work_arrangement"`
	WorkArrangementDetails WorkArrangementDetails `json:"work_arrangement_details"`
	Supervisor             Supervisor             `json:"supervisor"`
	Contact                Contact                `json:"contact"`
	OnboardingProgress     OnboardingProgress     `json:"onboarding_progress"`
	Status                 EmployeeStatus         `json:"status"`
	Priority               Priority               `json:"priority"`
	Tags                   []string               `json:"tags"`
	Notes                  string                 `json:"notes"`
	CreatedAt              time.Time              `json:"created_at"`
	UpdatedAt              time.Time              `json:"updated_at"`
	CreatedBy              string                 `json:"created_by"`
	LastModifiedBy         string                 `json:"last_modified_by"`
}

// EmployeeInput is everything a caller supplies when hiring.
type EmployeeInput struct {
	FullName               string                 `json:"full_name"`
	StartDate              string                 `json:"start_date"`
	Position               string                 `json:"position"`
	Department             string                 `json:"department"`
	WorkArrangement        WorkArrangement        `json:"work_arrangement"`
	WorkArrangementDetails WorkArrangementDetails `json:"work_arrangement_details"`
	Supervisor             Supervisor             `json:"supervisor"`
	Contact                Contact                `json:"contact"`
	OnboardingProgress     *OnboardingProgress    `json:"onboarding_progress"`
	Priority               Priority               `json:"priority"`
	Tags                   []string               `json:"tags"`
	Notes                  string                 `json:"notes"`
}

// EmployeePatch lists the fields UpdateEmployee may change. The json names
// double as the field names recorded in the audit log.
type EmployeePatch struct {
	FullName               *string                 `json:"full_name"`
	StartDate              *string                 `json:"start_date"`
	Position               *string                 `json:"position"`
	Department             *string                 `json:"department"`
	WorkArrangement        *WorkArrangement        `json:"work_arrangement"`
	WorkArrangementDetails *WorkArrangementDetails `json:"work_arrangement_details"`
	Supervisor             *Supervisor             `json:"supervisor"`
	Contact                *Contact                `json:"contact"`
	OnboardingProgress     *OnboardingProgress     `json:"onboarding_progress"`
	Status                 *EmployeeStatus         `json:"status"`
	Priority               *Priority               `json:"priority"`
	Tags                   *[]string               `json:"tags"`
	Notes                  *string                 `json:"notes"`
}

type AuditAction string

const (
	AuditCreated  AuditAction = "created"
	AuditUpdated  AuditAction = "updated"
	AuditDeleted  AuditAction = "deleted"
	AuditArchived AuditAction = "archived"
	AuditRestored AuditAction = "restored"
)

type FieldChange struct {
	Field    string      `json:"field"`
	OldValue interface{} `json:"old_value"`
	NewValue interface{} `json:"new_value"`
}

type AuditLog struct {
	ID          string        `json:"id"`
	EmployeeID  string        `json:"employee_id"`
	Action      AuditAction   `json:"action"`
	Changes     []FieldChange `json:"changes"`
	PerformedBy string        `json:"performed_by"`
	Timestamp   time.Time     `json:"timestamp"`
	Reason      string        `json:"reason,omitempty"`
}

// EmployeeStore keeps employee records and an append-only audit trail that
// outlives the records it describes.
type EmployeeStore struct {
	observable

	mu        sync.RWMutex
	employees []Employee
	auditLogs []AuditLog

	loc *time.Location
	now Clock
}

func NewEmployeeStore(loc *time.Location) *EmployeeStore {
	if loc == nil {
		loc = time.Local
	}
	return &EmployeeStore{loc: loc, now: time.Now}
}

// ValidateEmployee returns every problem with e.
func (s *EmployeeStore) ValidateEmployee(e Employee) []string {
	return s.validate(e, true)
}

// validate skips the start date age rule when checkStartAge is false so older
// hires stay editable.
func (s *EmployeeStore) validate(e Employee, checkStartAge bool) []string {
	var problems []string

	if strings.TrimSpace(e.FullName) == "" {
		problems = append(problems, "Full name is required")
	}

	if e.StartDate == "" {
		problems = append(problems, "Start date is required")
	} else if start, err := time.ParseInLocation(dateLayout, e.StartDate, s.loc); err != nil {
		problems = append(problems, "Start date must be a valid date")
	} else if checkStartAge {
		y, m, d := s.now().In(s.loc).Date()
		if start.Before(time.Date(y-1, m, d, 0, 0, 0, 0, s.loc)) {
			problems = append(problems, "Start date cannot be more than 1 year in the past")
		}
	}

	if strings.TrimSpace(e.Position) == "" {
		problems = append(problems, "Position/role is required")
	}
	if strings.TrimSpace(e.Department) == "" {
		problems = append(problems, "Department is required")
	}

	switch e.WorkArrangement {
	case Remote, Onsite, Hybrid:
	case "":
		problems = append(problems, "Work arrangement is required")
	default:
		problems = append(problems, "Work arrangement must be remote, onsite or hybrid")
	}

	if strings.TrimSpace(e.Supervisor.Name) == "" {
		problems = append(problems, "Supervisor name is required")
	}
	if strings.TrimSpace(e.Supervisor.Email) == "" {
		problems = append(problems, "Supervisor email is required")
	} else if checkmail.ValidateFormat(e.Supervisor.Email) != nil {
		problems = append(problems, "Supervisor email must be valid")
	}

	if strings.TrimSpace(e.Contact.Email) == "" {
		problems = append(problems, "Employee email is required")
	} else if checkmail.ValidateFormat(e.Contact.Email) != nil {
		problems = append(problems, "Employee email must be valid")
	}
	if strings.TrimSpace(e.Contact.Phone) == "" {
		problems = append(problems, "Phone number is required")
	}

	return problems
}

// AddEmployee validates in, stores an active employee and logs its creation.
func (s *EmployeeStore) AddEmployee(in EmployeeInput, performedBy string) (Employee, error) {
	now := s.now()
	e := Employee{
		ID:                     newID(),
		FullName:               in.FullName,
		StartDate:              in.StartDate,
		Position:               in.Position,
		Department:             in.Department,
		WorkArrangement:        in.WorkArrangement,
		WorkArrangementDetails: in.WorkArrangementDetails,
		Supervisor:             in.Supervisor,
		Contact:                in.Contact,
		OnboardingProgress:     OnboardingProgress{CurrentPhase: PhasePreBoarding},
		Status:                 StatusActive,
		Priority:               in.Priority,
		Tags:                   in.Tags,
		Notes:                  in.Notes,
		CreatedAt:              now,
		UpdatedAt:              now,
		CreatedBy:              performedBy,
		LastModifiedBy:         performedBy,
	}
	if in.OnboardingProgress != nil {
		e.OnboardingProgress = *in.OnboardingProgress
		if e.OnboardingProgress.CurrentPhase == "" {
			e.OnboardingProgress.CurrentPhase = PhasePreBoarding
		}
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if err := validationError(s.ValidateEmployee(e)); err != nil {
		return Employee{}, err
	}

	s.mu.Lock()
	s.employees = append(s.employees, e)
	s.appendLog(AuditLog{
		EmployeeID:  e.ID,
		Action:      AuditCreated,
		Changes:     []FieldChange{{Field: "employee", NewValue: e}},
		PerformedBy: performedBy,
		Timestamp:   now,
	})
	s.mu.Unlock()

	s.emit("employees", "created", e.ID)
	return e, nil
}

// UpdateEmployee validates the merged record and logs every field whose value
// actually changed.
func (s *EmployeeStore) UpdateEmployee(id string, p EmployeePatch, performedBy, reason string) (Employee, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Employee{}, ErrEmployeeNotFound
	}
	old := s.employees[i]
	e := old
	var changes []FieldChange

	if p.FullName != nil {
		changes = diffField(changes, "full_name", old.FullName, *p.FullName)
		e.FullName = *p.FullName
	}
	if p.StartDate != nil {
		changes = diffField(changes, "start_date", old.StartDate, *p.StartDate)
		e.StartDate = *p.StartDate
	}
	if p.Position != nil {
		changes = diffField(changes, "position", old.Position, *p.Position)
		e.Position = *p.Position
	}
	if p.Department != nil {
		changes = diffField(changes, "department", old.Department, *p.Department)
		e.Department = *p.Department
	}
	if p.WorkArrangement != nil {
		changes = diffField(changes, "work_arrangement", old.WorkArrangement, *p.WorkArrangement)
		e.WorkArrangement = *p.WorkArrangement
	}
	if p.WorkArrangementDetails != nil {
		changes = diffField(changes, "work_arrangement_details", old.WorkArrangementDetails, *p.WorkArrangementDetails)
		e.WorkArrangementDetails = *p.WorkArrangementDetails
	}
	if p.Supervisor != nil {
		changes = diffField(changes, "supervisor", old.Supervisor, *p.Supervisor)
		e.Supervisor = *p.Supervisor
	}
	if p.Contact != nil {
		changes = diffField(changes, "contact", old.Contact, *p.Contact)
		e.Contact = *p.Contact
	}
	if p.OnboardingProgress != nil {
		changes = diffField(changes, "onboarding_progress", old.OnboardingProgress, *p.OnboardingProgress)
		e.OnboardingProgress = *p.OnboardingProgress
	}
	if p.Status != nil {
		changes = diffField(changes, "status", old.Status, *p.Status)
		e.Status = *p.Status
	}
	if p.Priority != nil {
		changes = diffField(changes, "priority", old.Priority, *p.Priority)
		e.Priority = *p.Priority
	}
	if p.Tags != nil {
		changes = diffField(changes, "tags", old.Tags, *p.Tags)
		e.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.Notes != nil {
		changes = diffField(changes, "notes", old.Notes, *p.Notes)
		e.Notes = *p.Notes
	}

	startChanged := p.StartDate != nil && *p.StartDate != old.StartDate
	if err := validationError(s.validate(e, startChanged)); err != nil {
		s.mu.Unlock()
		return Employee{}, err
	}

	now := s.now()
	e.UpdatedAt = now
	e.LastModifiedBy = performedBy
	s.employees[i] = e
	s.appendLog(AuditLog{
		EmployeeID:  id,
		Action:      AuditUpdated,
		Changes:     changes,
		PerformedBy: performedBy,
		Timestamp:   now,
		Reason:      reason,
	})
	s.mu.Unlock()

	s.emit("employees", "updated", id)
	return e, nil
}

// diffField records a change when old and new encode differently.
func diffField(changes []FieldChange, field string, old, new interface{}) []FieldChange {
	a, errA := json.Marshal(old)
	b, errB := json.Marshal(new)
	if errA == nil && errB == nil && string(a) == string(b) {
		return changes
	}
	return append(changes, FieldChange{Field: field, OldValue: old, NewValue: new})
}

// DeleteEmployee archives the employee, or removes it outright when archive is
// false. Either way the audit trail keeps the record of it.
func (s *EmployeeStore) DeleteEmployee(id, performedBy, reason string, archive bool) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrEmployeeNotFound
	}
	now := s.now()
	action, newStatus := AuditDeleted, "deleted"
	if archive {
		action, newStatus = AuditArchived, string(StatusArchived)
	}
	s.appendLog(AuditLog{
		EmployeeID:  id,
		Action:      action,
		Changes:     []FieldChange{{Field: "status", OldValue: s.employees[i].Status, NewValue: newStatus}},
		PerformedBy: performedBy,
		Timestamp:   now,
		Reason:      reason,
	})
	if archive {
		s.employees[i].Status = StatusArchived
		s.employees[i].UpdatedAt = now
		s.employees[i].LastModifiedBy = performedBy
	} else {
		s.employees = append(s.employees[:i], s.employees[i+1:]...)
	}
	s.mu.Unlock()

	s.emit("employees", string(action), id)
	return nil
}

func (s *EmployeeStore) RestoreEmployee(id, performedBy string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 || s.employees[i].Status != StatusArchived {
		s.mu.Unlock()
		return ErrNotArchived
	}
	now := s.now()
	s.employees[i].Status = StatusActive
	s.employees[i].UpdatedAt = now
	s.employees[i].LastModifiedBy = performedBy
	s.appendLog(AuditLog{
		EmployeeID:  id,
		Action:      AuditRestored,
		Changes:     []FieldChange{{Field: "status", OldValue: StatusArchived, NewValue: StatusActive}},
		PerformedBy: performedBy,
		Timestamp:   now,
	})
	s.mu.Unlock()

	s.emit("employees", "restored", id)
	return nil
}

// appendLog assumes mu is held.
func (s *EmployeeStore) appendLog(l AuditLog) {
	l.ID = newID()
	if l.Changes == nil {
		l.Changes = []FieldChange{}
	}
	s.auditLogs = append(s.auditLogs, l)
}

// Employee returns the record with id, archived or not.
func (s *EmployeeStore) Employee(id string) (Employee, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.employees[i], true
	}
	return Employee{}, false
}

func (s *EmployeeStore) Employees() []Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Employee(nil), s.employees...)
}

func (s *EmployeeStore) ByDepartment(department string) []Employee {
	return s.filter(func(e Employee) bool { return e.Department == department })
}

func (s *EmployeeStore) BySupervisor(supervisorID string) []Employee {
	return s.filter(func(e Employee) bool { return e.Supervisor.ID == supervisorID })
}

// Search matches a case-insensitive query against name, position, department,
// email and supervisor name.
func (s *EmployeeStore) Search(query string) []Employee {
	q := strings.ToLower(query)
	return s.filter(func(e Employee) bool {
		for _, v := range []string{e.FullName, e.Position, e.Department, e.Contact.Email, e.Supervisor.Name} {
			if strings.Contains(strings.ToLower(v), q) {
				return true
			}
		}
		return false
	})
}

// filter skips archived employees.
func (s *EmployeeStore) filter(keep func(Employee) bool) []Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Employee
	for _, e := range s.employees {
		if e.Status != StatusArchived && keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// AuditLogs returns the whole trail, or only employeeID's entries when set.
func (s *EmployeeStore) AuditLogs(employeeID string) []AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []AuditLog
	for _, l := range s.auditLogs {
		if employeeID == "" || l.EmployeeID == employeeID {
			out = append(out, l)
		}
	}
	return out
}

func (s *EmployeeStore) indexOf(id string) int {
	for i := range s.employees {
		if s.employees[i].ID == id {
			return i
		}
	}
	return -1
}

type employeeSnapshot struct {
	Employees []Employee `json:"employees"`
	AuditLogs []AuditLog `json:"audit_logs"`
}

func (s *EmployeeStore) snapshotKey() string  { return "employee-management" }
func (s *EmployeeStore) snapshotVersion() int { return 1 }

func (s *EmployeeStore) snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(employeeSnapshot{Employees: s.employees, AuditLogs: s.auditLogs})
}

func (s *EmployeeStore) restore(data []byte, _ int) error {
	var snap employeeSnapshot
	if err := decodeSnapshot(data, &snap); err != nil {
		return err
	}
	s.mu.Lock()
	s.employees = snap.Employees
	s.auditLogs = snap.AuditLogs
	s.mu.Unlock()
	return nil
}
