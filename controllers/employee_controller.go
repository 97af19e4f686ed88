package controller

import (
	"log"

	"onboardbuddy/stores"
	"onboardbuddy/utils"

	"github.com/gofiber/fiber/v2"
)

type EmployeeController struct {
	workspaceBase
}

func NewEmployeeController(registry *stores.Registry, logger *log.Logger) *EmployeeController {
	return &EmployeeController{workspaceBase{Registry: registry, Logger: logger}}
}

// GetEmployees filters by ?department=, ?supervisor= or ?q=. Archived
// employees only show up with ?include_archived=true and no other filter.
func (ec *EmployeeController) GetEmployees(c *fiber.Ctx) error {
	w, err := ec.workspace(c)
	if err != nil {
		return ec.loadError(c, err)
	}

	var employees []stores.Employee
	switch {
	case c.Query("department") != "":
		employees = w.Employees.ByDepartment(c.Query("department"))
	case c.Query("supervisor") != "":
		employees = w.Employees.BySupervisor(c.Query("supervisor"))
	case c.Query("q") != "":
		employees = w.Employees.Search(c.Query("q"))
	case c.QueryBool("include_archived"):
		employees = w.Employees.Employees()
	default:
		for _, e := range w.Employees.Employees() {
			if e.Status != stores.StatusArchived {
				employees = append(employees, e)
			}
		}
	}
	if employees == nil {
		employees = []stores.Employee{}
	}
	return c.JSON(utils.SuccessResponse(employees))
}

func (ec *EmployeeController) GetEmployee(c *fiber.Ctx) error {
	w, err := ec.workspace(c)
	if err != nil {
		return ec.loadError(c, err)
	}
	e, ok := w.Employees.Employee(c.Params("id"))
	if !ok {
		return notFound(c, "Employee")
	}
	return c.JSON(utils.SuccessResponse(e))
}

func (ec *EmployeeController) CreateEmployee(c *fiber.Ctx) error {
	var input stores.EmployeeInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	w, err := ec.workspace(c)
	if err != nil {
		return ec.loadError(c, err)
	}
	e, err := w.Employees.AddEmployee(input, performedBy(c))
	if err != nil {
		return storeError(c, err)
	}
	ec.persist(c)
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(e))
}

func (ec *EmployeeController) UpdateEmployee(c *fiber.Ctx) error {
	var input struct {
		stores.EmployeePatch
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	w, err := ec.workspace(c)
	if err != nil {
		return ec.loadError(c, err)
	}
	e, err := w.Employees.UpdateEmployee(c.Params("id"), input.EmployeePatch, performedBy(c), input.Reason)
	if err != nil {
		return storeError(c, err)
	}
	ec.persist(c)
	return c.JSON(utils.SuccessResponse(e))
}

// DeleteEmployee archives by default; ?permanent=true removes the record while
// keeping its audit trail.
func (ec *EmployeeController) DeleteEmployee(c *fiber.Ctx) error {
	w, err := ec.workspace(c)
	if err != nil {
		return ec.loadError(c, err)
	}
	archive := !c.QueryBool("permanent")
	if err := w.Employees.DeleteEmployee(c.Params("id"), performedBy(c), c.Query("reason"), archive); err != nil {
		return storeError(c, err)
	}
	ec.persist(c)
	return c.SendStatus(fiber.StatusNoContent)
}

func (ec *EmployeeController) RestoreEmployee(c *fiber.Ctx) error {
	w, err := ec.workspace(c)
	if err != nil {
		return ec.loadError(c, err)
	}
	if err := w.Employees.RestoreEmployee(c.Params("id"), performedBy(c)); err != nil {
		return storeError(c, err)
	}
	e, _ := w.Employees.Employee(c.Params("id"))
	ec.persist(c)
	return c.JSON(utils.SuccessResponse(e))
}

// GetAuditLogs returns the trail for one employee, or for all of them when
// the id is omitted.
func (ec *EmployeeController) GetAuditLogs(c *fiber.Ctx) error {
	w, err := ec.workspace(c)
	if err != nil {
		return ec.loadError(c, err)
	}
	return c.JSON(utils.SuccessResponse(w.Employees.AuditLogs(c.Params("id"))))
}
