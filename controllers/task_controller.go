package controller

import (
	"log"
	"strconv"

	"onboardbuddy/stores"
	"onboardbuddy/utils"

	"github.com/gofiber/fiber/v2"
)

type TaskController struct {
	workspaceBase
}

func NewTaskController(registry *stores.Registry, logger *log.Logger) *TaskController {
	return &TaskController{workspaceBase{Registry: registry, Logger: logger}}
}

func taskID(c *fiber.Ctx) (int, bool) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// GetTasks supports ?department=, ?priority= and ?completed=true|false.
func (tc *TaskController) GetTasks(c *fiber.Ctx) error {
	w, err := tc.workspace(c)
	if err != nil {
		return tc.loadError(c, err)
	}

	department := stores.Department(c.Query("department"))
	priority := stores.Priority(c.Query("priority"))
	completed := c.Query("completed")

	tasks := []stores.Task{}
	for _, t := range w.Tasks.Tasks() {
		if department != "" && t.Department != department {
			continue
		}
		if priority != "" && t.Priority != priority {
			continue
		}
		if completed != "" && strconv.FormatBool(t.Completed) != completed {
			continue
		}
		tasks = append(tasks, t)
	}
	return c.JSON(utils.SuccessResponse(tasks))
}

func (tc *TaskController) GetTask(c *fiber.Ctx) error {
	id, ok := taskID(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid task ID", nil)
	}
	w, err := tc.workspace(c)
	if err != nil {
		return tc.loadError(c, err)
	}
	task, ok := w.Tasks.Task(id)
	if !ok {
		return notFound(c, "Task")
	}
	return c.JSON(utils.SuccessResponse(task))
}

func (tc *TaskController) CreateTask(c *fiber.Ctx) error {
	var input stores.TaskInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	w, err := tc.workspace(c)
	if err != nil {
		return tc.loadError(c, err)
	}
	task, err := w.Tasks.AddTask(input)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid start date", err)
	}
	tc.persist(c)
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(task))
}

// UpdateTask rejects an out-of-window due date with 400 and leaves the task unchanged.
func (tc *TaskController) UpdateTask(c *fiber.Ctx) error {
	id, ok := taskID(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid task ID", nil)
	}
	var patch stores.TaskPatch
	if err := c.BodyParser(&patch); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	w, err := tc.workspace(c)
	if err != nil {
		return tc.loadError(c, err)
	}
	task, err := w.Tasks.UpdateTask(id, patch)
	if err != nil {
		return storeError(c, err)
	}
	tc.persist(c)
	return c.JSON(utils.SuccessResponse(task))
}

func (tc *TaskController) DeleteTask(c *fiber.Ctx) error {
	id, ok := taskID(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid task ID", nil)
	}
	w, err := tc.workspace(c)
	if err != nil {
		return tc.loadError(c, err)
	}
	if !w.Tasks.DeleteTask(id) {
		return notFound(c, "Task")
	}
	tc.persist(c)
	return c.SendStatus(fiber.StatusNoContent)
}

func (tc *TaskController) ToggleTask(c *fiber.Ctx) error {
	id, ok := taskID(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid task ID", nil)
	}
	w, err := tc.workspace(c)
	if err != nil {
		return tc.loadError(c, err)
	}
	task, ok := w.Tasks.ToggleTaskCompletion(id)
	if !ok {
		return notFound(c, "Task")
	}
	tc.persist(c)
	return c.JSON(utils.SuccessResponse(task))
}

// DueDate previews the default due date for ?start=YYYY-MM-DD and, with
// ?due=, whether that due date would be accepted.
func (tc *TaskController) DueDate(c *fiber.Ctx) error {
	w, err := tc.workspace(c)
	if err != nil {
		return tc.loadError(c, err)
	}
	start := c.Query("start")
	due, err := w.Tasks.CalculateDueDate(start)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid start date", err)
	}

	resp := fiber.Map{"start_date": start, "due_date": due}
	if candidate := c.Query("due"); candidate != "" {
		resp["valid"] = w.Tasks.ValidateDueDate(candidate, start)
	}
	return c.JSON(utils.SuccessResponse(resp))
}
