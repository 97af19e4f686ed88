package controller

import (
	"log"

	"onboardbuddy/stores"
	"onboardbuddy/utils"

	"github.com/gofiber/fiber/v2"
)

type MissionController struct {
	workspaceBase
}

func NewMissionController(registry *stores.Registry, logger *log.Logger) *MissionController {
	return &MissionController{workspaceBase{Registry: registry, Logger: logger}}
}

func (mc *MissionController) GetMissions(c *fiber.Ctx) error {
	w, err := mc.workspace(c)
	if err != nil {
		return mc.loadError(c, err)
	}
	missions := w.Missions.Missions()
	if c.Query("status") != "" {
		wantCompleted := c.Query("status") == "completed"
		filtered := missions[:0]
		for _, m := range missions {
			if m.Completed == wantCompleted {
				filtered = append(filtered, m)
			}
		}
		missions = filtered
	}
	return c.JSON(utils.SuccessResponse(missions))
}

func (mc *MissionController) GetMission(c *fiber.Ctx) error {
	w, err := mc.workspace(c)
	if err != nil {
		return mc.loadError(c, err)
	}
	m, ok := w.Missions.Mission(c.Params("id"))
	if !ok {
		return notFound(c, "Mission")
	}
	return c.JSON(utils.SuccessResponse(m))
}

// CreateMission returns 400 with every validation problem at once.
func (mc *MissionController) CreateMission(c *fiber.Ctx) error {
	var draft stores.MissionDraft
	if err := c.BodyParser(&draft); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	w, err := mc.workspace(c)
	if err != nil {
		return mc.loadError(c, err)
	}
	m, err := w.Missions.AddMission(draft)
	if err != nil {
		return storeError(c, err)
	}
	mc.Logger.Printf("Mission %s created (%d requirements)", m.ID, len(m.Requirements))
	mc.persist(c)
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(m))
}

func (mc *MissionController) UpdateMission(c *fiber.Ctx) error {
	var patch stores.MissionPatch
	if err := c.BodyParser(&patch); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	w, err := mc.workspace(c)
	if err != nil {
		return mc.loadError(c, err)
	}
	m, found, err := w.Missions.UpdateMission(c.Params("id"), patch)
	if !found {
		return notFound(c, "Mission")
	}
	if err != nil {
		return storeError(c, err)
	}
	mc.persist(c)
	return c.JSON(utils.SuccessResponse(m))
}

func (mc *MissionController) DeleteMission(c *fiber.Ctx) error {
	w, err := mc.workspace(c)
	if err != nil {
		return mc.loadError(c, err)
	}
	if !w.Missions.DeleteMission(c.Params("id")) {
		return notFound(c, "Mission")
	}
	mc.persist(c)
	return c.SendStatus(fiber.StatusNoContent)
}

// RefreshProgress forces a recomputation of one mission against the gallery.
func (mc *MissionController) RefreshProgress(c *fiber.Ctx) error {
	w, err := mc.workspace(c)
	if err != nil {
		return mc.loadError(c, err)
	}
	m, ok := w.Missions.UpdateMissionProgress(c.Params("id"))
	if !ok {
		return notFound(c, "Mission")
	}
	mc.persist(c)
	return c.JSON(utils.SuccessResponse(m))
}
