package handler

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"treatviz/internal/model"
	"treatviz/internal/service"
)

type updateSettingsRequest struct {
	Prompts *model.PromptsPatch `json:"prompts"`
}

// GetSettings returns the current settings object.
//
// @Summary Get settings
// @Tags settings
// @Produce json
// @Success 200 {object} model.Settings
// @Router /api/settings [get]
func GetSettings(svc service.SettingsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.EnsureStorage(c.UserContext()); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "STORAGE_ERROR", "settings storage unavailable")
		}
		return c.JSON(svc.Read(c.UserContext()))
	}
}

// UpdateSettings merges partial prompt overrides into the stored settings.
// Slots that are absent or null keep their current value.
//
// @Summary Update prompt templates
// @Tags settings
// @Accept json
// @Produce json
// @Param body body updateSettingsRequest true "partial prompt overrides"
// @Success 200 {object} model.Settings
// @Failure 400 {object} errorPayload
// @Router /api/settings [post]
func UpdateSettings(svc service.SettingsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req updateSettingsRequest
		// Decoded regardless of Content-Type; browsers often post text/plain.
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be a JSON object with optional prompts")
		}
		var patch model.PromptsPatch
		if req.Prompts != nil {
			patch = *req.Prompts
		}

		st, err := svc.UpdatePrompts(c.UserContext(), patch)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "STORAGE_ERROR", "could not save settings")
		}
		return c.JSON(st)
	}
}
