package handler

import (
	"github.com/gofiber/fiber/v2"

	"zamahub/internal/service"
)

type registerENSResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

type ensNamesResponse struct {
	ENSNames []string `json:"ensNames"`
}

// RegisterENS records an ENS name for an owner.
//
// @Summary Register an ENS name
// @Accept json
// @Produce json
// @Param body body service.RegisterENSInput true "registration"
// @Success 201 {object} registerENSResponse
// @Failure 400,403,500,503 {object} errorPayload
// @Router /api/ens [post]
func RegisterENS(svc service.ENSService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.RegisterENSInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be a JSON object")
		}
		reg, err := svc.Register(c.UserContext(), in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(registerENSResponse{Success: true, ID: reg.ID})
	}
}

// ListENSNames returns the ENS names registered by ?owner=, most recent first.
//
// @Summary List ENS names of an owner
// @Produce json
// @Param owner query string true "owner address"
// @Success 200 {object} ensNamesResponse
// @Failure 400,500 {object} errorPayload
// @Router /api/ens [get]
func ListENSNames(svc service.ENSService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		names, err := svc.ListByOwner(c.UserContext(), c.Query("owner"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(ensNamesResponse{ENSNames: names})
	}
}
