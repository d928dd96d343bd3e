package controllers

import (
	"errors"

	"github.com/fitsync/fitsync/pkg/domain"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ConnectorController handles sync invocations from the orchestration
// platform. One request runs exactly one protocol step for one connector; the
// orchestrator keeps re-invoking until hasMore comes back false.
type ConnectorController struct {
	connectorSelector domain.ConnectorSelector
}

type ConnectorControllerDependencies struct {
	ConnectorSelector domain.ConnectorSelector
}

func NewConnectorController(deps ConnectorControllerDependencies) *ConnectorController {
	return &ConnectorController{
		connectorSelector: deps.ConnectorSelector,
	}
}

// Sync runs a single cursor step for the connector named in the path.
func (c *ConnectorController) Sync(ctx fiber.Ctx) error {
	connectorType := domain.ConnectorType(ctx.Params("connectorType"))

	connector, err := c.connectorSelector.Select(ctx.RequestCtx(), domain.SelectConnectorParams{
		ConnectorType: connectorType,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	var req domain.SyncRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	syncID := uuid.NewString()

	log.Info().
		Str("syncID", syncID).
		Str("connector", string(connectorType)).
		Str("cursor", req.State.Cursor).
		Msg("Starting sync invocation")

	resp, err := connector.Sync(ctx.RequestCtx(), req)
	if err != nil {
		log.Error().
			Err(err).
			Str("syncID", syncID).
			Str("connector", string(connectorType)).
			Msg("Sync invocation failed")

		if errors.Is(err, domain.ErrInvariantViolation) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}

		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	log.Info().
		Str("syncID", syncID).
		Str("connector", string(connectorType)).
		Str("cursor", resp.State.Cursor).
		Bool("hasMore", resp.HasMore).
		Str("returnCause", string(resp.ReturnCause)).
		Msg("Sync invocation completed")

	return ctx.JSON(resp)
}
