package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"

	"github.com/noah-isme/mergington-activities/internal/dto"
	"github.com/noah-isme/mergington-activities/internal/service"
	"github.com/noah-isme/mergington-activities/internal/utils"
)

// ActivityHandler exposes the activity listing and roster endpoints.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs an activity handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register wires activity routes. Any mutation middleware, such as a rate
// limiter, runs in front of signup and unregister only.
func (h *ActivityHandler) Register(router fiber.Router, mutation ...fiber.Handler) {
	router.Get("", h.list)

	signup := append(append([]fiber.Handler{}, mutation...), h.signup)
	unregister := append(append([]fiber.Handler{}, mutation...), h.unregister)
	router.Post("/:name/signup", signup...)
	router.Delete("/:name/unregister", unregister...)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	activities, err := h.service.List(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list activities")
		return utils.SendDetail(c, fiber.StatusInternalServerError, "failed to list activities")
	}

	return utils.SendJSON(c, fiber.StatusOK, activities)
}

func (h *ActivityHandler) signup(c *fiber.Ctx) error {
	req := rosterRequest(c)
	response, err := h.service.Signup(c.UserContext(), req)
	if err != nil {
		return h.rosterError(c, req, err)
	}

	return utils.SendJSON(c, fiber.StatusOK, response)
}

func (h *ActivityHandler) unregister(c *fiber.Ctx) error {
	req := rosterRequest(c)
	response, err := h.service.Unregister(c.UserContext(), req)
	if err != nil {
		return h.rosterError(c, req, err)
	}

	return utils.SendJSON(c, fiber.StatusOK, response)
}

// rosterRequest copies the inputs out of fiber's reusable buffers because the
// email is retained in the registry and both values travel in roster events.
func rosterRequest(c *fiber.Ctx) dto.RosterRequest {
	return dto.RosterRequest{
		Activity: fiberutils.CopyString(pathParam(c, "name")),
		Email:    fiberutils.CopyString(c.Query("email")),
	}
}

func (h *ActivityHandler) rosterError(c *fiber.Ctx, req dto.RosterRequest, err error) error {
	switch {
	case errors.Is(err, service.ErrActivityNotFound):
		return utils.SendDetail(c, fiber.StatusNotFound, "Activity not found")
	case errors.Is(err, service.ErrAlreadySignedUp):
		return utils.SendDetail(c, fiber.StatusBadRequest, fmt.Sprintf("%s already signed up", req.Email))
	case errors.Is(err, service.ErrNotRegistered):
		return utils.SendDetail(c, fiber.StatusBadRequest, fmt.Sprintf("%s not registered", req.Email))
	case isValidationError(err):
		return utils.SendDetail(c, fiber.StatusUnprocessableEntity, "email is required")
	default:
		requestLogger(h.logger, c).Error().Err(err).Str("activity", req.Activity).Msg("roster update failed")
		return utils.SendDetail(c, fiber.StatusInternalServerError, "internal server error")
	}
}
