package handler

import (
	"errors"

	"jobradar/internal/delivery/http/middleware"
	"jobradar/internal/pkg/response"
	"jobradar/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type RunsHandler struct {
	uc usecase.RunUsecase
}

func NewRunsHandler(uc usecase.RunUsecase) *RunsHandler {
	return &RunsHandler{uc: uc}
}

func (h *RunsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/", h.HandleTrigger)
	r.Get("/status", h.HandleStatus)
}

func (h *RunsHandler) HandleTrigger(c fiber.Ctx) error {
	if err := h.uc.TriggerRun(c.Context()); err != nil {
		if errors.Is(err, usecase.ErrRunInProgress) {
			return middleware.NewAppError(fiber.StatusConflict, "A run is already in progress", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusAccepted, "run started", nil)
}

func (h *RunsHandler) HandleStatus(c fiber.Ctx) error {
	return response.Success(c, fiber.StatusOK, "success", h.uc.Status())
}
