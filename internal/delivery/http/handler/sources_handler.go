package handler

import (
	"errors"
	"strings"
	"time"

	"jobradar/internal/delivery/http/dto"
	"jobradar/internal/delivery/http/middleware"
	"jobradar/internal/pkg/response"
	"jobradar/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type SourcesHandler struct {
	uc usecase.SourceUsecase
}

type discoverRequest struct {
	Homepage    string `json:"homepage"`
	CompanyName string `json:"company_name"`
}

type activateRequest struct {
	Active bool `json:"active"`
}

func NewSourcesHandler(uc usecase.SourceUsecase) *SourcesHandler {
	return &SourcesHandler{uc: uc}
}

func (h *SourcesHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.HandleListSources)
	r.Post("/discover", h.HandleDiscover)
	r.Patch("/:id/active", h.HandleActivate)
}

func (h *SourcesHandler) HandleListSources(c fiber.Ctx) error {
	limit, err := parseQueryIntStrict(c, "limit", 50)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	offset, err := parseQueryIntStrict(c, "offset", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	if limit < 1 || limit > 500 || offset < 0 {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, nil)
	}

	items, err := h.uc.ListSources(c.Context(), limit, offset)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}

	out := make([]dto.SourceResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.SourceResponse{
			ID:           it.ID,
			ProviderType: it.ProviderType,
			CompanySlug:  it.CompanySlug,
			CompanyName:  it.CompanyName,
			IsActive:     it.IsActive,
			LastError:    strDeref(it.LastError),
			LastOKAt:     timeDeref(it.LastOKAt),
			LastFailAt:   timeDeref(it.LastFailAt),
		})
	}
	return response.Success(c, fiber.StatusOK, "success", out)
}

func (h *SourcesHandler) HandleDiscover(c fiber.Ctx) error {
	var req discoverRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	if strings.TrimSpace(req.Homepage) == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "homepage is required", nil, nil)
	}

	res, err := h.uc.DiscoverSource(c.Context(), req.Homepage, req.CompanyName)
	if err != nil {
		if errors.Is(err, usecase.ErrNoBoardFound) {
			data := dto.DiscoverSourceResponse{CareersURL: res.CareersURL}
			return middleware.NewAppError(fiber.StatusUnprocessableEntity, "No supported job board found", data, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}

	out := dto.DiscoverSourceResponse{
		CareersURL:   res.CareersURL,
		ProviderType: res.ProviderType,
		CompanySlug:  res.CompanySlug,
		Created:      res.Created,
		Verified:     res.Verified,
	}
	status := fiber.StatusOK
	if res.Created {
		status = fiber.StatusCreated
	}
	return response.Success(c, status, "success", out)
}

func (h *SourcesHandler) HandleActivate(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	var req activateRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	if err := h.uc.ActivateSource(c.Context(), id, req.Active); err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, "success", map[string]any{"id": id, "active": req.Active})
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timeDeref(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
