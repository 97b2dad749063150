package handler

import (
	"jobradar/internal/delivery/http/dto"
	"jobradar/internal/delivery/http/middleware"
	"jobradar/internal/export"
	"jobradar/internal/pkg/response"
	"jobradar/internal/profile"

	"github.com/gofiber/fiber/v3"
)

type ExportsHandler struct {
	svc *export.Service
}

func NewExportsHandler(svc *export.Service) *ExportsHandler {
	return &ExportsHandler{svc: svc}
}

func (h *ExportsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/candidates", h.HandleListCandidates)
}

// HandleListCandidates previews what the next export pass would push,
// without pushing anything.
func (h *ExportsHandler) HandleListCandidates(c fiber.Ctx) error {
	if h.svc == nil {
		return middleware.NewAppError(fiber.StatusNotFound, "Export is not configured", nil, nil)
	}

	profileID := c.Query("profile_id")
	if profileID == "" {
		profileID = profile.DefaultProfileID
	}

	cands, err := h.svc.SelectForExport(c.Context(), profileID)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}

	out := make([]dto.ExportCandidateResponse, 0, len(cands))
	for _, cd := range cands {
		out = append(out, dto.ExportCandidateResponse{
			JobUID:    cd.JobUID,
			ProfileID: cd.ProfileID,
			Title:     cd.Title,
			Company:   cd.Company,
			URL:       cd.URL,
			FitScore:  cd.FitScore,
			FitClass:  cd.FitClass,
			Reason:    string(cd.Reason),
		})
	}
	return response.Success(c, fiber.StatusOK, "success", out)
}
