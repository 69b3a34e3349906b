package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/pcmm-backend/internal/http/response"
	"github.com/yungbote/pcmm-backend/internal/services"
)

type ModelHandler struct {
	pcmm        services.PCMMService
	progress    services.ProgressService
	aggregation services.AggregationService
}

func NewModelHandler(pcmm services.PCMMService, progress services.ProgressService, aggregation services.AggregationService) *ModelHandler {
	return &ModelHandler{pcmm: pcmm, progress: progress, aggregation: aggregation}
}

// GET /api/models/:id/elements
func (h *ModelHandler) ListElements(c *gin.Context) {
	modelID, err := uuidParam(c, "id")
	if err != nil {
		response.RespondServiceError(c, "invalid_model_id", err)
		return
	}
	elements, err := h.pcmm.ListElements(c.Request.Context(), modelID)
	if err != nil {
		response.RespondServiceError(c, "list_elements_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"elements": elements})
}

// GET /api/models/:id/progress?tag=
func (h *ModelHandler) GetProgress(c *gin.Context) {
	modelID, err := uuidParam(c, "id")
	if err != nil {
		response.RespondServiceError(c, "invalid_model_id", err)
		return
	}
	tag, err := tagQuery(c)
	if err != nil {
		response.RespondServiceError(c, "invalid_tag", err)
		return
	}
	spec, err := h.pcmm.LoadSpecification(c.Request.Context(), modelID)
	if err != nil {
		response.RespondServiceError(c, "load_specification_failed", err)
		return
	}
	report, err := h.progress.Report(c.Request.Context(), spec, tag)
	if err != nil {
		response.RespondServiceError(c, "progress_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"progress": report})
}

// GET /api/models/:id/aggregation?tag=
func (h *ModelHandler) GetAggregation(c *gin.Context) {
	modelID, err := uuidParam(c, "id")
	if err != nil {
		response.RespondServiceError(c, "invalid_model_id", err)
		return
	}
	tag, err := tagQuery(c)
	if err != nil {
		response.RespondServiceError(c, "invalid_tag", err)
		return
	}
	spec, err := h.pcmm.LoadSpecification(c.Request.Context(), modelID)
	if err != nil {
		response.RespondServiceError(c, "load_specification_failed", err)
		return
	}
	report, err := h.aggregation.Aggregate(c.Request.Context(), spec, tag)
	if err != nil {
		response.RespondServiceError(c, "aggregation_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"aggregation": report})
}
