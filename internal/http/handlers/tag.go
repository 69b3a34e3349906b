package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/pcmm-backend/internal/http/response"
	pkgerrors "github.com/yungbote/pcmm-backend/internal/pkg/errors"
	"github.com/yungbote/pcmm-backend/internal/platform/ctxutil"
	"github.com/yungbote/pcmm-backend/internal/services"
)

type TagHandler struct {
	tags   services.TagService
	report services.ReportConfigService
	// repair age used when the request names none
	repairAge time.Duration
}

func NewTagHandler(tags services.TagService, report services.ReportConfigService, repairAge time.Duration) *TagHandler {
	return &TagHandler{tags: tags, report: report, repairAge: repairAge}
}

// GET /api/tags
func (h *TagHandler) ListTags(c *gin.Context) {
	tags, err := h.tags.ListTags(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, "list_tags_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"tags": tags})
}

// GET /api/tags/:id
func (h *TagHandler) GetTag(c *gin.Context) {
	tagID, err := uuidParam(c, "id")
	if err != nil {
		response.RespondServiceError(c, "invalid_tag_id", err)
		return
	}
	tag, err := h.tags.GetTag(c.Request.Context(), tagID)
	if err != nil {
		response.RespondServiceError(c, "get_tag_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"tag": tag})
}

// POST /api/tags
func (h *TagHandler) CreateTag(c *gin.Context) {
	var in services.CreateTagInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondServiceError(c, "invalid_body", pkgerrors.Validation("body", err.Error()))
		return
	}
	if strings.TrimSpace(in.User) == "" {
		if id := ctxutil.GetIdentity(c.Request.Context()); id != nil {
			in.User = id.User
		}
	}
	tag, err := h.tags.CreateTag(c.Request.Context(), in)
	if err != nil {
		response.RespondServiceError(c, "create_tag_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"tag": tag})
}

type updateTagRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PATCH /api/tags/:id
func (h *TagHandler) UpdateTag(c *gin.Context) {
	tagID, err := uuidParam(c, "id")
	if err != nil {
		response.RespondServiceError(c, "invalid_tag_id", err)
		return
	}
	var req updateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondServiceError(c, "invalid_body", pkgerrors.Validation("body", err.Error()))
		return
	}
	tag, err := h.tags.UpdateTag(c.Request.Context(), tagID, req.Name, req.Description)
	if err != nil {
		response.RespondServiceError(c, "update_tag_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"tag": tag})
}

// DELETE /api/tags/:id
func (h *TagHandler) DeleteTag(c *gin.Context) {
	tagID, err := uuidParam(c, "id")
	if err != nil {
		response.RespondServiceError(c, "invalid_tag_id", err)
		return
	}
	if err := h.tags.DeleteTag(c.Request.Context(), tagID); err != nil {
		response.RespondServiceError(c, "delete_tag_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": tagID})
}

// GET /api/tags/:id/runs
func (h *TagHandler) ListRuns(c *gin.Context) {
	tagID, err := uuidParam(c, "id")
	if err != nil {
		response.RespondServiceError(c, "invalid_tag_id", err)
		return
	}
	runs, err := h.tags.ListRuns(c.Request.Context(), tagID)
	if err != nil {
		response.RespondServiceError(c, "list_runs_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"runs": runs})
}

// POST /api/tags/repair?older_than=10m
func (h *TagHandler) Repair(c *gin.Context) {
	olderThan := h.repairAge
	if raw := strings.TrimSpace(c.Query("older_than")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			response.RespondServiceError(c, "invalid_older_than", pkgerrors.Validation("older_than", "not a duration"))
			return
		}
		olderThan = d
	}
	res, err := h.tags.Repair(c.Request.Context(), olderThan)
	if err != nil {
		response.RespondServiceError(c, "repair_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"repair": res})
}

// GET /api/report/tag
func (h *TagHandler) GetSelectedTag(c *gin.Context) {
	tagID, err := h.report.GetSelectedTag(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, "get_selected_tag_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"tag_id": tagID})
}

type selectTagRequest struct {
	TagID *uuid.UUID `json:"tag_id"`
}

// PUT /api/report/tag
func (h *TagHandler) SelectTag(c *gin.Context) {
	var req selectTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondServiceError(c, "invalid_body", pkgerrors.Validation("body", err.Error()))
		return
	}
	if err := h.report.SelectTag(c.Request.Context(), req.TagID); err != nil {
		response.RespondServiceError(c, "select_tag_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"tag_id": req.TagID})
}
