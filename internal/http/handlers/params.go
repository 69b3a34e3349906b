package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	pkgerrors "github.com/yungbote/pcmm-backend/internal/pkg/errors"
)

func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		return uuid.Nil, pkgerrors.Validation(name, "not a uuid")
	}
	return id, nil
}

// tagQuery reads ?tag=; absent or empty selects the active rows.
func tagQuery(c *gin.Context) (types.TagFilter, error) {
	raw := strings.TrimSpace(c.Query("tag"))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.Validation("tag", "not a uuid")
	}
	return &id, nil
}
