package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/draftmark/draftmark/internal/pkg/errcode"
	appErr "github.com/draftmark/draftmark/internal/pkg/errors"
	"github.com/draftmark/draftmark/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	switch {
	case errors.Is(err, appErr.ErrDocumentNotFound) || errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrPayloadTooLarge):
		response.Error(c, errcode.ErrPayloadTooLarge, "payload too large")
	case errors.Is(err, appErr.ErrUploadIncomplete):
		response.Error(c, errcode.ErrUploadIncomplete, "upload incomplete")
	case errors.Is(err, appErr.ErrMissingChunk):
		response.Error(c, errcode.ErrMissingChunk, "missing chunk")
	case errors.Is(err, appErr.ErrCorruptChunkSequence):
		response.Error(c, errcode.ErrCorruptChunk, "corrupt chunk sequence")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
