package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/draftmark/draftmark/internal/model"
	"github.com/draftmark/draftmark/internal/pkg/errcode"
	"github.com/draftmark/draftmark/internal/pkg/response"
	"github.com/draftmark/draftmark/internal/service"
)

type AnnotationHandler struct {
	annotations *service.AnnotationService
}

func NewAnnotationHandler(annotations *service.AnnotationService) *AnnotationHandler {
	return &AnnotationHandler{annotations: annotations}
}

type addHighlightRequest struct {
	Position model.Position         `json:"position"`
	Content  model.HighlightContent `json:"content"`
	Comment  model.Comment          `json:"comment"`
	Severity model.Severity         `json:"severity"`
	Category model.Category         `json:"category"`
}

type updateGeometryRequest struct {
	Position model.Position         `json:"position"`
	Content  model.HighlightContent `json:"content"`
}

type appendReplyRequest struct {
	Text     string `json:"text"`
	AuthorID string `json:"author_id"`
}

func (h *AnnotationHandler) Get(c *gin.Context) {
	set, err := h.annotations.Load(c.Request.Context(), c.Param("project_id"), c.Param("doc_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, set)
}

func (h *AnnotationHandler) AddHighlight(c *gin.Context) {
	var req addHighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	highlight, err := h.annotations.AddHighlight(c.Request.Context(), c.Param("project_id"), c.Param("doc_id"), req.Position, req.Content, req.Comment, req.Severity, req.Category)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, highlight)
}

func (h *AnnotationHandler) UpdateGeometry(c *gin.Context) {
	var req updateGeometryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	err := h.annotations.UpdateGeometry(c.Request.Context(), c.Param("project_id"), c.Param("doc_id"), c.Param("highlight_id"), req.Position, req.Content)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{})
}

func (h *AnnotationHandler) RemoveHighlight(c *gin.Context) {
	err := h.annotations.RemoveHighlight(c.Request.Context(), c.Param("project_id"), c.Param("doc_id"), c.Param("highlight_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{})
}

func (h *AnnotationHandler) AppendReply(c *gin.Context) {
	var req appendReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	reply, err := h.annotations.AppendReply(c.Request.Context(), c.Param("project_id"), c.Param("doc_id"), c.Param("highlight_id"), req.Text, req.AuthorID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, reply)
}
