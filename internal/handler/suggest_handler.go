package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/draftmark/draftmark/internal/ai"
	"github.com/draftmark/draftmark/internal/model"
	"github.com/draftmark/draftmark/internal/pkg/errcode"
	"github.com/draftmark/draftmark/internal/pkg/response"
	"github.com/draftmark/draftmark/internal/service"
)

type SuggestHandler struct {
	suggestions *service.SuggestService
}

func NewSuggestHandler(suggestions *service.SuggestService) *SuggestHandler {
	return &SuggestHandler{suggestions: suggestions}
}

type suggestCommentRequest struct {
	DocumentContext string `json:"document_context"`
	Excerpt         string `json:"excerpt"`
	PageNumber      int    `json:"page_number"`
	ProjectName     string `json:"project_name"`
}

type askExpertRequest struct {
	DocumentContext string           `json:"document_context"`
	ProjectName     string           `json:"project_name"`
	Question        string           `json:"question"`
	History         []model.ChatTurn `json:"history"`
}

func (r *suggestCommentRequest) toAI() ai.SuggestRequest {
	return ai.SuggestRequest{
		DocumentContext: r.DocumentContext,
		Excerpt:         r.Excerpt,
		PageNumber:      r.PageNumber,
		ProjectName:     r.ProjectName,
	}
}

// A null suggestion is a valid outcome, not an error; the UI simply shows
// nothing.
func (h *SuggestHandler) Comment(c *gin.Context) {
	var req suggestCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	suggestion, err := h.suggestions.SuggestComment(c.Request.Context(), req.toAI())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"suggestion": suggestion})
}

func (h *SuggestHandler) Ask(c *gin.Context) {
	var req askExpertRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Question == "" {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	answer, err := h.suggestions.AskExpert(c.Request.Context(), ai.SuggestRequest{
		DocumentContext: req.DocumentContext,
		ProjectName:     req.ProjectName,
	}, req.Question, req.History)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"answer": answer})
}

func (h *SuggestHandler) NextFocus(c *gin.Context) {
	var req suggestCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	focus, err := h.suggestions.SuggestNextFocus(c.Request.Context(), req.toAI())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"focus": focus})
}
