package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/draftmark/draftmark/internal/pkg/errcode"
	"github.com/draftmark/draftmark/internal/pkg/response"
	"github.com/draftmark/draftmark/internal/service"
)

type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	projectID := c.Param("project_id")
	ownerID := c.PostForm("owner_id")
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "read file failed")
		return
	}
	var cover []byte
	if coverFile, _, err := c.Request.FormFile("cover"); err == nil {
		cover, err = io.ReadAll(coverFile)
		coverFile.Close()
		if err != nil {
			response.Error(c, errcode.ErrInvalid, "read cover failed")
			return
		}
	}
	doc, err := h.documents.Upload(c.Request.Context(), projectID, ownerID, header.Filename, header.Header.Get("Content-Type"), data, cover)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) Download(c *gin.Context) {
	doc, data, err := h.documents.Download(c.Request.Context(), c.Param("project_id"), c.Param("doc_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.Name+`"`)
	c.Data(200, doc.MimeType, data)
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context(), c.Param("project_id"), c.Query("owner_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"documents": docs})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), c.Param("project_id"), c.Param("doc_id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{})
}
