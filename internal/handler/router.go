package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Documents   *DocumentHandler
	Annotations *AnnotationHandler
	Suggestions *SuggestHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/projects/:project_id/documents", deps.Documents.Upload)
	api.GET("/projects/:project_id/documents", deps.Documents.List)
	api.GET("/projects/:project_id/documents/:doc_id", deps.Documents.Download)
	api.DELETE("/projects/:project_id/documents/:doc_id", deps.Documents.Delete)

	api.GET("/projects/:project_id/documents/:doc_id/annotations", deps.Annotations.Get)
	api.POST("/projects/:project_id/documents/:doc_id/annotations/highlights", deps.Annotations.AddHighlight)
	api.PUT("/projects/:project_id/documents/:doc_id/annotations/highlights/:highlight_id", deps.Annotations.UpdateGeometry)
	api.DELETE("/projects/:project_id/documents/:doc_id/annotations/highlights/:highlight_id", deps.Annotations.RemoveHighlight)
	api.POST("/projects/:project_id/documents/:doc_id/annotations/highlights/:highlight_id/replies", deps.Annotations.AppendReply)

	api.POST("/suggestions/comment", deps.Suggestions.Comment)
	api.POST("/suggestions/ask", deps.Suggestions.Ask)
	api.POST("/suggestions/next-focus", deps.Suggestions.NextFocus)
}
