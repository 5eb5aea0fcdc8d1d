package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes 注册API路由
func (h *Handlers) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/periods", h.ListPeriods)
	rg.GET("/status", h.GetStatus)
	rg.GET("/storage", h.GetStorageStats)

	rg.POST("/uploads/preview", h.PreviewUpload)
	rg.GET("/preview/:fileId/columns", h.GetPreviewColumns)
	rg.POST("/uploads", h.SaveUpload)
	rg.GET("/uploads", h.ListUploads)
	rg.DELETE("/uploads/:id", h.DeleteUpload)
	rg.GET("/uploads/:id/columns", h.GetUploadColumns)

	rg.POST("/mappings", h.SaveMapping)
	rg.GET("/mappings", h.ListMappings)
	rg.GET("/mappings/:id/export", h.ExportMapping)

	rg.POST("/generations", h.Generate)
	rg.GET("/generations", h.ListGenerations)
	rg.GET("/generations/:id/download", h.DownloadGeneration)
}
