package admin

import (
	"github.com/shopvd/backoffice/internal/http/response"

	"github.com/gin-gonic/gin"
)

// UploadImage 上传商品图片（multipart 字段 image）
func (h *Handler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		response.BadRequest(c, "No image file provided")
		return
	}
	result, err := h.UploadService.SaveFile(c.Request.Context(), file)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"url":      result.URL,
		"filename": result.Filename,
	})
}
