package admin

import (
	"fmt"
	"io"
	"net/http"

	handlershared "github.com/shopvd/backoffice/internal/http/handlers/shared"
	"github.com/shopvd/backoffice/internal/http/response"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GetExportHistory 导出记录
func (h *Handler) GetExportHistory(c *gin.Context) {
	exports, err := h.ExportService.History()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"exports": exports})
}

// DownloadExport 以附件形式返回导出文件
func (h *Handler) DownloadExport(c *gin.Context) {
	download, err := h.ExportService.Download(c.Request.Context(), handlershared.QueryUint(c, "id"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer download.Body.Close()

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.FileName))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, download.Body); err != nil {
		requestLog(c).Warnw("export_download_stream_failed", "file_name", download.FileName, "error", err)
	}
}

type saveExportRequest struct {
	OrderIDs []handlershared.FlexString `json:"orderIds"`
}

// SaveExport 生成 XLSX 并上传
func (h *Handler) SaveExport(c *gin.Context) {
	var req saveExportRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.ExportService.Save(c.Request.Context(), handlershared.FlexStrings(req.OrderIDs))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"exportId":   result.ExportID,
		"fileName":   result.FileName,
		"orderCount": result.OrderCount,
	})
}

type exportIDRequest struct {
	ExportID handlershared.FlexString `json:"exportId"`
}

// MarkExportDownloaded 标记已下载，并将其中的新订单推进到已发货
func (h *Handler) MarkExportDownloaded(c *gin.Context) {
	var req exportIDRequest
	if !bindJSON(c, &req) {
		return
	}
	updated, err := h.ExportService.MarkDownloaded(c.Request.Context(), req.ExportID.Uint())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"updatedCount": updated})
}

// DeleteExport 删除导出文件与记录
func (h *Handler) DeleteExport(c *gin.Context) {
	var req exportIDRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.ExportService.Delete(c.Request.Context(), req.ExportID.Uint()); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMsg(c, "Export deleted successfully", nil)
}
