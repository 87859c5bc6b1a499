package admin

import (
	"strings"

	handlershared "github.com/shopvd/backoffice/internal/http/handlers/shared"
	"github.com/shopvd/backoffice/internal/http/response"

	"github.com/gin-gonic/gin"
)

type learnAddressRequest struct {
	StreetAddress string                   `json:"street_address"`
	DistrictID    handlershared.FlexString `json:"district_id"`
	WardID        handlershared.FlexString `json:"ward_id"`
	WardName      string                   `json:"ward_name"`
}

// LearnAddress 记录 街道关键词 -> 坊/社 映射
func (h *Handler) LearnAddress(c *gin.Context) {
	var req learnAddressRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.AddressService.Learn(c.Request.Context(), req.StreetAddress, req.DistrictID.String(), req.WardID.String(), req.WardName)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"keywords_saved": result.KeywordsSaved,
		"keywords":       result.Keywords,
	})
}

// SearchAddressLearning 按地址文本推荐坊/社
func (h *Handler) SearchAddressLearning(c *gin.Context) {
	address := c.Query("address")
	if strings.TrimSpace(address) == "" {
		address = strings.ReplaceAll(c.Query("keywords"), ",", " ")
	}
	match, err := h.AddressService.Search(c.Request.Context(), address, c.Query("district_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	fields := gin.H{"found": match.Found}
	if match.Found {
		fields["ward_id"] = match.WardID
		fields["ward_name"] = match.WardName
		fields["confidence"] = match.Confidence
		fields["match_type"] = match.MatchType
		if match.LastUsed > 0 {
			fields["last_used"] = match.LastUsed
		}
		if match.MatchedKeyword != "" {
			fields["matched_keyword"] = match.MatchedKeyword
		}
		if match.Score > 0 {
			fields["score"] = match.Score
		}
		if match.Similarity > 0 {
			fields["similarity"] = match.Similarity
		}
	}
	response.Success(c, fields)
}

// GetAddressLearningStats 学习库统计
func (h *Handler) GetAddressLearningStats(c *gin.Context) {
	stats, err := h.AddressService.Stats()
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"stats": stats})
}
