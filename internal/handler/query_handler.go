package handler

import (
	"net/http"

	"github.com/blues/cts/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// QueryHandler 众筹查询处理器
type QueryHandler struct {
	crowdsaleLogic *logic.CrowdsaleLogic
	eventLogic     *logic.EventLogic
}

// NewQueryHandler 创建众筹查询处理器
func NewQueryHandler(crowdsaleLogic *logic.CrowdsaleLogic, db *gorm.DB) *QueryHandler {
	return &QueryHandler{
		crowdsaleLogic: crowdsaleLogic,
		eventLogic:     logic.NewEventLogic(db),
	}
}

// GetStatus 获取众筹状态汇总
func (h *QueryHandler) GetStatus(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "", h.crowdsaleLogic.Status())
}

// GetParticipant 获取参与者详情
func (h *QueryHandler) GetParticipant(c *gin.Context) {
	address := c.Param("address")
	if address == "" {
		ErrorResponse(c, http.StatusBadRequest, "地址不能为空")
		return
	}
	SuccessResponse(c, http.StatusOK, "", h.crowdsaleLogic.Participant(address))
}

// GetEscrow 获取托管资金汇总
func (h *QueryHandler) GetEscrow(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "", h.crowdsaleLogic.Escrow())
}

// GetTiers 获取价格档位表
func (h *QueryHandler) GetTiers(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "", h.crowdsaleLogic.Tiers())
}

// GetEvents 获取事件列表
func (h *QueryHandler) GetEvents(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	eventType := c.Query("type")
	participant := c.Query("participant")

	events, total, err := h.eventLogic.GetEvents(eventType, participant, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"events": ToEventRecordResponseList(events),
		"pagination": Pagination{
			Page:      page,
			PageSize:  pageSize,
			Total:     total,
			TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
		},
	})
}

// ExportEvents 把事件日志导出为JSON文件
func (h *QueryHandler) ExportEvents(c *gin.Context) {
	var req ExportEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	count, err := h.eventLogic.WriteEventLog(req.Path)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "事件日志已导出", gin.H{
		"path":  req.Path,
		"count": count,
	})
}

// GetOperations 获取操作日志列表
func (h *QueryHandler) GetOperations(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	kind := c.Query("kind")

	operations, total, err := h.eventLogic.GetOperations(kind, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"operations": ToOperationRecordResponseList(operations),
		"pagination": Pagination{
			Page:      page,
			PageSize:  pageSize,
			Total:     total,
			TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
		},
	})
}
